// Package describe computes per-column descriptive statistics over a
// cleaned dataset: missing-value ratio, mean, median, percentiles, and the
// column kind with its mode.
//
// The first row defines the schema. Requested columns are checked against
// its keys, and when every column is selected the numeric statistics only
// consider columns whose first-row value is numeric.
//
// A Descriptor never mutates the dataset it reads.
package describe

import (
	"fmt"

	"github.com/JonMunkholm/estatekit/internal/dataset"
)

// Column kinds reported by TypeAndMode.
const (
	KindNumeric     = "numeric"
	KindCategorical = "categorical"
)

// TypeMode is the inferred kind of a column and its most frequent value.
type TypeMode struct {
	Kind string
	Mode dataset.Value
}

// Descriptor computes statistics over a read-only dataset.
type Descriptor struct {
	data *dataset.Dataset
}

// New creates a Descriptor. The dataset must have at least one row.
func New(ds *dataset.Dataset) (*Descriptor, error) {
	if ds == nil || ds.Empty() {
		return nil, ErrEmptyDataset
	}
	return &Descriptor{data: ds}, nil
}

// NoneRatio returns, per column, the fraction of all rows whose value is
// absent. The denominator is the full row count.
func (d *Descriptor) NoneRatio(sel dataset.ColumnSelector) (map[string]float64, error) {
	cols, err := d.resolve(sel, false)
	if err != nil {
		return nil, err
	}

	total := float64(d.data.Len())
	out := make(map[string]float64, len(cols))
	for _, col := range cols {
		absent := 0
		for _, v := range d.data.Column(col) {
			if v.IsAbsent() {
				absent++
			}
		}
		out[col] = float64(absent) / total
	}
	return out, nil
}

// Average returns the mean of the non-absent values of each column.
func (d *Descriptor) Average(sel dataset.ColumnSelector) (map[string]float64, error) {
	return d.numeric(sel, func(values []float64) float64 {
		return mean(values)
	})
}

// Median returns the median of the non-absent values of each column.
func (d *Descriptor) Median(sel dataset.ColumnSelector) (map[string]float64, error) {
	return d.numeric(sel, func(values []float64) float64 {
		return median(sortedCopy(values))
	})
}

// Percentile returns the p-th percentile, p in [1,100], of the non-absent
// values of each column.
func (d *Descriptor) Percentile(sel dataset.ColumnSelector, p int) (map[string]float64, error) {
	if err := checkPercentile(p); err != nil {
		return nil, err
	}
	return d.numeric(sel, func(values []float64) float64 {
		return percentile(sortedCopy(values), p)
	})
}

// TypeAndMode returns, per column, whether every non-absent value is
// numeric and which non-absent value occurs most often. Ties go to the
// value seen first in row order.
func (d *Descriptor) TypeAndMode(sel dataset.ColumnSelector) (map[string]TypeMode, error) {
	cols, err := d.resolve(sel, false)
	if err != nil {
		return nil, err
	}

	out := make(map[string]TypeMode, len(cols))
	for _, col := range cols {
		tm, err := typeAndMode(col, d.data.Column(col))
		if err != nil {
			return nil, err
		}
		out[col] = tm
	}
	return out, nil
}

// Columns returns the columns sel resolves to, in schema order for
// AllColumns and in request order otherwise. numericOnly applies the
// default subset used by the numeric statistics.
func (d *Descriptor) Columns(sel dataset.ColumnSelector, numericOnly bool) ([]string, error) {
	return d.resolve(sel, numericOnly)
}

func (d *Descriptor) resolve(sel dataset.ColumnSelector, numericOnly bool) ([]string, error) {
	first := d.data.Rows[0]

	if sel.IsAll() {
		if !numericOnly {
			return first.Keys(), nil
		}
		var cols []string
		first.Each(func(k string, v dataset.Value) {
			if v.IsNumeric() {
				cols = append(cols, k)
			}
		})
		return cols, nil
	}

	cols := sel.Names()
	for _, col := range cols {
		if !first.Has(col) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
	}
	return cols, nil
}

// numeric resolves numeric columns, validates every value and applies fn
// to the non-absent values of each column.
func (d *Descriptor) numeric(sel dataset.ColumnSelector, fn func([]float64) float64) (map[string]float64, error) {
	cols, err := d.resolve(sel, true)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(cols))
	for _, col := range cols {
		values, err := numericValues(col, d.data.Column(col))
		if err != nil {
			return nil, err
		}
		out[col] = fn(values)
	}
	return out, nil
}

// numericValues returns the non-absent values of a column as float64.
// Every non-absent value is checked before any is used.
func numericValues(col string, column []dataset.Value) ([]float64, error) {
	values := make([]float64, 0, len(column))
	for i, v := range column {
		if v.IsAbsent() {
			continue
		}
		f, ok := v.Float64()
		if !ok {
			return nil, fmt.Errorf("%w: %q has %s value %q in row %d",
				ErrNonNumericColumn, col, v.Kind(), v.String(), i)
		}
		values = append(values, f)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %q has no values", ErrEmptyColumn, col)
	}
	return values, nil
}

func typeAndMode(col string, column []dataset.Value) (TypeMode, error) {
	type tally struct {
		value dataset.Value
		count int
	}
	var (
		counts  []tally
		index   = make(map[modeKey]int)
		numeric = true
	)

	for _, v := range column {
		if v.IsAbsent() {
			continue
		}
		if !v.IsNumeric() {
			numeric = false
		}
		k := keyOf(v)
		if i, ok := index[k]; ok {
			counts[i].count++
			continue
		}
		index[k] = len(counts)
		counts = append(counts, tally{value: v, count: 1})
	}

	if len(counts) == 0 {
		return TypeMode{}, fmt.Errorf("%w: %q has no values", ErrEmptyColumn, col)
	}

	// counts is in first-seen order, so a strict comparison keeps the
	// earliest value on ties.
	best := counts[0]
	for _, t := range counts[1:] {
		if t.count > best.count {
			best = t
		}
	}

	kind := KindCategorical
	if numeric {
		kind = KindNumeric
	}
	return TypeMode{Kind: kind, Mode: best.value}, nil
}

// modeKey groups values the way Value.Equal does: numbers by magnitude,
// text by content.
type modeKey struct {
	numeric bool
	num     float64
	text    string
}

func keyOf(v dataset.Value) modeKey {
	if f, ok := v.Float64(); ok {
		return modeKey{numeric: true, num: f}
	}
	s, _ := v.TextValue()
	return modeKey{text: s}
}

func checkPercentile(p int) error {
	if p < 1 || p > 100 {
		return fmt.Errorf("%w: percentile %d outside [1,100]", ErrInvalidArgument, p)
	}
	return nil
}
