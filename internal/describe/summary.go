package describe

import (
	"errors"

	"github.com/JonMunkholm/estatekit/internal/dataset"
)

// KindEmpty marks a column with no non-absent values in a Summary.
const KindEmpty = "empty"

// Summary collects every statistic for a set of columns in one pass.
type Summary struct {
	Source     string          `json:"source" yaml:"source"`
	Rows       int             `json:"rows" yaml:"rows"`
	Percentile int             `json:"percentile" yaml:"percentile"`
	Columns    []ColumnSummary `json:"columns" yaml:"columns"`
}

// ColumnSummary describes one column. Numeric is set only for numeric
// columns with at least one value.
type ColumnSummary struct {
	Name      string          `json:"name" yaml:"name"`
	Kind      string          `json:"kind" yaml:"kind"`
	Count     int             `json:"count" yaml:"count"`
	Absent    int             `json:"absent" yaml:"absent"`
	NoneRatio float64         `json:"none_ratio" yaml:"none_ratio"`
	Mode      any             `json:"mode" yaml:"mode"`
	Numeric   *NumericSummary `json:"numeric,omitempty" yaml:"numeric,omitempty"`
}

// NumericSummary holds the numeric statistics of a column.
type NumericSummary struct {
	Min        float64 `json:"min" yaml:"min"`
	Max        float64 `json:"max" yaml:"max"`
	Mean       float64 `json:"mean" yaml:"mean"`
	Median     float64 `json:"median" yaml:"median"`
	Percentile float64 `json:"percentile" yaml:"percentile"`
}

// Summarize describes every selected column. Unlike the individual
// statistics it does not fail on categorical or empty columns; they are
// reported with their kind and without numeric statistics.
func (d *Descriptor) Summarize(sel dataset.ColumnSelector, p int) (*Summary, error) {
	if err := checkPercentile(p); err != nil {
		return nil, err
	}
	cols, err := d.resolve(sel, false)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Source:     d.data.Source,
		Rows:       d.data.Len(),
		Percentile: p,
		Columns:    make([]ColumnSummary, 0, len(cols)),
	}
	for _, col := range cols {
		cs, err := d.summarizeColumn(col, p)
		if err != nil {
			return nil, err
		}
		s.Columns = append(s.Columns, cs)
	}
	return s, nil
}

func (d *Descriptor) summarizeColumn(col string, p int) (ColumnSummary, error) {
	column := d.data.Column(col)
	cs := ColumnSummary{Name: col}
	for _, v := range column {
		if v.IsAbsent() {
			cs.Absent++
		}
	}
	cs.Count = len(column) - cs.Absent
	cs.NoneRatio = float64(cs.Absent) / float64(len(column))

	tm, err := typeAndMode(col, column)
	if errors.Is(err, ErrEmptyColumn) {
		cs.Kind = KindEmpty
		return cs, nil
	}
	if err != nil {
		return cs, err
	}
	cs.Kind = tm.Kind
	cs.Mode = tm.Mode.Any()

	if tm.Kind != KindNumeric {
		return cs, nil
	}
	values, err := numericValues(col, column)
	if err != nil {
		return cs, err
	}
	sorted := sortedCopy(values)
	lo, hi := minMax(sorted)
	cs.Numeric = &NumericSummary{
		Min:        lo,
		Max:        hi,
		Mean:       mean(values),
		Median:     median(sorted),
		Percentile: percentile(sorted, p),
	}
	return cs, nil
}
