// Package cleaner normalizes a loaded dataset in place: column names are
// rewritten to snake_case, the missing-value token becomes an explicit
// Absent value, and numeric text is typed.
//
// A Cleaner takes ownership of the dataset it is given. Every method
// mutates that dataset; none of them copy it.
package cleaner

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/JonMunkholm/estatekit/internal/dataset"
)

// DefaultMissingToken marks a missing value in source files.
const DefaultMissingToken = "NA"

var (
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	nonSnake      = regexp.MustCompile(`[^a-z0-9_]`)
	separatorRun  = regexp.MustCompile(`_+`)
)

// Cleaner rewrites a dataset in place.
type Cleaner struct {
	data    *dataset.Dataset
	missing string
}

// New creates a Cleaner for ds using the "NA" missing token.
func New(ds *dataset.Dataset) *Cleaner {
	return NewWithToken(ds, DefaultMissingToken)
}

// NewWithToken creates a Cleaner that treats token as the missing marker.
func NewWithToken(ds *dataset.Dataset, token string) *Cleaner {
	if token == "" {
		token = DefaultMissingToken
	}
	return &Cleaner{data: ds, missing: token}
}

// NormalizeColumnName converts a header to lowercase snake_case:
// "LotArea" → "lot_area", "1stFlrSF" → "1st_flr_sf", "Id2" → "id2".
// The result is a fixed point: normalizing it again returns it unchanged.
func NormalizeColumnName(name string) string {
	s := camelBoundary.ReplaceAllString(name, "${1}_${2}")
	s = strings.ToLower(s)
	s = nonSnake.ReplaceAllString(s, "_")
	s = separatorRun.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// RenameColumns rebuilds every row with normalized column names. Each row
// is renamed from its own keys. When two keys normalize to the same name
// the later value wins.
func (c *Cleaner) RenameColumns() {
	for _, row := range c.data.Rows {
		type cell struct {
			key string
			val dataset.Value
		}
		cells := make([]cell, 0, row.Len())
		row.Each(func(k string, v dataset.Value) {
			cells = append(cells, cell{NormalizeColumnName(k), v})
		})

		row.Clear()
		for _, cl := range cells {
			row.Set(cl.key, cl.val)
		}
	}
}

// MarkAbsent replaces every text value equal to the missing token with
// the Absent marker and returns the same dataset.
func (c *Cleaner) MarkAbsent() *dataset.Dataset {
	marked := 0
	for _, row := range c.data.Rows {
		row.Update(func(_ string, v dataset.Value) dataset.Value {
			if s, ok := v.TextValue(); ok && s == c.missing {
				marked++
				return dataset.Absent()
			}
			return v
		})
	}
	slog.Debug("missing values marked", "component", "cleaner", "token", c.missing, "count", marked)
	return c.data
}

// ConvertNumeric types every text value that parses as a number and
// returns the same dataset.
func (c *Cleaner) ConvertNumeric() *dataset.Dataset {
	converted := 0
	for _, row := range c.data.Rows {
		row.Update(func(_ string, v dataset.Value) dataset.Value {
			s, ok := v.TextValue()
			if !ok {
				return v
			}
			if n, ok := ParseNumber(s); ok {
				converted++
				return n
			}
			return v
		})
	}
	slog.Debug("numeric values typed", "component", "cleaner", "count", converted)
	return c.data
}

// Clean runs RenameColumns, MarkAbsent and ConvertNumeric in order.
func (c *Cleaner) Clean() *dataset.Dataset {
	c.RenameColumns()
	c.MarkAbsent()
	return c.ConvertNumeric()
}
