package schema

// check.go validates cleaned rows against their FieldSpecs.
//
// Header presence is checked separately by the loader. Here each cell of a
// cleaned dataset is compared with the spec of its column:
//  1. Absent cells are flagged unless the spec allows empty values
//  2. Numeric columns must hold numbers once cleaning has converted them
//
// Columns with no spec, and specs whose column is not in the dataset, are
// skipped.

import (
	"fmt"

	"github.com/JonMunkholm/estatekit/internal/cleaner"
	"github.com/JonMunkholm/estatekit/internal/dataset"
)

// DefaultViolationLimit caps how many violations a Result keeps.
const DefaultViolationLimit = 50

// Violation is one cell that does not match its spec. Row is 1-based and
// counts data rows, so row 1 is the line below the header.
type Violation struct {
	Row     int    `json:"row" yaml:"row"`
	Column  string `json:"column" yaml:"column"`
	Value   string `json:"value,omitempty" yaml:"value,omitempty"`
	Message string `json:"message" yaml:"message"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("row %d, %s: %s", v.Row, v.Column, v.Message)
}

// Result summarizes a row check. Total counts every violation found, even
// those dropped past the limit.
type Result struct {
	Rows       int         `json:"rows" yaml:"rows"`
	Total      int         `json:"total" yaml:"total"`
	Truncated  bool        `json:"truncated" yaml:"truncated"`
	Violations []Violation `json:"violations" yaml:"violations"`
}

// Valid reports whether no violations were found.
func (r *Result) Valid() bool { return r.Total == 0 }

// Checker validates cleaned datasets against a fixed set of specs.
type Checker struct {
	specs []boundSpec
	limit int
}

type boundSpec struct {
	FieldSpec
	column string
}

// NewChecker prepares specs for cleaned column names. A limit of zero or
// less uses DefaultViolationLimit.
func NewChecker(specs []FieldSpec, limit int) *Checker {
	if limit <= 0 {
		limit = DefaultViolationLimit
	}
	bound := make([]boundSpec, len(specs))
	for i, s := range specs {
		bound[i] = boundSpec{FieldSpec: s, column: cleaner.NormalizeColumnName(s.Name)}
	}
	return &Checker{specs: bound, limit: limit}
}

// Check validates every row of ds, which must already be cleaned.
func (c *Checker) Check(ds *dataset.Dataset) *Result {
	res := &Result{Rows: ds.Len(), Violations: []Violation{}}

	present := make(map[string]bool, len(ds.Columns()))
	for _, col := range ds.Columns() {
		present[col] = true
	}

	for i, row := range ds.Rows {
		for _, spec := range c.specs {
			if !present[spec.column] {
				continue
			}
			v, _ := row.Get(spec.column)
			msg := checkValue(v, spec.FieldSpec)
			if msg == "" {
				continue
			}
			res.Total++
			if len(res.Violations) >= c.limit {
				res.Truncated = true
				continue
			}
			text, _ := v.TextValue()
			res.Violations = append(res.Violations, Violation{
				Row:     i + 1,
				Column:  spec.column,
				Value:   text,
				Message: msg,
			})
		}
	}
	return res
}

// checkValue returns a description of the problem, or "" for a valid cell.
func checkValue(v dataset.Value, spec FieldSpec) string {
	switch {
	case v.IsAbsent():
		if !spec.AllowEmpty {
			return "missing value"
		}
	case spec.Type == FieldNumeric && !v.IsNumeric():
		return "expected a number"
	}
	return ""
}
