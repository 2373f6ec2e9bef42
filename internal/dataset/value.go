// Package dataset defines the in-memory model shared by the loader, cleaner
// and descriptor: typed cell values, ordered rows and datasets.
package dataset

import (
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindAbsent Kind = iota
	KindText
	KindInteger
	KindFloat
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Value is a single cell. The zero Value is Absent.
type Value struct {
	kind Kind
	text string
	i    int64
	f    float64
}

// Absent returns the absence marker.
func Absent() Value { return Value{} }

// Text wraps a raw string.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Integer wraps an int64.
func Integer(i int64) Value { return Value{kind: KindInteger, i: i} }

// Float wraps a float64.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is the absence marker.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsNumeric reports whether v is an Integer or a Float.
func (v Value) IsNumeric() bool { return v.kind == KindInteger || v.kind == KindFloat }

// TextValue returns the string held by a Text value.
func (v Value) TextValue() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// Float64 returns the numeric value of an Integer or Float.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindInteger:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Int64 returns the integer held by an Integer value.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.i, true
}

// Format renders v as CSV cell text, writing missing for Absent.
func (v Value) Format(missing string) string {
	switch v.kind {
	case KindText:
		return v.text
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	default:
		return missing
	}
}

// String renders v for display. Absent renders as an empty string.
func (v Value) String() string {
	return v.Format("")
}

// Any returns the Go value held by v: nil, string, int64 or float64.
// Used by encoders that need a plain interface value.
func (v Value) Any() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	default:
		return nil
	}
}

// Equal reports whether two values are the same. Numeric values compare by
// magnitude, so Integer(1) equals Float(1.0).
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		a, _ := v.Float64()
		b, _ := o.Float64()
		return a == b
	}
	if v.kind != o.kind {
		return false
	}
	return v.text == o.text
}
