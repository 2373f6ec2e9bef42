// Package schema describes the columns estatekit expects in a housing
// dataset, keyed by their raw header names.
package schema

// FieldType is the expected content of a column once cleaned.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumeric
)

func (t FieldType) String() string {
	if t == FieldNumeric {
		return "numeric"
	}
	return "text"
}

// FieldSpec is one expected column.
type FieldSpec struct {
	Name       string
	Type       FieldType
	Required   bool
	AllowEmpty bool
}

// Required returns the names of the required specs in order.
func Required(specs []FieldSpec) []string {
	var names []string
	for _, s := range specs {
		if s.Required {
			names = append(names, s.Name)
		}
	}
	return names
}
