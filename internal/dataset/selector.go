package dataset

import "strings"

// ColumnSelector picks the columns a statistic runs over: either every
// column (with an operation-specific default subset) or an explicit list.
type ColumnSelector struct {
	all   bool
	names []string
}

// AllColumns selects the operation's default column set.
func AllColumns() ColumnSelector {
	return ColumnSelector{all: true}
}

// SpecificColumns selects exactly the named columns, in the given order.
func SpecificColumns(names ...string) ColumnSelector {
	cp := make([]string, len(names))
	copy(cp, names)
	return ColumnSelector{names: cp}
}

// ParseColumns builds a selector from a comma-separated list.
// An empty list or the literal "all" selects all columns.
func ParseColumns(s string) ColumnSelector {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return AllColumns()
	}
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			names = append(names, p)
		}
	}
	if len(names) == 0 {
		return AllColumns()
	}
	return ColumnSelector{names: names}
}

// IsAll reports whether the selector is the all-columns variant.
func (s ColumnSelector) IsAll() bool { return s.all }

// Names returns the explicit column names. Nil for AllColumns.
func (s ColumnSelector) Names() []string {
	if s.all {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Map returns a selector with fn applied to every explicit name.
// AllColumns is returned unchanged.
func (s ColumnSelector) Map(fn func(string) string) ColumnSelector {
	if s.all {
		return s
	}
	names := make([]string, len(s.names))
	for i, n := range s.names {
		names[i] = fn(n)
	}
	return ColumnSelector{names: names}
}

// String renders the selector for logs.
func (s ColumnSelector) String() string {
	if s.all {
		return "all"
	}
	return strings.Join(s.names, ",")
}
