package dataset

// Row maps column names to values and remembers key insertion order.
type Row struct {
	keys   []string
	values map[string]Value
}

// NewRow creates an empty row with room for n columns.
func NewRow(n int) *Row {
	return &Row{
		keys:   make([]string, 0, n),
		values: make(map[string]Value, n),
	}
}

// Set stores v under key. A new key is appended to the key order;
// an existing key keeps its position.
func (r *Row) Set(key string, v Value) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value stored under key.
func (r *Row) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether the row contains key.
func (r *Row) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns a copy of the column names in insertion order.
func (r *Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of columns in the row.
func (r *Row) Len() int { return len(r.keys) }

// Clear removes every column.
func (r *Row) Clear() {
	r.keys = r.keys[:0]
	clear(r.values)
}

// Each calls fn for each column in key order.
func (r *Row) Each(fn func(key string, v Value)) {
	for _, k := range r.keys {
		fn(k, r.values[k])
	}
}

// Update replaces every value with fn(key, value), preserving key order.
func (r *Row) Update(fn func(key string, v Value) Value) {
	for _, k := range r.keys {
		r.values[k] = fn(k, r.values[k])
	}
}
