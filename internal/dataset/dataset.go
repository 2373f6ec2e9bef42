package dataset

// Dataset is an ordered sequence of rows. Row order is file order.
type Dataset struct {
	// Source names where the rows came from (file name or upload name).
	Source string
	Rows   []*Row
}

// New creates an empty dataset for source.
func New(source string) *Dataset {
	return &Dataset{Source: source}
}

// Append adds a row at the end.
func (d *Dataset) Append(r *Row) {
	d.Rows = append(d.Rows, r)
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// Empty reports whether the dataset has no rows.
func (d *Dataset) Empty() bool { return len(d.Rows) == 0 }

// Columns returns the column names of the first row, or nil when empty.
func (d *Dataset) Columns() []string {
	if d.Empty() {
		return nil
	}
	return d.Rows[0].Keys()
}

// Column returns the values of key for every row. Rows missing the key
// contribute an Absent value.
func (d *Dataset) Column(key string) []Value {
	out := make([]Value, len(d.Rows))
	for i, r := range d.Rows {
		if v, ok := r.Get(key); ok {
			out[i] = v
		}
	}
	return out
}

// Records renders the dataset as CSV records: a header from the first row
// followed by one record per row. Absent values are written as missing.
func (d *Dataset) Records(missing string) [][]string {
	cols := d.Columns()
	if cols == nil {
		return nil
	}
	records := make([][]string, 0, len(d.Rows)+1)
	records = append(records, cols)
	for _, r := range d.Rows {
		rec := make([]string, len(cols))
		for i, c := range cols {
			v, ok := r.Get(c)
			if !ok {
				rec[i] = missing
				continue
			}
			rec[i] = v.Format(missing)
		}
		records = append(records, rec)
	}
	return records
}
