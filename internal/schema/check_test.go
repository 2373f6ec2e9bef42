package schema

import (
	"testing"

	"github.com/JonMunkholm/estatekit/internal/dataset"
)

func row(vals map[string]dataset.Value, order ...string) *dataset.Row {
	r := dataset.NewRow(len(order))
	for _, k := range order {
		r.Set(k, vals[k])
	}
	return r
}

func buildDataset(rows ...map[string]dataset.Value) *dataset.Dataset {
	ds := dataset.New("test.csv")
	for _, vals := range rows {
		ds.Append(row(vals, "id", "lot_frontage", "sale_price", "notes"))
	}
	return ds
}

var checkSpecs = []FieldSpec{
	{Name: "Id", Type: FieldNumeric, Required: true},
	{Name: "LotFrontage", Type: FieldNumeric, AllowEmpty: true},
	{Name: "SalePrice", Type: FieldNumeric, Required: true},
	{Name: "PoolQC", Type: FieldText, AllowEmpty: true},
}

func TestChecker_Valid(t *testing.T) {
	ds := buildDataset(
		map[string]dataset.Value{"id": dataset.Integer(1), "lot_frontage": dataset.Absent(), "sale_price": dataset.Integer(208500), "notes": dataset.Text("x")},
		map[string]dataset.Value{"id": dataset.Integer(2), "lot_frontage": dataset.Float(65.5), "sale_price": dataset.Float(181500.5), "notes": dataset.Absent()},
	)

	res := NewChecker(checkSpecs, 0).Check(ds)
	if !res.Valid() {
		t.Errorf("Check() violations = %v, want none", res.Violations)
	}
	if res.Rows != 2 {
		t.Errorf("Rows = %d, want 2", res.Rows)
	}
}

func TestChecker_Violations(t *testing.T) {
	ds := buildDataset(
		map[string]dataset.Value{"id": dataset.Integer(1), "lot_frontage": dataset.Text("wide"), "sale_price": dataset.Absent(), "notes": dataset.Absent()},
		map[string]dataset.Value{"id": dataset.Text("two"), "lot_frontage": dataset.Integer(60), "sale_price": dataset.Integer(1), "notes": dataset.Absent()},
	)

	res := NewChecker(checkSpecs, 0).Check(ds)
	want := []Violation{
		{Row: 1, Column: "lot_frontage", Value: "wide", Message: "expected a number"},
		{Row: 1, Column: "sale_price", Message: "missing value"},
		{Row: 2, Column: "id", Value: "two", Message: "expected a number"},
	}
	if res.Total != len(want) || len(res.Violations) != len(want) {
		t.Fatalf("Check() = %+v, want %d violations", res, len(want))
	}
	for i := range want {
		if res.Violations[i] != want[i] {
			t.Errorf("Violations[%d] = %+v, want %+v", i, res.Violations[i], want[i])
		}
	}
	if res.Truncated {
		t.Error("Truncated = true under the limit")
	}
	if got := res.Violations[1].Error(); got != "row 1, sale_price: missing value" {
		t.Errorf("Error() = %q", got)
	}
}

func TestChecker_Limit(t *testing.T) {
	var rows []map[string]dataset.Value
	for i := 0; i < 5; i++ {
		rows = append(rows, map[string]dataset.Value{"id": dataset.Absent(), "lot_frontage": dataset.Absent(), "sale_price": dataset.Integer(1), "notes": dataset.Absent()})
	}

	res := NewChecker(checkSpecs, 2).Check(buildDataset(rows...))
	if res.Total != 5 {
		t.Errorf("Total = %d, want 5", res.Total)
	}
	if len(res.Violations) != 2 || !res.Truncated {
		t.Errorf("Violations = %d, Truncated = %v; want 2, true", len(res.Violations), res.Truncated)
	}
}

func TestChecker_SkipsAbsentColumns(t *testing.T) {
	ds := dataset.New("lots.csv")
	r := dataset.NewRow(1)
	r.Set("pool_qc", dataset.Integer(3))
	ds.Append(r)

	// pool_qc is text-typed, so a number is fine; the other specs have no column.
	res := NewChecker(checkSpecs, 0).Check(ds)
	if !res.Valid() {
		t.Errorf("Check() = %+v, want valid", res)
	}
}

func TestChecker_HousingSpecs(t *testing.T) {
	checker := NewChecker(HousingFieldSpecs, 0)
	ds := dataset.New("train.csv")
	r := dataset.NewRow(3)
	r.Set("id", dataset.Integer(1))
	r.Set("1st_flr_sf", dataset.Integer(856))
	r.Set("year_built", dataset.Absent())
	ds.Append(r)

	res := checker.Check(ds)
	if res.Total != 1 || res.Violations[0].Column != "year_built" {
		t.Errorf("Check() = %+v, want one year_built violation", res)
	}
}
