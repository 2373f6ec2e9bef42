package core

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/estatekit/internal/config"
	"github.com/JonMunkholm/estatekit/internal/dataset"
	"github.com/JonMunkholm/estatekit/internal/describe"
	"github.com/JonMunkholm/estatekit/internal/loader"
)

const trainCSV = `Id,MSZoning,LotArea,YearBuilt,BedroomAbvGr,SalePrice
1,RL,8450,2003,3,208500
2,RL,9600,NA,3,181500
3,RM,11250,2001,NA,223500
4,RL,9550,1915,3,140000
`

type recordedRun struct {
	op   string
	rows int
	err  error
}

type recordingObserver struct {
	mu   sync.Mutex
	runs []recordedRun
}

func (o *recordingObserver) ObserveRun(op string, rows int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs = append(o.runs, recordedRun{op: op, rows: rows, err: err})
}

func (o *recordingObserver) last(t *testing.T) recordedRun {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.runs) == 0 {
		t.Fatal("observer saw no runs")
	}
	return o.runs[len(o.runs)-1]
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		Data:     config.DataConfig{Dir: dir, MissingToken: "NA", MaxFileSize: 1 << 20},
		Analysis: config.AnalysisConfig{MaxConcurrent: 2, MaxWaitTime: time.Second},
	}
}

func newTestService(t *testing.T, files map[string]string, opts ...Option) (*Service, *recordingObserver) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	obs := &recordingObserver{}
	opts = append([]Option{WithObserver(obs)}, opts...)
	return NewService(testConfig(dir), opts...), obs
}

func TestService_Validate(t *testing.T) {
	svc, obs := newTestService(t, map[string]string{"train.csv": trainCSV})
	ctx := context.Background()

	report, err := svc.Validate(ctx, "train.csv", nil)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !report.Valid {
		t.Errorf("Validate() Valid = false, missing %v", report.Missing)
	}
	if len(report.Required) != 5 {
		t.Errorf("default Required = %v, want the housing columns", report.Required)
	}
	if report.RunID == "" {
		t.Error("Validate() should assign a run ID")
	}

	report, err = svc.Validate(ctx, "train.csv", []string{"Id", "PoolQC", "Fence"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if report.Valid {
		t.Error("Validate() Valid = true with absent columns")
	}
	if strings.Join(report.Missing, ",") != "PoolQC,Fence" {
		t.Errorf("Missing = %v, want [PoolQC Fence]", report.Missing)
	}
	if got := obs.last(t); got.op != OpValidate || got.err != nil {
		t.Errorf("observer saw %+v", got)
	}
}

func TestService_ValidateConfiguredColumns(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lots.csv"), []byte("Id,LotArea\n1,8450\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(dir)
	cfg.Data.RequiredColumns = []string{"Id", "LotArea"}

	report, err := NewService(cfg).Validate(context.Background(), "lots.csv", nil)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !report.Valid {
		t.Errorf("Validate() missing %v", report.Missing)
	}
}

func TestService_ValidateRows(t *testing.T) {
	svc, obs := newTestService(t, map[string]string{"train.csv": trainCSV})

	report, err := svc.ValidateRows(context.Background(), "train.csv", nil)
	if err != nil {
		t.Fatalf("ValidateRows() error = %v", err)
	}
	if len(report.Missing) != 0 {
		t.Errorf("Missing = %v, want none", report.Missing)
	}
	if report.Valid {
		t.Error("Valid = true with NA in year_built and bedroom_abv_gr")
	}
	if report.Rows == nil || report.Rows.Rows != 4 || report.Rows.Total != 2 {
		t.Fatalf("Rows = %+v, want 4 rows with 2 violations", report.Rows)
	}
	first := report.Rows.Violations[0]
	if first.Row != 2 || first.Column != "year_built" || first.Message != "missing value" {
		t.Errorf("first violation = %+v", first)
	}
	if got := obs.last(t); got.op != OpValidate || got.rows != 4 {
		t.Errorf("observer saw %+v", got)
	}
}

func TestService_ValidateFileNotFound(t *testing.T) {
	svc, obs := newTestService(t, nil)

	_, err := svc.Validate(context.Background(), "missing.csv", nil)
	if !errors.Is(err, loader.ErrFileNotFound) {
		t.Errorf("Validate() error = %v, want ErrFileNotFound", err)
	}
	if got := obs.last(t); !errors.Is(got.err, loader.ErrFileNotFound) {
		t.Errorf("observer error = %v", got.err)
	}
}

func TestService_Clean(t *testing.T) {
	svc, obs := newTestService(t, map[string]string{"train.csv": trainCSV})

	res, err := svc.Clean(context.Background(), "train.csv")
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	wantCols := []string{"id", "mszoning", "lot_area", "year_built", "bedroom_abv_gr", "sale_price"}
	if got := strings.Join(res.Data.Columns(), ","); got != strings.Join(wantCols, ",") {
		t.Errorf("Columns() = %s, want %v", got, wantCols)
	}

	v, _ := res.Data.Rows[1].Get("year_built")
	if !v.IsAbsent() {
		t.Errorf("year_built row 2 = %v, want absent", v)
	}
	v, _ = res.Data.Rows[0].Get("sale_price")
	if n, ok := v.Int64(); !ok || n != 208500 {
		t.Errorf("sale_price row 1 = %v, want integer 208500", v)
	}

	if got := obs.last(t); got.op != OpClean || got.rows != 4 {
		t.Errorf("observer saw %+v", got)
	}
}

func TestService_Describe(t *testing.T) {
	svc, obs := newTestService(t, map[string]string{"train.csv": trainCSV})

	// Raw header names are normalized before lookup.
	a, err := svc.Describe(context.Background(), "train.csv", dataset.SpecificColumns("SalePrice", "year_built", "MSZoning"), 50)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if a.RunID == "" {
		t.Error("Describe() should assign a run ID")
	}
	if a.Summary.Rows != 4 || len(a.Summary.Columns) != 3 {
		t.Fatalf("Summary = %+v", a.Summary)
	}

	price := a.Summary.Columns[0]
	if price.Name != "sale_price" || price.Kind != describe.KindNumeric {
		t.Errorf("first column = %+v", price)
	}
	if price.Numeric == nil || price.Numeric.Mean != 188375 {
		t.Errorf("sale_price stats = %+v, want mean 188375", price.Numeric)
	}

	built := a.Summary.Columns[1]
	if built.NoneRatio != 0.25 {
		t.Errorf("year_built none ratio = %v, want 0.25", built.NoneRatio)
	}

	zoning := a.Summary.Columns[2]
	if zoning.Kind != describe.KindCategorical || zoning.Mode != "RL" {
		t.Errorf("mszoning = %+v, want categorical mode RL", zoning)
	}

	if got := obs.last(t); got.op != OpDescribe || got.rows != 4 || got.err != nil {
		t.Errorf("observer saw %+v", got)
	}
}

func TestService_DescribeErrors(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{
		"train.csv":  trainCSV,
		"header.csv": "Id,SalePrice\n",
	})
	ctx := context.Background()

	tests := []struct {
		name string
		file string
		sel  dataset.ColumnSelector
		p    int
		want error
	}{
		{"missing file", "nope.csv", dataset.AllColumns(), 50, loader.ErrFileNotFound},
		{"header only", "header.csv", dataset.AllColumns(), 50, describe.ErrEmptyDataset},
		{"unknown column", "train.csv", dataset.SpecificColumns("PoolQC"), 50, describe.ErrUnknownColumn},
		{"bad percentile", "train.csv", dataset.AllColumns(), 0, describe.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Describe(ctx, tt.file, tt.sel, tt.p)
			if !errors.Is(err, tt.want) {
				t.Errorf("Describe() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestService_DescribeReader(t *testing.T) {
	svc, _ := newTestService(t, nil)

	a, err := svc.DescribeReader(context.Background(), strings.NewReader(trainCSV), "upload.csv", dataset.AllColumns(), 90)
	if err != nil {
		t.Fatalf("DescribeReader() error = %v", err)
	}
	if a.Summary.Source != "upload.csv" || len(a.Summary.Columns) != 6 {
		t.Errorf("Summary = %+v", a.Summary)
	}
}

func TestService_DescribeReaderTooLarge(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Data.MaxFileSize = 32

	_, err := NewService(cfg).DescribeReader(context.Background(), strings.NewReader(trainCSV), "upload.csv", dataset.AllColumns(), 90)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("DescribeReader() error = %v, want ErrFileTooLarge", err)
	}
	if got := MapError(err).Code; got != "FILE003" {
		t.Errorf("MapError code = %s, want FILE003", got)
	}
}

func TestService_DescribeBusy(t *testing.T) {
	limiter := NewAnalysisLimiter(1, 20*time.Millisecond)
	svc, _ := newTestService(t, map[string]string{"train.csv": trainCSV}, WithLimiter(limiter))

	if !limiter.TryAcquire() {
		t.Fatal("TryAcquire failed")
	}
	defer limiter.Release()

	_, err := svc.Describe(context.Background(), "train.csv", dataset.AllColumns(), 50)
	if !errors.Is(err, ErrTooManyAnalyses) {
		t.Errorf("Describe() error = %v, want ErrTooManyAnalyses", err)
	}
	if got := svc.LimiterStatus(); got.Active != 1 || got.MaxConcurrent != 1 {
		t.Errorf("LimiterStatus() = %+v", got)
	}
}

func TestSizeLimitedReader(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int64
		wantErr error
	}{
		{"under limit", "abc", 10, nil},
		{"exact fit", "abcd", 4, nil},
		{"over limit", "abcde", 4, ErrFileTooLarge},
		{"no limit", strings.Repeat("x", 100), 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newSizeLimitedReader(strings.NewReader(tt.input), tt.limit))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ReadAll() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && string(got) != tt.input {
				t.Errorf("ReadAll() = %q, want %q", got, tt.input)
			}
		})
	}
}
