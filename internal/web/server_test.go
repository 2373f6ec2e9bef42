package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/estatekit/internal/config"
	"github.com/JonMunkholm/estatekit/internal/core"
	"github.com/JonMunkholm/estatekit/internal/describe"
)

const trainCSV = `Id,MSZoning,LotArea,YearBuilt,BedroomAbvGr,SalePrice
1,RL,8450,2003,3,208500
2,RL,9600,NA,3,181500
3,RM,11250,2001,NA,223500
4,RL,9550,1915,3,140000
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train.csv"), []byte(trainCSV), 0o644))
	return &config.Config{
		Data:     config.DataConfig{Dir: dir, MissingToken: "NA", MaxFileSize: 1 << 20},
		Report:   config.ReportConfig{Format: "table", Percentile: 90},
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 0, RequestTimeout: 5 * time.Second},
		Analysis: config.AnalysisConfig{MaxConcurrent: 2, MaxWaitTime: time.Second},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	metrics := NewMetrics()
	svc := core.NewService(cfg, core.WithObserver(metrics))
	srv := NewServer(svc, cfg, metrics)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, srv, httptest.NewRequest(http.MethodGet, target, nil))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	var body ErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, code, body.Code)
	assert.NotEmpty(t, body.Message)
}

func uploadRequest(t *testing.T, target, field, name, content string, form map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range form {
		require.NoError(t, mw.WriteField(k, v))
	}
	if field != "" {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	rec := get(t, srv, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	var body healthResponse
	decode(t, rec, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 2, body.Analyses.MaxConcurrent)
	assert.Equal(t, 2, body.Analyses.Available)
}

func TestValidate(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	rec := get(t, srv, "/api/files/train.csv/validate")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(runIDHeader))

	var rep core.ValidationReport
	decode(t, rec, &rep)
	assert.True(t, rep.Valid)
	assert.Len(t, rep.Required, 5)

	rec = get(t, srv, "/api/files/train.csv/validate?columns=Id,PoolQC")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &rep)
	assert.False(t, rep.Valid)
	assert.Equal(t, []string{"PoolQC"}, rep.Missing)
}

func TestValidate_Rows(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	rec := get(t, srv, "/api/files/train.csv/validate?rows=true")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rep core.ValidationReport
	decode(t, rec, &rep)
	assert.False(t, rep.Valid)
	assert.Empty(t, rep.Missing)
	require.NotNil(t, rep.Rows)
	assert.Equal(t, 2, rep.Rows.Total)

	assertErrorCode(t, get(t, srv, "/api/files/train.csv/validate?rows=maybe"), http.StatusBadRequest, "ARG001")
}

func TestValidate_Errors(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"missing file", "/api/files/nope.csv/validate", http.StatusNotFound, "FILE001"},
		{"encoded traversal", "/api/files/..%2Fsecret.csv/validate", http.StatusBadRequest, "ARG001"},
		{"encoded backslash", "/api/files/a%5Cb.csv/validate", http.StatusBadRequest, "ARG001"},
		{"dot dot", "/api/files/../validate", http.StatusBadRequest, "ARG001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertErrorCode(t, get(t, srv, tt.target), tt.status, tt.code)
		})
	}
}

func TestDescribeFile_JSON(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	rec := get(t, srv, "/api/files/train.csv/describe?columns=SalePrice,year_built,MSZoning&percentile=50")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body describeResponse
	decode(t, rec, &body)
	assert.NotEmpty(t, body.RunID)
	assert.Equal(t, body.RunID, rec.Header().Get(runIDHeader))
	require.NotNil(t, body.Summary)
	assert.Equal(t, 4, body.Summary.Rows)
	assert.Equal(t, 50, body.Summary.Percentile)
	require.Len(t, body.Summary.Columns, 3)

	price := body.Summary.Columns[0]
	assert.Equal(t, "sale_price", price.Name)
	require.NotNil(t, price.Numeric)
	assert.Equal(t, 188375.0, price.Numeric.Mean)
	assert.Equal(t, price.Numeric.Median, price.Numeric.Percentile)

	assert.Equal(t, 0.25, body.Summary.Columns[1].NoneRatio)
	assert.Equal(t, "RL", body.Summary.Columns[2].Mode)
}

func TestDescribeFile_DefaultPercentile(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	rec := get(t, srv, "/api/files/train.csv/describe")
	require.Equal(t, http.StatusOK, rec.Code)

	var body describeResponse
	decode(t, rec, &body)
	assert.Equal(t, 90, body.Summary.Percentile)
}

func TestDescribeFile_Errors(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	tests := []struct {
		name   string
		query  string
		status int
		code   string
	}{
		{"percentile too high", "percentile=101", http.StatusBadRequest, "ARG001"},
		{"percentile zero", "percentile=0", http.StatusBadRequest, "ARG001"},
		{"percentile not a number", "percentile=ninety", http.StatusBadRequest, "ARG001"},
		{"unknown format", "format=pdf", http.StatusBadRequest, "ARG001"},
		{"unknown column", "columns=PoolQC", http.StatusBadRequest, "COL001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv, "/api/files/train.csv/describe?"+tt.query)
			assertErrorCode(t, rec, tt.status, tt.code)
		})
	}
}

func TestDescribeFile_Formats(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	rec := get(t, srv, "/api/files/train.csv/describe?format=csv&columns=SalePrice")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "column,kind,count"), rec.Body.String())
	assert.Contains(t, rec.Body.String(), "sale_price,numeric,4")

	rec = get(t, srv, "/api/files/train.csv/describe?format=xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "train-summary.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestDescribeUpload(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	req := uploadRequest(t, "/api/describe", uploadField, "listings.csv", trainCSV,
		map[string]string{"columns": "LotArea", "percentile": "100"})
	rec := do(t, srv, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body describeResponse
	decode(t, rec, &body)
	assert.Equal(t, "listings.csv", body.Summary.Source)
	require.Len(t, body.Summary.Columns, 1)
	assert.Equal(t, "lot_area", body.Summary.Columns[0].Name)
	assert.Equal(t, 11250.0, body.Summary.Columns[0].Numeric.Percentile)
}

func TestDescribeUpload_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.MaxFileSize = 32
	srv := newTestServer(t, cfg)

	rec := do(t, srv, uploadRequest(t, "/api/describe", "", "", "", map[string]string{"columns": "x"}))
	assertErrorCode(t, rec, http.StatusBadRequest, "FILE004")

	req := httptest.NewRequest(http.MethodPost, "/api/describe", strings.NewReader(trainCSV))
	req.Header.Set("Content-Type", "text/csv")
	assertErrorCode(t, do(t, srv, req), http.StatusBadRequest, "FILE004")

	rec = do(t, srv, uploadRequest(t, "/api/describe", uploadField, "big.csv", trainCSV, nil))
	assertErrorCode(t, rec, http.StatusRequestEntityTooLarge, "FILE003")

	rec = do(t, srv, uploadRequest(t, "/api/describe", uploadField, "bad.csv", "", nil))
	assertErrorCode(t, rec, http.StatusUnprocessableEntity, "FILE002")
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	srv := newTestServer(t, cfg)

	assert.Equal(t, http.StatusUnauthorized, get(t, srv, "/api/files/train.csv/validate").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/files/train.csv/validate", nil)
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, do(t, srv, req).Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, UploadLimit: 1}
	srv := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)

	rec := get(t, srv, "/healthz")
	assertErrorCode(t, rec, http.StatusTooManyRequests, "RATE001")
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	require.Equal(t, http.StatusOK, get(t, srv, "/api/files/train.csv/describe").Code)
	require.Equal(t, http.StatusNotFound, get(t, srv, "/api/files/missing.csv/describe").Code)

	rec := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `estatekit_runs_total{code="OK",op="describe"} 1`)
	assert.Contains(t, out, `estatekit_runs_total{code="FILE001",op="describe"} 1`)
	assert.Contains(t, out, `estatekit_http_requests_total{method="GET",route="/api/files/{name}/describe",status="200"} 1`)
	assert.Contains(t, out, "estatekit_analyses_max_concurrent 2")
}

func TestRespondError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/files/train.csv/describe", nil)

	rec := httptest.NewRecorder()
	respondError(rec, req, fmt.Errorf("describe train.csv: %w", describe.ErrEmptyColumn))
	assertErrorCode(t, rec, http.StatusUnprocessableEntity, "COL003")

	var body ErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, "Column has no values", body.Message)
	assert.NotContains(t, rec.Body.String(), "train.csv", "technical detail stays in the logs")

	rec = httptest.NewRecorder()
	respondError(rec, req, nil)
	assert.Zero(t, rec.Body.Len())
}
