package web

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/estatekit/internal/core"
	"github.com/JonMunkholm/estatekit/internal/dataset"
	"github.com/JonMunkholm/estatekit/internal/describe"
	"github.com/JonMunkholm/estatekit/internal/report"
)

const (
	// uploadMemory is how much of a multipart body is kept in memory
	// before spilling to temp files.
	uploadMemory = 8 << 20

	// multipartOverhead covers boundaries and form fields on top of the file.
	multipartOverhead = 1 << 20

	uploadField = "file"
	runIDHeader = "X-Run-ID"
)

type healthResponse struct {
	Status   string             `json:"status"`
	Analyses core.LimiterStatus `json:"analyses"`
}

// describeResponse is the JSON body of a describe run.
type describeResponse struct {
	RunID   string            `json:"run_id"`
	Summary *describe.Summary `json:"summary"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{Status: "ok", Analyses: s.service.LimiterStatus()})
}

// handleValidate reports which required columns the file's header lacks.
// Without ?columns the configured required set is checked; ?rows=true also
// checks every cell.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	name, err := fileName(chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	params := validateParams{fileParams: fileParams{Name: name}, Columns: q.Get("columns"), Rows: q.Get("rows")}
	if err := s.params.check(params); err != nil {
		respondError(w, r, err)
		return
	}

	validate := s.service.Validate
	if params.checkRows() {
		validate = s.service.ValidateRows
	}
	rep, err := validate(r.Context(), name, dataset.ParseColumns(params.Columns).Names())
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set(runIDHeader, rep.RunID)
	render.JSON(w, r, rep)
}

// handleDescribeFile summarizes a file under the data directory.
func (s *Server) handleDescribeFile(w http.ResponseWriter, r *http.Request) {
	name, err := fileName(chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.params.check(fileParams{Name: name}); err != nil {
		respondError(w, r, err)
		return
	}
	params, err := s.describeParams(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	a, err := s.service.Describe(r.Context(), name, params.selector(), params.Percentile)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.writeAnalysis(w, r, a, params.format())
}

// handleDescribeUpload summarizes a CSV sent as the multipart field "file".
// columns, percentile and format may come from the form or the query.
func (s *Server) handleDescribeUpload(w http.ResponseWriter, r *http.Request) {
	if limit := s.cfg.Data.MaxFileSize; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		respondError(w, r, uploadError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	params, err := s.describeParams(r.Form)
	if err != nil {
		respondError(w, r, err)
		return
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		respondError(w, r, uploadError(err))
		return
	}
	defer file.Close()

	a, err := s.service.DescribeReader(r.Context(), file, uploadName(header), params.selector(), params.Percentile)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.writeAnalysis(w, r, a, params.format())
}

func (s *Server) describeParams(values map[string][]string) (describeParams, error) {
	params, err := parseDescribe(values, s.cfg.Report.Percentile)
	if err != nil {
		return params, err
	}
	return params, s.params.check(params)
}

// writeAnalysis renders a as JSON, or as a report document for any other
// format. Reports are buffered so a rendering failure still produces a
// proper error response.
func (s *Server) writeAnalysis(w http.ResponseWriter, r *http.Request, a *core.Analysis, f report.Format) {
	w.Header().Set(runIDHeader, a.RunID)
	if f == report.FormatJSON {
		render.JSON(w, r, describeResponse{RunID: a.RunID, Summary: a.Summary})
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, a.Summary, f); err != nil {
		respondError(w, r, fmt.Errorf("render %s report: %w", f, err))
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	if f.Binary() {
		base := strings.TrimSuffix(a.Summary.Source, filepath.Ext(a.Summary.Source))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"-summary."+string(f)))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// uploadError classifies multipart failures. Oversized bodies get their
// own code; anything else means no usable file part was sent.
func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit %d bytes", core.ErrFileTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: %v", core.ErrNoFile, err)
}

func uploadName(h *multipart.FileHeader) string {
	if h == nil || h.Filename == "" {
		return "upload.csv"
	}
	return filepath.Base(h.Filename)
}
