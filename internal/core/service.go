package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/estatekit/internal/cleaner"
	"github.com/JonMunkholm/estatekit/internal/config"
	"github.com/JonMunkholm/estatekit/internal/dataset"
	"github.com/JonMunkholm/estatekit/internal/describe"
	"github.com/JonMunkholm/estatekit/internal/loader"
	"github.com/JonMunkholm/estatekit/internal/logging"
	"github.com/JonMunkholm/estatekit/internal/schema"
)

// Pipeline operations reported to an Observer.
const (
	OpValidate = "validate"
	OpClean    = "clean"
	OpDescribe = "describe"
)

// Observer is notified when a pipeline run finishes. rows is the number of
// data rows loaded, or zero when loading failed or was not needed.
type Observer interface {
	ObserveRun(op string, rows int, elapsed time.Duration, err error)
}

// Option configures a Service.
type Option func(*Service)

// WithObserver registers an observer for finished runs.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithLimiter replaces the limiter built from configuration.
func WithLimiter(l *AnalysisLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// Service runs the load, clean and describe pipeline. Each run gets a
// run ID that is attached to its logs and returned to the caller.
type Service struct {
	loader       *loader.Loader
	limiter      *AnalysisLimiter
	observer     Observer
	checker      *schema.Checker
	missingToken string
	required     []string
	maxFileSize  int64
}

// NewService creates a Service from configuration.
func NewService(cfg *config.Config, opts ...Option) *Service {
	required := cfg.Data.RequiredColumns
	if len(required) == 0 {
		required = schema.HousingRequiredColumns()
	}

	s := &Service{
		loader:       loader.New(cfg.Data.Dir),
		limiter:      NewAnalysisLimiter(cfg.Analysis.MaxConcurrent, cfg.Analysis.MaxWaitTime),
		checker:      schema.NewChecker(schema.HousingFieldSpecs, 0),
		missingToken: cfg.Data.MissingToken,
		required:     required,
		maxFileSize:  cfg.Data.MaxFileSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequiredColumns returns the columns Validate checks by default.
func (s *Service) RequiredColumns() []string {
	return append([]string(nil), s.required...)
}

// ValidationReport is the outcome of a header check.
type ValidationReport struct {
	RunID    string   `json:"run_id" yaml:"run_id"`
	File     string   `json:"file" yaml:"file"`
	Required []string `json:"required" yaml:"required"`
	Missing  []string `json:"missing" yaml:"missing"`
	Valid    bool     `json:"valid" yaml:"valid"`

	// Rows is set by ValidateRows only.
	Rows *schema.Result `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Validate checks that the header of file contains every required column.
// A nil required list checks the default columns. Missing columns are
// reported in the result, not as an error.
func (s *Service) Validate(ctx context.Context, file string, required []string) (report *ValidationReport, err error) {
	if len(required) == 0 {
		required = s.RequiredColumns()
	}
	ctx, done := s.begin(ctx, OpValidate, file)
	defer func() { done(0, err) }()

	missing, err := s.loader.MissingColumns(file, required)
	if err != nil {
		return nil, err
	}
	return &ValidationReport{
		RunID:    logging.RunID(ctx),
		File:     file,
		Required: required,
		Missing:  missing,
		Valid:    len(missing) == 0,
	}, nil
}

// ValidateRows runs the header check of Validate and then loads and cleans
// the whole file to check every cell against the housing field specs.
// Valid is false when columns are missing or any cell violates its spec.
func (s *Service) ValidateRows(ctx context.Context, file string, required []string) (report *ValidationReport, err error) {
	if len(required) == 0 {
		required = s.RequiredColumns()
	}
	ctx, done := s.begin(ctx, OpValidate, file)
	rows := 0
	defer func() { done(rows, err) }()

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	missing, err := s.loader.MissingColumns(file, required)
	if err != nil {
		return nil, err
	}
	ds, err := s.loader.Load(file)
	if err != nil {
		return nil, err
	}
	rows = ds.Len()

	result := s.checker.Check(s.clean(ds))
	return &ValidationReport{
		RunID:    logging.RunID(ctx),
		File:     file,
		Required: required,
		Missing:  missing,
		Valid:    len(missing) == 0 && result.Valid(),
		Rows:     result,
	}, nil
}

// CleanResult is a cleaned dataset with the run that produced it.
type CleanResult struct {
	RunID string
	Data  *dataset.Dataset
}

// Clean loads file and cleans it.
func (s *Service) Clean(ctx context.Context, file string) (res *CleanResult, err error) {
	ctx, done := s.begin(ctx, OpClean, file)
	rows := 0
	defer func() { done(rows, err) }()

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ds, err := s.loader.Load(file)
	if err != nil {
		return nil, err
	}
	rows = ds.Len()
	return &CleanResult{RunID: logging.RunID(ctx), Data: s.clean(ds)}, nil
}

// Analysis is the result of a describe run.
type Analysis struct {
	RunID   string
	Data    *dataset.Dataset
	Summary *describe.Summary
}

// Describe loads, cleans and summarizes file. Column names in sel may be
// given raw or cleaned; they are normalized before lookup.
func (s *Service) Describe(ctx context.Context, file string, sel dataset.ColumnSelector, p int) (*Analysis, error) {
	return s.describe(ctx, file, sel, p, func() (*dataset.Dataset, error) {
		return s.loader.Load(file)
	})
}

// DescribeReader is Describe over an uploaded body. Bodies larger than the
// configured maximum fail with ErrFileTooLarge.
func (s *Service) DescribeReader(ctx context.Context, r io.Reader, name string, sel dataset.ColumnSelector, p int) (*Analysis, error) {
	return s.describe(ctx, name, sel, p, func() (*dataset.Dataset, error) {
		return loader.Read(newSizeLimitedReader(r, s.maxFileSize), name)
	})
}

func (s *Service) describe(ctx context.Context, source string, sel dataset.ColumnSelector, p int, load func() (*dataset.Dataset, error)) (a *Analysis, err error) {
	ctx, done := s.begin(ctx, OpDescribe, source)
	rows := 0
	defer func() { done(rows, err) }()

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ds, err := load()
	if err != nil {
		return nil, err
	}
	rows = ds.Len()

	// Loading is the slow part; a client that left meanwhile gets nothing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds = s.clean(ds)
	d, err := describe.New(ds)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", source, err)
	}
	summary, err := d.Summarize(sel.Map(cleaner.NormalizeColumnName), p)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", source, err)
	}
	return &Analysis{RunID: logging.RunID(ctx), Data: ds, Summary: summary}, nil
}

func (s *Service) clean(ds *dataset.Dataset) *dataset.Dataset {
	return cleaner.NewWithToken(ds, s.missingToken).Clean()
}

// begin starts a run: it assigns a run ID, logs the start and returns a
// function that logs the outcome and notifies the observer.
func (s *Service) begin(ctx context.Context, op, source string) (context.Context, func(rows int, err error)) {
	ctx = logging.WithRunID(ctx, uuid.NewString())
	logger := logging.WithFields(ctx, "op", op, "source", source)
	logger.Debug("run started")
	start := time.Now()

	return ctx, func(rows int, err error) {
		elapsed := time.Since(start)
		if err != nil {
			logger.Warn("run failed",
				"error", err,
				"code", MapError(err).Code,
				"duration", elapsed,
			)
		} else {
			logger.Info("run finished", "rows", rows, "duration", elapsed)
		}
		if s.observer != nil {
			s.observer.ObserveRun(op, rows, elapsed, err)
		}
	}
}

// LimiterStatus returns the analysis limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForAnalyses blocks until running analyses finish or ctx ends.
func (s *Service) WaitForAnalyses(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// sizeLimitedReader fails with ErrFileTooLarge once more than limit bytes
// have been read.
type sizeLimitedReader struct {
	r         io.Reader
	remaining int64
}

func newSizeLimitedReader(r io.Reader, limit int64) io.Reader {
	if limit <= 0 {
		return r
	}
	return &sizeLimitedReader{r: r, remaining: limit}
}

func (l *sizeLimitedReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		// Probe for one more byte to tell an exact fit from an overflow.
		var probe [1]byte
		n, err := l.r.Read(probe[:])
		if n > 0 {
			return 0, ErrFileTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}
