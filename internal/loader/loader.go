// Package loader reads delimited real-estate files into datasets and checks
// that their headers carry the columns an analysis needs.
//
// Files are resolved under a base directory. Every cell is kept as text;
// typing happens later in the cleaner.
//
// # Ragged rows
//
// A data row with fewer fields than the header is padded with empty text
// values, and a row with more fields is truncated to the header width. Both
// cases are logged at warn level with the CSV line number and never fail
// the load.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/estatekit/internal/dataset"
)

var (
	// ErrFileNotFound is returned when the requested file does not exist
	// under the base directory.
	ErrFileNotFound = errors.New("file not found")

	// ErrParse is returned when the file is not valid delimited text.
	ErrParse = errors.New("invalid csv")
)

// Loader opens files relative to a fixed base directory.
type Loader struct {
	baseDir string
}

// New creates a Loader rooted at baseDir.
func New(baseDir string) *Loader {
	return &Loader{baseDir: baseDir}
}

// Path resolves fileName under the base directory.
func (l *Loader) Path(fileName string) string {
	return filepath.Join(l.baseDir, fileName)
}

// Load reads fileName as a header row plus data rows and returns one Row
// per data line, values preserved as text.
func (l *Loader) Load(fileName string) (*dataset.Dataset, error) {
	f, err := l.open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f, fileName)
}

// ValidateColumns reads only the header of fileName and reports whether
// every required column is present. Missing columns yield false, not an
// error; errors are reserved for unreadable files.
func (l *Loader) ValidateColumns(fileName string, required []string) (bool, error) {
	missing, err := l.MissingColumns(fileName, required)
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// MissingColumns returns the required names absent from the header of
// fileName, in the order they were requested.
func (l *Loader) MissingColumns(fileName string, required []string) ([]string, error) {
	header, err := l.Header(fileName)
	if err != nil {
		return nil, err
	}
	return Missing(header, required), nil
}

// Header returns the header row of fileName.
func (l *Loader) Header(fileName string) ([]string, error) {
	f, err := l.open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := newReader(wrapInput(f)).Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s: empty file", ErrParse, fileName)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, fileName, err)
	}
	return header, nil
}

// Missing returns the names in required that do not appear in header.
func Missing(header, required []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}
	var missing []string
	for _, name := range required {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Read parses CSV from r. source names the input in errors and logs.
func Read(r io.Reader, source string) (*dataset.Dataset, error) {
	in := wrapInput(r)
	cr := newReader(in)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s: empty file", ErrParse, source)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, source, err)
	}
	header = append([]string(nil), header...)
	if err := checkHeader(header); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, source, err)
	}

	logger := slog.Default().With("component", "loader", "source", source)
	ds := dataset.New(source)
	width := len(header)

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, source, err)
		}

		if len(rec) != width {
			line, _ := cr.FieldPos(0)
			logger.Warn("ragged row",
				"line", line,
				"fields", len(rec),
				"expected", width,
			)
		}

		row := dataset.NewRow(width)
		for i, name := range header {
			cell := ""
			if i < len(rec) {
				cell = rec[i]
			}
			row.Set(name, dataset.Text(cell))
		}
		ds.Append(row)
	}

	logger.Info("dataset loaded",
		"rows", ds.Len(),
		"columns", width,
		"bytes", in.bytes,
	)
	return ds, nil
}

func (l *Loader) open(fileName string) (*os.File, error) {
	path := l.Path(fileName)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = ','
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr
}

// checkHeader rejects blank and duplicate column names, which cannot be
// represented as distinct row keys.
func checkHeader(header []string) error {
	seen := make(map[string]int, len(header))
	for i, h := range header {
		if h == "" {
			return fmt.Errorf("column %d has an empty name", i+1)
		}
		if j, ok := seen[h]; ok {
			return fmt.Errorf("duplicate column %q at positions %d and %d", h, j+1, i+1)
		}
		seen[h] = i
	}
	return nil
}
