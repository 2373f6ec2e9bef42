// Package report renders describe summaries and cleaned datasets.
//
// Summaries render as a terminal table, markdown, CSV, JSON, YAML or an
// Excel workbook. Tabular formats put one column of the dataset per row.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/estatekit/internal/describe"
)

// Format names an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatXLSX     Format = "xlsx"
)

// Formats lists every supported format.
var Formats = []Format{FormatTable, FormatMarkdown, FormatCSV, FormatJSON, FormatYAML, FormatXLSX}

// ParseFormat resolves a format name. "md" and "yml" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	default:
		if slices.Contains(Formats, f) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// Binary reports whether the format is not text and should not be written
// to a terminal.
func (f Format) Binary() bool { return f == FormatXLSX }

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Write renders s to w in format f.
func Write(w io.Writer, s *describe.Summary, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatXLSX:
		return writeXLSX(w, s)
	case FormatTable, FormatMarkdown, FormatCSV:
		return writeTable(w, s, f)
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}

// header returns the tabular column titles for s.
func header(s *describe.Summary) []string {
	return []string{
		"column", "kind", "count", "absent", "none_ratio", "mode",
		"min", "max", "mean", "median", "p" + strconv.Itoa(s.Percentile),
	}
}

// cells returns the tabular row for one column. Statistics that do not
// apply are empty.
func cells(c describe.ColumnSummary) []any {
	row := []any{
		c.Name, c.Kind, c.Count, c.Absent, formatFloat(c.NoneRatio), formatMode(c.Mode),
		"", "", "", "", "",
	}
	if n := c.Numeric; n != nil {
		row[6] = formatFloat(n.Min)
		row[7] = formatFloat(n.Max)
		row[8] = formatFloat(n.Mean)
		row[9] = formatFloat(n.Median)
		row[10] = formatFloat(n.Percentile)
	}
	return row
}

func writeTable(w io.Writer, s *describe.Summary, f Format) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	hdr := header(s)
	headerRow := make(table.Row, len(hdr))
	for i, h := range hdr {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)
	for _, c := range s.Columns {
		t.AppendRow(table.Row(cells(c)))
	}

	switch f {
	case FormatMarkdown:
		t.RenderMarkdown()
	case FormatCSV:
		t.RenderCSV()
	default:
		t.SetTitle(fmt.Sprintf("%s (%d rows)", s.Source, s.Rows))
		t.Render()
	}
	return nil
}

// formatFloat rounds to four decimals and drops trailing zeros.
func formatFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}

func formatMode(m any) string {
	switch v := m.(type) {
	case nil:
		return ""
	case float64:
		return formatFloat(v)
	default:
		return fmt.Sprint(v)
	}
}
