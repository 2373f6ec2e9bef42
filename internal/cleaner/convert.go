package cleaner

// convert.go turns raw cell text into typed numeric values.
//
// Real-estate exports carry the usual spreadsheet noise, so before a cell is
// tested as a number it is stripped of:
//   - surrounding whitespace
//   - currency symbols ($, €, £)
//   - thousands separators, only where they form groups of three digits
//   - accounting negatives, "(1,200.50)" meaning -1200.50
//
// Text that would not survive a round trip stays text: "1,2" is not a
// grouped number, and "00501" reads like a code whose zeros matter.
//
// Plain decimals are decoded through pgtype.Numeric so integers of any
// width are detected exactly before falling back to float64.

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/estatekit/internal/dataset"
)

// numericRegex matches integers, decimals and scientific notation after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// groupedRegex matches numbers with comma thousands separators.
var groupedRegex = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)

// ParseNumber reports whether s is numeric text and returns it as an
// Integer or Float value. Integers that overflow int64 become Float.
func ParseNumber(s string) (dataset.Value, bool) {
	s, ok := normalizeNumeric(s)
	if !ok || !numericRegex.MatchString(s) || hasLeadingZero(s) {
		return dataset.Value{}, false
	}

	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return dataset.Value{}, false
		}
		return dataset.Float(f), true
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return dataset.Value{}, false
	}

	if !strings.Contains(s, ".") {
		if i, err := n.Int64Value(); err == nil && i.Valid {
			return dataset.Integer(i.Int64), true
		}
	}

	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return dataset.Value{}, false
	}
	return dataset.Float(f.Float64), true
}

// normalizeNumeric strips currency and accounting formatting. It reports
// false for empty text and for commas that are not thousands separators.
func normalizeNumeric(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return s, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		if !groupedRegex.MatchString(s) {
			return s, false
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" {
		return s, false
	}

	if negative {
		s = "-" + s
	}
	return s, true
}

// hasLeadingZero reports whether the integer part has more than one digit
// and starts with 0, as in "007" or "-05.5".
func hasLeadingZero(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if i := strings.IndexAny(s, ".eE"); i >= 0 {
		s = s[:i]
	}
	return len(s) > 1 && s[0] == '0'
}
