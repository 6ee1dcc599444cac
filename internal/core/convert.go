package core

// convert.go turns raw CSV cells into item descriptor fields.
//
// Spreadsheets exported by hand are messy: Excel formula prefixes (="12"),
// stray quotes, currency symbols, thousands separators, accounting
// parentheses. Every parse function returns nil when the cell is empty or
// cannot be coerced, which marks the field "not present" so the stored
// value is left alone.

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// numericRegex validates a decimal string after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

var integerRegex = regexp.MustCompile(`^[+-]?\d+$`)

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are lowercased for case-insensitive matching; the first occurrence
// of a duplicated header wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, dup := idx[key]; dup {
			continue
		}
		idx[key] = i
	}
	return idx
}

// Get returns the cleaned cell for column name, or "" when the column is
// absent or the row is short.
func (h HeaderIndex) Get(row []string, name string) string {
	pos, ok := h[strings.ToLower(name)]
	if !ok || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}

// Has reports whether the header contains column name.
func (h HeaderIndex) Has(name string) bool {
	_, ok := h[strings.ToLower(name)]
	return ok
}

// CleanCell removes common CSV artifacts from a cell value:
// surrounding whitespace, the Excel formula prefix (="..."), a bare
// leading '=' and one pair of matching surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	if n := len(s); n >= 2 && (s[0] == '"' || s[0] == '\'') && s[n-1] == s[0] {
		s = s[1 : n-1]
	}
	return strings.TrimSpace(s)
}

// Raw returns the cell for column name exactly as the CSV reader produced
// it, or "" when the column is absent or the row is short.
func (h HeaderIndex) Raw(row []string, name string) string {
	pos, ok := h[strings.ToLower(name)]
	if !ok || pos >= len(row) {
		return ""
	}
	return row[pos]
}

// ParseText returns nil for an empty cell and the cell unchanged otherwise.
// Names are matched exactly, so text cells are not cleaned.
func ParseText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ParseUUID returns the canonical form of a UUID cell, or nil when the
// cell is blank or not a UUID.
func ParseUUID(s string) *string {
	id, err := uuid.Parse(CleanCell(s))
	if err != nil {
		return nil
	}
	v := id.String()
	return &v
}

// ParseCount parses a non-negative integer such as a quantity or a
// threshold. "1,200" is accepted; "12.5", "-3" and "abc" are not.
func ParseCount(s string) *int {
	s = strings.ReplaceAll(CleanCell(s), ",", "")
	if s == "" || !integerRegex.MatchString(s) {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// ParsePrice parses a non-negative decimal. Currency symbols and thousands
// separators are stripped; accounting negatives "(4.50)" are rejected like
// any other negative.
func ParsePrice(s string) *float64 {
	s = CleanCell(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return nil
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if !numericRegex.MatchString(s) {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return nil
	}
	return &f
}

// FormatPrice renders a price so that ParsePrice reads back the same value.
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
