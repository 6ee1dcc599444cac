package pgstore

import (
	"fmt"
	"strings"
)

// WhereBuilder assembles a parameterized WHERE clause.
// Column names are trusted constants; values always travel as arguments.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends "col = $n". Empty strings and nil are skipped.
func (wb *WhereBuilder) Add(col string, val any) {
	switch v := val.(type) {
	case nil:
		return
	case string:
		if v == "" {
			return
		}
	}
	wb.push(col+" = $%d", val)
}

// AddAny appends "col = ANY($n)". A nil slice is skipped; an empty,
// non-nil slice matches nothing.
func (wb *WhereBuilder) AddAny(col string, vals []string) {
	if vals == nil {
		return
	}
	wb.push(col+" = ANY($%d)", vals)
}

func (wb *WhereBuilder) push(format string, val any) {
	wb.conditions = append(wb.conditions, fmt.Sprintf(format, wb.argIndex))
	wb.args = append(wb.args, val)
	wb.argIndex++
}

// NextArgIndex returns the placeholder number the next argument will use.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// Build returns the clause with a leading space, or "" and nil args.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}
