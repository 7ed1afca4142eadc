// Package core holds the domain model for the work-approval ledger:
// cell values as they come out of the tabular store, canonical month/day
// keys, and the rows of the three tables.
package core

import (
	"strconv"
	"strings"
	"time"
)

// JST is the single fixed locale all dates are interpreted in.
var JST = time.FixedZone("JST", 9*60*60)

type cellKind int

const (
	cellEmpty cellKind = iota
	cellDate
	cellNumber
	cellText
)

// CellValue models one cell of an untyped tabular store. A cell holds a
// native date, a number, free text, or nothing. Callers pattern-match via
// Date/Number instead of scattering type switches.
type CellValue struct {
	kind cellKind
	date time.Time
	num  float64
	text string
}

func EmptyCell() CellValue { return CellValue{} }

func DateCell(t time.Time) CellValue { return CellValue{kind: cellDate, date: t} }

func NumberCell(f float64) CellValue { return CellValue{kind: cellNumber, num: f} }

func TextCell(s string) CellValue {
	if s == "" {
		return CellValue{}
	}
	return CellValue{kind: cellText, text: s}
}

func (c CellValue) IsEmpty() bool { return c.kind == cellEmpty }

// Date returns the native date value, if the cell holds one.
func (c CellValue) Date() (time.Time, bool) {
	if c.kind != cellDate {
		return time.Time{}, false
	}
	return c.date, true
}

// Number returns the numeric value, if the cell holds one.
func (c CellValue) Number() (float64, bool) {
	if c.kind != cellNumber {
		return 0, false
	}
	return c.num, true
}

// String renders the cell for storage or display.
func (c CellValue) String() string {
	switch c.kind {
	case cellDate:
		return c.date.In(JST).Format("2006-01-02")
	case cellNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case cellText:
		return c.text
	default:
		return ""
	}
}

// ParseCell interprets a raw stored string as a cell variant: a day in one
// of the supported date layouts becomes a native date, a plain number a
// numeric cell, anything else free text. Adapters reading untyped backends
// use this to rebuild the variant the writer stored.
func ParseCell(s string) CellValue {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return CellValue{}
	}
	for _, layout := range []string{"2006-01-02", "2006/01/02"} {
		if t, err := time.ParseInLocation(layout, trimmed, JST); err == nil {
			return DateCell(t)
		}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return NumberCell(f)
	}
	return TextCell(s)
}

// NormalizeMonth converts a cell to the canonical "yyyy-mm" month key.
// Native dates convert directly; strings are tokenized on "/", "-" or ".".
// Normalization is deliberately permissive: a mechanically well-formed but
// calendrically impossible month (e.g. "2025/13") still normalizes, and
// downstream equality comparisons simply never match it. The second return
// is false when the cell holds no usable date at all.
func NormalizeMonth(c CellValue) (string, bool) {
	if t, ok := c.Date(); ok {
		return t.In(JST).Format("2006-01"), true
	}
	if c.kind != cellText {
		return "", false
	}
	year, month, _, ok := dateTokens(c.text)
	if !ok {
		return "", false
	}
	return year + "-" + month, true
}

// NormalizeDay converts a cell to the canonical "yyyy-mm-dd" day key.
// Strings must carry a third (day) token to qualify.
func NormalizeDay(c CellValue) (string, bool) {
	if t, ok := c.Date(); ok {
		return t.In(JST).Format("2006-01-02"), true
	}
	if c.kind != cellText {
		return "", false
	}
	year, month, day, ok := dateTokens(c.text)
	if !ok || day == "" {
		return "", false
	}
	return year + "-" + month + "-" + day, true
}

// dateTokens splits a raw date string into zero-padded year/month/day
// components. A token with no extractable digits, or fewer than two tokens,
// means no match.
func dateTokens(s string) (year, month, day string, ok bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) < 2 {
		return "", "", "", false
	}
	year = digits(parts[0])
	month = padTwo(digits(parts[1]))
	if year == "" || month == "" {
		return "", "", "", false
	}
	if len(parts) >= 3 {
		day = padTwo(digits(parts[2]))
	}
	return year, month, day, true
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func padTwo(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
