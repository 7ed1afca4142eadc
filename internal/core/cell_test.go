package core

import (
	"testing"
	"time"
)

func TestNormalizeMonthEquivalentFormats(t *testing.T) {
	cases := []CellValue{
		DateCell(time.Date(2025, 4, 15, 0, 0, 0, 0, JST)),
		TextCell("2025/04/15"),
		TextCell("2025-04-15"),
		TextCell("2025.04.15"),
		TextCell("2025/4/15"),
		TextCell("2025-04"),
	}
	for _, c := range cases {
		got, ok := NormalizeMonth(c)
		if !ok || got != "2025-04" {
			t.Fatalf("NormalizeMonth(%v) = %q, %v; want 2025-04", c, got, ok)
		}
	}
}

func TestNormalizeMonthInvalid(t *testing.T) {
	cases := []CellValue{
		EmptyCell(),
		TextCell("2025"),
		TextCell("april"),
		TextCell("abc/def"),
		NumberCell(2025),
	}
	for _, c := range cases {
		if got, ok := NormalizeMonth(c); ok {
			t.Fatalf("NormalizeMonth(%v) = %q; want invalid", c, got)
		}
	}
}

func TestNormalizeMonthPermissive(t *testing.T) {
	// Month 13 is calendrically impossible but normalizes mechanically;
	// strictness lives in downstream comparisons, not here.
	got, ok := NormalizeMonth(TextCell("2025/13"))
	if !ok || got != "2025-13" {
		t.Fatalf("got %q, %v; want 2025-13", got, ok)
	}
}

func TestNormalizeDay(t *testing.T) {
	tests := []struct {
		in   CellValue
		want string
		ok   bool
	}{
		{DateCell(time.Date(2025, 4, 5, 0, 0, 0, 0, JST)), "2025-04-05", true},
		{TextCell("2025/4/5"), "2025-04-05", true},
		{TextCell("2025-04-05"), "2025-04-05", true},
		{TextCell("2025-04"), "", false},
		{TextCell(""), "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeDay(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("NormalizeDay(%v) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCellString(t *testing.T) {
	d := DateCell(time.Date(2025, 4, 5, 0, 0, 0, 0, JST))
	if d.String() != "2025-04-05" {
		t.Fatalf("date cell string = %q", d.String())
	}
	if NumberCell(6.5).String() != "6.5" {
		t.Fatalf("number cell string = %q", NumberCell(6.5).String())
	}
	if !TextCell("").IsEmpty() {
		t.Fatal("empty text should yield an empty cell")
	}
}
