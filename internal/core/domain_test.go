package core

import (
	"testing"
	"time"
)

func TestWorkEventHoursRounding(t *testing.T) {
	start := time.Date(2025, 4, 15, 9, 0, 0, 0, JST)
	tests := []struct {
		end  time.Time
		want float64
	}{
		{start.Add(8 * time.Hour), 8.0},
		{start.Add(6*time.Hour + 30*time.Minute), 6.5},
		{start.Add(7*time.Hour + 50*time.Minute), 7.8},
		{start.Add(7*time.Hour + 44*time.Minute), 7.7},
	}
	for _, tt := range tests {
		e := WorkEvent{Start: start, End: tt.end}
		if got := e.Hours(); got != tt.want {
			t.Fatalf("Hours(%v) = %v; want %v", tt.end.Sub(start), got, tt.want)
		}
	}
}

func TestWorkEventDayIsStartDay(t *testing.T) {
	e := WorkEvent{
		Start: time.Date(2025, 4, 15, 22, 0, 0, 0, JST),
		End:   time.Date(2025, 4, 16, 2, 0, 0, 0, JST),
	}
	want := time.Date(2025, 4, 15, 0, 0, 0, 0, JST)
	if !e.Day().Equal(want) {
		t.Fatalf("Day() = %v; want %v", e.Day(), want)
	}
}

func TestIsWorkDay(t *testing.T) {
	if !(WorkEvent{Title: "稼働日: 設計"}).IsWorkDay() {
		t.Fatal("title with marker should match")
	}
	if (WorkEvent{Title: "ミーティング"}).IsWorkDay() {
		t.Fatal("title without marker should not match")
	}
}

func TestStatusForDecision(t *testing.T) {
	if s, ok := StatusForDecision(DecisionApprove); !ok || s != StatusApproved {
		t.Fatalf("approve -> %q, %v", s, ok)
	}
	if s, ok := StatusForDecision(DecisionReject); !ok || s != StatusRejected {
		t.Fatalf("reject -> %q, %v", s, ok)
	}
	if _, ok := StatusForDecision("保留"); ok {
		t.Fatal("unknown decision must not map to a status")
	}
}

func TestMonthLabel(t *testing.T) {
	if got := MonthLabel("2025-04"); got != "2025年4月" {
		t.Fatalf("MonthLabel = %q", got)
	}
	if got := MonthLabel("garbage"); got != "garbage" {
		t.Fatalf("unparseable keys pass through, got %q", got)
	}
}

func TestPrevMonthKey(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, JST)
	if got := PrevMonthKey(now); got != "2024-12" {
		t.Fatalf("PrevMonthKey = %q", got)
	}
}
