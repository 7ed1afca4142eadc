package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WorkDayMarker is the title substring that marks a calendar event as a
// work-day event. Events without it are ignored by the reconciler.
const WorkDayMarker = "稼働日"

// Approval decisions and the summary statuses they map to, exactly as
// stored in the tables.
const (
	DecisionApprove = "承認"
	DecisionReject  = "否認"
	StatusApproved  = "承認済"
	StatusRejected  = "否認"
)

type (
	// WorkEvent is a calendar event as delivered by the event source.
	WorkEvent struct {
		ExternalID  string
		Start       time.Time
		End         time.Time
		Title       string
		Description string
	}

	// LedgerRow is one row of the work-day detail table. Date and Hours are
	// cell variants because manually entered rows may hold arbitrary text.
	// Rows created by the reconciler always carry an ExternalID; manual rows
	// leave it empty and are never touched by reconciliation.
	LedgerRow struct {
		Date        CellValue
		Hours       CellValue
		Description string
		Status      string
		ExternalID  string
	}

	// SummaryRow is one row of the per-month aggregate table. TotalHours is
	// owned by the aggregator; Status by the approval workflow; the narrative
	// fields are manually curated and must survive aggregation untouched.
	SummaryRow struct {
		Month           CellValue
		TotalHours      float64
		CompletedTasks  string
		InProgressTasks string
		Remarks         string
		Status          string
	}

	// ApprovalRecord is one entry of the append-only approval log.
	ApprovalRecord struct {
		Timestamp   time.Time
		Email       string
		Name        string
		TargetMonth string
		Decision    string
		Comment     string
	}

	// WorkDetail is the per-day projection handed to the report renderer.
	WorkDetail struct {
		Date        string
		Hours       float64
		Description string
		Status      string
	}
)

// IsWorkDay reports whether the event title carries the work-day marker.
func (e WorkEvent) IsWorkDay() bool {
	return strings.Contains(e.Title, WorkDayMarker)
}

// Hours returns the event duration in hours, rounded to 0.1.
func (e WorkEvent) Hours() float64 {
	return RoundHours(e.End.Sub(e.Start).Hours())
}

// Day returns the event's start calendar day in the fixed locale, at
// midnight. The ledger date is always the start day regardless of how far
// the event runs.
func (e WorkEvent) Day() time.Time {
	t := e.Start.In(JST)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, JST)
}

// RoundHours rounds an hour count to one decimal place, half up.
func RoundHours(h float64) float64 {
	f, _ := decimal.NewFromFloat(h).Round(1).Float64()
	return f
}

// StatusForDecision maps an approval decision to the summary status it
// writes. Unknown decisions map to nothing: the status cell is left alone.
func StatusForDecision(decision string) (string, bool) {
	switch decision {
	case DecisionApprove:
		return StatusApproved, true
	case DecisionReject:
		return StatusRejected, true
	default:
		return "", false
	}
}

// MonthLabel renders a "yyyy-mm" key as the Japanese display label used in
// month pickers and report headings, e.g. "2025-04" -> "2025年4月".
func MonthLabel(monthKey string) string {
	year, month, ok := splitMonthKey(monthKey)
	if !ok {
		return monthKey
	}
	return strconv.Itoa(year) + "年" + strconv.Itoa(month) + "月"
}

// PrevMonthKey returns the "yyyy-mm" key of the month before now.
func PrevMonthKey(now time.Time) string {
	t := now.In(JST)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, JST).AddDate(0, -1, 0).Format("2006-01")
}

// CurrentMonthKey returns the "yyyy-mm" key of the month containing now.
func CurrentMonthKey(now time.Time) string {
	return now.In(JST).Format("2006-01")
}

func splitMonthKey(monthKey string) (year, month int, ok bool) {
	parts := strings.SplitN(monthKey, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return y, m, true
}
