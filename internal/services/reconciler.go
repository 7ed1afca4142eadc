package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"kintai/internal/calendar"
	"kintai/internal/core"
	"kintai/internal/tables"
)

// ImportSettings carries the two operator-provided settings the importer
// needs. It is built once from configuration and passed in explicitly;
// the reconciler never reads ambient state.
type ImportSettings struct {
	CalendarID string
	StartDate  time.Time
}

// Validate enumerates missing settings so the operator sees every gap at
// once, not just the first.
func (s ImportSettings) Validate() error {
	var missing []string
	if strings.TrimSpace(s.CalendarID) == "" {
		missing = append(missing, "カレンダーID")
	}
	if s.StartDate.IsZero() {
		missing = append(missing, "稼働開始日")
	}
	if len(missing) > 0 {
		return &MissingConfigError{Missing: missing}
	}
	return nil
}

// Reconciler synchronizes calendar work-day events into the ledger table:
// upsert by external id, stale-row deletion, re-sort by date. It exclusively
// owns creation and deletion of externalId-keyed ledger rows; manually
// entered rows (no external id) are never touched.
type Reconciler struct {
	ledger tables.Ledger
	source calendar.EventSource
	now    func() time.Time
}

func NewReconciler(ledger tables.Ledger, source calendar.EventSource) *Reconciler {
	return &Reconciler{ledger: ledger, source: source, now: time.Now}
}

// ReconcileStats reports what a pass changed. A pass over an unchanged
// calendar yields all zeros.
type ReconcileStats struct {
	Created int
	Updated int
	Deleted int
}

type indexedRow struct {
	row      core.LedgerRow
	position int
}

// Run executes one reconciliation pass over the window
// [settings.StartDate, today + 1 year).
func (r *Reconciler) Run(ctx context.Context, settings ImportSettings) (ReconcileStats, error) {
	var stats ReconcileStats

	if err := settings.Validate(); err != nil {
		return stats, err
	}

	rows, err := r.ledger.LedgerRows(ctx)
	if err != nil {
		return stats, fmt.Errorf("read ledger: %w", err)
	}

	existing := make(map[string]indexedRow, len(rows))
	for i, row := range rows {
		if row.ExternalID != "" {
			existing[row.ExternalID] = indexedRow{row: row, position: i}
		}
	}

	now := r.now().In(core.JST)
	end := time.Date(now.Year()+1, now.Month(), now.Day(), 0, 0, 0, 0, core.JST)
	events, err := r.source.Events(ctx, settings.StartDate, end)
	if err != nil {
		return stats, fmt.Errorf("fetch calendar events: %w", err)
	}

	seen := make(map[string]struct{})
	for _, ev := range events {
		if !ev.IsWorkDay() {
			continue
		}
		seen[ev.ExternalID] = struct{}{}

		day := ev.Day()
		hours := ev.Hours()
		desc := ev.Description
		if strings.TrimSpace(desc) == "" {
			desc = ""
		}

		ex, ok := existing[ev.ExternalID]
		if !ok {
			row := core.LedgerRow{
				Date:        core.DateCell(day),
				Hours:       core.NumberCell(hours),
				Description: desc,
				Status:      "",
				ExternalID:  ev.ExternalID,
			}
			if err := r.ledger.AppendLedgerRow(ctx, row); err != nil {
				return stats, fmt.Errorf("append ledger row for event %s: %w", ev.ExternalID, err)
			}
			stats.Created++
			continue
		}

		if rowMatchesEvent(ex.row, day, hours, desc) {
			continue
		}
		updated := ex.row
		updated.Date = core.DateCell(day)
		updated.Hours = core.NumberCell(hours)
		updated.Description = desc
		// Status rides along untouched; it belongs to the approval side.
		if err := r.ledger.UpdateLedgerRow(ctx, ex.position, updated); err != nil {
			return stats, fmt.Errorf("update ledger row %d: %w", ex.position, err)
		}
		stats.Updated++
	}

	// Rows whose external id no longer appears in the fetch window are
	// stale. Delete highest position first so earlier deletions never shift
	// the position of rows still pending deletion.
	var stale []int
	for id, ex := range existing {
		if _, ok := seen[id]; !ok {
			stale = append(stale, ex.position)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(stale)))
	for _, pos := range stale {
		if err := r.ledger.DeleteLedgerRow(ctx, pos); err != nil {
			return stats, fmt.Errorf("delete ledger row %d: %w", pos, err)
		}
		stats.Deleted++
	}

	if err := r.ledger.SortLedgerByDate(ctx); err != nil {
		return stats, fmt.Errorf("sort ledger: %w", err)
	}

	slog.InfoContext(ctx, "Ledger reconciled",
		"created", stats.Created,
		"updated", stats.Updated,
		"deleted", stats.Deleted,
		"events", len(events))

	return stats, nil
}

// rowMatchesEvent compares the stored row against the event-derived values.
// Dates are compared via canonical day keys so a row read back from any
// backend compares equal to the day the reconciler wrote.
func rowMatchesEvent(row core.LedgerRow, day time.Time, hours float64, desc string) bool {
	key, ok := core.NormalizeDay(row.Date)
	if !ok || key != day.Format("2006-01-02") {
		return false
	}
	h, ok := row.Hours.Number()
	if !ok || h != hours {
		return false
	}
	return row.Description == desc
}
