package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"kintai/internal/core"
	"kintai/internal/tables"
)

// Aggregator buckets ledger hours by month and upserts the totals into the
// summary table. It exclusively owns the totals column; every other summary
// column is preserved verbatim across runs.
type Aggregator struct {
	ledger  tables.Ledger
	summary tables.Summary
}

func NewAggregator(ledger tables.Ledger, summary tables.Summary) *Aggregator {
	return &Aggregator{ledger: ledger, summary: summary}
}

// Run recomputes every month total present in the ledger. Rows whose date
// is not a genuine date value or whose hours are not numeric are silently
// excluded from the sums. Months that no longer have any ledger rows are
// absent from the grouping and therefore left untouched: a stale prior
// total stays in place rather than being reset to zero.
func (a *Aggregator) Run(ctx context.Context) error {
	rows, err := a.ledger.LedgerRows(ctx)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}

	totals := make(map[string]float64)
	for _, row := range rows {
		d, ok := row.Date.Date()
		if !ok {
			continue
		}
		h, ok := row.Hours.Number()
		if !ok {
			continue
		}
		totals[d.In(core.JST).Format("2006-01")] += h
	}

	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Strings(months)

	sumRows, err := a.summary.SummaryRows(ctx)
	if err != nil {
		return fmt.Errorf("read summary: %w", err)
	}
	index := make(map[string]int, len(sumRows))
	for i, sr := range sumRows {
		if key, ok := core.NormalizeMonth(sr.Month); ok {
			if _, dup := index[key]; !dup {
				index[key] = i
			}
		}
	}

	var created, updated int
	for _, m := range months {
		total := core.RoundHours(totals[m])
		if pos, ok := index[m]; ok {
			if err := a.summary.UpdateSummaryHours(ctx, pos, total); err != nil {
				return fmt.Errorf("update summary hours for %s: %w", m, err)
			}
			updated++
			continue
		}
		row := core.SummaryRow{
			Month:      core.TextCell(m),
			TotalHours: total,
		}
		if err := a.summary.AppendSummaryRow(ctx, row); err != nil {
			return fmt.Errorf("append summary row for %s: %w", m, err)
		}
		created++
	}

	slog.InfoContext(ctx, "Monthly summary aggregated",
		"months", len(months),
		"created", created,
		"updated", updated)

	return nil
}
