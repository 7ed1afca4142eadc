package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kintai/internal/core"
	tabmem "kintai/internal/tables/memory"
)

func ledgerRow(day time.Time, hours float64) core.LedgerRow {
	return core.LedgerRow{Date: core.DateCell(day), Hours: core.NumberCell(hours)}
}

func TestAggregatorSumsByMonth(t *testing.T) {
	store := tabmem.New()
	ctx := context.Background()

	require.NoError(t, store.AppendLedgerRow(ctx, ledgerRow(time.Date(2025, 4, 7, 0, 0, 0, 0, core.JST), 8)))
	require.NoError(t, store.AppendLedgerRow(ctx, ledgerRow(time.Date(2025, 4, 8, 0, 0, 0, 0, core.JST), 6)))
	require.NoError(t, store.AppendLedgerRow(ctx, ledgerRow(time.Date(2025, 5, 1, 0, 0, 0, 0, core.JST), 8)))
	// Text-valued rows never enter the sums.
	require.NoError(t, store.AppendLedgerRow(ctx, core.LedgerRow{
		Date:  core.TextCell("2025-04-09"),
		Hours: core.NumberCell(99),
	}))
	require.NoError(t, store.AppendLedgerRow(ctx, core.LedgerRow{
		Date:  core.DateCell(time.Date(2025, 4, 10, 0, 0, 0, 0, core.JST)),
		Hours: core.TextCell("半日"),
	}))

	require.NoError(t, NewAggregator(store, store).Run(ctx))

	rows, err := store.SummaryRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-04", rows[0].Month.String())
	assert.Equal(t, 14.0, rows[0].TotalHours)
	assert.Equal(t, "2025-05", rows[1].Month.String())
	assert.Equal(t, 8.0, rows[1].TotalHours)
}

func TestAggregatorPreservesNarrativeColumns(t *testing.T) {
	store := tabmem.New()
	ctx := context.Background()

	require.NoError(t, store.AppendSummaryRow(ctx, core.SummaryRow{
		Month:           core.TextCell("2025/04"),
		TotalHours:      1,
		CompletedTasks:  "要件定義",
		InProgressTasks: "基本設計",
		Remarks:         "備考あり",
		Status:          core.StatusApproved,
	}))
	require.NoError(t, store.AppendLedgerRow(ctx, ledgerRow(time.Date(2025, 4, 7, 0, 0, 0, 0, core.JST), 7.75)))

	require.NoError(t, NewAggregator(store, store).Run(ctx))

	rows, err := store.SummaryRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// The month matched through normalization; only the total changed.
	assert.Equal(t, 7.8, rows[0].TotalHours)
	assert.Equal(t, "要件定義", rows[0].CompletedTasks)
	assert.Equal(t, "基本設計", rows[0].InProgressTasks)
	assert.Equal(t, "備考あり", rows[0].Remarks)
	assert.Equal(t, core.StatusApproved, rows[0].Status)
}

func TestAggregatorLeavesMonthsWithoutRowsUntouched(t *testing.T) {
	store := tabmem.New()
	ctx := context.Background()

	// A prior total for a month whose ledger rows are all gone. It stays as
	// is; only months present in the ledger are rewritten.
	require.NoError(t, store.AppendSummaryRow(ctx, core.SummaryRow{
		Month:      core.TextCell("2025-03"),
		TotalHours: 160,
	}))
	require.NoError(t, store.AppendLedgerRow(ctx, ledgerRow(time.Date(2025, 4, 7, 0, 0, 0, 0, core.JST), 8)))

	require.NoError(t, NewAggregator(store, store).Run(ctx))

	rows, err := store.SummaryRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 160.0, rows[0].TotalHours)
	assert.Equal(t, 8.0, rows[1].TotalHours)
}

func TestAggregatorRoundsTotals(t *testing.T) {
	store := tabmem.New()
	ctx := context.Background()

	require.NoError(t, store.AppendLedgerRow(ctx, ledgerRow(time.Date(2025, 4, 7, 0, 0, 0, 0, core.JST), 0.1)))
	require.NoError(t, store.AppendLedgerRow(ctx, ledgerRow(time.Date(2025, 4, 8, 0, 0, 0, 0, core.JST), 0.2)))

	require.NoError(t, NewAggregator(store, store).Run(ctx))

	rows, err := store.SummaryRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.3, rows[0].TotalHours)
}
