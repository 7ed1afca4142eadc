package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kintai/internal/core"
	repmem "kintai/internal/report/memory"
	tabmem "kintai/internal/tables/memory"
)

func newReportFixture(t *testing.T) (*ReportService, *tabmem.Store, *repmem.Renderer) {
	t.Helper()
	store := tabmem.New()
	renderer := repmem.New()
	svc := NewReportService(store, store, renderer)
	svc.now = func() time.Time { return testNow }
	return svc, store, renderer
}

func seedApril(t *testing.T, store *tabmem.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.AppendSummaryRow(ctx, core.SummaryRow{
		Month:           core.TextCell("2025-04"),
		TotalHours:      14.5,
		CompletedTasks:  "要件定義",
		InProgressTasks: "基本設計",
		Remarks:         "特記なし",
		Status:          core.StatusApproved,
	}))
	require.NoError(t, store.AppendLedgerRow(ctx, core.LedgerRow{
		Date:        core.DateCell(time.Date(2025, 4, 7, 0, 0, 0, 0, core.JST)),
		Hours:       core.NumberCell(8),
		Description: "設計",
		Status:      core.StatusApproved,
	}))
	require.NoError(t, store.AppendLedgerRow(ctx, core.LedgerRow{
		Date:  core.DateCell(time.Date(2025, 4, 8, 0, 0, 0, 0, core.JST)),
		Hours: core.NumberCell(6.5),
	}))
	// Outside the month and text-dated rows never reach the report body.
	require.NoError(t, store.AppendLedgerRow(ctx, core.LedgerRow{
		Date:  core.DateCell(time.Date(2025, 5, 1, 0, 0, 0, 0, core.JST)),
		Hours: core.NumberCell(8),
	}))
	require.NoError(t, store.AppendLedgerRow(ctx, core.LedgerRow{
		Date:  core.TextCell("2025/04/09"),
		Hours: core.NumberCell(8),
	}))
}

func TestGenerateRendersSummaryAndDetails(t *testing.T) {
	svc, store, renderer := newReportFixture(t)
	seedApril(t, store)

	rendered, err := svc.Generate(context.Background(), "2025/04")
	require.NoError(t, err)
	assert.Equal(t, "2025年4月次作業報告書", rendered.Name)
	assert.NotEmpty(t, rendered.URL)

	calls := renderer.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]string{
		"targetMonth":     "2025年4月",
		"totalHours":      "14.5",
		"completedTasks":  "要件定義",
		"inProgressTasks": "基本設計",
		"remarks":         "特記なし",
		"status":          core.StatusApproved,
	}, calls[0].Fields)

	require.Len(t, calls[0].Details, 2)
	assert.Equal(t, "04/07", calls[0].Details[0].Date)
	assert.Equal(t, "04/08", calls[0].Details[1].Date)
	assert.Equal(t, 6.5, calls[0].Details[1].Hours)
}

func TestGenerateDefaultsToPreviousMonth(t *testing.T) {
	svc, store, renderer := newReportFixture(t)
	seedApril(t, store)

	// testNow is in May 2025, so the default target is April.
	_, err := svc.Generate(context.Background(), "")
	require.NoError(t, err)

	calls := renderer.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "2025年4月", calls[0].Fields["targetMonth"])
}

func TestGenerateMonthWithoutSummaryFails(t *testing.T) {
	svc, _, renderer := newReportFixture(t)

	_, err := svc.Generate(context.Background(), "2025-04")
	require.ErrorIs(t, err, ErrMonthNotFound)
	assert.Empty(t, renderer.Calls())
}

func TestGenerateUnparsableMonthFails(t *testing.T) {
	svc, _, _ := newReportFixture(t)

	_, err := svc.Generate(context.Background(), "先月")
	require.ErrorIs(t, err, ErrMonthNotFound)
}
