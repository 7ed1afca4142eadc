package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	calmem "kintai/internal/calendar/memory"
	"kintai/internal/core"
	"kintai/internal/services"
	tabmem "kintai/internal/tables/memory"
)

func importFixture(t *testing.T) (*ImportWorker, *tabmem.Store) {
	t.Helper()
	store := tabmem.New()
	day := time.Date(2025, 4, 7, 0, 0, 0, 0, core.JST)
	source := calmem.New(core.WorkEvent{
		ExternalID: "ev-1",
		Start:      day.Add(9 * time.Hour),
		End:        day.Add(17 * time.Hour),
		Title:      "稼働日",
	})

	settings := services.ImportSettings{
		CalendarID: "cal@example.com",
		StartDate:  time.Date(2025, 4, 1, 0, 0, 0, 0, core.JST),
	}
	cfg := DefaultImportWorkerConfig(settings)
	cfg.Interval = 50 * time.Millisecond

	w := NewImportWorker(
		services.NewReconciler(store, source),
		services.NewAggregator(store, store),
		cfg,
	)
	return w, store
}

func TestImportWorkerLifecycle(t *testing.T) {
	w, store := importFixture(t)
	ctx := context.Background()

	require.NoError(t, w.Start(ctx))
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(ctx), "second start must fail")

	// The startup pass runs synchronously enough to land within the wait.
	require.Eventually(t, func() bool {
		rows, err := store.LedgerRows(ctx)
		return err == nil && len(rows) == 1
	}, time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))
	assert.False(t, w.IsRunning())

	// Stopping again is a no-op.
	require.NoError(t, w.Stop(stopCtx))
}

func TestImportWorkerRunOnce(t *testing.T) {
	w, store := importFixture(t)
	ctx := context.Background()

	stats, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)

	sums, err := store.SummaryRows(ctx)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, 8.0, sums[0].TotalHours)
}

func TestImportWorkerPassFailsWithoutSettings(t *testing.T) {
	store := tabmem.New()
	w := NewImportWorker(
		services.NewReconciler(store, calmem.New()),
		services.NewAggregator(store, store),
		DefaultImportWorkerConfig(services.ImportSettings{}),
	)

	_, err := w.RunOnce(context.Background())
	var missing *services.MissingConfigError
	require.ErrorAs(t, err, &missing)
}
