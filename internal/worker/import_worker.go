// Package worker hosts the background sides of the system: the periodic
// calendar import and the queued report generation.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"kintai/internal/services"
)

// ImportWorkerConfig holds the scheduling knobs of the periodic import.
type ImportWorkerConfig struct {
	// Interval is how often a full import pass runs (default: 15m).
	Interval time.Duration

	// Settings is the calendar window the reconciler imports from.
	Settings services.ImportSettings
}

func DefaultImportWorkerConfig(settings services.ImportSettings) ImportWorkerConfig {
	return ImportWorkerConfig{
		Interval: 15 * time.Minute,
		Settings: settings,
	}
}

// ImportWorker periodically reconciles the calendar into the ledger and then
// re-aggregates the monthly totals. One pass runs immediately on start.
type ImportWorker struct {
	reconciler *services.Reconciler
	aggregator *services.Aggregator
	config     ImportWorkerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewImportWorker(reconciler *services.Reconciler, aggregator *services.Aggregator, config ImportWorkerConfig) *ImportWorker {
	return &ImportWorker{
		reconciler: reconciler,
		aggregator: aggregator,
		config:     config,
	}
}

// Start begins the import loop. Returns an error if already running.
func (w *ImportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("import worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Import worker started",
		"interval", w.config.Interval,
		"calendar_id", w.config.Settings.CalendarID)

	return nil
}

// Stop gracefully stops the worker and waits for the current pass to finish.
func (w *ImportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		slog.InfoContext(ctx, "Import worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Import worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	return nil
}

func (w *ImportWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *ImportWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// Run immediately on startup.
	w.runPass(ctx)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runPass(ctx)
		}
	}
}

// runPass runs one reconcile-then-aggregate cycle. Aggregation only runs on
// a successful reconcile so the summary never reflects a half-imported
// ledger.
func (w *ImportWorker) runPass(ctx context.Context) {
	stats, err := w.reconciler.Run(ctx, w.config.Settings)
	if err != nil {
		slog.ErrorContext(ctx, "Calendar import failed", "error", err)
		return
	}

	if err := w.aggregator.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "Monthly aggregation failed", "error", err)
		return
	}

	slog.InfoContext(ctx, "Import pass completed",
		"created", stats.Created,
		"updated", stats.Updated,
		"deleted", stats.Deleted)
}

// RunOnce runs a single reconcile-and-aggregate pass outside the loop. The
// manual import endpoint uses it.
func (w *ImportWorker) RunOnce(ctx context.Context) (services.ReconcileStats, error) {
	stats, err := w.reconciler.Run(ctx, w.config.Settings)
	if err != nil {
		return stats, err
	}
	if err := w.aggregator.Run(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}
