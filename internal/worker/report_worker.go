package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kintai/internal/amqp"
	"kintai/internal/services"
)

// ReportWorker turns queued report requests into rendered documents.
type ReportWorker struct {
	reports *services.ReportService
}

func NewReportWorker(reports *services.ReportService) *ReportWorker {
	return &ReportWorker{reports: reports}
}

// HandleReportRequest processes a single queued request. Errors propagate to
// the consumer, which requeues the delivery for another attempt.
func (w *ReportWorker) HandleReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error {
	slog.InfoContext(ctx, "Processing report request",
		"id", msg.ID,
		"month", msg.Month)

	rendered, err := w.reports.Generate(ctx, msg.Month)
	if errors.Is(err, services.ErrMonthNotFound) {
		// Requeueing cannot fix a month with no data; drop the request.
		slog.WarnContext(ctx, "Dropping report request for unknown month",
			"id", msg.ID,
			"month", msg.Month)
		return nil
	}
	if err != nil {
		return fmt.Errorf("generate report for %s: %w", msg.Month, err)
	}

	slog.InfoContext(ctx, "Report rendered",
		"id", msg.ID,
		"month", msg.Month,
		"file", rendered.Name,
		"url", rendered.URL)

	return nil
}
