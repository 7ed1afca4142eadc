package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"kintai/internal/core"
	"kintai/internal/report"
	"kintai/internal/tables"
)

// ReportService projects one month's summary and ledger detail into a
// rendered report document.
type ReportService struct {
	summary  tables.Summary
	ledger   tables.Ledger
	renderer report.Renderer
	now      func() time.Time
}

func NewReportService(summary tables.Summary, ledger tables.Ledger, renderer report.Renderer) *ReportService {
	return &ReportService{
		summary:  summary,
		ledger:   ledger,
		renderer: renderer,
		now:      time.Now,
	}
}

// Generate renders the report for the given month key. An empty key defaults
// to the previous calendar month. The summary row must exist; generating for
// a month without one fails with ErrMonthNotFound rather than producing an
// empty document.
func (s *ReportService) Generate(ctx context.Context, monthKey string) (report.RenderedFile, error) {
	if monthKey == "" {
		monthKey = core.PrevMonthKey(s.now())
	}
	target, ok := core.NormalizeMonth(core.TextCell(monthKey))
	if !ok {
		return report.RenderedFile{}, fmt.Errorf("unrecognized month %q: %w", monthKey, ErrMonthNotFound)
	}

	rows, err := s.summary.SummaryRows(ctx)
	if err != nil {
		return report.RenderedFile{}, fmt.Errorf("read summary: %w", err)
	}
	var row *core.SummaryRow
	for i := range rows {
		key, ok := core.NormalizeMonth(rows[i].Month)
		if ok && key == target {
			row = &rows[i]
			break
		}
	}
	if row == nil {
		return report.RenderedFile{}, fmt.Errorf("month %s: %w", target, ErrMonthNotFound)
	}

	details, err := s.monthDetails(ctx, target)
	if err != nil {
		return report.RenderedFile{}, err
	}

	display := core.MonthLabel(target)
	fields := map[string]string{
		"targetMonth":     display,
		"totalHours":      strconv.FormatFloat(row.TotalHours, 'f', 1, 64),
		"completedTasks":  row.CompletedTasks,
		"inProgressTasks": row.InProgressTasks,
		"remarks":         row.Remarks,
		"status":          row.Status,
	}
	fileName := display + "次作業報告書"

	rendered, err := s.renderer.Render(ctx, fileName, fields, details)
	if err != nil {
		return report.RenderedFile{}, fmt.Errorf("render report for %s: %w", target, err)
	}

	slog.InfoContext(ctx, "Report generated",
		"month", target,
		"file", rendered.Name,
		"url", rendered.URL)

	return rendered, nil
}

// monthDetails collects the detail lines for the report body. Only rows with
// a native date value make it into the table; dates render as MM/dd.
func (s *ReportService) monthDetails(ctx context.Context, target string) ([]core.WorkDetail, error) {
	rows, err := s.ledger.LedgerRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var out []core.WorkDetail
	for _, row := range rows {
		d, ok := row.Date.Date()
		if !ok {
			continue
		}
		if d.In(core.JST).Format("2006-01") != target {
			continue
		}
		hours, _ := row.Hours.Number()
		out = append(out, core.WorkDetail{
			Date:        d.In(core.JST).Format("01/02"),
			Hours:       hours,
			Description: row.Description,
			Status:      row.Status,
		})
	}
	return out, nil
}
