package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"kintai/internal/core"
	"kintai/internal/tables"
)

// ReportRequester hands a report-generation request to a downstream worker.
// Generation is deferred and best-effort relative to the approval append:
// the log entry is durable even if the request (or the render) fails.
type ReportRequester interface {
	RequestReport(ctx context.Context, monthKey string) error
}

// ApprovalService owns the append-only approval log and the summary status
// column, plus the read-only queries the form UI needs.
type ApprovalService struct {
	log     tables.ApprovalLog
	summary tables.Summary
	ledger  tables.Ledger
	reports ReportRequester // optional; nil disables deferred generation
	now     func() time.Time
}

func NewApprovalService(log tables.ApprovalLog, summary tables.Summary, ledger tables.Ledger, reports ReportRequester) *ApprovalService {
	return &ApprovalService{
		log:     log,
		summary: summary,
		ledger:  ledger,
		reports: reports,
		now:     time.Now,
	}
}

type (
	// SubmitInput is one approval form submission.
	SubmitInput struct {
		Email       string
		Name        string
		TargetMonth string
		Decision    string
		Comment     string
	}

	SubmitResult struct {
		NeedsReport bool
	}

	// ApprovalList is the full log in tabular form, newest first.
	ApprovalList struct {
		Headers []string
		Rows    [][]string
	}

	// MonthOption is one entry of the unapproved-month picker.
	MonthOption struct {
		Value string
		Label string
	}

	// SummaryNarrative holds the manually curated fields of one month.
	SummaryNarrative struct {
		CompletedTasks  string
		InProgressTasks string
		Remarks         string
	}
)

var approvalHeaders = []string{"タイムスタンプ", "メールアドレス", "氏名", "対象月", "承認可否", "コメント"}

// Submit appends the approval record, cross-updates the matching summary
// row's status, and signals whether report generation is needed.
//
// The log append commits first and is never rolled back: a later failure in
// the status update or the report request leaves the entry in place, by
// design (there is no cross-step transaction).
func (s *ApprovalService) Submit(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	rec := core.ApprovalRecord{
		Timestamp:   s.now(),
		Email:       in.Email,
		Name:        in.Name,
		TargetMonth: in.TargetMonth,
		Decision:    in.Decision,
		Comment:     in.Comment,
	}
	if err := s.log.AppendApproval(ctx, rec); err != nil {
		return SubmitResult{}, fmt.Errorf("append approval: %w", err)
	}

	if err := s.updateSummaryStatus(ctx, in.TargetMonth, in.Decision); err != nil {
		return SubmitResult{}, err
	}

	res := SubmitResult{NeedsReport: in.Decision == core.DecisionApprove}
	if res.NeedsReport && s.reports != nil {
		if key, ok := core.NormalizeMonth(core.TextCell(in.TargetMonth)); ok {
			if err := s.reports.RequestReport(ctx, key); err != nil {
				// Partial failure: the submission is still accepted.
				slog.WarnContext(ctx, "Report request failed after approval",
					"month", key, "error", err)
			}
		}
	}

	slog.InfoContext(ctx, "Approval submitted",
		"month", in.TargetMonth,
		"decision", in.Decision,
		"needs_report", res.NeedsReport)

	return res, nil
}

// updateSummaryStatus writes the decision-derived status into the first
// summary row matching the target month. Unknown decisions write nothing;
// an absent month is not an error.
func (s *ApprovalService) updateSummaryStatus(ctx context.Context, targetMonth, decision string) error {
	status, mapped := core.StatusForDecision(decision)
	if !mapped {
		return nil
	}
	target, ok := core.NormalizeMonth(core.TextCell(targetMonth))
	if !ok {
		return nil
	}

	rows, err := s.summary.SummaryRows(ctx)
	if err != nil {
		return fmt.Errorf("read summary: %w", err)
	}
	for i, row := range rows {
		key, ok := core.NormalizeMonth(row.Month)
		if !ok || key != target {
			continue
		}
		if err := s.summary.UpdateSummaryStatus(ctx, i, status); err != nil {
			return fmt.Errorf("update summary status for %s: %w", target, err)
		}
		return nil
	}
	return nil
}

// ListApprovals returns the full approval log, newest first.
func (s *ApprovalService) ListApprovals(ctx context.Context) (ApprovalList, error) {
	recs, err := s.log.Approvals(ctx)
	if err != nil {
		return ApprovalList{}, fmt.Errorf("read approval log: %w", err)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Timestamp.After(recs[j].Timestamp)
	})

	list := ApprovalList{Headers: approvalHeaders}
	for _, rec := range recs {
		month := rec.TargetMonth
		if key, ok := core.NormalizeMonth(core.TextCell(month)); ok {
			month = key
		}
		list.Rows = append(list.Rows, []string{
			rec.Timestamp.In(core.JST).Format("2006/01/02 15:04:05"),
			rec.Email,
			rec.Name,
			month,
			rec.Decision,
			rec.Comment,
		})
	}
	return list, nil
}

// ListUnapprovedMonths returns summary months that are not yet approved and
// lie strictly before the current calendar month. The current, still-open
// month is never flagged, whatever its status.
func (s *ApprovalService) ListUnapprovedMonths(ctx context.Context) ([]MonthOption, error) {
	rows, err := s.summary.SummaryRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	current := core.CurrentMonthKey(s.now())

	var out []MonthOption
	for _, row := range rows {
		if row.Status == core.StatusApproved {
			continue
		}
		key, ok := core.NormalizeMonth(row.Month)
		if !ok || key >= current {
			continue
		}
		out = append(out, MonthOption{Value: key, Label: core.MonthLabel(key)})
	}
	return out, nil
}

// SummaryForMonth returns the narrative fields for one month, or nil when
// the month is absent or the key does not normalize. Absence is an empty
// result here, never an error.
func (s *ApprovalService) SummaryForMonth(ctx context.Context, monthKey string) (*SummaryNarrative, error) {
	target, ok := core.NormalizeMonth(core.TextCell(monthKey))
	if !ok {
		return nil, nil
	}
	rows, err := s.summary.SummaryRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	for _, row := range rows {
		key, ok := core.NormalizeMonth(row.Month)
		if !ok || key != target {
			continue
		}
		return &SummaryNarrative{
			CompletedTasks:  row.CompletedTasks,
			InProgressTasks: row.InProgressTasks,
			Remarks:         row.Remarks,
		}, nil
	}
	return nil, nil
}

// WorkDetailsForMonth returns the ledger rows whose normalized date falls
// in the given month. An unparseable key yields an empty list.
func (s *ApprovalService) WorkDetailsForMonth(ctx context.Context, monthKey string) ([]core.WorkDetail, error) {
	target, ok := core.NormalizeMonth(core.TextCell(monthKey))
	if !ok {
		return nil, nil
	}
	rows, err := s.ledger.LedgerRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var out []core.WorkDetail
	for _, row := range rows {
		key, ok := core.NormalizeMonth(row.Date)
		if !ok || key != target {
			continue
		}
		date := row.Date.String()
		if d, ok := row.Date.Date(); ok {
			date = d.In(core.JST).Format("2006/01/02")
		}
		hours, _ := row.Hours.Number()
		out = append(out, core.WorkDetail{
			Date:        date,
			Hours:       hours,
			Description: row.Description,
			Status:      row.Status,
		})
	}
	return out, nil
}
