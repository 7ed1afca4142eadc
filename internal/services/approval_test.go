package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kintai/internal/core"
	tabmem "kintai/internal/tables/memory"
)

type recordingRequester struct {
	months []string
	err    error
}

func (r *recordingRequester) RequestReport(_ context.Context, monthKey string) error {
	r.months = append(r.months, monthKey)
	return r.err
}

func newApprovalFixture(t *testing.T) (*ApprovalService, *tabmem.Store, *recordingRequester) {
	t.Helper()
	store := tabmem.New()
	req := &recordingRequester{}
	svc := NewApprovalService(store, store, store, req)
	svc.now = func() time.Time { return testNow }
	return svc, store, req
}

func TestSubmitApproveUpdatesStatusAndRequestsReport(t *testing.T) {
	svc, store, req := newApprovalFixture(t)
	ctx := context.Background()

	require.NoError(t, store.AppendSummaryRow(ctx, core.SummaryRow{
		Month: core.TextCell("2025/04"), TotalHours: 160,
	}))

	res, err := svc.Submit(ctx, SubmitInput{
		Email:       "taro@example.com",
		Name:        "山田太郎",
		TargetMonth: "2025-04",
		Decision:    core.DecisionApprove,
		Comment:     "問題なし",
	})
	require.NoError(t, err)
	assert.True(t, res.NeedsReport)

	recs, err := store.Approvals(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "山田太郎", recs[0].Name)

	rows, err := store.SummaryRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.StatusApproved, rows[0].Status)

	assert.Equal(t, []string{"2025-04"}, req.months)
}

func TestSubmitRejectWritesRejectedStatusWithoutReport(t *testing.T) {
	svc, store, req := newApprovalFixture(t)
	ctx := context.Background()

	require.NoError(t, store.AppendSummaryRow(ctx, core.SummaryRow{
		Month: core.TextCell("2025-04"),
	}))

	res, err := svc.Submit(ctx, SubmitInput{
		TargetMonth: "2025-04",
		Decision:    core.DecisionReject,
	})
	require.NoError(t, err)
	assert.False(t, res.NeedsReport)

	rows, err := store.SummaryRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.StatusRejected, rows[0].Status)
	assert.Empty(t, req.months)
}

func TestSubmitUnknownDecisionLogsButLeavesStatus(t *testing.T) {
	svc, store, _ := newApprovalFixture(t)
	ctx := context.Background()

	require.NoError(t, store.AppendSummaryRow(ctx, core.SummaryRow{
		Month: core.TextCell("2025-04"), Status: "保留",
	}))

	_, err := svc.Submit(ctx, SubmitInput{TargetMonth: "2025-04", Decision: "差戻し"})
	require.NoError(t, err)

	recs, err := store.Approvals(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	rows, err := store.SummaryRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, "保留", rows[0].Status)
}

func TestSubmitMonthAbsentFromSummaryStillLogged(t *testing.T) {
	svc, store, _ := newApprovalFixture(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitInput{TargetMonth: "2030-01", Decision: core.DecisionApprove})
	require.NoError(t, err)

	recs, err := store.Approvals(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestSubmitAcceptedWhenReportRequestFails(t *testing.T) {
	svc, store, req := newApprovalFixture(t)
	req.err = errors.New("broker down")
	ctx := context.Background()

	require.NoError(t, store.AppendSummaryRow(ctx, core.SummaryRow{
		Month: core.TextCell("2025-04"),
	}))

	res, err := svc.Submit(ctx, SubmitInput{TargetMonth: "2025-04", Decision: core.DecisionApprove})
	require.NoError(t, err)
	assert.True(t, res.NeedsReport)

	rows, err := store.SummaryRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.StatusApproved, rows[0].Status)
}

func TestListApprovalsNewestFirst(t *testing.T) {
	svc, store, _ := newApprovalFixture(t)
	ctx := context.Background()

	older := testNow.Add(-48 * time.Hour)
	require.NoError(t, store.AppendApproval(ctx, core.ApprovalRecord{
		Timestamp: older, Name: "先", TargetMonth: "2025/03", Decision: core.DecisionApprove,
	}))
	require.NoError(t, store.AppendApproval(ctx, core.ApprovalRecord{
		Timestamp: testNow, Name: "後", TargetMonth: "2025-04", Decision: core.DecisionReject,
	}))

	list, err := svc.ListApprovals(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"タイムスタンプ", "メールアドレス", "氏名", "対象月", "承認可否", "コメント"}, list.Headers)
	require.Len(t, list.Rows, 2)
	assert.Equal(t, "後", list.Rows[0][2])
	assert.Equal(t, "2025-03", list.Rows[1][3])
	assert.Equal(t, "2025/05/15 10:00:00", list.Rows[0][0])
}

func TestListUnapprovedMonthsExcludesCurrentAndApproved(t *testing.T) {
	svc, store, _ := newApprovalFixture(t)
	ctx := context.Background()

	require.NoError(t, store.AppendSummaryRow(ctx, core.SummaryRow{
		Month: core.TextCell("2025-03"), Status: core.StatusApproved,
	}))
	require.NoError(t, store.AppendSummaryRow(ctx, core.SummaryRow{
		Month: core.TextCell("2025/04"), Status: core.StatusRejected,
	}))
	// The current month stays off the list even without a status.
	require.NoError(t, store.AppendSummaryRow(ctx, core.SummaryRow{
		Month: core.TextCell("2025-05"),
	}))

	opts, err := svc.ListUnapprovedMonths(ctx)
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, MonthOption{Value: "2025-04", Label: "2025年4月"}, opts[0])
}

func TestSummaryForMonthAbsentIsNil(t *testing.T) {
	svc, store, _ := newApprovalFixture(t)
	ctx := context.Background()

	require.NoError(t, store.AppendSummaryRow(ctx, core.SummaryRow{
		Month: core.TextCell("2025-04"), CompletedTasks: "設計完了",
	}))

	got, err := svc.SummaryForMonth(ctx, "2025/04")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "設計完了", got.CompletedTasks)

	got, err = svc.SummaryForMonth(ctx, "2025-06")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWorkDetailsForMonth(t *testing.T) {
	svc, store, _ := newApprovalFixture(t)
	ctx := context.Background()

	require.NoError(t, store.AppendLedgerRow(ctx, core.LedgerRow{
		Date:        core.DateCell(time.Date(2025, 4, 7, 0, 0, 0, 0, core.JST)),
		Hours:       core.NumberCell(8),
		Description: "設計",
		Status:      core.StatusApproved,
	}))
	require.NoError(t, store.AppendLedgerRow(ctx, core.LedgerRow{
		Date:  core.TextCell("2025/04/08"),
		Hours: core.TextCell("終日"),
	}))
	require.NoError(t, store.AppendLedgerRow(ctx, core.LedgerRow{
		Date:  core.DateCell(time.Date(2025, 5, 1, 0, 0, 0, 0, core.JST)),
		Hours: core.NumberCell(8),
	}))

	details, err := svc.WorkDetailsForMonth(ctx, "2025-04")
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "2025/04/07", details[0].Date)
	assert.Equal(t, 8.0, details[0].Hours)
	// Text-valued cells pass through as entered, hours falling back to zero.
	assert.Equal(t, "2025/04/08", details[1].Date)
	assert.Equal(t, 0.0, details[1].Hours)
}
