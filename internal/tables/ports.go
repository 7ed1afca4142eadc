// Package tables defines the ports for the tabular persistent store the
// workflow runs against. Adapters live in subpackages (google, memory) and
// in internal/storage for the SQLite backend.
package tables

import (
	"context"
	"errors"

	"kintai/internal/core"
)

// ErrTableNotFound is returned when an expected table is missing from the
// backing store. Operations treat it as fatal: nothing is written.
var ErrTableNotFound = errors.New("table not found")

// Ports for the three tables. Row positions are zero-based indexes into the
// order returned by the most recent read; deleting a row shifts every later
// position down by one, which is why the reconciler deletes back-to-front.
type (
	// Ledger is the row-per-work-day detail table.
	Ledger interface {
		LedgerRows(ctx context.Context) ([]core.LedgerRow, error)
		AppendLedgerRow(ctx context.Context, row core.LedgerRow) error
		UpdateLedgerRow(ctx context.Context, position int, row core.LedgerRow) error
		DeleteLedgerRow(ctx context.Context, position int) error
		// SortLedgerByDate re-sorts the whole data region ascending by date.
		SortLedgerByDate(ctx context.Context) error
	}

	// Summary is the row-per-month aggregate table. Hours and status cells
	// are written individually so the narrative columns are never touched.
	Summary interface {
		SummaryRows(ctx context.Context) ([]core.SummaryRow, error)
		AppendSummaryRow(ctx context.Context, row core.SummaryRow) error
		UpdateSummaryHours(ctx context.Context, position int, hours float64) error
		UpdateSummaryStatus(ctx context.Context, position int, status string) error
	}

	// ApprovalLog is the append-only approval record log.
	ApprovalLog interface {
		AppendApproval(ctx context.Context, rec core.ApprovalRecord) error
		Approvals(ctx context.Context) ([]core.ApprovalRecord, error)
	}
)
