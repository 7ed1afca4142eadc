// Package memory provides an in-memory implementation of the tables ports.
// It backs the default development backend and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"kintai/internal/core"
	"kintai/internal/tables"
)

// Store keeps all three tables in memory behind one mutex. Each call is
// guarded individually; there is no cross-call transaction, matching the
// semantics of the real tabular backends.
type Store struct {
	mu        sync.Mutex
	ledger    []core.LedgerRow
	summary   []core.SummaryRow
	approvals []core.ApprovalRecord
}

var (
	_ tables.Ledger      = (*Store)(nil)
	_ tables.Summary     = (*Store)(nil)
	_ tables.ApprovalLog = (*Store)(nil)
)

func New() *Store { return &Store{} }

func (s *Store) LedgerRows(_ context.Context) ([]core.LedgerRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.LedgerRow(nil), s.ledger...), nil
}

func (s *Store) AppendLedgerRow(_ context.Context, row core.LedgerRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = append(s.ledger, row)
	return nil
}

func (s *Store) UpdateLedgerRow(_ context.Context, position int, row core.LedgerRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position < 0 || position >= len(s.ledger) {
		return fmt.Errorf("ledger row %d out of range", position)
	}
	s.ledger[position] = row
	return nil
}

func (s *Store) DeleteLedgerRow(_ context.Context, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position < 0 || position >= len(s.ledger) {
		return fmt.Errorf("ledger row %d out of range", position)
	}
	s.ledger = append(s.ledger[:position], s.ledger[position+1:]...)
	return nil
}

func (s *Store) SortLedgerByDate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sort.SliceStable(s.ledger, func(i, j int) bool {
		return ledgerSortKey(s.ledger[i]) < ledgerSortKey(s.ledger[j])
	})
	return nil
}

// ledgerSortKey orders rows by canonical day; rows whose date does not
// normalize sort by their raw text, after all real dates.
func ledgerSortKey(row core.LedgerRow) string {
	if key, ok := core.NormalizeDay(row.Date); ok {
		return key
	}
	return "~" + row.Date.String()
}

func (s *Store) SummaryRows(_ context.Context) ([]core.SummaryRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.SummaryRow(nil), s.summary...), nil
}

func (s *Store) AppendSummaryRow(_ context.Context, row core.SummaryRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = append(s.summary, row)
	return nil
}

func (s *Store) UpdateSummaryHours(_ context.Context, position int, hours float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position < 0 || position >= len(s.summary) {
		return fmt.Errorf("summary row %d out of range", position)
	}
	s.summary[position].TotalHours = hours
	return nil
}

func (s *Store) UpdateSummaryStatus(_ context.Context, position int, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position < 0 || position >= len(s.summary) {
		return fmt.Errorf("summary row %d out of range", position)
	}
	s.summary[position].Status = status
	return nil
}

func (s *Store) AppendApproval(_ context.Context, rec core.ApprovalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals = append(s.approvals, rec)
	return nil
}

func (s *Store) Approvals(_ context.Context) ([]core.ApprovalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ApprovalRecord(nil), s.approvals...), nil
}
