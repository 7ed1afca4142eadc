// Package storage provides a SQLite-backed implementation of the three
// table ports. Row order is materialized in an explicit position column so
// the position-addressed update and delete semantics of the tabular ports
// hold across connections.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"kintai/internal/core"
	"kintai/internal/tables"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ tables.Ledger      = (*SQLiteRepository)(nil)
	_ tables.Summary     = (*SQLiteRepository)(nil)
	_ tables.ApprovalLog = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) LedgerRows(ctx context.Context) ([]core.LedgerRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, hours, description, status, external_id
		 FROM ledger_rows ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query ledger rows: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerRow
	for rows.Next() {
		var date, hours string
		var row core.LedgerRow
		if err := rows.Scan(&date, &hours, &row.Description, &row.Status, &row.ExternalID); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		row.Date = core.ParseCell(date)
		row.Hours = core.ParseCell(hours)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) AppendLedgerRow(ctx context.Context, row core.LedgerRow) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ledger_rows (position, date, hours, description, status, external_id)
		 VALUES ((SELECT COALESCE(MAX(position)+1, 0) FROM ledger_rows), ?, ?, ?, ?, ?)`,
		row.Date.String(), row.Hours.String(), row.Description, row.Status, row.ExternalID)
	if err != nil {
		return fmt.Errorf("insert ledger row: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateLedgerRow(ctx context.Context, position int, row core.LedgerRow) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ledger_rows SET date = ?, hours = ?, description = ?, status = ?, external_id = ?
		 WHERE position = ?`,
		row.Date.String(), row.Hours.String(), row.Description, row.Status, row.ExternalID, position)
	if err != nil {
		return fmt.Errorf("update ledger row: %w", err)
	}
	return requireRow(res, position)
}

func (r *SQLiteRepository) DeleteLedgerRow(ctx context.Context, position int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM ledger_rows WHERE position = ?`, position)
	if err != nil {
		return fmt.Errorf("delete ledger row: %w", err)
	}
	if err := requireRow(res, position); err != nil {
		return err
	}
	// Later rows shift up so positions stay dense.
	if _, err := tx.ExecContext(ctx,
		`UPDATE ledger_rows SET position = position - 1 WHERE position > ?`, position); err != nil {
		return fmt.Errorf("shift ledger positions: %w", err)
	}
	return tx.Commit()
}

func (r *SQLiteRepository) SortLedgerByDate(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date FROM ledger_rows ORDER BY position`)
	if err != nil {
		return fmt.Errorf("query ledger for sort: %w", err)
	}

	type entry struct {
		id  int64
		key string
	}
	var entries []entry
	for rows.Next() {
		var e entry
		var date string
		if err := rows.Scan(&e.id, &date); err != nil {
			rows.Close()
			return fmt.Errorf("scan ledger id: %w", err)
		}
		if key, ok := core.NormalizeDay(core.ParseCell(date)); ok {
			e.key = key
		} else {
			// Non-date rows sink below every real date.
			e.key = "~" + date
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate ledger for sort: %w", err)
	}
	rows.Close()

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sort: %w", err)
	}
	defer tx.Rollback()

	for pos, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`UPDATE ledger_rows SET position = ? WHERE id = ?`, pos, e.id); err != nil {
			return fmt.Errorf("reposition ledger row %d: %w", e.id, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) SummaryRows(ctx context.Context) ([]core.SummaryRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT month, total_hours, completed_tasks, in_progress_tasks, remarks, status
		 FROM summary_rows ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query summary rows: %w", err)
	}
	defer rows.Close()

	var out []core.SummaryRow
	for rows.Next() {
		var month string
		var row core.SummaryRow
		if err := rows.Scan(&month, &row.TotalHours, &row.CompletedTasks,
			&row.InProgressTasks, &row.Remarks, &row.Status); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		row.Month = core.ParseCell(month)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) AppendSummaryRow(ctx context.Context, row core.SummaryRow) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO summary_rows (position, month, total_hours, completed_tasks, in_progress_tasks, remarks, status)
		 VALUES ((SELECT COALESCE(MAX(position)+1, 0) FROM summary_rows), ?, ?, ?, ?, ?, ?)`,
		row.Month.String(), row.TotalHours, row.CompletedTasks,
		row.InProgressTasks, row.Remarks, row.Status)
	if err != nil {
		return fmt.Errorf("insert summary row: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateSummaryHours(ctx context.Context, position int, hours float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE summary_rows SET total_hours = ? WHERE position = ?`, hours, position)
	if err != nil {
		return fmt.Errorf("update summary hours: %w", err)
	}
	return requireRow(res, position)
}

func (r *SQLiteRepository) UpdateSummaryStatus(ctx context.Context, position int, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE summary_rows SET status = ? WHERE position = ?`, status, position)
	if err != nil {
		return fmt.Errorf("update summary status: %w", err)
	}
	return requireRow(res, position)
}

func (r *SQLiteRepository) AppendApproval(ctx context.Context, rec core.ApprovalRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO approval_log (submitted_at, email, name, target_month, decision, comment)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.Email, rec.Name, rec.TargetMonth, rec.Decision, rec.Comment)
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Approvals(ctx context.Context) ([]core.ApprovalRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT submitted_at, email, name, target_month, decision, comment
		 FROM approval_log ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query approvals: %w", err)
	}
	defer rows.Close()

	var out []core.ApprovalRecord
	for rows.Next() {
		var submitted string
		var rec core.ApprovalRecord
		if err := rows.Scan(&submitted, &rec.Email, &rec.Name,
			&rec.TargetMonth, &rec.Decision, &rec.Comment); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, submitted)
		if err != nil {
			return nil, fmt.Errorf("parse approval timestamp %q: %w", submitted, err)
		}
		rec.Timestamp = ts
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approvals: %w", err)
	}
	return out, nil
}

func requireRow(res sql.Result, position int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("row %d out of range", position)
	}
	return nil
}
