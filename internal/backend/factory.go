// Package backend builds the table, calendar and report adapters selected
// by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"kintai/internal/calendar"
	calgoogle "kintai/internal/calendar/google"
	"kintai/internal/config"
	"kintai/internal/report"
	"kintai/internal/report/gdoc"
	repmem "kintai/internal/report/memory"
	"kintai/internal/storage"
	"kintai/internal/tables"
	tabgoogle "kintai/internal/tables/google"
	tabmem "kintai/internal/tables/memory"
)

// Tables bundles the three table ports plus the cleanup for whatever backs
// them. All three always point at the same underlying store.
type Tables struct {
	Ledger    tables.Ledger
	Summary   tables.Summary
	Approvals tables.ApprovalLog
	Cleanup   func() error
}

func NewTables(ctx context.Context, cfg *config.Config) (Tables, error) {
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return Tables{}, fmt.Errorf("initialize sqlite repository: %w", err)
		}
		slog.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return Tables{Ledger: repo, Summary: repo, Approvals: repo, Cleanup: repo.Close}, nil

	case "sheets":
		creds, err := cfg.GoogleCredentials()
		if err != nil {
			return Tables{}, err
		}
		cli, err := tabgoogle.New(ctx, tabgoogle.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			LedgerSheet:     cfg.LedgerSheetName,
			SummarySheet:    cfg.SummarySheetName,
			ApprovalSheet:   cfg.ApprovalSheetName,
			CredentialsJSON: creds,
		})
		if err != nil {
			return Tables{}, fmt.Errorf("initialize sheets client: %w", err)
		}
		slog.InfoContext(ctx, "Initialized Google Sheets backend",
			"spreadsheet_id", cfg.GoogleSpreadsheetID)
		return Tables{Ledger: cli, Summary: cli, Approvals: cli}, nil

	case "memory":
		store := tabmem.New()
		slog.InfoContext(ctx, "Initialized memory backend")
		return Tables{Ledger: store, Summary: store, Approvals: store}, nil

	default:
		return Tables{}, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}

// NewEventSource returns the configured calendar source, or nil when no
// calendar id is set; the import side is then disabled.
func NewEventSource(ctx context.Context, cfg *config.Config) (calendar.EventSource, error) {
	if cfg.CalendarID == "" {
		slog.InfoContext(ctx, "Calendar import disabled, no CALENDAR_ID provided")
		return nil, nil
	}
	creds, err := cfg.GoogleCredentials()
	if err != nil {
		return nil, err
	}
	src, err := calgoogle.New(ctx, cfg.CalendarID, creds)
	if err != nil {
		return nil, fmt.Errorf("initialize calendar source: %w", err)
	}
	slog.InfoContext(ctx, "Initialized Google Calendar source", "calendar_id", cfg.CalendarID)
	return src, nil
}

// NewRenderer returns the Docs renderer when a template is configured, and
// the in-memory recorder otherwise so report generation still works in
// development.
func NewRenderer(ctx context.Context, cfg *config.Config) (report.Renderer, error) {
	if cfg.ReportTemplateFileID == "" {
		slog.InfoContext(ctx, "Report rendering using memory renderer, no REPORT_TEMPLATE_FILE_ID provided")
		return repmem.New(), nil
	}
	creds, err := cfg.GoogleCredentials()
	if err != nil {
		return nil, err
	}
	r, err := gdoc.New(ctx, gdoc.Config{
		TemplateFileID:  cfg.ReportTemplateFileID,
		OutputFolderID:  cfg.ReportOutputFolderID,
		CredentialsJSON: creds,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize docs renderer: %w", err)
	}
	slog.InfoContext(ctx, "Initialized Google Docs renderer",
		"template_file_id", cfg.ReportTemplateFileID)
	return r, nil
}
