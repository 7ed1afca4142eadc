// Package google implements the table ports on top of a Google Spreadsheet.
// Each table is one sheet with a single header row; data starts at row 2.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"kintai/internal/core"
	"kintai/internal/tables"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config identifies the spreadsheet and its three sheets.
type Config struct {
	SpreadsheetID   string
	LedgerSheet     string
	SummarySheet    string
	ApprovalSheet   string
	CredentialsJSON []byte
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
	summarySheet  string
	approvalSheet string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

var (
	_ tables.Ledger      = (*Client)(nil)
	_ tables.Summary     = (*Client)(nil)
	_ tables.ApprovalLog = (*Client)(nil)
)

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if len(cfg.CredentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(cfg.CredentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		ledgerSheet:   cfg.LedgerSheet,
		summarySheet:  cfg.SummarySheet,
		approvalSheet: cfg.ApprovalSheet,
		sheetIDs:      make(map[string]int64),
	}, nil
}

const approvalTimestampLayout = "2006/01/02 15:04:05"

func (c *Client) LedgerRows(ctx context.Context) ([]core.LedgerRow, error) {
	values, err := c.readRows(ctx, c.ledgerSheet, "A2:E")
	if err != nil {
		return nil, err
	}

	var out []core.LedgerRow
	for _, cols := range values {
		out = append(out, core.LedgerRow{
			Date:        core.ParseCell(col(cols, 0)),
			Hours:       core.ParseCell(col(cols, 1)),
			Description: col(cols, 2),
			Status:      col(cols, 3),
			ExternalID:  col(cols, 4),
		})
	}
	return out, nil
}

func (c *Client) AppendLedgerRow(ctx context.Context, row core.LedgerRow) error {
	return c.appendRow(ctx, c.ledgerSheet, []any{
		row.Date.String(), row.Hours.String(), row.Description, row.Status, row.ExternalID,
	})
}

func (c *Client) UpdateLedgerRow(ctx context.Context, position int, row core.LedgerRow) error {
	rng := fmt.Sprintf("%s!A%d:E%d", c.ledgerSheet, position+2, position+2)
	vr := &gsheet.ValueRange{Values: [][]any{{
		row.Date.String(), row.Hours.String(), row.Description, row.Status, row.ExternalID,
	}}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) DeleteLedgerRow(ctx context.Context, position int) error {
	sheetID, err := c.sheetID(ctx, c.ledgerSheet)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(position + 1),
					EndIndex:   int64(position + 2),
				},
			},
		}},
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete row %d from %s: %w", position, c.ledgerSheet, err)
	}
	return nil
}

func (c *Client) SortLedgerByDate(ctx context.Context) error {
	sheetID, err := c.sheetID(ctx, c.ledgerSheet)
	if err != nil {
		return err
	}

	// Sort everything below the header by the date column. Canonical
	// yyyy-mm-dd strings order correctly as text.
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			SortRange: &gsheet.SortRangeRequest{
				Range: &gsheet.GridRange{
					SheetId:       sheetID,
					StartRowIndex: 1,
				},
				SortSpecs: []*gsheet.SortSpec{{
					DimensionIndex: 0,
					SortOrder:      "ASCENDING",
				}},
			},
		}},
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sort %s: %w", c.ledgerSheet, err)
	}
	return nil
}

func (c *Client) SummaryRows(ctx context.Context) ([]core.SummaryRow, error) {
	values, err := c.readRows(ctx, c.summarySheet, "A2:F")
	if err != nil {
		return nil, err
	}

	var out []core.SummaryRow
	for _, cols := range values {
		row := core.SummaryRow{
			Month:           core.ParseCell(col(cols, 0)),
			CompletedTasks:  col(cols, 2),
			InProgressTasks: col(cols, 3),
			Remarks:         col(cols, 4),
			Status:          col(cols, 5),
		}
		if n, ok := core.ParseCell(col(cols, 1)).Number(); ok {
			row.TotalHours = n
		}
		out = append(out, row)
	}
	return out, nil
}

func (c *Client) AppendSummaryRow(ctx context.Context, row core.SummaryRow) error {
	return c.appendRow(ctx, c.summarySheet, []any{
		row.Month.String(), row.TotalHours, row.CompletedTasks,
		row.InProgressTasks, row.Remarks, row.Status,
	})
}

func (c *Client) UpdateSummaryHours(ctx context.Context, position int, hours float64) error {
	return c.updateCell(ctx, c.summarySheet, "B", position, hours)
}

func (c *Client) UpdateSummaryStatus(ctx context.Context, position int, status string) error {
	return c.updateCell(ctx, c.summarySheet, "F", position, status)
}

func (c *Client) AppendApproval(ctx context.Context, rec core.ApprovalRecord) error {
	return c.appendRow(ctx, c.approvalSheet, []any{
		rec.Timestamp.In(core.JST).Format(approvalTimestampLayout),
		rec.Email, rec.Name, rec.TargetMonth, rec.Decision, rec.Comment,
	})
}

func (c *Client) Approvals(ctx context.Context) ([]core.ApprovalRecord, error) {
	values, err := c.readRows(ctx, c.approvalSheet, "A2:F")
	if err != nil {
		return nil, err
	}

	var out []core.ApprovalRecord
	for _, cols := range values {
		rec := core.ApprovalRecord{
			Email:       col(cols, 1),
			Name:        col(cols, 2),
			TargetMonth: col(cols, 3),
			Decision:    col(cols, 4),
			Comment:     col(cols, 5),
		}
		if ts, err := time.ParseInLocation(approvalTimestampLayout, col(cols, 0), core.JST); err == nil {
			rec.Timestamp = ts
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Client) readRows(ctx context.Context, sheet, cells string) ([][]any, error) {
	rng := fmt.Sprintf("%s!%s", sheet, cells)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) appendRow(ctx context.Context, sheet string, cells []any) error {
	rng := fmt.Sprintf("%s!A:A", sheet)
	vr := &gsheet.ValueRange{Values: [][]any{cells}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", sheet, err)
	}
	return nil
}

func (c *Client) updateCell(ctx context.Context, sheet, column string, position int, value any) error {
	rng := fmt.Sprintf("%s!%s%d", sheet, column, position+2)
	vr := &gsheet.ValueRange{Values: [][]any{{value}}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// sheetID resolves and caches the numeric sheet id behind a sheet title.
func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	c.mu.Lock()
	if id, ok := c.sheetIDs[title]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet metadata: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sh := range meta.Sheets {
		if sh.Properties != nil {
			c.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	if id, ok := c.sheetIDs[title]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("sheet %q: %w", title, tables.ErrTableNotFound)
}

func col(cols []any, idx int) string {
	if idx < 0 || idx >= len(cols) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(cols[idx]))
}
