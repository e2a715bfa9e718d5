package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"extrato/internal/core"
	ports "extrato/internal/sheets"
)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID   string
	SheetPrefix     string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetPrefix   string
}

var _ ports.StatementExporter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", cfg.SpreadsheetID)
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetPrefix), nil
}

// NewWithService wraps an existing service. Tests point it at a fake endpoint.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetPrefix string) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetPrefix:   strings.TrimSpace(sheetPrefix),
	}
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}
}

const valueInputRaw = "RAW"

// ExportStatement replaces the contents of the month's tab with st,
// creating the tab when it does not exist yet.
func (c *Client) ExportStatement(ctx context.Context, st core.Statement) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	name := SheetName(c.sheetPrefix, st.Year, st.Month)

	if err := c.ensureSheet(ctx, name); err != nil {
		return "", err
	}

	rng := quoteSheet(name) + "!A:E"
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", name, err)
	}

	// RAW keeps descriptions such as "=..." from being parsed as formulas.
	vr := &gsheet.ValueRange{Values: statementRows(st)}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, quoteSheet(name)+"!A1", vr).
		ValueInputOption(valueInputRaw).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write sheet %s: %w", name, err)
	}

	slog.InfoContext(ctx, "Statement exported", "sheet", name, "rows", len(vr.Values))
	return name, nil
}

func (c *Client) ensureSheet(ctx context.Context, name string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == name {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: name}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", name, err)
	}
	slog.InfoContext(ctx, "Created sheet", "sheet", name)
	return nil
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
