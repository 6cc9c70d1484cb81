// Package sheets exports aggregated donation data to a Google
// Sheets finance dashboard. Authentication uses an OAuth client
// plus a stored token; run cmd/oauth-init once to obtain the token.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"helpinghand/internal/core"
)

// Options carries the credentials and target sheet. JSON values win
// over file paths when both are set.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenJSON  string
	OAuthTokenFile  string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName := opts.SheetName
	if sheetName == "" {
		sheetName = "Donations"
	}

	clientJSON, err := loadJSON(opts.OAuthClientJSON, opts.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("load OAuth client: %w", err)
	}
	cfg, err := google.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse OAuth client: %w", err)
	}

	tokenJSON, err := loadJSON(opts.OAuthTokenJSON, opts.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("load OAuth token: %w", err)
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(tokenJSON, tok); err != nil {
		return nil, fmt.Errorf("parse OAuth token: %w", err)
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", opts.SpreadsheetID, "sheet", sheetName)
	return &Client{svc: svc, spreadsheetID: opts.SpreadsheetID, sheetName: sheetName}, nil
}

func loadJSON(inline, file string) ([]byte, error) {
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return b, nil
	default:
		return nil, errors.New("no credentials configured")
	}
}

// AppendDailyTotals appends one row per day (date, weekday, amount)
// after the existing rows of the configured sheet.
func (c *Client) AppendDailyTotals(ctx context.Context, totals []core.DailyTotal) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if len(totals) == 0 {
		return nil
	}

	vr := &gsheet.ValueRange{Values: dailyTotalRows(totals)}
	rng := fmt.Sprintf("%s!A:C", c.sheetName)
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Daily totals exported",
		"sheet", c.sheetName, "rows", len(totals))
	return nil
}

func dailyTotalRows(totals []core.DailyTotal) [][]any {
	rows := make([][]any, 0, len(totals))
	for _, t := range totals {
		amount := float64(t.Total.Cents) / 100.0
		rows = append(rows, []any{t.Date, t.Weekday, amount})
	}
	return rows
}
