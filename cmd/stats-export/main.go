// Command stats-export pushes gap-filled daily donation totals to the
// Google Sheets finance dashboard. It runs once and exits, so it can
// be scheduled with cron.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"helpinghand/internal/config"
	"helpinghand/internal/core"
	"helpinghand/internal/donation"
	applog "helpinghand/internal/log"
	"helpinghand/internal/sheets"
	"helpinghand/internal/storage"
)

func main() {
	windowName := flag.String("window", "month", "aggregation window: week, month, year or custom")
	days := flag.Int("days", 0, "window length in days (custom window only)")
	flag.Parse()

	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentSheets})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for export")
		os.Exit(1)
	}

	window, err := parseWindow(*windowName, *days)
	if err != nil {
		logger.Error("Invalid window", "error", err, "window", *windowName)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	totals, err := donation.NewAggregator(repo).DailyTotals(ctx, window)
	if err != nil {
		logger.Error("Failed to aggregate daily totals", "error", err)
		os.Exit(1)
	}

	client, err := sheets.New(ctx, sheets.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		OAuthClientJSON: cfg.GoogleOAuthClientJSON,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		OAuthTokenJSON:  cfg.GoogleOAuthTokenJSON,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	if err := client.AppendDailyTotals(ctx, totals); err != nil {
		logger.Error("Export failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Export complete", "window", *windowName, "rows", len(totals))
}

func parseWindow(name string, days int) (core.Window, error) {
	switch name {
	case "week":
		return core.WeekToDate(), nil
	case "month":
		return core.MonthToDate(), nil
	case "year":
		return core.YearToDate(), nil
	case "custom":
		return core.CustomWindow(days)
	default:
		return core.Window{}, fmt.Errorf("unknown window %q", name)
	}
}
