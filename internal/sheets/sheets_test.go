package sheets

import (
	"context"
	"testing"

	"helpinghand/internal/core"
)

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet ID")
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet-1"})
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
}

func TestDailyTotalRows(t *testing.T) {
	totals := []core.DailyTotal{
		{Date: "2026-08-27", Weekday: "Thursday", Total: core.Money{Cents: 1500}},
		{Date: "2026-08-28", Weekday: "Friday", Total: core.Money{Cents: 0}},
	}

	rows := dailyTotalRows(totals)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][0] != "2026-08-27" || rows[0][1] != "Thursday" || rows[0][2] != 15.0 {
		t.Errorf("unexpected first row: %v", rows[0])
	}
	if rows[1][2] != 0.0 {
		t.Errorf("unexpected amount for quiet day: %v", rows[1][2])
	}
}

func TestLoadJSONPrefersInline(t *testing.T) {
	b, err := loadJSON(`{"a":1}`, "/does/not/exist")
	if err != nil {
		t.Fatalf("loadJSON: %v", err)
	}
	if string(b) != `{"a":1}` {
		t.Errorf("unexpected payload: %s", b)
	}
}
