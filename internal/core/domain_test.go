package core

import (
	"testing"
	"time"
)

func TestValidID(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"camp-1", true},
		{"550e8400-e29b-41d4-a716-446655440000", true},
		{"", false},
		{"has space", false},
		{"tab\there", false},
		{string(make([]byte, 65)), false},
	}
	for _, tc := range cases {
		if got := ValidID(tc.in); got != tc.ok {
			t.Errorf("ValidID(%q) = %v, want %v", tc.in, got, tc.ok)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 100}).Validate(); err != nil {
		t.Fatalf("positive amount should validate: %v", err)
	}
	if err := (Money{}).Validate(); err == nil {
		t.Fatal("zero amount should be invalid")
	}
	if err := (Money{Cents: -5}).Validate(); err == nil {
		t.Fatal("negative amount should be invalid")
	}
}

func TestPaymentIntentValidate(t *testing.T) {
	intent := PaymentIntent{
		ID:         "intent-1",
		CampaignID: "camp-1",
		PayerID:    "user-1",
		Amount:     Money{Cents: 2500},
	}
	if err := intent.Validate(); err != nil {
		t.Fatalf("valid intent rejected: %v", err)
	}

	bad := intent
	bad.PayerID = ""
	if err := bad.Validate(); err == nil {
		t.Fatal("empty payer id should be invalid")
	}

	bad = intent
	bad.Amount = Money{}
	if err := bad.Validate(); err == nil {
		t.Fatal("zero amount should be invalid")
	}
}

func TestCampaignFilterMatches(t *testing.T) {
	c := Campaign{
		ID:          "camp-1",
		Title:       "Clean Water for All",
		Description: "Build wells in rural communities",
		CategoryID:  "cat-water",
		OrganizerID: "user-7",
		Featured:    true,
	}

	cases := []struct {
		name   string
		filter CampaignFilter
		want   bool
	}{
		{"empty filter matches", CampaignFilter{}, true},
		{"search in title, case-insensitive", CampaignFilter{SearchText: "clean WATER"}, true},
		{"search in description", CampaignFilter{SearchText: "wells"}, true},
		{"search misses", CampaignFilter{SearchText: "bicycles"}, false},
		{"category match", CampaignFilter{CategoryID: "cat-water"}, true},
		{"category miss", CampaignFilter{CategoryID: "cat-food"}, false},
		{"organizer match", CampaignFilter{OrganizerID: "user-7"}, true},
		{"id match", CampaignFilter{ID: "camp-1"}, true},
		{"id miss", CampaignFilter{ID: "camp-2"}, false},
		{"featured", CampaignFilter{Featured: true}, true},
		{"combined AND", CampaignFilter{SearchText: "water", CategoryID: "cat-water", Featured: true}, true},
		{"combined AND with one miss", CampaignFilter{SearchText: "water", CategoryID: "cat-food"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(c); got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}

	notFeatured := c
	notFeatured.Featured = false
	if (CampaignFilter{Featured: true}).Matches(notFeatured) {
		t.Fatal("featured filter should exclude non-featured campaigns")
	}
}

func TestWindowLength(t *testing.T) {
	// Wednesday 2024-03-13 UTC.
	today := time.Date(2024, time.March, 13, 15, 30, 0, 0, time.UTC)

	if w, err := CustomWindow(7); err != nil || w.Length(today) != 7 {
		t.Fatalf("CustomWindow(7): err=%v length=%d", err, w.Length(today))
	}
	if _, err := CustomWindow(0); err == nil {
		t.Fatal("CustomWindow(0) should fail")
	}
	if _, err := CustomWindow(-3); err == nil {
		t.Fatal("CustomWindow(-3) should fail")
	}

	if got := YearToDate().Length(today); got != 31+29+13 {
		t.Fatalf("YearToDate length = %d, want %d", got, 31+29+13)
	}
	if got := MonthToDate().Length(today); got != 13 {
		t.Fatalf("MonthToDate length = %d, want 13", got)
	}
	if got := WeekToDate().Length(today); got != 3 {
		t.Fatalf("WeekToDate length on Wednesday = %d, want 3", got)
	}

	sunday := time.Date(2024, time.March, 17, 8, 0, 0, 0, time.UTC)
	if got := WeekToDate().Length(sunday); got != 7 {
		t.Fatalf("WeekToDate length on Sunday = %d, want 7", got)
	}
	monday := time.Date(2024, time.March, 11, 8, 0, 0, 0, time.UTC)
	if got := WeekToDate().Length(monday); got != 1 {
		t.Fatalf("WeekToDate length on Monday = %d, want 1", got)
	}
}
