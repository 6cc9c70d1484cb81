package donation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"helpinghand/internal/core"
	"helpinghand/internal/memory"
)

func seedStore() *memory.Store {
	s := memory.New()
	s.AddUser(core.User{ID: "user-x", Name: "Xena", Email: "x@example.com", Role: "user"})
	s.AddUser(core.User{ID: "user-y", Name: "Yuri", Email: "y@example.com", Role: "user"})
	s.AddCategory(core.Category{ID: "cat-1", Name: "Health"})
	s.AddCampaign(core.Campaign{
		ID:          "camp-a",
		Title:       "Campaign A",
		Goal:        core.Money{Cents: 100000},
		CategoryID:  "cat-1",
		OrganizerID: "user-x",
	})
	return s
}

type capturePublisher struct {
	intentIDs []string
}

func (p *capturePublisher) PublishReconcile(_ context.Context, intentID string) error {
	p.intentIDs = append(p.intentIDs, intentID)
	return nil
}

// failingLedger wraps the store and fails the reference append to simulate
// a crash between increment and commit.
type failingLedger struct {
	*memory.Store
}

func (f *failingLedger) AppendPaymentRef(context.Context, string, string) error {
	return fmt.Errorf("storage gone away")
}

func newTestRecorder(store *memory.Store, pub ReconcilePublisher) *Recorder {
	r := NewRecorder(store, store, store, store, pub)
	seq := 0
	r.newID = func() string {
		seq++
		return fmt.Sprintf("intent-%d", seq)
	}
	r.now = func() time.Time {
		return time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC)
	}
	return r
}

func TestRecordPayment(t *testing.T) {
	store := seedStore()
	rec := newTestRecorder(store, &capturePublisher{})
	ctx := context.Background()

	payment, campaign, err := rec.RecordPayment(ctx, "camp-a", "user-x", core.Money{Cents: 25000})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if payment.Amount.Cents != 25000 || payment.CampaignID != "camp-a" || payment.PayerID != "user-x" {
		t.Fatalf("unexpected payment: %+v", payment)
	}
	if campaign.Raised.Cents != 25000 {
		t.Fatalf("raised = %d, want 25000", campaign.Raised.Cents)
	}
	if len(campaign.PaymentIDs) != 1 || campaign.PaymentIDs[0] != payment.ID {
		t.Fatalf("payment list = %v, want [%s]", campaign.PaymentIDs, payment.ID)
	}

	intent, err := store.GetIntent(ctx, payment.ID)
	if err != nil {
		t.Fatalf("GetIntent: %v", err)
	}
	if intent.Status != core.IntentCommitted {
		t.Fatalf("intent status = %s, want committed", intent.Status)
	}

	// Second donation accumulates.
	_, campaign, err = rec.RecordPayment(ctx, "camp-a", "user-y", core.Money{Cents: 10000})
	if err != nil {
		t.Fatalf("second RecordPayment: %v", err)
	}
	if campaign.Raised.Cents != 35000 {
		t.Fatalf("raised after second payment = %d, want 35000", campaign.Raised.Cents)
	}
	if len(campaign.PaymentIDs) != 2 {
		t.Fatalf("payment list length = %d, want 2", len(campaign.PaymentIDs))
	}

	// Invariant: raised equals the sum over payments referencing the campaign.
	total, err := store.SumAmounts(ctx)
	if err != nil {
		t.Fatalf("SumAmounts: %v", err)
	}
	if total.Cents != campaign.Raised.Cents {
		t.Fatalf("raised %d != payment sum %d", campaign.Raised.Cents, total.Cents)
	}
}

func TestRecordPaymentUnknownCampaign(t *testing.T) {
	store := seedStore()
	rec := newTestRecorder(store, &capturePublisher{})
	ctx := context.Background()

	_, _, err := rec.RecordPayment(ctx, "camp-missing", "user-x", core.Money{Cents: 100})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Zero side effects on the payment store.
	if total, _ := store.SumAmounts(ctx); total.Cents != 0 {
		t.Fatalf("payment sum = %d, want 0", total.Cents)
	}
	// The intent is aborted, never left recoverable.
	intent, err := store.GetIntent(ctx, "intent-1")
	if err != nil {
		t.Fatalf("GetIntent: %v", err)
	}
	if intent.Status != core.IntentAborted {
		t.Fatalf("intent status = %s, want aborted", intent.Status)
	}
}

func TestRecordPaymentUnknownPayer(t *testing.T) {
	store := seedStore()
	rec := newTestRecorder(store, &capturePublisher{})

	_, _, err := rec.RecordPayment(context.Background(), "camp-a", "user-missing", core.Money{Cents: 100})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	c, _ := store.GetCampaign(context.Background(), "camp-a")
	if c.Raised.Cents != 0 {
		t.Fatalf("raised mutated on unknown payer: %d", c.Raised.Cents)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	store := seedStore()
	rec := newTestRecorder(store, &capturePublisher{})
	ctx := context.Background()

	cases := []struct {
		name       string
		campaignID string
		payerID    string
		amount     core.Money
		want       error
	}{
		{"zero amount", "camp-a", "user-x", core.Money{}, core.ErrInvalidAmount},
		{"negative amount", "camp-a", "user-x", core.Money{Cents: -5}, core.ErrInvalidAmount},
		{"empty campaign id", "", "user-x", core.Money{Cents: 100}, core.ErrInvalidID},
		{"malformed payer id", "camp-a", "user x", core.Money{Cents: 100}, core.ErrInvalidID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := rec.RecordPayment(ctx, tc.campaignID, tc.payerID, tc.amount)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	if c, _ := store.GetCampaign(ctx, "camp-a"); c.Raised.Cents != 0 {
		t.Fatalf("validation failures must not mutate: raised = %d", c.Raised.Cents)
	}
}

func TestRecordPaymentPartialFailure(t *testing.T) {
	store := seedStore()
	pub := &capturePublisher{}
	rec := newTestRecorder(store, pub)
	rec.campaigns = &failingLedger{Store: store}
	ctx := context.Background()

	_, _, err := rec.RecordPayment(ctx, "camp-a", "user-x", core.Money{Cents: 5000})
	var pf *PartialFailure
	if !errors.As(err, &pf) {
		t.Fatalf("expected *PartialFailure, got %v", err)
	}

	// The increment landed; the orphan is flagged and queued for recovery.
	c, _ := store.GetCampaign(ctx, "camp-a")
	if c.Raised.Cents != 5000 {
		t.Fatalf("raised = %d, want 5000", c.Raised.Cents)
	}
	intent, err := store.GetIntent(ctx, pf.IntentID)
	if err != nil {
		t.Fatalf("GetIntent: %v", err)
	}
	if intent.Status != core.IntentFailed {
		t.Fatalf("intent status = %s, want failed", intent.Status)
	}
	if len(pub.intentIDs) != 1 || pub.intentIDs[0] != pf.IntentID {
		t.Fatalf("published intents = %v, want [%s]", pub.intentIDs, pf.IntentID)
	}
}
