package donation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"helpinghand/internal/core"
)

// Recorder orchestrates the multi-step payment write: intent, atomic
// increment of the campaign's raised total, payment creation, reference
// append. The intent record is written before any money moves so that a
// failure mid-way is always recoverable.
type Recorder struct {
	campaigns CampaignRepository
	payments  PaymentRepository
	intents   IntentRepository
	users     UserRepository
	publisher ReconcilePublisher // optional

	now   func() time.Time
	newID func() string
}

func NewRecorder(campaigns CampaignRepository, payments PaymentRepository, intents IntentRepository, users UserRepository, publisher ReconcilePublisher) *Recorder {
	return &Recorder{
		campaigns: campaigns,
		payments:  payments,
		intents:   intents,
		users:     users,
		publisher: publisher,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// RecordPayment records a donation of amount against the campaign and
// returns the created payment together with the campaign state observed
// right after the write. The campaign state is not guaranteed globally
// fresh under concurrent writers.
//
// Failure semantics: validation errors and an unknown campaign id leave
// both stores untouched. An error after the increment is returned as
// *PartialFailure and the intent is queued for reconciliation.
func (r *Recorder) RecordPayment(ctx context.Context, campaignID, payerID string, amount core.Money) (core.Payment, core.Campaign, error) {
	intent := core.PaymentIntent{
		ID:         r.newID(),
		CampaignID: campaignID,
		PayerID:    payerID,
		Amount:     amount,
		Status:     core.IntentPending,
		CreatedAt:  r.now().UTC(),
	}
	if err := intent.Validate(); err != nil {
		return core.Payment{}, core.Campaign{}, err
	}

	// Not-found checks run before any mutation.
	if _, err := r.users.GetUser(ctx, payerID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Payment{}, core.Campaign{}, fmt.Errorf("payer %s: %w", payerID, core.ErrNotFound)
		}
		return core.Payment{}, core.Campaign{}, fmt.Errorf("look up payer: %w", err)
	}

	if err := r.intents.CreateIntent(ctx, intent); err != nil {
		return core.Payment{}, core.Campaign{}, fmt.Errorf("create payment intent: %w", err)
	}

	// Step 1: field-level atomic increment. Doubles as the existence check.
	// A crash between this write and the applied marker below leaves the
	// intent pending; the sweep cannot tell it from one whose increment
	// never ran, and aborting it orphans this increment. Closing that
	// window takes a backend that can put both writes in one transaction.
	if err := r.campaigns.AddToRaised(ctx, campaignID, amount); err != nil {
		r.setStatus(ctx, intent.ID, core.IntentAborted)
		if errors.Is(err, core.ErrNotFound) {
			return core.Payment{}, core.Campaign{}, fmt.Errorf("campaign %s: %w", campaignID, core.ErrNotFound)
		}
		return core.Payment{}, core.Campaign{}, fmt.Errorf("increment raised total: %w", err)
	}
	if err := r.intents.UpdateIntentStatus(ctx, intent.ID, core.IntentApplied); err != nil {
		// The increment is already durable; without the applied marker the
		// sweep cannot tell this intent from one that never ran, so flag it
		// loudly and hand it to the queue.
		return core.Payment{}, core.Campaign{}, r.partial(ctx, intent.ID, "mark intent applied", err)
	}

	payment := core.Payment{
		ID:         intent.ID,
		CampaignID: campaignID,
		PayerID:    payerID,
		Amount:     amount,
		CreatedAt:  intent.CreatedAt,
	}

	// Step 2: create the payment record, keyed by the intent id.
	if err := r.payments.CreatePayment(ctx, payment); err != nil && !errors.Is(err, core.ErrAlreadyExists) {
		return core.Payment{}, core.Campaign{}, r.partial(ctx, intent.ID, "create payment", err)
	}

	// Step 3: append the payment reference.
	if err := r.campaigns.AppendPaymentRef(ctx, campaignID, payment.ID); err != nil {
		return core.Payment{}, core.Campaign{}, r.partial(ctx, intent.ID, "append payment reference", err)
	}

	if err := r.intents.UpdateIntentStatus(ctx, intent.ID, core.IntentCommitted); err != nil {
		// Ledger and payment list already agree; only the bookkeeping row
		// lagged. Queue it and report success to the donor.
		slog.WarnContext(ctx, "Intent commit marker failed, queueing reconcile",
			"intent_id", intent.ID, "error", err)
		r.publishReconcile(ctx, intent.ID)
	}

	slog.InfoContext(ctx, "Payment recorded",
		"payment_id", payment.ID,
		"campaign_id", campaignID,
		"payer_id", payerID,
		"amount_cents", amount.Cents)

	updated, err := r.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return core.Payment{}, core.Campaign{}, fmt.Errorf("reload campaign: %w", err)
	}
	return payment, updated, nil
}

// partial flags the intent as failed, queues it for reconciliation, and
// wraps err so the HTTP layer can log orphan-increment risk distinctly.
func (r *Recorder) partial(ctx context.Context, intentID, step string, err error) error {
	r.setStatus(ctx, intentID, core.IntentFailed)
	r.publishReconcile(ctx, intentID)
	pf := &PartialFailure{IntentID: intentID, Step: step, Err: err}
	slog.ErrorContext(ctx, "Partial payment failure",
		"intent_id", intentID, "step", step, "error", err)
	return pf
}

func (r *Recorder) setStatus(ctx context.Context, intentID string, status core.IntentStatus) {
	if err := r.intents.UpdateIntentStatus(ctx, intentID, status); err != nil {
		slog.WarnContext(ctx, "Intent status update failed",
			"intent_id", intentID, "status", string(status), "error", err)
	}
}

func (r *Recorder) publishReconcile(ctx context.Context, intentID string) {
	if r.publisher == nil {
		slog.WarnContext(ctx, "No reconcile publisher configured, relying on periodic sweep",
			"intent_id", intentID)
		return
	}
	if err := r.publisher.PublishReconcile(ctx, intentID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish reconcile message",
			"intent_id", intentID, "error", err)
	}
}
