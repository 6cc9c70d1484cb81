package donation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"helpinghand/internal/core"
)

// Reconciler finishes payment intents whose commit was interrupted. Every
// step is idempotent, so an intent can be recovered any number of times.
type Reconciler struct {
	campaigns CampaignRepository
	payments  PaymentRepository
	intents   IntentRepository

	// PendingGrace is how long a pending intent may sit before the sweep
	// treats its increment as never having run and aborts it. A pending
	// intent whose process crashed after the increment but before the
	// applied marker is indistinguishable here, and its increment is lost
	// with the abort.
	PendingGrace time.Duration

	now func() time.Time
}

func NewReconciler(campaigns CampaignRepository, payments PaymentRepository, intents IntentRepository) *Reconciler {
	return &Reconciler{
		campaigns:    campaigns,
		payments:     payments,
		intents:      intents,
		PendingGrace: 10 * time.Minute,
		now:          time.Now,
	}
}

// Recover completes the commit of a single intent: ensure the Payment
// record exists, ensure the campaign references it, mark the intent
// committed. Intents that are already committed or aborted are left alone.
// Pending intents are skipped here because their increment may never have
// run; only the sweep ages them out.
func (r *Reconciler) Recover(ctx context.Context, intentID string) error {
	intent, err := r.intents.GetIntent(ctx, intentID)
	if err != nil {
		return fmt.Errorf("load intent %s: %w", intentID, err)
	}

	switch intent.Status {
	case core.IntentCommitted, core.IntentAborted:
		return nil
	case core.IntentPending:
		slog.InfoContext(ctx, "Skipping pending intent, increment not confirmed",
			"intent_id", intent.ID)
		return nil
	}

	payment := core.Payment{
		ID:         intent.ID,
		CampaignID: intent.CampaignID,
		PayerID:    intent.PayerID,
		Amount:     intent.Amount,
		CreatedAt:  intent.CreatedAt,
	}
	if err := r.payments.CreatePayment(ctx, payment); err != nil && !errors.Is(err, core.ErrAlreadyExists) {
		return fmt.Errorf("recreate payment for intent %s: %w", intent.ID, err)
	}
	if err := r.campaigns.AppendPaymentRef(ctx, intent.CampaignID, payment.ID); err != nil {
		return fmt.Errorf("append payment reference for intent %s: %w", intent.ID, err)
	}
	if err := r.intents.UpdateIntentStatus(ctx, intent.ID, core.IntentCommitted); err != nil {
		return fmt.Errorf("mark intent %s committed: %w", intent.ID, err)
	}

	slog.InfoContext(ctx, "Intent reconciled",
		"intent_id", intent.ID,
		"campaign_id", intent.CampaignID,
		"amount_cents", intent.Amount.Cents)
	return nil
}

// Sweep recovers intents left failed or applied (reconcile message lost or
// never published) and ages out stale pending intents. It returns the
// number of intents recovered.
func (r *Reconciler) Sweep(ctx context.Context, limit int) (int, error) {
	recovered := 0
	for _, status := range []core.IntentStatus{core.IntentFailed, core.IntentApplied} {
		intents, err := r.intents.ListIntentsByStatus(ctx, status, limit)
		if err != nil {
			return recovered, fmt.Errorf("list %s intents: %w", status, err)
		}
		for _, intent := range intents {
			if err := r.Recover(ctx, intent.ID); err != nil {
				slog.ErrorContext(ctx, "Intent recovery failed",
					"intent_id", intent.ID, "error", err)
				continue
			}
			recovered++
		}
	}

	stale, err := r.intents.ListIntentsByStatus(ctx, core.IntentPending, limit)
	if err != nil {
		return recovered, fmt.Errorf("list pending intents: %w", err)
	}
	cutoff := r.now().UTC().Add(-r.PendingGrace)
	for _, intent := range stale {
		if intent.CreatedAt.After(cutoff) {
			continue
		}
		if err := r.intents.UpdateIntentStatus(ctx, intent.ID, core.IntentAborted); err != nil {
			slog.WarnContext(ctx, "Failed to abort stale intent",
				"intent_id", intent.ID, "error", err)
			continue
		}
		slog.WarnContext(ctx, "Aborted stale pending intent",
			"intent_id", intent.ID, "created_at", intent.CreatedAt)
	}
	return recovered, nil
}
