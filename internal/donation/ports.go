package donation

import (
	"context"
	"time"

	"helpinghand/internal/core"
)

// Ports for the storage adapters. The services in this package depend only
// on these interfaces; SQLite and in-memory implementations live in
// internal/storage and internal/memory.
type (
	CampaignReader interface {
		// GetCampaign returns core.ErrNotFound when no campaign has the id.
		GetCampaign(ctx context.Context, id string) (core.Campaign, error)
		ListCampaigns(ctx context.Context) ([]core.Campaign, error)
	}

	// CampaignLedger exposes the two field-level atomic mutations the
	// payment workflow needs. Implementations must guarantee that two
	// concurrent calls against the same campaign both apply in full.
	CampaignLedger interface {
		// AddToRaised atomically increments the campaign's raised total.
		// Returns core.ErrNotFound when no campaign has the id, in which
		// case nothing was mutated.
		AddToRaised(ctx context.Context, campaignID string, amount core.Money) error
		// AppendPaymentRef atomically appends paymentID to the campaign's
		// ordered payment list. Appending an id already present is a no-op,
		// so retries are safe.
		AppendPaymentRef(ctx context.Context, campaignID, paymentID string) error
	}

	CampaignRepository interface {
		CampaignReader
		CampaignLedger
	}

	PaymentRepository interface {
		// CreatePayment rejects a payment whose campaign or payer reference
		// does not resolve, and returns core.ErrAlreadyExists when a payment
		// with the same id is already stored.
		CreatePayment(ctx context.Context, p core.Payment) error
		GetPayment(ctx context.Context, id string) (core.Payment, error)
		// ListPaymentsSince returns payments created at or after since.
		ListPaymentsSince(ctx context.Context, since time.Time) ([]core.Payment, error)
		SumAmounts(ctx context.Context) (core.Money, error)
		SumAmountsByPayer(ctx context.Context, payerID string) (core.Money, error)
	}

	IntentRepository interface {
		CreateIntent(ctx context.Context, i core.PaymentIntent) error
		GetIntent(ctx context.Context, id string) (core.PaymentIntent, error)
		UpdateIntentStatus(ctx context.Context, id string, status core.IntentStatus) error
		// ListIntentsByStatus returns at most limit intents in creation order.
		ListIntentsByStatus(ctx context.Context, status core.IntentStatus, limit int) ([]core.PaymentIntent, error)
	}

	UserRepository interface {
		GetUser(ctx context.Context, id string) (core.User, error)
	}

	CategoryRepository interface {
		GetCategory(ctx context.Context, id string) (core.Category, error)
	}

	// ReconcilePublisher hands an intent id to the reconciliation queue.
	ReconcilePublisher interface {
		PublishReconcile(ctx context.Context, intentID string) error
	}
)
