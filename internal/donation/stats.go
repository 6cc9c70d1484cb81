package donation

import (
	"context"
	"fmt"
	"time"

	"helpinghand/internal/core"
)

const dayKeyFormat = "2006-01-02"

// Aggregator computes funding statistics over the payment store. Reads take
// no locks; totals are as of approximately query time, not a snapshot.
type Aggregator struct {
	payments PaymentRepository
	now      func() time.Time
}

func NewAggregator(payments PaymentRepository) *Aggregator {
	return &Aggregator{payments: payments, now: time.Now}
}

// DailyTotals returns one row per calendar day in the window, oldest first
// and ending today. Days without payments report a zero total. Day
// boundaries are UTC midnight.
func (a *Aggregator) DailyTotals(ctx context.Context, window core.Window) ([]core.DailyTotal, error) {
	today := a.now().UTC()
	length := window.Length(today)

	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	start := midnight.AddDate(0, 0, -(length - 1))

	payments, err := a.payments.ListPaymentsSince(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("scan payments: %w", err)
	}

	sums := make(map[string]int64, length)
	for _, p := range payments {
		sums[p.CreatedAt.UTC().Format(dayKeyFormat)] += p.Amount.Cents
	}

	totals := make([]core.DailyTotal, 0, length)
	for i := 0; i < length; i++ {
		day := start.AddDate(0, 0, i)
		key := day.Format(dayKeyFormat)
		totals = append(totals, core.DailyTotal{
			Date:    key,
			Weekday: day.Weekday().String(),
			Total:   core.Money{Cents: sums[key]},
		})
	}
	return totals, nil
}

// UserTotals returns the platform-wide donation sum and the payer's own
// lifetime sum. The two scans are independent; under concurrent writes they
// may reflect slightly different points in time, which is acceptable for a
// dashboard figure.
func (a *Aggregator) UserTotals(ctx context.Context, userID string) (core.UserTotals, error) {
	if !core.ValidID(userID) {
		return core.UserTotals{}, core.ErrInvalidID
	}

	total, err := a.payments.SumAmounts(ctx)
	if err != nil {
		return core.UserTotals{}, fmt.Errorf("sum all payments: %w", err)
	}
	userTotal, err := a.payments.SumAmountsByPayer(ctx, userID)
	if err != nil {
		return core.UserTotals{}, fmt.Errorf("sum payments for payer %s: %w", userID, err)
	}
	return core.UserTotals{TotalDonation: total, UserTotalDonation: userTotal}, nil
}
