// Package worker runs the payment intent reconciliation loop.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"helpinghand/internal/amqp"
	"helpinghand/internal/donation"
)

// Consumer delivers reconcile messages until the context is cancelled.
type Consumer interface {
	ConsumeReconcile(ctx context.Context, handler func(*amqp.ReconcileMessage) error) error
}

// ReconcileWorker consumes reconcile messages from AMQP and runs a periodic
// sweep as a backup for messages that were lost or never published.
type ReconcileWorker struct {
	reconciler    *donation.Reconciler
	consumer      Consumer
	sweepInterval time.Duration
	batchSize     int
}

func NewReconcileWorker(reconciler *donation.Reconciler, consumer Consumer, sweepInterval time.Duration, batchSize int) *ReconcileWorker {
	return &ReconcileWorker{
		reconciler:    reconciler,
		consumer:      consumer,
		sweepInterval: sweepInterval,
		batchSize:     batchSize,
	}
}

// Run blocks until ctx is cancelled or one of the loops fails.
func (w *ReconcileWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if w.consumer != nil {
		g.Go(func() error {
			return w.consumeLoop(ctx)
		})
	}
	g.Go(func() error {
		return w.sweepLoop(ctx)
	})

	return g.Wait()
}

func (w *ReconcileWorker) consumeLoop(ctx context.Context) error {
	err := w.consumer.ConsumeReconcile(ctx, func(msg *amqp.ReconcileMessage) error {
		return w.reconciler.Recover(ctx, msg.IntentID)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("consume reconcile messages: %w", err)
	}
	return ctx.Err()
}

func (w *ReconcileWorker) sweepLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	// One pass at startup so a restart drains the backlog immediately.
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping sweep loop", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ReconcileWorker) sweep(ctx context.Context) {
	recovered, err := w.reconciler.Sweep(ctx, w.batchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Sweep failed", "error", err)
		return
	}
	if recovered > 0 {
		slog.InfoContext(ctx, "Sweep recovered intents", "count", recovered)
	}
}
