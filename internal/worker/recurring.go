package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-ledger/internal/logging"
	"github.com/josh-kwaku/finance-ledger/internal/service/recurring"
)

type generator interface {
	DueOwners(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	GenerateDue(ctx context.Context, ownerID uuid.UUID, now time.Time) (*recurring.GenerateResult, error)
}

type idempotencyCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

// RecurringTrigger calls GenerateDue for every owner with due definitions
// on a fixed interval and sweeps expired idempotency records.
type RecurringTrigger struct {
	generator generator
	cleaner   idempotencyCleaner
	logger    *slog.Logger
	interval  time.Duration
	now       func() time.Time
}

func NewRecurringTrigger(gen generator, cleaner idempotencyCleaner, logger *slog.Logger, interval time.Duration) *RecurringTrigger {
	return &RecurringTrigger{
		generator: gen,
		cleaner:   cleaner,
		logger:    logger,
		interval:  interval,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (w *RecurringTrigger) Start(ctx context.Context) {
	w.logger.Info("recurring trigger started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("recurring trigger stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single scan across owners. Errors are logged; the
// next tick retries.
func (w *RecurringTrigger) RunOnce(ctx context.Context) {
	now := w.now()
	ctx = logging.WithLogger(ctx, w.logger)

	owners, err := w.generator.DueOwners(ctx, now)
	if err != nil {
		w.logger.Error("failed to list owners with due definitions", "error", err)
		return
	}

	for _, owner := range owners {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.generator.GenerateDue(logging.With(ctx, "owner_id", owner), owner, now); err != nil {
			w.logger.Error("recurring scan failed", "owner_id", owner, "error", err)
		}
	}

	if w.cleaner == nil {
		return
	}
	n, err := w.cleaner.CleanExpired(ctx)
	if err != nil {
		w.logger.Error("failed to clean idempotency records", "error", err)
		return
	}
	if n > 0 {
		w.logger.Info("expired idempotency records removed", "count", n)
	}
}
