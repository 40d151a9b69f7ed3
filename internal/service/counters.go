package service

import (
	"context"
	"log/slog"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/internal/repository"
)

// ReasonAdjustFailed tags reconcile requests raised after a failed adjustment.
const ReasonAdjustFailed = "adjust_failed"

// counterKeeper applies best-effort counter adjustments. Edges are the source
// of truth; a failed adjustment is reported for reconciliation and never
// fails the caller.
type counterKeeper struct {
	counters repository.CounterRepository
	producer EventPublisher
	logger   *slog.Logger
}

// adjust adds delta to the counter and returns its new value. ok is false when
// the counter could not be updated.
func (k *counterKeeper) adjust(ctx context.Context, ref domain.CounterRef, delta int) (value int, ok bool) {
	value, err := k.counters.Adjust(ctx, ref, delta)
	if err == nil {
		return value, true
	}

	CounterAdjustFailures.WithLabelValues(string(ref.Kind)).Inc()
	k.logger.WarnContext(ctx, "counter adjustment failed, requesting reconciliation",
		slog.String("counter", string(ref.Kind)),
		slog.String("id", ref.ID),
		slog.Int("delta", delta),
		slog.String("error", err.Error()),
	)

	if perr := k.producer.PublishReconcileRequested(ctx, ref, ReasonAdjustFailed); perr != nil {
		k.logger.ErrorContext(ctx, "failed to publish counter.reconcile_requested event",
			slog.String("counter", string(ref.Kind)),
			slog.String("id", ref.ID),
			slog.String("error", perr.Error()),
		)
	}

	return 0, false
}
