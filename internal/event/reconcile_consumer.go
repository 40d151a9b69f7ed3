package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linernotes/linernotes/internal/domain"
	apperrors "github.com/linernotes/linernotes/pkg/errors"
	pkgkafka "github.com/linernotes/linernotes/pkg/kafka"
)

// Reconciler recomputes a single counter from its edges.
type Reconciler interface {
	ReconcileTarget(ctx context.Context, ref domain.CounterRef) (int, error)
}

// NewReconcileHandler returns the handler for counter.reconcile_requested
// events. Malformed payloads are returned as errors so the consumer routes
// them to the DLQ; counters whose row no longer exists are acknowledged.
func NewReconcileHandler(reconciler Reconciler, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, evt *pkgkafka.Event) error {
		var data ReconcileRequestedData
		if err := evt.UnmarshalData(&data); err != nil {
			return fmt.Errorf("decode reconcile request: %w", err)
		}

		kind, err := domain.ParseCounterKind(data.Kind)
		if err != nil {
			return fmt.Errorf("decode reconcile request: %w", err)
		}
		if data.ID == "" {
			return fmt.Errorf("decode reconcile request: missing id")
		}

		ref := domain.CounterRef{Kind: kind, ID: data.ID}
		value, err := reconciler.ReconcileTarget(ctx, ref)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				logger.InfoContext(ctx, "reconcile target no longer exists",
					slog.String("kind", string(kind)),
					slog.String("id", data.ID),
				)
				return nil
			}
			return err
		}

		logger.InfoContext(ctx, "counter reconciled from event",
			slog.String("kind", string(kind)),
			slog.String("id", data.ID),
			slog.Int("value", value),
			slog.String("event_id", evt.EventID),
		)
		return nil
	}
}
