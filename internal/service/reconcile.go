package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/internal/repository"
	apperrors "github.com/linernotes/linernotes/pkg/errors"
)

// Reconciliation triggers, used as metric labels.
const (
	TriggerEvent = "event"
	TriggerSweep = "sweep"
)

// ReconcileService rewrites denormalized counters from their edge tables.
type ReconcileService struct {
	counters repository.CounterRepository
	logger   *slog.Logger
}

// NewReconcileService creates a new reconcile service.
func NewReconcileService(counters repository.CounterRepository, logger *slog.Logger) *ReconcileService {
	return &ReconcileService{
		counters: counters,
		logger:   logger,
	}
}

// ReconcileTarget recomputes a single counter and returns its value. It is
// safe to call any number of times.
func (s *ReconcileService) ReconcileTarget(ctx context.Context, ref domain.CounterRef) (int, error) {
	if _, err := domain.ParseCounterKind(string(ref.Kind)); err != nil {
		return 0, apperrors.InvalidInput(err.Error())
	}
	if _, err := uuid.Parse(ref.ID); err != nil {
		return 0, apperrors.NotFound(string(ref.Kind), ref.ID)
	}

	value, err := s.counters.Reconcile(ctx, ref)
	if err != nil {
		return 0, fmt.Errorf("reconcile %s %s: %w", ref.Kind, ref.ID, err)
	}

	CountersReconciled.WithLabelValues(string(ref.Kind), TriggerEvent).Inc()
	s.logger.InfoContext(ctx, "counter reconciled",
		slog.String("counter", string(ref.Kind)),
		slog.String("id", ref.ID),
		slog.Int("value", value),
	)

	return value, nil
}

// ReconcileAll recomputes every counter that drifted from its edges.
func (s *ReconcileService) ReconcileAll(ctx context.Context) (domain.ReconcileReport, error) {
	start := time.Now()

	report, err := s.counters.ReconcileAll(ctx)
	if err != nil {
		return domain.ReconcileReport{}, fmt.Errorf("reconcile all counters: %w", err)
	}

	CountersReconciled.WithLabelValues(string(domain.CounterReviewLikes), TriggerSweep).Add(float64(report.ReviewLikes))
	CountersReconciled.WithLabelValues(string(domain.CounterReviewComments), TriggerSweep).Add(float64(report.ReviewComments))
	CountersReconciled.WithLabelValues(string(domain.CounterCommentLikes), TriggerSweep).Add(float64(report.CommentLikes))

	level := slog.LevelDebug
	if report.Total() > 0 {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "counter sweep finished",
		slog.Int64("review_likes", report.ReviewLikes),
		slog.Int64("review_comments", report.ReviewComments),
		slog.Int64("comment_likes", report.CommentLikes),
		slog.Duration("duration", time.Since(start)),
	)

	return report, nil
}
