package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/internal/repository"
	apperrors "github.com/linernotes/linernotes/pkg/errors"
)

// ReactionService implements the like ledger for reviews and comments.
type ReactionService struct {
	likes    repository.LikeRepository
	reviews  repository.ReviewRepository
	comments repository.CommentRepository
	counters *counterKeeper
	producer EventPublisher
	logger   *slog.Logger
}

// NewReactionService creates a new reaction service.
func NewReactionService(
	likes repository.LikeRepository,
	reviews repository.ReviewRepository,
	comments repository.CommentRepository,
	counters repository.CounterRepository,
	producer EventPublisher,
	logger *slog.Logger,
) *ReactionService {
	return &ReactionService{
		likes:    likes,
		reviews:  reviews,
		comments: comments,
		counters: &counterKeeper{counters: counters, producer: producer, logger: logger},
		producer: producer,
		logger:   logger,
	}
}

// Like records that the user likes the target. Repeated likes return the
// current state without touching the counter. Count is always the number of
// like edges.
func (s *ReactionService) Like(ctx context.Context, userID string, target domain.Target) (domain.ReactionState, error) {
	if userID == "" {
		return domain.ReactionState{}, apperrors.Unauthorized("authentication required")
	}
	if _, err := domain.ParseTargetKind(string(target.Kind)); err != nil {
		return domain.ReactionState{}, apperrors.InvalidInput(err.Error())
	}
	if err := s.ensureLikeable(ctx, target); err != nil {
		return domain.ReactionState{}, err
	}

	like := &domain.Like{
		ID:        uuid.New().String(),
		UserID:    userID,
		Target:    target,
		CreatedAt: domain.Now(),
	}

	created, err := s.likes.Insert(ctx, like)
	if err != nil {
		return domain.ReactionState{}, fmt.Errorf("like %s: %w", target, err)
	}
	if !created {
		count, err := s.edgeCount(ctx, target)
		if err != nil {
			return domain.ReactionState{}, err
		}
		return domain.ReactionState{Liked: true, Count: count}, nil
	}

	count, err := s.settle(ctx, target, 1)
	if err != nil {
		return domain.ReactionState{}, err
	}

	s.logger.InfoContext(ctx, "like added",
		slog.String("user_id", userID),
		slog.String("target", target.String()),
		slog.Int("count", count),
	)

	if err := s.producer.PublishLikeAdded(ctx, userID, target, count); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish like.added event",
			slog.String("target", target.String()),
			slog.String("error", err.Error()),
		)
	}

	return domain.ReactionState{Liked: true, Count: count}, nil
}

// Unlike removes the user's like. Removing a like that does not exist is a
// no-op, including on deleted content.
func (s *ReactionService) Unlike(ctx context.Context, userID string, target domain.Target) (domain.ReactionState, error) {
	if userID == "" {
		return domain.ReactionState{}, apperrors.Unauthorized("authentication required")
	}
	if _, err := domain.ParseTargetKind(string(target.Kind)); err != nil {
		return domain.ReactionState{}, apperrors.InvalidInput(err.Error())
	}
	if _, err := uuid.Parse(target.ID); err != nil {
		return domain.ReactionState{Liked: false, Count: 0}, nil
	}

	removed, err := s.likes.Delete(ctx, userID, target)
	if err != nil {
		return domain.ReactionState{}, fmt.Errorf("unlike %s: %w", target, err)
	}
	if !removed {
		count, err := s.edgeCount(ctx, target)
		if err != nil {
			return domain.ReactionState{}, err
		}
		return domain.ReactionState{Liked: false, Count: count}, nil
	}

	count, err := s.settle(ctx, target, -1)
	if err != nil {
		return domain.ReactionState{}, err
	}

	s.logger.InfoContext(ctx, "like removed",
		slog.String("user_id", userID),
		slog.String("target", target.String()),
		slog.Int("count", count),
	)

	if err := s.producer.PublishLikeRemoved(ctx, userID, target, count); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish like.removed event",
			slog.String("target", target.String()),
			slog.String("error", err.Error()),
		)
	}

	return domain.ReactionState{Liked: false, Count: count}, nil
}

// ViewerLikedSet returns the subset of ids the user has liked, in one query.
func (s *ReactionService) ViewerLikedSet(
	ctx context.Context,
	userID string,
	kind domain.TargetKind,
	ids []string,
) (map[string]struct{}, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if userID == "" || len(valid) == 0 {
		return map[string]struct{}{}, nil
	}

	liked, err := s.likes.LikedSet(ctx, userID, kind, valid)
	if err != nil {
		return nil, fmt.Errorf("viewer liked set: %w", err)
	}
	return liked, nil
}

// settle applies delta to the target's like counter and returns the edge
// count, which the counter may lag.
func (s *ReactionService) settle(ctx context.Context, target domain.Target, delta int) (int, error) {
	ref := domain.CounterRef{Kind: domain.LikeCounter(target.Kind), ID: target.ID}
	s.counters.adjust(ctx, ref, delta)
	return s.edgeCount(ctx, target)
}

func (s *ReactionService) edgeCount(ctx context.Context, target domain.Target) (int, error) {
	count, err := s.likes.Count(ctx, target)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

// ensureLikeable rejects targets that are missing or hang off a deleted review.
func (s *ReactionService) ensureLikeable(ctx context.Context, target domain.Target) error {
	reviewID := target.ID
	if target.Kind == domain.TargetComment {
		comment, err := s.comments.GetByID(ctx, target.ID)
		if err != nil {
			return err
		}
		reviewID = comment.ReviewID
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.IsDeleted() {
		return apperrors.NotFound(string(target.Kind), target.ID)
	}
	return nil
}
