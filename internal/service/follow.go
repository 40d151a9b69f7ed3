package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/internal/repository"
	apperrors "github.com/linernotes/linernotes/pkg/errors"
)

// FollowService implements the follow graph.
type FollowService struct {
	follows  repository.FollowRepository
	profiles ProfileResolver
	producer EventPublisher
	logger   *slog.Logger
}

// NewFollowService creates a new follow service.
func NewFollowService(
	follows repository.FollowRepository,
	profiles ProfileResolver,
	producer EventPublisher,
	logger *slog.Logger,
) *FollowService {
	return &FollowService{
		follows:  follows,
		profiles: profiles,
		producer: producer,
		logger:   logger,
	}
}

// Follow creates the edge if it does not exist. Following yourself succeeds
// without creating an edge.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID string) (domain.FollowState, error) {
	if followerID == "" {
		return domain.FollowState{}, apperrors.Unauthorized("authentication required")
	}
	if followeeID == "" {
		return domain.FollowState{}, apperrors.InvalidInput("user id is required")
	}
	if followerID == followeeID {
		return domain.FollowState{Following: true}, nil
	}

	if _, err := s.profiles.Get(ctx, followeeID); err != nil {
		return domain.FollowState{}, err
	}

	created, err := s.follows.Insert(ctx, &domain.FollowEdge{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  domain.Now(),
	})
	if err != nil {
		return domain.FollowState{}, fmt.Errorf("follow: %w", err)
	}

	if created {
		s.logger.InfoContext(ctx, "follow created",
			slog.String("follower_id", followerID),
			slog.String("followee_id", followeeID),
		)
		if err := s.producer.PublishFollowCreated(ctx, followerID, followeeID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish follow.created event",
				slog.String("follower_id", followerID),
				slog.String("error", err.Error()),
			)
		}
	}

	return domain.FollowState{Following: true}, nil
}

// Unfollow removes the edge if it exists.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID string) (domain.FollowState, error) {
	if followerID == "" {
		return domain.FollowState{}, apperrors.Unauthorized("authentication required")
	}
	if followeeID == "" {
		return domain.FollowState{}, apperrors.InvalidInput("user id is required")
	}
	if followerID == followeeID {
		return domain.FollowState{Following: false}, nil
	}

	removed, err := s.follows.Delete(ctx, followerID, followeeID)
	if err != nil {
		return domain.FollowState{}, fmt.Errorf("unfollow: %w", err)
	}

	if removed {
		s.logger.InfoContext(ctx, "follow removed",
			slog.String("follower_id", followerID),
			slog.String("followee_id", followeeID),
		)
		if err := s.producer.PublishFollowRemoved(ctx, followerID, followeeID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish follow.removed event",
				slog.String("follower_id", followerID),
				slog.String("error", err.Error()),
			)
		}
	}

	return domain.FollowState{Following: false}, nil
}

// FollowingSet returns the ids the user follows. The user is not included.
func (s *FollowService) FollowingSet(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.follows.Following(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("following set: %w", err)
	}
	return ids, nil
}

// Stats returns the follower and following counts of a user.
func (s *FollowService) Stats(ctx context.Context, userID string) (domain.FollowStats, error) {
	stats, err := s.follows.Stats(ctx, userID)
	if err != nil {
		return domain.FollowStats{}, fmt.Errorf("follow stats: %w", err)
	}
	return stats, nil
}

// IsFollowing reports whether follower follows followee.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	if followerID == "" || followerID == followeeID {
		return false, nil
	}
	ok, err := s.follows.Exists(ctx, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("follow exists: %w", err)
	}
	return ok, nil
}
