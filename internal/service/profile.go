package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/internal/repository"
)

// ProfileService builds the public profile page of a user.
type ProfileService struct {
	profiles ProfileResolver
	follows  repository.FollowRepository
	reviews  repository.ReviewRepository
	logger   *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(
	profiles ProfileResolver,
	follows repository.FollowRepository,
	reviews repository.ReviewRepository,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		follows:  follows,
		reviews:  reviews,
		logger:   logger,
	}
}

// Get returns the user's profile with follow stats, live review count and,
// for an authenticated requester, whether they follow the user.
func (s *ProfileService) Get(ctx context.Context, userID string, requester domain.Requester) (*domain.UserProfile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &domain.UserProfile{
		Profile: p,
		IsSelf:  requester.UserID == userID,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := s.follows.Stats(gctx, userID)
		if err != nil {
			return fmt.Errorf("follow stats: %w", err)
		}
		out.Stats = stats
		return nil
	})

	g.Go(func() error {
		n, err := s.reviews.CountByAuthor(gctx, userID)
		if err != nil {
			return fmt.Errorf("count reviews: %w", err)
		}
		out.ReviewCount = n
		return nil
	})

	if requester.Authenticated() && !out.IsSelf {
		g.Go(func() error {
			ok, err := s.follows.Exists(gctx, requester.UserID, userID)
			if err != nil {
				return fmt.Errorf("follow exists: %w", err)
			}
			out.IsFollowing = ok
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
