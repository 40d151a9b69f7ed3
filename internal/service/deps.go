package service

import (
	"context"

	"github.com/linernotes/linernotes/internal/domain"
)

// EventPublisher is the subset of *event.Producer the services use.
type EventPublisher interface {
	PublishReviewCreated(ctx context.Context, review *domain.Review) error
	PublishReviewDeleted(ctx context.Context, review *domain.Review) error
	PublishCommentCreated(ctx context.Context, c *domain.Comment) error
	PublishLikeAdded(ctx context.Context, userID string, target domain.Target, count int) error
	PublishLikeRemoved(ctx context.Context, userID string, target domain.Target, count int) error
	PublishFollowCreated(ctx context.Context, followerID, followeeID string) error
	PublishFollowRemoved(ctx context.Context, followerID, followeeID string) error
	PublishLibrarySaved(ctx context.Context, entry *domain.LibraryEntry) error
	PublishReconcileRequested(ctx context.Context, ref domain.CounterRef, reason string) error
}

// ProfileResolver is the subset of *identity.Resolver the services use.
type ProfileResolver interface {
	Resolve(ctx context.Context, ids []string) (map[string]domain.Profile, error)
	ResolveOrUnknown(ctx context.Context, ids []string) (map[string]domain.Profile, error)
	Get(ctx context.Context, id string) (domain.Profile, error)
}

// LikedSetReader answers which targets a viewer has liked. Implemented by
// ReactionService.
type LikedSetReader interface {
	ViewerLikedSet(ctx context.Context, userID string, kind domain.TargetKind, ids []string) (map[string]struct{}, error)
}
