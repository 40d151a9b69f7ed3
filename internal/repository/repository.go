package repository

import (
	"context"
	"time"

	"github.com/linernotes/linernotes/internal/domain"
)

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review. A second live review by the same author for
	// the same album fails with a Duplicate error.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by id, including soft-deleted rows.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByAuthors returns up to limit live reviews written by any of the
	// given authors, newest first, strictly after cursor when one is given.
	ListByAuthors(ctx context.Context, authorIDs []string, cursor *domain.Cursor, limit int) ([]domain.Review, error)

	// ListByAlbum returns up to limit live reviews of an album, newest first.
	// The cursor takes precedence over offset.
	ListByAlbum(ctx context.Context, albumID string, cursor *domain.Cursor, offset, limit int) ([]domain.Review, error)

	// SoftDelete marks a live review as deleted.
	SoftDelete(ctx context.Context, id string, at time.Time) error

	// CountByAuthor returns the number of live reviews by an author.
	CountByAuthor(ctx context.Context, authorID string) (int, error)
}

// CommentRepository defines the interface for comment persistence operations.
type CommentRepository interface {
	// Create inserts a new comment.
	Create(ctx context.Context, comment *domain.Comment) error

	// GetByID retrieves a comment by id.
	GetByID(ctx context.Context, id string) (*domain.Comment, error)

	// ListTopLevel returns top-level comments of a review, oldest first.
	ListTopLevel(ctx context.Context, reviewID string, offset, limit int) ([]domain.Comment, error)

	// ListReplies returns every reply to the given parents, oldest first.
	ListReplies(ctx context.Context, parentIDs []string) ([]domain.Comment, error)
}

// LikeRepository defines the interface for like edge persistence.
type LikeRepository interface {
	// Insert writes the edge and reports whether it did not exist before.
	Insert(ctx context.Context, like *domain.Like) (bool, error)

	// Delete removes the edge and reports whether it existed.
	Delete(ctx context.Context, userID string, target domain.Target) (bool, error)

	// Count returns the number of edges pointing at the target.
	Count(ctx context.Context, target domain.Target) (int, error)

	// LikedSet returns the subset of ids the user has liked.
	LikedSet(ctx context.Context, userID string, kind domain.TargetKind, ids []string) (map[string]struct{}, error)
}

// CounterRepository maintains denormalized counters.
type CounterRepository interface {
	// Adjust adds delta to the counter, never going below zero, and returns
	// the new value.
	Adjust(ctx context.Context, ref domain.CounterRef, delta int) (int, error)

	// Reconcile recomputes one counter from its edges and returns the value.
	Reconcile(ctx context.Context, ref domain.CounterRef) (int, error)

	// ReconcileAll recomputes every counter that drifted from its edges.
	ReconcileAll(ctx context.Context) (domain.ReconcileReport, error)
}

// FollowRepository defines the interface for follow edge persistence.
type FollowRepository interface {
	// Insert writes the edge and reports whether it did not exist before.
	Insert(ctx context.Context, edge *domain.FollowEdge) (bool, error)

	// Delete removes the edge and reports whether it existed.
	Delete(ctx context.Context, followerID, followeeID string) (bool, error)

	// Exists reports whether follower follows followee.
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)

	// Following returns the ids the user follows.
	Following(ctx context.Context, userID string) ([]string, error)

	// Stats returns follower and following counts.
	Stats(ctx context.Context, userID string) (domain.FollowStats, error)
}

// LibraryRepository defines the interface for saved album persistence.
type LibraryRepository interface {
	// Upsert saves the album, refreshing its metadata when already saved.
	Upsert(ctx context.Context, entry *domain.LibraryEntry) error

	// Delete removes the album and reports whether it was saved.
	Delete(ctx context.Context, userID, albumID string) (bool, error)

	// Get returns a single saved album.
	Get(ctx context.Context, userID, albumID string) (*domain.LibraryEntry, error)

	// List returns saved albums newest first.
	List(ctx context.Context, userID string, offset, limit int) ([]domain.LibraryEntry, error)
}

// ProfileRepository reads public profiles from the users table.
type ProfileRepository interface {
	// FindByIDs returns the profiles of the ids that exist.
	FindByIDs(ctx context.Context, ids []string) (map[string]domain.Profile, error)
}
