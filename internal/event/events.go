package event

import "time"

// Kafka topic constants for linernotes domain events.
const (
	TopicReviewCreated           = "linernotes.review.created"
	TopicReviewDeleted           = "linernotes.review.deleted"
	TopicCommentCreated          = "linernotes.comment.created"
	TopicLikeAdded               = "linernotes.like.added"
	TopicLikeRemoved             = "linernotes.like.removed"
	TopicFollowCreated           = "linernotes.follow.created"
	TopicFollowRemoved           = "linernotes.follow.removed"
	TopicLibrarySaved            = "linernotes.library.saved"
	TopicCounterReconcileRequest = "linernotes.counter.reconcile_requested"
)

// Aggregate type constants.
const (
	AggregateTypeReview  = "review"
	AggregateTypeComment = "comment"
	AggregateTypeUser    = "user"
	AggregateTypeCounter = "counter"
)

// SourceLinernotes identifies events originating from this service.
const SourceLinernotes = "linernotes"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	AlbumID   string    `json:"album_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// CommentCreatedData is the payload for a comment.created event.
type CommentCreatedData struct {
	ID       string  `json:"id"`
	ReviewID string  `json:"review_id"`
	AuthorID string  `json:"author_id"`
	ParentID *string `json:"parent_id,omitempty"`
}

// LikeData is the payload for like.added and like.removed events.
type LikeData struct {
	UserID     string `json:"user_id"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Count      int    `json:"count"`
}

// FollowData is the payload for follow.created and follow.removed events.
type FollowData struct {
	FollowerID string `json:"follower_id"`
	FolloweeID string `json:"followee_id"`
}

// LibrarySavedData is the payload for a library.saved event.
type LibrarySavedData struct {
	UserID  string `json:"user_id"`
	AlbumID string `json:"album_id"`
}

// ReconcileRequestedData asks the reconciler to recompute one counter.
type ReconcileRequestedData struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Reason string `json:"reason,omitempty"`
}
