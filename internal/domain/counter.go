package domain

import "fmt"

// CounterKind names one of the denormalized counters kept next to content.
type CounterKind string

const (
	CounterReviewLikes    CounterKind = "review_likes"
	CounterReviewComments CounterKind = "review_comments"
	CounterCommentLikes   CounterKind = "comment_likes"
)

// ParseCounterKind validates a counter kind received over the wire.
func ParseCounterKind(s string) (CounterKind, error) {
	switch CounterKind(s) {
	case CounterReviewLikes, CounterReviewComments, CounterCommentLikes:
		return CounterKind(s), nil
	default:
		return "", fmt.Errorf("unknown counter kind %q", s)
	}
}

// LikeCounter returns the counter that tracks likes on the given target kind.
func LikeCounter(kind TargetKind) CounterKind {
	if kind == TargetComment {
		return CounterCommentLikes
	}
	return CounterReviewLikes
}

// CounterRef identifies a single counter cell.
type CounterRef struct {
	Kind CounterKind `json:"kind"`
	ID   string      `json:"id"`
}

// ReconcileReport summarizes a full reconciliation sweep.
type ReconcileReport struct {
	ReviewLikes    int64 `json:"review_likes"`
	ReviewComments int64 `json:"review_comments"`
	CommentLikes   int64 `json:"comment_likes"`
}

// Total returns the number of corrected rows.
func (r ReconcileReport) Total() int64 {
	return r.ReviewLikes + r.ReviewComments + r.CommentLikes
}
