package domain

import (
	"fmt"
	"time"
)

// TargetKind tags the entity a like points at.
type TargetKind string

const (
	TargetReview  TargetKind = "review"
	TargetComment TargetKind = "comment"
)

// ParseTargetKind validates a raw kind.
func ParseTargetKind(s string) (TargetKind, error) {
	switch TargetKind(s) {
	case TargetReview, TargetComment:
		return TargetKind(s), nil
	default:
		return "", fmt.Errorf("unknown like target kind %q", s)
	}
}

// Target is the polymorphic key of a like.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

func (t Target) String() string {
	return string(t.Kind) + ":" + t.ID
}

// Like is an edge from a user to a target. At most one exists per
// (UserID, Target).
type Like struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Target    Target    `json:"target"`
	CreatedAt time.Time `json:"created_at"`
}

// ReactionState is returned by like and unlike.
type ReactionState struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}
