package domain

import "time"

// FollowEdge is a directed edge from follower to followee.
type FollowEdge struct {
	FollowerID string    `json:"follower_id"`
	FolloweeID string    `json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// FollowState is returned by follow and unfollow.
type FollowState struct {
	Following bool `json:"following"`
}

// FollowStats counts both directions of a user's edges.
type FollowStats struct {
	FollowerCount  int `json:"follower_count"`
	FollowingCount int `json:"following_count"`
}
