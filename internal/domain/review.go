package domain

import (
	"time"
)

// Review bounds.
const (
	MinRating             = 1
	MaxRating             = 5
	MinReviewBodyLength   = 10
	MaxReviewBodyLength   = 10000
	MaxAlbumArtists       = 20
	MaxAlbumSnapshotField = 300
)

// AlbumSnapshot is the catalog data captured when the review was written.
// It is stored verbatim and never refreshed.
type AlbumSnapshot struct {
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
}

// Review is a rating and write-up of one album by one author.
type Review struct {
	ID            string         `json:"id"`
	AuthorID      string         `json:"author_id"`
	AlbumID       string         `json:"album_id"`
	Rating        int            `json:"rating"`
	Body          string         `json:"body"`
	AlbumSnapshot *AlbumSnapshot `json:"album_snapshot,omitempty"`
	LikeCount     int            `json:"like_count"`
	CommentCount  int            `json:"comment_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     *time.Time     `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the review has been soft-deleted.
func (r *Review) IsDeleted() bool {
	return r.DeletedAt != nil
}

// VisibleTo reports whether the review may be shown to the requester.
// Soft-deleted reviews are visible only to their author and to admins.
func (r *Review) VisibleTo(requester Requester) bool {
	if !r.IsDeleted() {
		return true
	}
	return requester.UserID != "" && (requester.UserID == r.AuthorID || requester.IsAdmin())
}

// Requester identifies the caller of a read operation. The zero value is an
// anonymous caller.
type Requester struct {
	UserID string
	Role   string
}

// RoleAdmin grants visibility of soft-deleted content.
const RoleAdmin = "admin"

// IsAdmin reports whether the requester holds the admin role.
func (r Requester) IsAdmin() bool {
	return r.Role == RoleAdmin
}

// Authenticated reports whether the requester carries a user id.
func (r Requester) Authenticated() bool {
	return r.UserID != ""
}

// Now returns the current UTC time truncated to the precision PostgreSQL
// stores, so cursors built from in-memory values match persisted rows.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
