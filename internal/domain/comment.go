package domain

import "time"

// MaxCommentBodyLength bounds a comment body after trimming.
const MaxCommentBodyLength = 2000

// Comment belongs to a review. ParentID is nil for top-level comments and
// otherwise names a top-level comment on the same review.
type Comment struct {
	ID        string    `json:"id"`
	ReviewID  string    `json:"review_id"`
	AuthorID  string    `json:"author_id"`
	ParentID  *string   `json:"parent_id"`
	Body      string    `json:"body"`
	LikeCount int       `json:"like_count"`
	CreatedAt time.Time `json:"created_at"`
}

// IsTopLevel reports whether the comment has no parent.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// CommentView is a comment enriched for display.
type CommentView struct {
	Comment
	Author      Profile `json:"author"`
	ViewerLiked bool    `json:"viewer_liked"`
}

// Thread is one page of a review's discussion: top-level comments oldest
// first, and every reply of those comments grouped by parent id.
type Thread struct {
	TopLevel        []CommentView            `json:"top_level"`
	RepliesByParent map[string][]CommentView `json:"replies_by_parent"`
	Page            int                      `json:"page"`
	PageSize        int                      `json:"page_size"`
	HasNext         bool                     `json:"has_next"`
}
