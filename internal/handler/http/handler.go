package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/internal/service"
	"github.com/linernotes/linernotes/pkg/httputil"
	"github.com/linernotes/linernotes/pkg/middleware"
	"github.com/linernotes/linernotes/pkg/pagination"
	"github.com/linernotes/linernotes/pkg/validator"
)

// maxBodyBytes limits request bodies. The longest payload is a review body of
// ten thousand characters.
const maxBodyBytes = 1 << 20

// FeedReader builds a viewer's home feed.
type FeedReader interface {
	Feed(ctx context.Context, viewerID string, q service.ListQuery) (pagination.CursorPage[domain.FeedItem], error)
}

// ReviewStore is the review operations exposed over HTTP.
type ReviewStore interface {
	Create(ctx context.Context, input service.CreateReviewInput) (*domain.Review, error)
	Detail(ctx context.Context, id string, requester domain.Requester) (*domain.FeedItem, error)
	ListByAuthor(ctx context.Context, authorID string, q service.ListQuery, requester domain.Requester) (pagination.CursorPage[domain.FeedItem], error)
	ListByAlbum(ctx context.Context, albumID string, q service.ListQuery, requester domain.Requester) (pagination.CursorPage[domain.FeedItem], error)
	SoftDelete(ctx context.Context, id, requesterID string) error
}

// CommentThreads posts and lists review comments.
type CommentThreads interface {
	Post(ctx context.Context, input service.PostCommentInput) (*domain.Comment, error)
	ListForReview(ctx context.Context, reviewID string, page, pageSize int, requester domain.Requester) (*domain.Thread, error)
}

// Reactions toggles likes.
type Reactions interface {
	Like(ctx context.Context, userID string, target domain.Target) (domain.ReactionState, error)
	Unlike(ctx context.Context, userID string, target domain.Target) (domain.ReactionState, error)
}

// FollowGraph toggles follow edges.
type FollowGraph interface {
	Follow(ctx context.Context, followerID, followeeID string) (domain.FollowState, error)
	Unfollow(ctx context.Context, followerID, followeeID string) (domain.FollowState, error)
}

// ProfileReader builds the profile page.
type ProfileReader interface {
	Get(ctx context.Context, userID string, requester domain.Requester) (*domain.UserProfile, error)
}

// AlbumLibrary manages a user's saved albums.
type AlbumLibrary interface {
	Save(ctx context.Context, input service.SaveAlbumInput) (*domain.LibraryEntry, error)
	Remove(ctx context.Context, userID, albumID string) error
	Lookup(ctx context.Context, userID, albumID string) (*domain.LibraryEntry, error)
	List(ctx context.Context, userID string, page, pageSize int) (pagination.Result[domain.LibraryEntry], error)
}

// SweepRunner runs the counter reconciliation sweep on demand.
type SweepRunner interface {
	RunNow(ctx context.Context) (domain.ReconcileReport, error)
}

func requesterFrom(r *http.Request) domain.Requester {
	return domain.Requester{
		UserID: middleware.UserIDFromContext(r.Context()),
		Role:   middleware.RoleFromContext(r.Context()),
	}
}

func listQueryFrom(p pagination.Params) service.ListQuery {
	return service.ListQuery{Page: p.Page, PageSize: p.PageSize, Cursor: p.Cursor}
}

// decodeBody reads and validates a JSON request body, writing the error
// response itself when it returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}

	if err := validator.Validate(dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}

func writeUnauthorized(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
	})
}
