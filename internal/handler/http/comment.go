package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linernotes/linernotes/internal/service"
	"github.com/linernotes/linernotes/pkg/httputil"
	"github.com/linernotes/linernotes/pkg/middleware"
	"github.com/linernotes/linernotes/pkg/pagination"
)

// CommentHandler handles HTTP requests for review comments.
type CommentHandler struct {
	comments CommentThreads
	logger   *slog.Logger
}

// NewCommentHandler creates a new comment HTTP handler.
func NewCommentHandler(comments CommentThreads, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		logger:   logger,
	}
}

// PostCommentRequest is the JSON request body for posting a comment or a
// reply. ParentID names a top-level comment of the same review.
type PostCommentRequest struct {
	Body     string  `json:"body"`
	ParentID *string `json:"parent_id"`
}

// Post handles POST /api/v1/reviews/{id}/comments
func (h *CommentHandler) Post(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeUnauthorized(w)
		return
	}

	var req PostCommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.comments.Post(r.Context(), service.PostCommentInput{
		ReviewID: chi.URLParam(r, "id"),
		AuthorID: userID,
		Body:     req.Body,
		ParentID: req.ParentID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: comment})
}

// List handles GET /api/v1/reviews/{id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	thread, err := h.comments.ListForReview(r.Context(), chi.URLParam(r, "id"), params.Page, params.PageSize, requesterFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: thread})
}
