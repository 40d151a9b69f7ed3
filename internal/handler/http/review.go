package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/internal/service"
	"github.com/linernotes/linernotes/pkg/httputil"
	"github.com/linernotes/linernotes/pkg/middleware"
	"github.com/linernotes/linernotes/pkg/pagination"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	reviews ReviewStore
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(reviews ReviewStore, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AlbumSnapshotRequest carries the catalog data shown next to a review.
type AlbumSnapshotRequest struct {
	Name    string   `json:"name" validate:"max=300"`
	Artists []string `json:"artists" validate:"max=20,dive,max=300"`
}

// CreateReviewRequest is the JSON request body for creating a review.
// Body length is checked by the service so that blank bodies map to
// EMPTY_BODY.
type CreateReviewRequest struct {
	AlbumID string                `json:"album_id" validate:"required,max=300"`
	Rating  int                   `json:"rating" validate:"required,min=1,max=5"`
	Body    string                `json:"body"`
	Album   *AlbumSnapshotRequest `json:"album"`
}

// --- Handlers ---

// Create handles POST /api/v1/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeUnauthorized(w)
		return
	}

	var req CreateReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	input := service.CreateReviewInput{
		AuthorID: userID,
		AlbumID:  req.AlbumID,
		Rating:   req.Rating,
		Body:     req.Body,
	}
	if req.Album != nil {
		input.AlbumSnapshot = &domain.AlbumSnapshot{Name: req.Album.Name, Artists: req.Album.Artists}
	}

	review, err := h.reviews.Create(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// Get handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.reviews.Detail(r.Context(), id, requesterFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: item})
}

// Delete handles DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeUnauthorized(w)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.reviews.SoftDelete(r.Context(), id, userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"id": id, "status": "deleted"},
	})
}

// ListByAlbum handles GET /api/v1/albums/{albumId}/reviews
func (h *ReviewHandler) ListByAlbum(w http.ResponseWriter, r *http.Request) {
	albumID := chi.URLParam(r, "albumId")
	params := pagination.FromRequest(r)

	page, err := h.reviews.ListByAlbum(r.Context(), albumID, listQueryFrom(params), requesterFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// ListByUser handles GET /api/v1/users/{id}/reviews
func (h *ReviewHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	authorID := chi.URLParam(r, "id")
	params := pagination.FromRequest(r)

	page, err := h.reviews.ListByAuthor(r.Context(), authorID, listQueryFrom(params), requesterFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}
