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

// LibraryHandler handles HTTP requests for the saved album library.
type LibraryHandler struct {
	library AlbumLibrary
	logger  *slog.Logger
}

// NewLibraryHandler creates a new library HTTP handler.
func NewLibraryHandler(library AlbumLibrary, logger *slog.Logger) *LibraryHandler {
	return &LibraryHandler{
		library: library,
		logger:  logger,
	}
}

// --- Request / Response DTOs ---

// SaveAlbumRequest is the JSON request body for saving an album.
type SaveAlbumRequest struct {
	Name     string   `json:"name" validate:"required,max=300"`
	CoverURL string   `json:"cover_url" validate:"omitempty,url,max=2048"`
	Artists  []string `json:"artists" validate:"max=20,dive,max=300"`
}

// SavedStateResponse reports whether an album is in the caller's library.
type SavedStateResponse struct {
	Saved bool                 `json:"saved"`
	Entry *domain.LibraryEntry `json:"entry,omitempty"`
}

// --- Handlers ---

// List handles GET /api/v1/library
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeUnauthorized(w)
		return
	}

	params := pagination.FromRequest(r)

	result, err := h.library.List(r.Context(), userID, params.Page, params.PageSize)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Get handles GET /api/v1/library/{albumId}
func (h *LibraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeUnauthorized(w)
		return
	}

	entry, err := h.library.Lookup(r.Context(), userID, chi.URLParam(r, "albumId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: SavedStateResponse{Saved: entry != nil, Entry: entry},
	})
}

// Save handles PUT /api/v1/library/{albumId}
func (h *LibraryHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeUnauthorized(w)
		return
	}

	var req SaveAlbumRequest
	if !decodeBody(w, r, &req) {
		return
	}

	entry, err := h.library.Save(r.Context(), service.SaveAlbumInput{
		UserID:   userID,
		AlbumID:  chi.URLParam(r, "albumId"),
		Name:     req.Name,
		CoverURL: req.CoverURL,
		Artists:  req.Artists,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: SavedStateResponse{Saved: true, Entry: entry},
	})
}

// Remove handles DELETE /api/v1/library/{albumId}
func (h *LibraryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeUnauthorized(w)
		return
	}

	if err := h.library.Remove(r.Context(), userID, chi.URLParam(r, "albumId")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: SavedStateResponse{Saved: false},
	})
}
