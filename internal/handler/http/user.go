package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linernotes/linernotes/pkg/httputil"
	"github.com/linernotes/linernotes/pkg/middleware"
)

// UserHandler handles HTTP requests for profile pages and follow edges.
type UserHandler struct {
	profiles ProfileReader
	follows  FollowGraph
	logger   *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(profiles ProfileReader, follows FollowGraph, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		profiles: profiles,
		follows:  follows,
		logger:   logger,
	}
}

// GetProfile handles GET /api/v1/users/{id}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), chi.URLParam(r, "id"), requesterFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: profile})
}

// Follow handles PUT /api/v1/users/{id}/follow
func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID := middleware.UserIDFromContext(r.Context())
	if followerID == "" {
		writeUnauthorized(w)
		return
	}

	state, err := h.follows.Follow(r.Context(), followerID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: state})
}

// Unfollow handles DELETE /api/v1/users/{id}/follow
func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID := middleware.UserIDFromContext(r.Context())
	if followerID == "" {
		writeUnauthorized(w)
		return
	}

	state, err := h.follows.Unfollow(r.Context(), followerID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: state})
}
