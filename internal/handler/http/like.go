package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/pkg/httputil"
	"github.com/linernotes/linernotes/pkg/middleware"
)

// LikeHandler handles HTTP requests for likes on reviews and comments.
type LikeHandler struct {
	reactions Reactions
	logger    *slog.Logger
}

// NewLikeHandler creates a new like HTTP handler.
func NewLikeHandler(reactions Reactions, logger *slog.Logger) *LikeHandler {
	return &LikeHandler{
		reactions: reactions,
		logger:    logger,
	}
}

// Like handles PUT /api/v1/likes/{targetType}/{targetId}
func (h *LikeHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.reactions.Like)
}

// Unlike handles DELETE /api/v1/likes/{targetType}/{targetId}
func (h *LikeHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.reactions.Unlike)
}

type reactionFunc func(ctx context.Context, userID string, target domain.Target) (domain.ReactionState, error)

func (h *LikeHandler) toggle(w http.ResponseWriter, r *http.Request, apply reactionFunc) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeUnauthorized(w)
		return
	}

	kind, err := domain.ParseTargetKind(chi.URLParam(r, "targetType"))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}

	state, err := apply(r.Context(), userID, domain.Target{Kind: kind, ID: chi.URLParam(r, "targetId")})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: state})
}
