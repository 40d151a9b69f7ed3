package http

import (
	"log/slog"
	"net/http"

	"github.com/linernotes/linernotes/pkg/httputil"
	"github.com/linernotes/linernotes/pkg/middleware"
	"github.com/linernotes/linernotes/pkg/pagination"
)

// FeedHandler handles HTTP requests for the home feed.
type FeedHandler struct {
	feed        FeedReader
	maxPageSize int
	logger      *slog.Logger
}

// NewFeedHandler creates a new feed HTTP handler.
func NewFeedHandler(feed FeedReader, maxPageSize int, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		feed:        feed,
		maxPageSize: maxPageSize,
		logger:      logger,
	}
}

// Get handles GET /api/v1/feed
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.UserIDFromContext(r.Context())
	if viewerID == "" {
		writeUnauthorized(w)
		return
	}

	params := pagination.FromRequestWithMax(r, h.maxPageSize)

	page, err := h.feed.Feed(r.Context(), viewerID, listQueryFrom(params))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}
