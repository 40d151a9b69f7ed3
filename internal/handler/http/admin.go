package http

import (
	"log/slog"
	"net/http"

	"github.com/linernotes/linernotes/pkg/httputil"
	"github.com/linernotes/linernotes/pkg/middleware"
)

// AdminHandler serves maintenance endpoints restricted to admins.
type AdminHandler struct {
	counters SweepRunner
	logger   *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(counters SweepRunner, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{counters: counters, logger: logger}
}

// ReconcileCounters handles POST /api/v1/admin/counters/reconcile
func (h *AdminHandler) ReconcileCounters(w http.ResponseWriter, r *http.Request) {
	report, err := h.counters.RunNow(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "manual counter sweep",
		slog.String("requested_by", middleware.UserIDFromContext(r.Context())),
	)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: report})
}
