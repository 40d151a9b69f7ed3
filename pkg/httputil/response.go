// Package httputil writes the JSON envelope every linernotes endpoint
// returns: {"data": ...} on success and {"error": {...}} on failure.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/linernotes/linernotes/pkg/errors"
	"github.com/linernotes/linernotes/pkg/logger"
	"github.com/linernotes/linernotes/pkg/validator"
)

// Response is the envelope.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error member of the envelope. RequestID echoes the
// correlation id so clients can quote it in bug reports.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err through apperrors.Classify and writes the error
// envelope. 5xx errors are logged with the request-scoped logger when one is
// installed, otherwise with fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	ctx := r.Context()
	c := apperrors.Classify(err)

	if c.Status >= http.StatusInternalServerError {
		l := logger.FromContext(ctx)
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(ctx, "request failed",
			slog.String("error", err.Error()),
			slog.String("code", c.Code),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, c.Status, Response{Error: &ErrorResponse{
		Code:      c.Code,
		Message:   c.Message,
		RequestID: logger.CorrelationIDFromContext(ctx),
	}})
}

// WriteValidationError writes a 400. Field-level failures from the
// validator package become VALIDATION_ERROR with one entry per field.
func WriteValidationError(w http.ResponseWriter, err error) {
	resp := &ErrorResponse{Code: apperrors.CodeInvalidInput, Message: err.Error()}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		resp = &ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Fields:  valErr.Fields(),
		}
	}
	WriteJSON(w, http.StatusBadRequest, Response{Error: resp})
}
