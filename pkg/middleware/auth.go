package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	apperrors "github.com/linernotes/linernotes/pkg/errors"
	"github.com/linernotes/linernotes/pkg/httputil"
	"github.com/linernotes/linernotes/pkg/logger"
)

type claimsKey struct{}

// RoleAdmin may read soft-deleted content and trigger maintenance.
const RoleAdmin = "admin"

// Claims identify the caller of an authenticated request.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// TokenValidator turns a bearer token into claims.
type TokenValidator func(token string) (*Claims, error)

// Auth requires a valid bearer token.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return bearer(validate, true)
}

// OptionalAuth lets anonymous requests through. A token that is present but
// invalid is still rejected, so an expired session is not silently ignored.
func OptionalAuth(validate TokenValidator) func(http.Handler) http.Handler {
	return bearer(validate, false)
}

func bearer(validate TokenValidator, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" && !required {
				next.ServeHTTP(w, r)
				return
			}

			claims, msg := parseBearer(header, validate)
			if claims == nil {
				httputil.WriteError(w, r, apperrors.Unauthorized(msg), nil)
				return
			}

			ctx := logger.WithUserID(WithClaims(r.Context(), claims), claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseBearer returns the claims for header or a client-facing reason.
func parseBearer(header string, validate TokenValidator) (*Claims, string) {
	if header == "" {
		return nil, "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return nil, "invalid authorization header format"
	}
	claims, err := validate(token)
	if err != nil || claims == nil {
		return nil, "invalid or expired token"
	}
	return claims, ""
}

// RequireRole admits only callers holding one of roles. It must run after Auth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(roles, RoleFromContext(r.Context())) {
				httputil.WriteError(w, r, apperrors.Forbidden("insufficient permissions"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithClaims returns ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the caller's claims, or nil for anonymous requests.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey{}).(*Claims)
	return c
}

// UserIDFromContext returns the caller's id, or "" when anonymous.
func UserIDFromContext(ctx context.Context) string {
	if c := ClaimsFromContext(ctx); c != nil {
		return c.UserID
	}
	return ""
}

// RoleFromContext returns the caller's role, or "" when anonymous.
func RoleFromContext(ctx context.Context) string {
	if c := ClaimsFromContext(ctx); c != nil {
		return c.Role
	}
	return ""
}
