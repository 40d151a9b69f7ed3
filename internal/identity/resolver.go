// Package identity resolves opaque user ids into public profiles. The
// directory behind the resolver is pluggable: the local users table, a
// remote identity service, or either of those behind a Redis cache.
package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linernotes/linernotes/internal/domain"
	apperrors "github.com/linernotes/linernotes/pkg/errors"
)

// Directory looks up profiles in bulk. Unknown ids are omitted from the result.
type Directory interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]domain.Profile, error)
}

// Resolver batches profile lookups against a Directory.
type Resolver struct {
	dir    Directory
	logger *slog.Logger
}

// NewResolver creates a resolver backed by dir.
func NewResolver(dir Directory, logger *slog.Logger) *Resolver {
	return &Resolver{dir: dir, logger: logger}
}

// Resolve de-duplicates ids and issues a single directory call. Ids the
// directory does not know are absent from the map.
func (r *Resolver) Resolve(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	unique := Dedupe(ids)
	if len(unique) == 0 {
		return map[string]domain.Profile{}, nil
	}

	profiles, err := r.dir.FindByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("resolve profiles: %w", err)
	}

	if missing := len(unique) - len(profiles); missing > 0 {
		r.logger.DebugContext(ctx, "profiles not found in directory",
			slog.Int("requested", len(unique)),
			slog.Int("missing", missing),
		)
	}

	return profiles, nil
}

// ResolveOrUnknown is Resolve with a placeholder profile for every unknown id,
// so callers never render an item without an author.
func (r *Resolver) ResolveOrUnknown(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	profiles, err := r.Resolve(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := profiles[id]; !ok {
			profiles[id] = domain.UnknownProfile(id)
		}
	}
	return profiles, nil
}

// Get resolves a single id, returning NotFound for unknown users.
func (r *Resolver) Get(ctx context.Context, id string) (domain.Profile, error) {
	if id == "" {
		return domain.Profile{}, apperrors.NotFound("user", id)
	}

	profiles, err := r.Resolve(ctx, []string{id})
	if err != nil {
		return domain.Profile{}, err
	}

	p, ok := profiles[id]
	if !ok {
		return domain.Profile{}, apperrors.NotFound("user", id)
	}
	return p, nil
}

// Dedupe returns the distinct non-empty ids in first-seen order.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
