package identity

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/linernotes/linernotes/internal/domain"
)

// profileCacheLookups counts cache outcomes per looked-up id.
var profileCacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "linernotes_profile_cache_lookups_total",
		Help: "Profile cache lookups by result (hit, miss, error, coalesced)",
	},
	[]string{"result"},
)

// sharedLookupTimeout bounds a coalesced directory call, which outlives the
// cancellation of the request that started it.
const sharedLookupTimeout = 5 * time.Second

// ProfileCache is the cache consulted before the directory.
type ProfileCache interface {
	GetMany(ctx context.Context, ids []string) (map[string]domain.Profile, []string, error)
	SetMany(ctx context.Context, profiles map[string]domain.Profile) error
}

// CachedDirectory serves profiles from a cache and asks the inner directory
// only for the misses. Cache failures fall through to the inner directory.
// Concurrent requests missing the same ids share one directory call.
type CachedDirectory struct {
	inner  Directory
	cache  ProfileCache
	group  singleflight.Group
	logger *slog.Logger
}

// NewCachedDirectory wraps inner with cache.
func NewCachedDirectory(inner Directory, cache ProfileCache, logger *slog.Logger) *CachedDirectory {
	return &CachedDirectory{inner: inner, cache: cache, logger: logger}
}

// FindByIDs implements Directory.
func (d *CachedDirectory) FindByIDs(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	if len(ids) == 0 {
		return map[string]domain.Profile{}, nil
	}

	hits, misses, err := d.cache.GetMany(ctx, ids)
	if err != nil {
		d.logger.WarnContext(ctx, "profile cache read failed, using directory",
			slog.String("error", err.Error()),
		)
		profileCacheLookups.WithLabelValues("error").Add(float64(len(ids)))
		hits, misses = map[string]domain.Profile{}, ids
	} else {
		profileCacheLookups.WithLabelValues("hit").Add(float64(len(hits)))
		profileCacheLookups.WithLabelValues("miss").Add(float64(len(misses)))
	}

	if len(misses) == 0 {
		return hits, nil
	}

	found, err := d.fill(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, p := range found {
		hits[id] = p
	}
	return hits, nil
}

// fill loads misses from the inner directory and writes them back. The
// returned map is shared between callers and must not be modified.
func (d *CachedDirectory) fill(ctx context.Context, misses []string) (map[string]domain.Profile, error) {
	key := slices.Clone(misses)
	slices.Sort(key)

	v, err, shared := d.group.Do(strings.Join(key, "\x00"), func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()

		found, err := d.inner.FindByIDs(ctx, misses)
		if err != nil {
			return nil, err
		}
		if err := d.cache.SetMany(ctx, found); err != nil {
			d.logger.WarnContext(ctx, "profile cache write failed",
				slog.String("error", err.Error()),
			)
		}
		return found, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		profileCacheLookups.WithLabelValues("coalesced").Add(float64(len(misses)))
	}
	return v.(map[string]domain.Profile), nil
}
