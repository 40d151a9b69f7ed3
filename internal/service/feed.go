package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linernotes/linernotes/internal/domain"
	apperrors "github.com/linernotes/linernotes/pkg/errors"
	"github.com/linernotes/linernotes/pkg/pagination"
	"github.com/linernotes/linernotes/pkg/tracing"
)

const tracerName = "github.com/linernotes/linernotes/internal/service"

// FollowingLister returns the ids a user follows.
type FollowingLister interface {
	FollowingSet(ctx context.Context, userID string) ([]string, error)
}

// AuthorReviewLister pages live reviews of a set of authors.
type AuthorReviewLister interface {
	ListByAuthors(ctx context.Context, authorIDs []string, pageSize int, cursor string) (*ReviewPage, error)
}

// FeedService assembles a viewer's home feed on read: the reviews of everyone
// they follow plus their own, newest first.
type FeedService struct {
	follows     FollowingLister
	reviews     AuthorReviewLister
	enricher    *enricher
	maxPageSize int
	logger      *slog.Logger
}

// NewFeedService creates a new feed service. maxPageSize caps every page
// regardless of what the client asks for.
func NewFeedService(
	follows FollowingLister,
	reviews AuthorReviewLister,
	profiles ProfileResolver,
	likes LikedSetReader,
	maxPageSize int,
	logger *slog.Logger,
) *FeedService {
	if maxPageSize <= 0 || maxPageSize > pagination.MaxPageSize {
		maxPageSize = pagination.MaxPageSize
	}
	return &FeedService{
		follows:     follows,
		reviews:     reviews,
		enricher:    &enricher{profiles: profiles, likes: likes},
		maxPageSize: maxPageSize,
		logger:      logger,
	}
}

// Feed returns one page of the viewer's feed. Pages are addressed by cursor
// only; any failure yields no page at all.
func (s *FeedService) Feed(ctx context.Context, viewerID string, q ListQuery) (pagination.CursorPage[domain.FeedItem], error) {
	var empty pagination.CursorPage[domain.FeedItem]
	if viewerID == "" {
		return empty, apperrors.Unauthorized("authentication required")
	}
	if q.Cursor == "" && q.Page > 1 {
		return empty, apperrors.InvalidInput("feed pages are addressed by cursor, not page number")
	}

	ctx, span := tracing.Tracer(tracerName).Start(ctx, "FeedService.Feed",
		trace.WithAttributes(attribute.String("viewer.id", viewerID)))
	defer span.End()

	start := time.Now()
	defer func() { FeedPageDuration.Observe(time.Since(start).Seconds()) }()

	following, err := s.follows.FollowingSet(ctx, viewerID)
	if err != nil {
		return empty, err
	}
	authors := authorSet(viewerID, following)

	page, err := s.reviews.ListByAuthors(ctx, authors, normalizePageSize(q.PageSize, s.maxPageSize), q.Cursor)
	if err != nil {
		return empty, err
	}

	items, err := s.enricher.reviews(ctx, page.Reviews, viewerID)
	if err != nil {
		return empty, err
	}

	s.logger.DebugContext(ctx, "feed page served",
		slog.String("viewer_id", viewerID),
		slog.Int("authors", len(authors)),
		slog.Int("items", len(items)),
		slog.Bool("has_next", page.NextCursor != ""),
	)

	return pagination.NewCursorPage(items, page.NextCursor), nil
}

// authorSet returns the viewer followed by the distinct ids they follow.
func authorSet(viewerID string, following []string) []string {
	seen := map[string]struct{}{viewerID: {}}
	authors := make([]string, 0, len(following)+1)
	authors = append(authors, viewerID)
	for _, id := range following {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		authors = append(authors, id)
	}
	return authors
}
