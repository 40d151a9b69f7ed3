package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/internal/repository"
	apperrors "github.com/linernotes/linernotes/pkg/errors"
	"github.com/linernotes/linernotes/pkg/pagination"
)

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	AuthorID      string
	AlbumID       string
	Rating        int
	Body          string
	AlbumSnapshot *domain.AlbumSnapshot
}

// ListQuery selects one page of a newest-first review list. Cursor wins over
// Page when both are set.
type ListQuery struct {
	Page     int
	PageSize int
	Cursor   string
}

// ReviewPage is one keyset page of reviews. NextCursor is empty on the last
// page.
type ReviewPage struct {
	Reviews    []domain.Review
	NextCursor string
}

// ReviewService implements the business logic for review operations.
type ReviewService struct {
	reviews  repository.ReviewRepository
	enricher *enricher
	producer EventPublisher
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	profiles ProfileResolver,
	likes LikedSetReader,
	producer EventPublisher,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		enricher: &enricher{profiles: profiles, likes: likes},
		producer: producer,
		logger:   logger,
	}
}

// Create validates and stores a new review. A second live review of the same
// album by the same author fails with a Duplicate error raised by the store.
func (s *ReviewService) Create(ctx context.Context, input CreateReviewInput) (*domain.Review, error) {
	if input.AuthorID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	body := strings.TrimSpace(input.Body)
	albumID := strings.TrimSpace(input.AlbumID)
	if err := validateReview(albumID, input.Rating, body, input.AlbumSnapshot); err != nil {
		return nil, err
	}

	now := domain.Now()
	review := &domain.Review{
		ID:            uuid.New().String(),
		AuthorID:      input.AuthorID,
		AlbumID:       albumID,
		Rating:        input.Rating,
		Body:          body,
		AlbumSnapshot: input.AlbumSnapshot,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("album_id", review.AlbumID),
		slog.String("author_id", review.AuthorID),
		slog.Int("rating", review.Rating),
	)

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	return review, nil
}

func validateReview(albumID string, rating int, body string, snapshot *domain.AlbumSnapshot) error {
	if albumID == "" {
		return apperrors.InvalidInput("album_id is required")
	}
	if rating < domain.MinRating || rating > domain.MaxRating {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	if body == "" {
		return apperrors.EmptyBody("review body must not be empty")
	}
	n := utf8.RuneCountInString(body)
	if n < domain.MinReviewBodyLength {
		return apperrors.InvalidInput(fmt.Sprintf("review body must be at least %d characters", domain.MinReviewBodyLength))
	}
	if n > domain.MaxReviewBodyLength {
		return apperrors.InvalidInput(fmt.Sprintf("review body must be at most %d characters", domain.MaxReviewBodyLength))
	}

	if snapshot == nil {
		return nil
	}
	if utf8.RuneCountInString(snapshot.Name) > domain.MaxAlbumSnapshotField {
		return apperrors.InvalidInput("album name is too long")
	}
	if len(snapshot.Artists) > domain.MaxAlbumArtists {
		return apperrors.InvalidInput(fmt.Sprintf("at most %d artists may be attached", domain.MaxAlbumArtists))
	}
	for _, a := range snapshot.Artists {
		if utf8.RuneCountInString(a) > domain.MaxAlbumSnapshotField {
			return apperrors.InvalidInput("artist name is too long")
		}
	}
	return nil
}

// Get returns a review the requester may see. Soft-deleted reviews are
// reported as NotFound unless the requester wrote them or is an admin.
func (s *ReviewService) Get(ctx context.Context, id string, requester domain.Requester) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !review.VisibleTo(requester) {
		return nil, apperrors.NotFound("review", id)
	}
	return review, nil
}

// Detail returns a single review with its author and the requester's like
// state.
func (s *ReviewService) Detail(ctx context.Context, id string, requester domain.Requester) (*domain.FeedItem, error) {
	review, err := s.Get(ctx, id, requester)
	if err != nil {
		return nil, err
	}

	items, err := s.enricher.reviews(ctx, []domain.Review{*review}, requester.UserID)
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// ListByAuthors returns one keyset page of live reviews by any of the given
// authors. Offset paging is never used here.
func (s *ReviewService) ListByAuthors(ctx context.Context, authorIDs []string, pageSize int, cursor string) (*ReviewPage, error) {
	after, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	pageSize = normalizePageSize(pageSize, pagination.MaxPageSize)

	if len(authorIDs) == 0 {
		return &ReviewPage{Reviews: []domain.Review{}}, nil
	}

	rows, err := s.reviews.ListByAuthors(ctx, authorIDs, after, pageSize+1)
	if err != nil {
		return nil, fmt.Errorf("list reviews by authors: %w", err)
	}

	reviews, next := trimPage(rows, pageSize)
	return &ReviewPage{Reviews: reviews, NextCursor: next}, nil
}

// ListByAuthor returns an author's reviews enriched for the requester.
func (s *ReviewService) ListByAuthor(
	ctx context.Context,
	authorID string,
	q ListQuery,
	requester domain.Requester,
) (pagination.CursorPage[domain.FeedItem], error) {
	page, err := s.ListByAuthors(ctx, []string{authorID}, q.PageSize, q.Cursor)
	if err != nil {
		return pagination.CursorPage[domain.FeedItem]{}, err
	}

	items, err := s.enricher.reviews(ctx, page.Reviews, requester.UserID)
	if err != nil {
		return pagination.CursorPage[domain.FeedItem]{}, err
	}
	return pagination.NewCursorPage(items, page.NextCursor), nil
}

// ListByAlbum returns an album's live reviews newest first, enriched for the
// requester. A cursor is used when given; otherwise Page selects an offset.
func (s *ReviewService) ListByAlbum(
	ctx context.Context,
	albumID string,
	q ListQuery,
	requester domain.Requester,
) (pagination.CursorPage[domain.FeedItem], error) {
	after, err := decodeCursor(q.Cursor)
	if err != nil {
		return pagination.CursorPage[domain.FeedItem]{}, err
	}
	pageSize := normalizePageSize(q.PageSize, pagination.MaxPageSize)

	offset := 0
	if after == nil && q.Page > 1 {
		offset = pagination.Offset(q.Page, pageSize)
	}

	rows, err := s.reviews.ListByAlbum(ctx, albumID, after, offset, pageSize+1)
	if err != nil {
		return pagination.CursorPage[domain.FeedItem]{}, fmt.Errorf("list reviews by album: %w", err)
	}

	reviews, next := trimPage(rows, pageSize)
	items, err := s.enricher.reviews(ctx, reviews, requester.UserID)
	if err != nil {
		return pagination.CursorPage[domain.FeedItem]{}, err
	}
	return pagination.NewCursorPage(items, next), nil
}

// SoftDelete marks a review deleted. Only its author may delete it; comments
// and likes attached to it are left in place.
func (s *ReviewService) SoftDelete(ctx context.Context, id, requesterID string) error {
	if requesterID == "" {
		return apperrors.Unauthorized("authentication required")
	}

	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if review.IsDeleted() {
		return apperrors.NotFound("review", id)
	}
	if review.AuthorID != requesterID {
		return apperrors.Forbidden("only the author may delete a review")
	}

	now := domain.Now()
	if err := s.reviews.SoftDelete(ctx, id, now); err != nil {
		return fmt.Errorf("soft delete review: %w", err)
	}
	review.DeletedAt = &now

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", review.ID),
		slog.String("author_id", review.AuthorID),
	)

	if err := s.producer.PublishReviewDeleted(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// trimPage drops the look-ahead row fetched to detect a following page and
// returns the cursor of the last kept review when there is one.
func trimPage(rows []domain.Review, pageSize int) ([]domain.Review, string) {
	if rows == nil {
		rows = []domain.Review{}
	}
	if len(rows) <= pageSize {
		return rows, ""
	}
	rows = rows[:pageSize]
	return rows, domain.CursorFor(rows[len(rows)-1]).Encode()
}

func decodeCursor(raw string) (*domain.Cursor, error) {
	c, err := domain.DecodeCursor(raw)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid cursor")
	}
	if c != nil {
		if _, err := uuid.Parse(c.ID); err != nil {
			return nil, apperrors.InvalidInput("invalid cursor")
		}
	}
	return c, nil
}

// normalizePageSize applies the default to unset sizes and clamps the rest.
func normalizePageSize(size, maxPageSize int) int {
	if size <= 0 {
		size = pagination.DefaultPageSize
	}
	return pagination.ClampPageSize(size, maxPageSize)
}
