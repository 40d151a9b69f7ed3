package service

import (
	"context"
	"errors"
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

// PostCommentInput holds the parameters for posting a comment.
type PostCommentInput struct {
	ReviewID string
	AuthorID string
	Body     string
	ParentID *string
}

// CommentService implements the comment thread engine.
type CommentService struct {
	comments repository.CommentRepository
	reviews  repository.ReviewRepository
	counters *counterKeeper
	enricher *enricher
	producer EventPublisher
	logger   *slog.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(
	comments repository.CommentRepository,
	reviews repository.ReviewRepository,
	counters repository.CounterRepository,
	profiles ProfileResolver,
	likes LikedSetReader,
	producer EventPublisher,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		comments: comments,
		reviews:  reviews,
		counters: &counterKeeper{counters: counters, producer: producer, logger: logger},
		enricher: &enricher{profiles: profiles, likes: likes},
		producer: producer,
		logger:   logger,
	}
}

// Post adds a comment to a live review. Replies must point at a top-level
// comment of the same review; threads are never deeper than one level.
func (s *CommentService) Post(ctx context.Context, input PostCommentInput) (*domain.Comment, error) {
	if input.AuthorID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, apperrors.EmptyBody("comment body must not be empty")
	}
	if utf8.RuneCountInString(body) > domain.MaxCommentBodyLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("comment body must be at most %d characters", domain.MaxCommentBodyLength))
	}

	review, err := s.reviews.GetByID(ctx, input.ReviewID)
	if err != nil {
		return nil, err
	}
	if review.IsDeleted() {
		return nil, apperrors.NotFound("review", input.ReviewID)
	}

	var parentID *string
	if input.ParentID != nil && *input.ParentID != "" {
		if err := s.checkParent(ctx, review.ID, *input.ParentID); err != nil {
			return nil, err
		}
		id := *input.ParentID
		parentID = &id
	}

	comment := &domain.Comment{
		ID:        uuid.New().String(),
		ReviewID:  review.ID,
		AuthorID:  input.AuthorID,
		ParentID:  parentID,
		Body:      body,
		CreatedAt: domain.Now(),
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.counters.adjust(ctx, domain.CounterRef{Kind: domain.CounterReviewComments, ID: review.ID}, 1)

	s.logger.InfoContext(ctx, "comment posted",
		slog.String("comment_id", comment.ID),
		slog.String("review_id", comment.ReviewID),
		slog.String("author_id", comment.AuthorID),
		slog.Bool("reply", parentID != nil),
	)

	if err := s.producer.PublishCommentCreated(ctx, comment); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish comment.created event",
			slog.String("comment_id", comment.ID),
			slog.String("error", err.Error()),
		)
	}

	return comment, nil
}

func (s *CommentService) checkParent(ctx context.Context, reviewID, parentID string) error {
	parent, err := s.comments.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidParent("parent comment does not exist")
		}
		return fmt.Errorf("get parent comment: %w", err)
	}
	if parent.ReviewID != reviewID {
		return apperrors.InvalidParent("parent comment belongs to another review")
	}
	if !parent.IsTopLevel() {
		return apperrors.InvalidParent("replies cannot be replied to")
	}
	return nil
}

// ListForReview returns one page of top-level comments oldest first, together
// with every reply to those comments.
func (s *CommentService) ListForReview(
	ctx context.Context,
	reviewID string,
	page, pageSize int,
	requester domain.Requester,
) (*domain.Thread, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !review.VisibleTo(requester) {
		return nil, apperrors.NotFound("review", reviewID)
	}

	page = pagination.ClampPage(page)
	pageSize = normalizePageSize(pageSize, pagination.MaxPageSize)

	top, err := s.comments.ListTopLevel(ctx, review.ID, pagination.Offset(page, pageSize), pageSize+1)
	if err != nil {
		return nil, fmt.Errorf("list top-level comments: %w", err)
	}
	hasNext := len(top) > pageSize
	if hasNext {
		top = top[:pageSize]
	}

	var replies []domain.Comment
	if len(top) > 0 {
		parentIDs := make([]string, len(top))
		for i := range top {
			parentIDs[i] = top[i].ID
		}
		replies, err = s.comments.ListReplies(ctx, parentIDs)
		if err != nil {
			return nil, fmt.Errorf("list replies: %w", err)
		}
	}

	all := make([]domain.Comment, 0, len(top)+len(replies))
	all = append(all, top...)
	all = append(all, replies...)

	views, err := s.enricher.comments(ctx, all, requester.UserID)
	if err != nil {
		return nil, err
	}

	thread := &domain.Thread{
		TopLevel:        views[:len(top)],
		RepliesByParent: make(map[string][]domain.CommentView),
		Page:            page,
		PageSize:        pageSize,
		HasNext:         hasNext,
	}
	for _, v := range views[len(top):] {
		if v.ParentID == nil {
			continue
		}
		thread.RepliesByParent[*v.ParentID] = append(thread.RepliesByParent[*v.ParentID], v)
	}

	return thread, nil
}
