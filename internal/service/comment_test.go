package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linernotes/linernotes/internal/domain"
	apperrors "github.com/linernotes/linernotes/pkg/errors"
	"github.com/linernotes/linernotes/pkg/pagination"
)

type commentFixture struct {
	comments *mockCommentRepository
	reviews  *mockReviewRepository
	counters *mockCounterRepository
	resolver *mockResolver
	likes    *mockLikedSet
	pub      *mockPublisher
	svc      *CommentService
}

func newCommentFixture() *commentFixture {
	f := &commentFixture{
		comments: new(mockCommentRepository),
		reviews:  new(mockReviewRepository),
		counters: new(mockCounterRepository),
		resolver: new(mockResolver),
		likes:    new(mockLikedSet),
		pub:      new(mockPublisher),
	}
	f.svc = NewCommentService(f.comments, f.reviews, f.counters, f.resolver, f.likes, f.pub, newTestLogger())
	return f
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

// --- Post Tests ---

func TestCommentPost_TopLevel(t *testing.T) {
	f := newCommentFixture()
	ctx := context.Background()

	f.reviews.On("GetByID", ctx, reviewID1).Return(liveReview(reviewID1, "author"), nil)
	f.comments.On("Create", ctx, mock.AnythingOfType("*domain.Comment")).Return(nil)
	f.counters.On("Adjust", ctx, domain.CounterRef{Kind: domain.CounterReviewComments, ID: reviewID1}, 1).Return(1, nil)
	f.pub.On("PublishCommentCreated", ctx, mock.AnythingOfType("*domain.Comment")).Return(nil)

	c, err := f.svc.Post(ctx, PostCommentInput{ReviewID: reviewID1, AuthorID: "reader", Body: "  Agreed on side B. "})

	require.NoError(t, err)
	assert.Equal(t, "Agreed on side B.", c.Body)
	assert.Nil(t, c.ParentID)
	assert.Equal(t, reviewID1, c.ReviewID)
	f.counters.AssertExpectations(t)
	f.pub.AssertExpectations(t)
}

func TestCommentPost_Reply(t *testing.T) {
	f := newCommentFixture()
	ctx := context.Background()

	f.reviews.On("GetByID", ctx, reviewID1).Return(liveReview(reviewID1, "author"), nil)
	f.comments.On("GetByID", ctx, commentID1).
		Return(&domain.Comment{ID: commentID1, ReviewID: reviewID1}, nil)
	f.comments.On("Create", ctx, mock.AnythingOfType("*domain.Comment")).Return(nil)
	f.counters.On("Adjust", ctx, mock.Anything, 1).Return(2, nil)
	f.pub.On("PublishCommentCreated", ctx, mock.Anything).Return(nil)

	c, err := f.svc.Post(ctx, PostCommentInput{ReviewID: reviewID1, AuthorID: "reader", Body: "Same here", ParentID: strPtr(commentID1)})

	require.NoError(t, err)
	require.NotNil(t, c.ParentID)
	assert.Equal(t, commentID1, *c.ParentID)
}

func TestCommentPost_EmptyParentIsTopLevel(t *testing.T) {
	f := newCommentFixture()
	ctx := context.Background()

	f.reviews.On("GetByID", ctx, reviewID1).Return(liveReview(reviewID1, "author"), nil)
	f.comments.On("Create", ctx, mock.Anything).Return(nil)
	f.counters.On("Adjust", ctx, mock.Anything, 1).Return(1, nil)
	f.pub.On("PublishCommentCreated", ctx, mock.Anything).Return(nil)

	c, err := f.svc.Post(ctx, PostCommentInput{ReviewID: reviewID1, AuthorID: "reader", Body: "hi", ParentID: strPtr("")})

	require.NoError(t, err)
	assert.True(t, c.IsTopLevel())
	f.comments.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestCommentPost_InvalidParent(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		parent *domain.Comment
		err    error
	}{
		{"missing parent", nil, apperrors.NotFound("comment", commentID1)},
		{"parent on another review", &domain.Comment{ID: commentID1, ReviewID: reviewID2}, nil},
		{"parent is a reply", &domain.Comment{ID: commentID1, ReviewID: reviewID1, ParentID: strPtr(commentID2)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCommentFixture()
			f.reviews.On("GetByID", ctx, reviewID1).Return(liveReview(reviewID1, "author"), nil)
			if tt.parent != nil {
				f.comments.On("GetByID", ctx, commentID1).Return(tt.parent, nil)
			} else {
				f.comments.On("GetByID", ctx, commentID1).Return(nil, tt.err)
			}

			_, err := f.svc.Post(ctx, PostCommentInput{ReviewID: reviewID1, AuthorID: "u", Body: "reply", ParentID: strPtr(commentID1)})

			requireCode(t, err, apperrors.CodeInvalidParent)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			f.comments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCommentPost_EmptyBody(t *testing.T) {
	f := newCommentFixture()

	_, err := f.svc.Post(context.Background(), PostCommentInput{ReviewID: reviewID1, AuthorID: "u", Body: " \n "})

	requireCode(t, err, apperrors.CodeEmptyBody)
	f.reviews.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestCommentPost_BodyTooLong(t *testing.T) {
	f := newCommentFixture()

	_, err := f.svc.Post(context.Background(), PostCommentInput{
		ReviewID: reviewID1,
		AuthorID: "u",
		Body:     strings.Repeat("x", domain.MaxCommentBodyLength+1),
	})

	requireCode(t, err, "INVALID_INPUT")
}

func TestCommentPost_DeletedReview(t *testing.T) {
	f := newCommentFixture()
	ctx := context.Background()

	f.reviews.On("GetByID", ctx, reviewID1).Return(deletedReview(reviewID1, "author"), nil)

	_, err := f.svc.Post(ctx, PostCommentInput{ReviewID: reviewID1, AuthorID: "author", Body: "late note"})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCommentPost_Unauthenticated(t *testing.T) {
	f := newCommentFixture()

	_, err := f.svc.Post(context.Background(), PostCommentInput{ReviewID: reviewID1, Body: "hello"})

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestCommentPost_CounterFailureIsNotSurfaced(t *testing.T) {
	f := newCommentFixture()
	ctx := context.Background()
	ref := domain.CounterRef{Kind: domain.CounterReviewComments, ID: reviewID1}

	f.reviews.On("GetByID", ctx, reviewID1).Return(liveReview(reviewID1, "author"), nil)
	f.comments.On("Create", ctx, mock.Anything).Return(nil)
	f.counters.On("Adjust", ctx, ref, 1).Return(0, errors.New("statement timeout"))
	f.pub.On("PublishReconcileRequested", ctx, ref, ReasonAdjustFailed).Return(nil)
	f.pub.On("PublishCommentCreated", ctx, mock.Anything).Return(nil)

	c, err := f.svc.Post(ctx, PostCommentInput{ReviewID: reviewID1, AuthorID: "u", Body: "still saved"})

	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	f.pub.AssertExpectations(t)
}

// --- ListForReview Tests ---

func TestCommentListForReview_GroupsReplies(t *testing.T) {
	f := newCommentFixture()
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	top := []domain.Comment{
		{ID: commentID1, ReviewID: reviewID1, AuthorID: "a", Body: "first", CreatedAt: base},
		{ID: commentID2, ReviewID: reviewID1, AuthorID: "b", Body: "second", CreatedAt: base.Add(time.Minute)},
	}
	replies := []domain.Comment{
		{ID: commentID3, ReviewID: reviewID1, AuthorID: "c", ParentID: strPtr(commentID1), Body: "reply", CreatedAt: base.Add(2 * time.Minute)},
	}

	f.reviews.On("GetByID", ctx, reviewID1).Return(liveReview(reviewID1, "author"), nil)
	f.comments.On("ListTopLevel", ctx, reviewID1, 0, 3).Return(top, nil)
	f.comments.On("ListReplies", ctx, []string{commentID1, commentID2}).Return(replies, nil)
	f.resolver.On("ResolveOrUnknown", mock.Anything, []string{"a", "b", "c"}).
		Return(map[string]domain.Profile{"a": {ID: "a"}, "b": {ID: "b"}, "c": {ID: "c", DisplayName: "Cleo"}}, nil)
	f.likes.On("ViewerLikedSet", mock.Anything, "viewer", domain.TargetComment, []string{commentID1, commentID2, commentID3}).
		Return(map[string]struct{}{commentID3: {}}, nil)

	thread, err := f.svc.ListForReview(ctx, reviewID1, 1, 2, domain.Requester{UserID: "viewer"})

	require.NoError(t, err)
	require.Len(t, thread.TopLevel, 2)
	assert.Equal(t, commentID1, thread.TopLevel[0].ID)
	assert.Equal(t, commentID2, thread.TopLevel[1].ID)
	assert.False(t, thread.HasNext)

	require.Len(t, thread.RepliesByParent[commentID1], 1)
	reply := thread.RepliesByParent[commentID1][0]
	assert.Equal(t, "Cleo", reply.Author.DisplayName)
	assert.True(t, reply.ViewerLiked)
	assert.Empty(t, thread.RepliesByParent[commentID2])
}

func TestCommentListForReview_HasNextAndOffset(t *testing.T) {
	f := newCommentFixture()
	ctx := context.Background()

	top := []domain.Comment{
		{ID: commentID1, ReviewID: reviewID1, AuthorID: "a"},
		{ID: commentID2, ReviewID: reviewID1, AuthorID: "a"},
	}

	f.reviews.On("GetByID", ctx, reviewID1).Return(liveReview(reviewID1, "author"), nil)
	f.comments.On("ListTopLevel", ctx, reviewID1, 1, 2).Return(top, nil)
	f.comments.On("ListReplies", ctx, []string{commentID1}).Return([]domain.Comment{}, nil)
	f.resolver.On("ResolveOrUnknown", mock.Anything, []string{"a"}).
		Return(map[string]domain.Profile{"a": {ID: "a"}}, nil)

	thread, err := f.svc.ListForReview(ctx, reviewID1, 2, 1, domain.Requester{})

	require.NoError(t, err)
	assert.True(t, thread.HasNext)
	assert.Len(t, thread.TopLevel, 1)
	assert.Equal(t, 2, thread.Page)
	f.likes.AssertNotCalled(t, "ViewerLikedSet", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCommentListForReview_HugePageIsClamped(t *testing.T) {
	f := newCommentFixture()
	ctx := context.Background()

	f.reviews.On("GetByID", ctx, reviewID1).Return(liveReview(reviewID1, "author"), nil)
	f.comments.On("ListTopLevel", ctx, reviewID1, pagination.MaxPage-1, 2).Return([]domain.Comment{}, nil)

	thread, err := f.svc.ListForReview(ctx, reviewID1, math.MaxInt, 1, domain.Requester{})

	require.NoError(t, err)
	assert.Empty(t, thread.TopLevel)
	assert.Equal(t, pagination.MaxPage, thread.Page)
	f.comments.AssertExpectations(t)
}

func TestCommentListForReview_DeletedReviewHidden(t *testing.T) {
	f := newCommentFixture()
	ctx := context.Background()

	f.reviews.On("GetByID", ctx, reviewID1).Return(deletedReview(reviewID1, "author"), nil)

	_, err := f.svc.ListForReview(ctx, reviewID1, 1, 20, domain.Requester{UserID: "stranger"})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCommentListForReview_EnrichmentFailure(t *testing.T) {
	f := newCommentFixture()
	ctx := context.Background()

	f.reviews.On("GetByID", ctx, reviewID1).Return(liveReview(reviewID1, "author"), nil)
	f.comments.On("ListTopLevel", ctx, reviewID1, 0, 21).
		Return([]domain.Comment{{ID: commentID1, ReviewID: reviewID1, AuthorID: "a"}}, nil)
	f.comments.On("ListReplies", ctx, []string{commentID1}).Return([]domain.Comment{}, nil)
	f.resolver.On("ResolveOrUnknown", mock.Anything, []string{"a"}).Return(nil, errors.New("directory unavailable"))

	_, err := f.svc.ListForReview(ctx, reviewID1, 1, 0, domain.Requester{})

	assert.Error(t, err)
}
