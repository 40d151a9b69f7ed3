package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linernotes/linernotes/internal/domain"
	apperrors "github.com/linernotes/linernotes/pkg/errors"
)

const (
	commentID1 = "c0a80101-0000-4000-8000-000000000001"
	commentID2 = "c0a80101-0000-4000-8000-000000000002"
)

var commentCols = []string{"id", "review_id", "author_id", "parent_id", "body", "like_count", "created_at"}

func newCommentTestFixture(t *testing.T) (*CommentRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewCommentRepository(mock), mock
}

func TestCommentRepository_Create_Reply(t *testing.T) {
	repo, mock := newCommentTestFixture(t)
	defer mock.Close()

	now := domain.Now()
	parent := commentID1
	c := &domain.Comment{ID: commentID2, ReviewID: reviewID1, AuthorID: "user-2", ParentID: &parent, Body: "agreed", CreatedAt: now}

	mock.ExpectExec("INSERT INTO comments").
		WithArgs(commentID2, reviewID1, "user-2", &parent, "agreed", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_Create_MissingReview(t *testing.T) {
	repo, mock := newCommentTestFixture(t)
	defer mock.Close()

	c := &domain.Comment{ID: commentID1, ReviewID: reviewID1, AuthorID: "user-2", Body: "hi", CreatedAt: domain.Now()}

	mock.ExpectExec("INSERT INTO comments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.Create(context.Background(), c)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCommentRepository_GetByID(t *testing.T) {
	repo, mock := newCommentTestFixture(t)
	defer mock.Close()

	now := domain.Now()
	parent := commentID1
	mock.ExpectQuery("SELECT (.+) FROM comments WHERE id =").
		WithArgs(commentID2).
		WillReturnRows(pgxmock.NewRows(commentCols).
			AddRow(commentID2, reviewID1, "user-2", &parent, "agreed", 1, now))

	c, err := repo.GetByID(context.Background(), commentID2)
	require.NoError(t, err)
	require.NotNil(t, c.ParentID)
	assert.Equal(t, commentID1, *c.ParentID)
	assert.False(t, c.IsTopLevel())
	assert.Equal(t, 1, c.LikeCount)
}

func TestCommentRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newCommentTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM comments WHERE id =").
		WithArgs(commentID2).
		WillReturnRows(pgxmock.NewRows(commentCols))

	_, err := repo.GetByID(context.Background(), commentID2)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = repo.GetByID(context.Background(), "42")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_ListTopLevel(t *testing.T) {
	repo, mock := newCommentTestFixture(t)
	defer mock.Close()

	now := domain.Now()
	mock.ExpectQuery(`WHERE review_id = \$1 AND parent_id IS NULL ORDER BY created_at ASC, id ASC LIMIT \$2 OFFSET \$3`).
		WithArgs(reviewID1, 11, 10).
		WillReturnRows(pgxmock.NewRows(commentCols).
			AddRow(commentID1, reviewID1, "user-1", nil, "first", 0, now).
			AddRow(commentID2, reviewID1, "user-2", nil, "second", 0, now.Add(time.Second)))

	comments, err := repo.ListTopLevel(context.Background(), reviewID1, 10, 11)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, commentID1, comments[0].ID)
	assert.True(t, comments[0].IsTopLevel())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_ListReplies_SingleQuery(t *testing.T) {
	repo, mock := newCommentTestFixture(t)
	defer mock.Close()

	now := domain.Now()
	parents := []string{commentID1, commentID2}
	p1 := commentID1
	mock.ExpectQuery(`WHERE parent_id = ANY\(\$1\)`).
		WithArgs(parents).
		WillReturnRows(pgxmock.NewRows(commentCols).
			AddRow("c0a80101-0000-4000-8000-000000000003", reviewID1, "user-3", &p1, "reply", 0, now))

	replies, err := repo.ListReplies(context.Background(), parents)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, commentID1, *replies[0].ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_ListReplies_NoParents(t *testing.T) {
	repo, mock := newCommentTestFixture(t)
	defer mock.Close()

	replies, err := repo.ListReplies(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, replies)
	assert.NoError(t, mock.ExpectationsWereMet())
}
