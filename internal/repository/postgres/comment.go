package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/pkg/database"
	apperrors "github.com/linernotes/linernotes/pkg/errors"
)

const commentColumns = `id, review_id, author_id, parent_id, body, like_count, created_at`

// CommentRepository implements comment persistence operations using PostgreSQL.
type CommentRepository struct {
	pool database.DBTX
}

// NewCommentRepository creates a new PostgreSQL-backed comment repository.
func NewCommentRepository(pool database.DBTX) *CommentRepository {
	return &CommentRepository{pool: pool}
}

// Create inserts a new comment.
func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	query := `
		INSERT INTO comments (id, review_id, author_id, parent_id, body, like_count, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.ReviewID,
		c.AuthorID,
		c.ParentID,
		c.Body,
		c.CreatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("review", c.ReviewID)
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// GetByID retrieves a comment by id.
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFound("comment", id)
	}

	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	c, err := scanComment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("comment", id)
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}

	return c, nil
}

// ListTopLevel returns a page of top-level comments, oldest first.
func (r *CommentRepository) ListTopLevel(ctx context.Context, reviewID string, offset, limit int) ([]domain.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE review_id = $1 AND parent_id IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3`

	comments, err := r.list(ctx, query, reviewID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list top-level comments: %w", err)
	}
	return comments, nil
}

// ListReplies returns the replies of all given parents in one query.
func (r *CommentRepository) ListReplies(ctx context.Context, parentIDs []string) ([]domain.Comment, error) {
	if len(parentIDs) == 0 {
		return []domain.Comment{}, nil
	}

	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE parent_id = ANY($1)
		ORDER BY created_at ASC, id ASC`

	comments, err := r.list(ctx, query, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return comments, nil
}

func (r *CommentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment row: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comment rows: %w", err)
	}

	return comments, nil
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var c domain.Comment
	if err := row.Scan(
		&c.ID,
		&c.ReviewID,
		&c.AuthorID,
		&c.ParentID,
		&c.Body,
		&c.LikeCount,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
