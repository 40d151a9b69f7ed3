package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/pkg/database"
	apperrors "github.com/linernotes/linernotes/pkg/errors"
)

const reviewColumns = `id, author_id, album_id, rating, body, album_name, album_artists,
		       like_count, comment_count, created_at, updated_at, deleted_at`

// ReviewRepository implements review persistence operations using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review into the database. The partial unique index on
// (author_id, album_id) WHERE deleted_at IS NULL rejects a second live review.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, author_id, album_id, rating, body, album_name, album_artists,
		                     like_count, comment_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, $8, $9)`

	var (
		albumName    *string
		albumArtists []string
	)
	if review.AlbumSnapshot != nil {
		albumName = &review.AlbumSnapshot.Name
		albumArtists = review.AlbumSnapshot.Artists
	}

	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.AuthorID,
		review.AlbumID,
		review.Rating,
		review.Body,
		albumName,
		albumArtists,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.Duplicate("You already reviewed this album.")
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by id. Soft-deleted reviews are returned too;
// visibility is decided by the caller.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFound("review", id)
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	return review, nil
}

// ListByAuthors returns live reviews of the given authors ordered by
// (created_at DESC, id DESC), continuing strictly after cursor.
func (r *ReviewRepository) ListByAuthors(ctx context.Context, authorIDs []string, cursor *domain.Cursor, limit int) (reviews []domain.Review, err error) {
	if len(authorIDs) == 0 {
		return []domain.Review{}, nil
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE author_id = ANY($1) AND deleted_at IS NULL`
	args := []any{authorIDs}
	query, args = appendKeyset(query, args, cursor, limit, 0)

	ctx, end := database.TraceQuery(ctx, "ListReviewsByAuthors", query)
	defer func() { end(err) }()

	reviews, err = r.list(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews by authors: %w", err)
	}
	return reviews, nil
}

// ListByAlbum returns live reviews of one album in feed order. A cursor wins
// over offset.
func (r *ReviewRepository) ListByAlbum(ctx context.Context, albumID string, cursor *domain.Cursor, offset, limit int) ([]domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE album_id = $1 AND deleted_at IS NULL`
	args := []any{albumID}
	if cursor != nil {
		offset = 0
	}
	query, args = appendKeyset(query, args, cursor, limit, offset)

	reviews, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews by album: %w", err)
	}
	return reviews, nil
}

// SoftDelete stamps deleted_at on a live review. Comments and likes are kept.
func (r *ReviewRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE reviews SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	ct, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("soft delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// CountByAuthor returns the number of live reviews written by the author.
func (r *ReviewRepository) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	query := `SELECT COUNT(*) FROM reviews WHERE author_id = $1 AND deleted_at IS NULL`

	var count int
	if err := r.pool.QueryRow(ctx, query, authorID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reviews by author: %w", err)
	}

	return count, nil
}

func (r *ReviewRepository) list(ctx context.Context, query string, args ...any) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

// appendKeyset adds the keyset predicate, ordering and limit to a review
// query. The predicate matches the (created_at DESC, id DESC) ordering, so
// rows inserted after the cursor was issued never shift later pages.
func appendKeyset(query string, args []any, cursor *domain.Cursor, limit, offset int) (string, []any) {
	if cursor != nil {
		query += fmt.Sprintf(` AND (created_at, id) < ($%d, $%d)`, len(args)+1, len(args)+2)
		args = append(args, cursor.CreatedAt, cursor.ID)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	if offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, len(args)+1)
		args = append(args, offset)
	}

	return query, args
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var (
		rv           domain.Review
		albumName    *string
		albumArtists []string
	)

	if err := row.Scan(
		&rv.ID,
		&rv.AuthorID,
		&rv.AlbumID,
		&rv.Rating,
		&rv.Body,
		&albumName,
		&albumArtists,
		&rv.LikeCount,
		&rv.CommentCount,
		&rv.CreatedAt,
		&rv.UpdatedAt,
		&rv.DeletedAt,
	); err != nil {
		return nil, err
	}

	if albumName != nil {
		rv.AlbumSnapshot = &domain.AlbumSnapshot{Name: *albumName, Artists: albumArtists}
	}

	return &rv, nil
}
