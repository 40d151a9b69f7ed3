package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/pkg/database"
	apperrors "github.com/linernotes/linernotes/pkg/errors"
)

// LibraryRepository implements saved album persistence using PostgreSQL.
type LibraryRepository struct {
	pool database.DBTX
}

// NewLibraryRepository creates a new PostgreSQL-backed library repository.
func NewLibraryRepository(pool database.DBTX) *LibraryRepository {
	return &LibraryRepository{pool: pool}
}

// Upsert saves an album to the user's library. Saving again refreshes the
// album metadata but keeps the original saved_at.
func (r *LibraryRepository) Upsert(ctx context.Context, e *domain.LibraryEntry) error {
	query := `
		INSERT INTO library_entries (user_id, album_id, album_name, cover_url, album_artists, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, album_id) DO UPDATE
		SET album_name = EXCLUDED.album_name,
		    cover_url = EXCLUDED.cover_url,
		    album_artists = EXCLUDED.album_artists
		RETURNING saved_at`

	artists := e.Artists
	if artists == nil {
		artists = []string{}
	}

	if err := r.pool.QueryRow(ctx, query,
		e.UserID,
		e.AlbumID,
		e.Name,
		e.CoverURL,
		artists,
		e.SavedAt,
	).Scan(&e.SavedAt); err != nil {
		return fmt.Errorf("upsert library entry: %w", err)
	}

	return nil
}

// Delete removes an album from the library and reports whether it was saved.
func (r *LibraryRepository) Delete(ctx context.Context, userID, albumID string) (bool, error) {
	query := `DELETE FROM library_entries WHERE user_id = $1 AND album_id = $2`

	ct, err := r.pool.Exec(ctx, query, userID, albumID)
	if err != nil {
		return false, fmt.Errorf("delete library entry: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// Get returns one saved album.
func (r *LibraryRepository) Get(ctx context.Context, userID, albumID string) (*domain.LibraryEntry, error) {
	query := `
		SELECT user_id, album_id, album_name, cover_url, album_artists, saved_at
		FROM library_entries
		WHERE user_id = $1 AND album_id = $2`

	var e domain.LibraryEntry
	err := r.pool.QueryRow(ctx, query, userID, albumID).Scan(
		&e.UserID,
		&e.AlbumID,
		&e.Name,
		&e.CoverURL,
		&e.Artists,
		&e.SavedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("library entry", albumID)
		}
		return nil, fmt.Errorf("get library entry: %w", err)
	}

	return &e, nil
}

// List returns a page of saved albums, most recently saved first.
func (r *LibraryRepository) List(ctx context.Context, userID string, offset, limit int) ([]domain.LibraryEntry, error) {
	query := `
		SELECT user_id, album_id, album_name, cover_url, album_artists, saved_at
		FROM library_entries
		WHERE user_id = $1
		ORDER BY saved_at DESC, album_id ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list library entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.LibraryEntry{}
	for rows.Next() {
		var e domain.LibraryEntry
		if err := rows.Scan(
			&e.UserID,
			&e.AlbumID,
			&e.Name,
			&e.CoverURL,
			&e.Artists,
			&e.SavedAt,
		); err != nil {
			return nil, fmt.Errorf("scan library entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate library rows: %w", err)
	}

	return entries, nil
}
