package postgres

import (
	"context"
	"fmt"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/pkg/database"
)

// LikeRepository implements like edge persistence using PostgreSQL.
type LikeRepository struct {
	pool database.DBTX
}

// NewLikeRepository creates a new PostgreSQL-backed like repository.
func NewLikeRepository(pool database.DBTX) *LikeRepository {
	return &LikeRepository{pool: pool}
}

// Insert writes a like edge. Uses ON CONFLICT DO NOTHING so concurrent
// duplicate likes collapse into one edge; the returned flag is true only for
// the request that created it.
func (r *LikeRepository) Insert(ctx context.Context, like *domain.Like) (bool, error) {
	query := `
		INSERT INTO likes (id, user_id, target_type, target_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, target_type, target_id) DO NOTHING`

	ct, err := r.pool.Exec(ctx, query,
		like.ID,
		like.UserID,
		string(like.Target.Kind),
		like.Target.ID,
		like.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}

	return ct.RowsAffected() == 1, nil
}

// Delete removes a like edge and reports whether one existed.
func (r *LikeRepository) Delete(ctx context.Context, userID string, target domain.Target) (bool, error) {
	query := `DELETE FROM likes WHERE user_id = $1 AND target_type = $2 AND target_id = $3`

	ct, err := r.pool.Exec(ctx, query, userID, string(target.Kind), target.ID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// Count returns the number of likes on a target, computed from edges.
func (r *LikeRepository) Count(ctx context.Context, target domain.Target) (int, error) {
	query := `SELECT COUNT(*) FROM likes WHERE target_type = $1 AND target_id = $2`

	var count int
	if err := r.pool.QueryRow(ctx, query, string(target.Kind), target.ID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}

	return count, nil
}

// LikedSet returns which of ids the user has liked, in a single query.
func (r *LikeRepository) LikedSet(ctx context.Context, userID string, kind domain.TargetKind, ids []string) (map[string]struct{}, error) {
	liked := make(map[string]struct{})
	if userID == "" || len(ids) == 0 {
		return liked, nil
	}

	query := `
		SELECT target_id
		FROM likes
		WHERE user_id = $1 AND target_type = $2 AND target_id = ANY($3)`

	rows, err := r.pool.Query(ctx, query, userID, string(kind), ids)
	if err != nil {
		return nil, fmt.Errorf("query liked set: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan liked target: %w", err)
		}
		liked[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked rows: %w", err)
	}

	return liked, nil
}
