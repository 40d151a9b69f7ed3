package postgres

import (
	"context"
	"fmt"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/pkg/database"
)

// FollowRepository implements follow edge persistence using PostgreSQL.
type FollowRepository struct {
	pool database.DBTX
}

// NewFollowRepository creates a new PostgreSQL-backed follow repository.
func NewFollowRepository(pool database.DBTX) *FollowRepository {
	return &FollowRepository{pool: pool}
}

// Insert writes a follow edge. Uses ON CONFLICT DO NOTHING for idempotent behavior.
func (r *FollowRepository) Insert(ctx context.Context, edge *domain.FollowEdge) (bool, error) {
	query := `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followee_id) DO NOTHING`

	ct, err := r.pool.Exec(ctx, query, edge.FollowerID, edge.FolloweeID, edge.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert follow: %w", err)
	}

	return ct.RowsAffected() == 1, nil
}

// Delete removes a follow edge and reports whether one existed.
func (r *FollowRepository) Delete(ctx context.Context, followerID, followeeID string) (bool, error) {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`

	ct, err := r.pool.Exec(ctx, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// Exists checks whether follower follows followee.
func (r *FollowRepository) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, followerID, followeeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check follow exists: %w", err)
	}

	return exists, nil
}

// Following returns the ids the user follows.
func (r *FollowRepository) Following(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT followee_id FROM follows WHERE follower_id = $1`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan followee id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follow rows: %w", err)
	}

	return ids, nil
}

// Stats returns the follower and following counts of a user.
func (r *FollowRepository) Stats(ctx context.Context, userID string) (domain.FollowStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE followee_id = $1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1)`

	var stats domain.FollowStats
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&stats.FollowerCount, &stats.FollowingCount); err != nil {
		return domain.FollowStats{}, fmt.Errorf("get follow stats: %w", err)
	}

	return stats, nil
}
