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

type counterStatements struct {
	resource  string
	adjust    string
	reconcile string
	sweep     string
}

var counters = map[domain.CounterKind]counterStatements{
	domain.CounterReviewLikes: {
		resource: "review",
		adjust: `
			UPDATE reviews SET like_count = GREATEST(like_count + $2, 0)
			WHERE id = $1
			RETURNING like_count`,
		reconcile: `
			UPDATE reviews SET like_count = (
				SELECT COUNT(*) FROM likes WHERE target_type = 'review' AND target_id = $1
			)
			WHERE id = $1
			RETURNING like_count`,
		sweep: `
			UPDATE reviews r SET like_count = s.n
			FROM (
				SELECT rv.id, COUNT(l.target_id) AS n
				FROM reviews rv
				LEFT JOIN likes l ON l.target_type = 'review' AND l.target_id = rv.id
				GROUP BY rv.id
			) s
			WHERE r.id = s.id AND r.like_count <> s.n`,
	},
	domain.CounterReviewComments: {
		resource: "review",
		adjust: `
			UPDATE reviews SET comment_count = GREATEST(comment_count + $2, 0)
			WHERE id = $1
			RETURNING comment_count`,
		reconcile: `
			UPDATE reviews SET comment_count = (
				SELECT COUNT(*) FROM comments WHERE review_id = $1
			)
			WHERE id = $1
			RETURNING comment_count`,
		sweep: `
			UPDATE reviews r SET comment_count = s.n
			FROM (
				SELECT rv.id, COUNT(c.id) AS n
				FROM reviews rv
				LEFT JOIN comments c ON c.review_id = rv.id
				GROUP BY rv.id
			) s
			WHERE r.id = s.id AND r.comment_count <> s.n`,
	},
	domain.CounterCommentLikes: {
		resource: "comment",
		adjust: `
			UPDATE comments SET like_count = GREATEST(like_count + $2, 0)
			WHERE id = $1
			RETURNING like_count`,
		reconcile: `
			UPDATE comments SET like_count = (
				SELECT COUNT(*) FROM likes WHERE target_type = 'comment' AND target_id = $1
			)
			WHERE id = $1
			RETURNING like_count`,
		sweep: `
			UPDATE comments c SET like_count = s.n
			FROM (
				SELECT cm.id, COUNT(l.target_id) AS n
				FROM comments cm
				LEFT JOIN likes l ON l.target_type = 'comment' AND l.target_id = cm.id
				GROUP BY cm.id
			) s
			WHERE c.id = s.id AND c.like_count <> s.n`,
	},
}

// CounterRepository maintains the denormalized like and comment counters.
type CounterRepository struct {
	pool database.DBTX
}

// NewCounterRepository creates a new PostgreSQL-backed counter repository.
func NewCounterRepository(pool database.DBTX) *CounterRepository {
	return &CounterRepository{pool: pool}
}

// Adjust applies delta to a counter as a single atomic UPDATE, clamped at zero.
func (r *CounterRepository) Adjust(ctx context.Context, ref domain.CounterRef, delta int) (value int, err error) {
	stmts, ok := counters[ref.Kind]
	if !ok {
		return 0, fmt.Errorf("adjust counter: unknown kind %q", ref.Kind)
	}

	ctx, end := database.TraceQuery(ctx, "AdjustCounter", stmts.adjust)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, stmts.adjust, ref.ID, delta).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NotFound(stmts.resource, ref.ID)
		}
		return 0, fmt.Errorf("adjust %s counter: %w", ref.Kind, err)
	}

	return value, nil
}

// Reconcile overwrites one counter with the count derived from its edges.
func (r *CounterRepository) Reconcile(ctx context.Context, ref domain.CounterRef) (int, error) {
	stmts, ok := counters[ref.Kind]
	if !ok {
		return 0, fmt.Errorf("reconcile counter: unknown kind %q", ref.Kind)
	}

	var value int
	if err := r.pool.QueryRow(ctx, stmts.reconcile, ref.ID).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NotFound(stmts.resource, ref.ID)
		}
		return 0, fmt.Errorf("reconcile %s counter: %w", ref.Kind, err)
	}

	return value, nil
}

// ReconcileAll repairs every drifted counter with one set-based UPDATE per
// counter kind and reports how many rows changed.
func (r *CounterRepository) ReconcileAll(ctx context.Context) (domain.ReconcileReport, error) {
	var report domain.ReconcileReport

	targets := []struct {
		kind domain.CounterKind
		dst  *int64
	}{
		{domain.CounterReviewLikes, &report.ReviewLikes},
		{domain.CounterReviewComments, &report.ReviewComments},
		{domain.CounterCommentLikes, &report.CommentLikes},
	}

	for _, t := range targets {
		ct, err := r.pool.Exec(ctx, counters[t.kind].sweep)
		if err != nil {
			return report, fmt.Errorf("sweep %s counters: %w", t.kind, err)
		}
		*t.dst = ct.RowsAffected()
	}

	return report, nil
}
