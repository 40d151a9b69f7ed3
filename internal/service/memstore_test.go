package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linernotes/linernotes/internal/domain"
	apperrors "github.com/linernotes/linernotes/pkg/errors"
)

// memDB is an in-memory stand-in for the Postgres schema. It enforces the
// same uniqueness rules so concurrency properties can be exercised without a
// database.
type memDB struct {
	mu       sync.Mutex
	reviews  map[string]domain.Review
	comments map[string]domain.Comment
	likes    map[string]domain.Like
	follows  map[[2]string]time.Time
	profiles map[string]domain.Profile
}

func newMemDB() *memDB {
	return &memDB{
		reviews:  make(map[string]domain.Review),
		comments: make(map[string]domain.Comment),
		likes:    make(map[string]domain.Like),
		follows:  make(map[[2]string]time.Time),
		profiles: make(map[string]domain.Profile),
	}
}

func likeKey(userID string, t domain.Target) string {
	return userID + "|" + t.String()
}

func sortNewestFirst(rs []domain.Review) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].ID > rs[j].ID
		}
		return rs[i].CreatedAt.After(rs[j].CreatedAt)
	})
}

func sortOldestFirst(cs []domain.Comment) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].ID < cs[j].ID
		}
		return cs[i].CreatedAt.Before(cs[j].CreatedAt)
	})
}

// --- reviews ---

type memReviews struct{ db *memDB }

func (m memReviews) Create(_ context.Context, r *domain.Review) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, existing := range m.db.reviews {
		if existing.AuthorID == r.AuthorID && existing.AlbumID == r.AlbumID && existing.DeletedAt == nil {
			return apperrors.Duplicate("You already reviewed this album.")
		}
	}
	m.db.reviews[r.ID] = *r
	return nil
}

func (m memReviews) GetByID(_ context.Context, id string) (*domain.Review, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	return &r, nil
}

func (m memReviews) list(match func(domain.Review) bool, cursor *domain.Cursor, offset, limit int) []domain.Review {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []domain.Review{}
	for _, r := range m.db.reviews {
		if r.DeletedAt != nil || !match(r) {
			continue
		}
		if cursor != nil && !cursor.After(r) {
			continue
		}
		out = append(out, r)
	}
	sortNewestFirst(out)
	if offset >= len(out) {
		return []domain.Review{}
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m memReviews) ListByAuthors(_ context.Context, authorIDs []string, cursor *domain.Cursor, limit int) ([]domain.Review, error) {
	set := make(map[string]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		set[id] = struct{}{}
	}
	return m.list(func(r domain.Review) bool {
		_, ok := set[r.AuthorID]
		return ok
	}, cursor, 0, limit), nil
}

func (m memReviews) ListByAlbum(_ context.Context, albumID string, cursor *domain.Cursor, offset, limit int) ([]domain.Review, error) {
	if cursor != nil {
		offset = 0
	}
	return m.list(func(r domain.Review) bool { return r.AlbumID == albumID }, cursor, offset, limit), nil
}

func (m memReviews) SoftDelete(_ context.Context, id string, at time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.reviews[id]
	if !ok || r.DeletedAt != nil {
		return apperrors.NotFound("review", id)
	}
	r.DeletedAt = &at
	r.UpdatedAt = at
	m.db.reviews[id] = r
	return nil
}

func (m memReviews) CountByAuthor(_ context.Context, authorID string) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	n := 0
	for _, r := range m.db.reviews {
		if r.AuthorID == authorID && r.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

// --- comments ---

type memComments struct{ db *memDB }

func (m memComments) Create(_ context.Context, c *domain.Comment) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.reviews[c.ReviewID]; !ok {
		return apperrors.NotFound("review", c.ReviewID)
	}
	m.db.comments[c.ID] = *c
	return nil
}

func (m memComments) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	c, ok := m.db.comments[id]
	if !ok {
		return nil, apperrors.NotFound("comment", id)
	}
	return &c, nil
}

func (m memComments) ListTopLevel(_ context.Context, reviewID string, offset, limit int) ([]domain.Comment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []domain.Comment{}
	for _, c := range m.db.comments {
		if c.ReviewID == reviewID && c.ParentID == nil {
			out = append(out, c)
		}
	}
	sortOldestFirst(out)
	if offset >= len(out) {
		return []domain.Comment{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memComments) ListReplies(_ context.Context, parentIDs []string) ([]domain.Comment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	set := make(map[string]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		set[id] = struct{}{}
	}
	out := []domain.Comment{}
	for _, c := range m.db.comments {
		if c.ParentID == nil {
			continue
		}
		if _, ok := set[*c.ParentID]; ok {
			out = append(out, c)
		}
	}
	sortOldestFirst(out)
	return out, nil
}

// --- likes ---

type memLikes struct{ db *memDB }

func (m memLikes) Insert(_ context.Context, l *domain.Like) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	k := likeKey(l.UserID, l.Target)
	if _, ok := m.db.likes[k]; ok {
		return false, nil
	}
	m.db.likes[k] = *l
	return true, nil
}

func (m memLikes) Delete(_ context.Context, userID string, t domain.Target) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	k := likeKey(userID, t)
	if _, ok := m.db.likes[k]; !ok {
		return false, nil
	}
	delete(m.db.likes, k)
	return true, nil
}

func (m memLikes) Count(_ context.Context, t domain.Target) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return m.db.countLikesLocked(t), nil
}

func (m memLikes) LikedSet(_ context.Context, userID string, kind domain.TargetKind, ids []string) (map[string]struct{}, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := m.db.likes[likeKey(userID, domain.Target{Kind: kind, ID: id})]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (db *memDB) countLikesLocked(t domain.Target) int {
	n := 0
	for _, l := range db.likes {
		if l.Target == t {
			n++
		}
	}
	return n
}

// --- counters ---

type memCounters struct {
	db   *memDB
	fail bool
}

func (m *memCounters) Adjust(_ context.Context, ref domain.CounterRef, delta int) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.fail {
		return 0, apperrors.ServiceUnavailable("counter store unavailable")
	}
	clamp := func(v int) int {
		if v < 0 {
			return 0
		}
		return v
	}
	switch ref.Kind {
	case domain.CounterReviewLikes, domain.CounterReviewComments:
		r, ok := m.db.reviews[ref.ID]
		if !ok {
			return 0, apperrors.NotFound("review", ref.ID)
		}
		if ref.Kind == domain.CounterReviewLikes {
			r.LikeCount = clamp(r.LikeCount + delta)
			m.db.reviews[ref.ID] = r
			return r.LikeCount, nil
		}
		r.CommentCount = clamp(r.CommentCount + delta)
		m.db.reviews[ref.ID] = r
		return r.CommentCount, nil
	default:
		c, ok := m.db.comments[ref.ID]
		if !ok {
			return 0, apperrors.NotFound("comment", ref.ID)
		}
		c.LikeCount = clamp(c.LikeCount + delta)
		m.db.comments[ref.ID] = c
		return c.LikeCount, nil
	}
}

func (m *memCounters) Reconcile(_ context.Context, ref domain.CounterRef) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return m.db.reconcileLocked(ref)
}

func (m *memCounters) ReconcileAll(_ context.Context) (domain.ReconcileReport, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var report domain.ReconcileReport
	for id, r := range m.db.reviews {
		likes := m.db.countLikesLocked(domain.Target{Kind: domain.TargetReview, ID: id})
		if likes != r.LikeCount {
			report.ReviewLikes++
		}
		comments := 0
		for _, c := range m.db.comments {
			if c.ReviewID == id {
				comments++
			}
		}
		if comments != r.CommentCount {
			report.ReviewComments++
		}
		r.LikeCount, r.CommentCount = likes, comments
		m.db.reviews[id] = r
	}
	for id, c := range m.db.comments {
		likes := m.db.countLikesLocked(domain.Target{Kind: domain.TargetComment, ID: id})
		if likes != c.LikeCount {
			report.CommentLikes++
			c.LikeCount = likes
			m.db.comments[id] = c
		}
	}
	return report, nil
}

func (db *memDB) reconcileLocked(ref domain.CounterRef) (int, error) {
	switch ref.Kind {
	case domain.CounterReviewLikes:
		r, ok := db.reviews[ref.ID]
		if !ok {
			return 0, apperrors.NotFound("review", ref.ID)
		}
		r.LikeCount = db.countLikesLocked(domain.Target{Kind: domain.TargetReview, ID: ref.ID})
		db.reviews[ref.ID] = r
		return r.LikeCount, nil
	case domain.CounterReviewComments:
		r, ok := db.reviews[ref.ID]
		if !ok {
			return 0, apperrors.NotFound("review", ref.ID)
		}
		n := 0
		for _, c := range db.comments {
			if c.ReviewID == ref.ID {
				n++
			}
		}
		r.CommentCount = n
		db.reviews[ref.ID] = r
		return n, nil
	default:
		c, ok := db.comments[ref.ID]
		if !ok {
			return 0, apperrors.NotFound("comment", ref.ID)
		}
		c.LikeCount = db.countLikesLocked(domain.Target{Kind: domain.TargetComment, ID: ref.ID})
		db.comments[ref.ID] = c
		return c.LikeCount, nil
	}
}

// --- follows ---

type memFollows struct{ db *memDB }

func (m memFollows) Insert(_ context.Context, e *domain.FollowEdge) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	k := [2]string{e.FollowerID, e.FolloweeID}
	if _, ok := m.db.follows[k]; ok {
		return false, nil
	}
	m.db.follows[k] = e.CreatedAt
	return true, nil
}

func (m memFollows) Delete(_ context.Context, followerID, followeeID string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	k := [2]string{followerID, followeeID}
	if _, ok := m.db.follows[k]; !ok {
		return false, nil
	}
	delete(m.db.follows, k)
	return true, nil
}

func (m memFollows) Exists(_ context.Context, followerID, followeeID string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	_, ok := m.db.follows[[2]string{followerID, followeeID}]
	return ok, nil
}

func (m memFollows) Following(_ context.Context, userID string) ([]string, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []string{}
	for k := range m.db.follows {
		if k[0] == userID {
			out = append(out, k[1])
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m memFollows) Stats(_ context.Context, userID string) (domain.FollowStats, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var s domain.FollowStats
	for k := range m.db.follows {
		if k[0] == userID {
			s.FollowingCount++
		}
		if k[1] == userID {
			s.FollowerCount++
		}
	}
	return s, nil
}

// --- identity directory ---

type memDirectory struct{ db *memDB }

func (m memDirectory) FindByIDs(_ context.Context, ids []string) (map[string]domain.Profile, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := make(map[string]domain.Profile, len(ids))
	for _, id := range ids {
		if p, ok := m.db.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// seedReview inserts a live review with an explicit timestamp.
func (db *memDB) seedReview(authorID, albumID string, at time.Time) domain.Review {
	db.mu.Lock()
	defer db.mu.Unlock()
	r := domain.Review{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		AlbumID:   albumID,
		Rating:    3,
		Body:      "seeded review body",
		CreatedAt: at,
		UpdatedAt: at,
	}
	db.reviews[r.ID] = r
	return r
}
