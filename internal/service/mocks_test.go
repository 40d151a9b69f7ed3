package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/linernotes/linernotes/internal/domain"
)

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListByAuthors(ctx context.Context, authorIDs []string, cursor *domain.Cursor, limit int) ([]domain.Review, error) {
	args := m.Called(ctx, authorIDs, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListByAlbum(ctx context.Context, albumID string, cursor *domain.Cursor, offset, limit int) ([]domain.Review, error) {
	args := m.Called(ctx, albumID, cursor, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *mockReviewRepository) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	args := m.Called(ctx, authorID)
	return args.Int(0), args.Error(1)
}

// --- Mock Comment Repository ---

type mockCommentRepository struct {
	mock.Mock
}

func (m *mockCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *mockCommentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *mockCommentRepository) ListTopLevel(ctx context.Context, reviewID string, offset, limit int) ([]domain.Comment, error) {
	args := m.Called(ctx, reviewID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Comment), args.Error(1)
}

func (m *mockCommentRepository) ListReplies(ctx context.Context, parentIDs []string) ([]domain.Comment, error) {
	args := m.Called(ctx, parentIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Comment), args.Error(1)
}

// --- Mock Like Repository ---

type mockLikeRepository struct {
	mock.Mock
}

func (m *mockLikeRepository) Insert(ctx context.Context, like *domain.Like) (bool, error) {
	args := m.Called(ctx, like)
	return args.Bool(0), args.Error(1)
}

func (m *mockLikeRepository) Delete(ctx context.Context, userID string, target domain.Target) (bool, error) {
	args := m.Called(ctx, userID, target)
	return args.Bool(0), args.Error(1)
}

func (m *mockLikeRepository) Count(ctx context.Context, target domain.Target) (int, error) {
	args := m.Called(ctx, target)
	return args.Int(0), args.Error(1)
}

func (m *mockLikeRepository) LikedSet(ctx context.Context, userID string, kind domain.TargetKind, ids []string) (map[string]struct{}, error) {
	args := m.Called(ctx, userID, kind, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

// --- Mock Counter Repository ---

type mockCounterRepository struct {
	mock.Mock
}

func (m *mockCounterRepository) Adjust(ctx context.Context, ref domain.CounterRef, delta int) (int, error) {
	args := m.Called(ctx, ref, delta)
	return args.Int(0), args.Error(1)
}

func (m *mockCounterRepository) Reconcile(ctx context.Context, ref domain.CounterRef) (int, error) {
	args := m.Called(ctx, ref)
	return args.Int(0), args.Error(1)
}

func (m *mockCounterRepository) ReconcileAll(ctx context.Context) (domain.ReconcileReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.ReconcileReport), args.Error(1)
}

// --- Mock Follow Repository ---

type mockFollowRepository struct {
	mock.Mock
}

func (m *mockFollowRepository) Insert(ctx context.Context, edge *domain.FollowEdge) (bool, error) {
	args := m.Called(ctx, edge)
	return args.Bool(0), args.Error(1)
}

func (m *mockFollowRepository) Delete(ctx context.Context, followerID, followeeID string) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFollowRepository) Following(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockFollowRepository) Stats(ctx context.Context, userID string) (domain.FollowStats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.FollowStats), args.Error(1)
}

// --- Mock Library Repository ---

type mockLibraryRepository struct {
	mock.Mock
}

func (m *mockLibraryRepository) Upsert(ctx context.Context, entry *domain.LibraryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockLibraryRepository) Delete(ctx context.Context, userID, albumID string) (bool, error) {
	args := m.Called(ctx, userID, albumID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLibraryRepository) Get(ctx context.Context, userID, albumID string) (*domain.LibraryEntry, error) {
	args := m.Called(ctx, userID, albumID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LibraryEntry), args.Error(1)
}

func (m *mockLibraryRepository) List(ctx context.Context, userID string, offset, limit int) ([]domain.LibraryEntry, error) {
	args := m.Called(ctx, userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LibraryEntry), args.Error(1)
}

// --- Mock Profile Resolver ---

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Profile), args.Error(1)
}

func (m *mockResolver) ResolveOrUnknown(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Profile), args.Error(1)
}

func (m *mockResolver) Get(ctx context.Context, id string) (domain.Profile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Profile), args.Error(1)
}

// --- Mock Event Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockPublisher) PublishReviewDeleted(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockPublisher) PublishCommentCreated(ctx context.Context, c *domain.Comment) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockPublisher) PublishLikeAdded(ctx context.Context, userID string, target domain.Target, count int) error {
	return m.Called(ctx, userID, target, count).Error(0)
}

func (m *mockPublisher) PublishLikeRemoved(ctx context.Context, userID string, target domain.Target, count int) error {
	return m.Called(ctx, userID, target, count).Error(0)
}

func (m *mockPublisher) PublishFollowCreated(ctx context.Context, followerID, followeeID string) error {
	return m.Called(ctx, followerID, followeeID).Error(0)
}

func (m *mockPublisher) PublishFollowRemoved(ctx context.Context, followerID, followeeID string) error {
	return m.Called(ctx, followerID, followeeID).Error(0)
}

func (m *mockPublisher) PublishLibrarySaved(ctx context.Context, entry *domain.LibraryEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockPublisher) PublishReconcileRequested(ctx context.Context, ref domain.CounterRef, reason string) error {
	return m.Called(ctx, ref, reason).Error(0)
}

// --- Mock Liked Set Reader ---

type mockLikedSet struct {
	mock.Mock
}

func (m *mockLikedSet) ViewerLikedSet(ctx context.Context, userID string, kind domain.TargetKind, ids []string) (map[string]struct{}, error) {
	args := m.Called(ctx, userID, kind, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

const (
	reviewID1  = "7b1d3f4e-2a6c-4c1e-9f3b-0d8e6a2c5f60"
	reviewID2  = "7b1d3f4e-2a6c-4c1e-9f3b-0d8e6a2c5f61"
	reviewID3  = "7b1d3f4e-2a6c-4c1e-9f3b-0d8e6a2c5f62"
	commentID1 = "c0a80101-0000-4000-8000-000000000001"
	commentID2 = "c0a80101-0000-4000-8000-000000000002"
	commentID3 = "c0a80101-0000-4000-8000-000000000003"
)

func strPtr(s string) *string {
	return &s
}

func liveReview(id, authorID string) *domain.Review {
	now := domain.Now()
	return &domain.Review{
		ID:        id,
		AuthorID:  authorID,
		AlbumID:   "album-1",
		Rating:    4,
		Body:      "A record that rewards patience.",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func deletedReview(id, authorID string) *domain.Review {
	r := liveReview(id, authorID)
	at := domain.Now()
	r.DeletedAt = &at
	return r
}
