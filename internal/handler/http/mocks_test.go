package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/internal/service"
	"github.com/linernotes/linernotes/pkg/health"
	"github.com/linernotes/linernotes/pkg/httputil"
	"github.com/linernotes/linernotes/pkg/middleware"
	"github.com/linernotes/linernotes/pkg/pagination"
)

// =============================================================================
// Mocks
// =============================================================================

type mockFeed struct{ mock.Mock }

func (m *mockFeed) Feed(ctx context.Context, viewerID string, q service.ListQuery) (pagination.CursorPage[domain.FeedItem], error) {
	args := m.Called(ctx, viewerID, q)
	return args.Get(0).(pagination.CursorPage[domain.FeedItem]), args.Error(1)
}

type mockReviews struct{ mock.Mock }

func (m *mockReviews) Create(ctx context.Context, input service.CreateReviewInput) (*domain.Review, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviews) Detail(ctx context.Context, id string, requester domain.Requester) (*domain.FeedItem, error) {
	args := m.Called(ctx, id, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeedItem), args.Error(1)
}

func (m *mockReviews) ListByAuthor(ctx context.Context, authorID string, q service.ListQuery, requester domain.Requester) (pagination.CursorPage[domain.FeedItem], error) {
	args := m.Called(ctx, authorID, q, requester)
	return args.Get(0).(pagination.CursorPage[domain.FeedItem]), args.Error(1)
}

func (m *mockReviews) ListByAlbum(ctx context.Context, albumID string, q service.ListQuery, requester domain.Requester) (pagination.CursorPage[domain.FeedItem], error) {
	args := m.Called(ctx, albumID, q, requester)
	return args.Get(0).(pagination.CursorPage[domain.FeedItem]), args.Error(1)
}

func (m *mockReviews) SoftDelete(ctx context.Context, id, requesterID string) error {
	return m.Called(ctx, id, requesterID).Error(0)
}

type mockComments struct{ mock.Mock }

func (m *mockComments) Post(ctx context.Context, input service.PostCommentInput) (*domain.Comment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *mockComments) ListForReview(ctx context.Context, reviewID string, page, pageSize int, requester domain.Requester) (*domain.Thread, error) {
	args := m.Called(ctx, reviewID, page, pageSize, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Thread), args.Error(1)
}

type mockReactions struct{ mock.Mock }

func (m *mockReactions) Like(ctx context.Context, userID string, target domain.Target) (domain.ReactionState, error) {
	args := m.Called(ctx, userID, target)
	return args.Get(0).(domain.ReactionState), args.Error(1)
}

func (m *mockReactions) Unlike(ctx context.Context, userID string, target domain.Target) (domain.ReactionState, error) {
	args := m.Called(ctx, userID, target)
	return args.Get(0).(domain.ReactionState), args.Error(1)
}

type mockFollows struct{ mock.Mock }

func (m *mockFollows) Follow(ctx context.Context, followerID, followeeID string) (domain.FollowState, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Get(0).(domain.FollowState), args.Error(1)
}

func (m *mockFollows) Unfollow(ctx context.Context, followerID, followeeID string) (domain.FollowState, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Get(0).(domain.FollowState), args.Error(1)
}

type mockProfiles struct{ mock.Mock }

func (m *mockProfiles) Get(ctx context.Context, userID string, requester domain.Requester) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

type mockLibrary struct{ mock.Mock }

func (m *mockLibrary) Save(ctx context.Context, input service.SaveAlbumInput) (*domain.LibraryEntry, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LibraryEntry), args.Error(1)
}

func (m *mockLibrary) Remove(ctx context.Context, userID, albumID string) error {
	return m.Called(ctx, userID, albumID).Error(0)
}

func (m *mockLibrary) Lookup(ctx context.Context, userID, albumID string) (*domain.LibraryEntry, error) {
	args := m.Called(ctx, userID, albumID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LibraryEntry), args.Error(1)
}

func (m *mockLibrary) List(ctx context.Context, userID string, page, pageSize int) (pagination.Result[domain.LibraryEntry], error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).(pagination.Result[domain.LibraryEntry]), args.Error(1)
}

type mockCounters struct{ mock.Mock }

func (m *mockCounters) RunNow(ctx context.Context) (domain.ReconcileReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.ReconcileReport), args.Error(1)
}

// =============================================================================
// Test helpers
// =============================================================================

const (
	aliceToken = "token-alice"
	adminToken = "token-admin"
	reviewID   = "8c0f6a53-5d2b-4c8e-9d55-3a1f0e0b7a10"
	commentID  = "2b7a8e11-0c4f-4f62-8d3e-6b9a1c2d3e4f"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func staticValidator(token string) (*middleware.Claims, error) {
	switch token {
	case aliceToken:
		return &middleware.Claims{UserID: "alice", Role: "user"}, nil
	case adminToken:
		return &middleware.Claims{UserID: "root", Role: middleware.RoleAdmin}, nil
	default:
		return nil, errors.New("invalid token")
	}
}

type testServices struct {
	feed      *mockFeed
	reviews   *mockReviews
	comments  *mockComments
	reactions *mockReactions
	follows   *mockFollows
	profiles  *mockProfiles
	library   *mockLibrary
	counters  *mockCounters
}

func newTestServices() *testServices {
	return &testServices{
		feed:      new(mockFeed),
		reviews:   new(mockReviews),
		comments:  new(mockComments),
		reactions: new(mockReactions),
		follows:   new(mockFollows),
		profiles:  new(mockProfiles),
		library:   new(mockLibrary),
		counters:  new(mockCounters),
	}
}

func (s *testServices) router() http.Handler {
	return NewRouter(Services{
		Feed:      s.feed,
		Reviews:   s.reviews,
		Comments:  s.comments,
		Reactions: s.reactions,
		Follows:   s.follows,
		Profiles:  s.profiles,
		Library:   s.library,
		Counters:  s.counters,
	}, staticValidator, health.NewHandler(), testLogger(), RouterConfig{
		CORS:            middleware.DefaultCORSConfig(),
		FeedMaxPageSize: 30,
	})
}

func newRequest(method, path, token, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// do sends a request through the router. token may be empty for an
// anonymous request.
func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	return serve(h, newRequest(method, path, token, body))
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// decodeData unmarshals the data member of the envelope into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

var alice = domain.Requester{UserID: "alice", Role: "user"}
