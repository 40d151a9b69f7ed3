package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(retries int) Config {
	cfg := DefaultConfig()
	cfg.Timeout = 2 * time.Second
	cfg.MaxRetries = retries
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	return cfg
}

// flaky answers with failStatus for the first n calls, then 200.
func flaky(n int32, failStatus int, calls *atomic.Int32, bodies *[]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if bodies != nil {
			b, _ := io.ReadAll(r.Body)
			*bodies = append(*bodies, string(b))
		}
		if calls.Add(1) <= n {
			w.WriteHeader(failStatus)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(flaky(2, http.StatusBadGateway, &calls, nil))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := New(fastConfig(3)).Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ReturnsLastResponseWhenRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(flaky(10, http.StatusServiceUnavailable, &calls, nil))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := New(fastConfig(2)).Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetry(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"client error", http.StatusBadRequest},
		{"not found", http.StatusNotFound},
		{"not implemented", http.StatusNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(flaky(10, tt.status, &calls, nil))
			defer srv.Close()

			req, err := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
			require.NoError(t, err)

			resp, err := New(fastConfig(3)).Do(context.Background(), req)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestClient_PostReplaysBody(t *testing.T) {
	var calls atomic.Int32
	var bodies []string
	srv := httptest.NewServer(flaky(1, http.StatusInternalServerError, &calls, &bodies))
	defer srv.Close()

	resp, err := New(fastConfig(1)).Post(context.Background(), srv.URL, "application/json", strings.NewReader(`{"ids":["alice"]}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{`{"ids":["alice"]}`, `{"ids":["alice"]}`}, bodies)
}

func TestClient_NetworkErrorAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	req, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	require.NoError(t, err)

	_, err = New(fastConfig(1)).Do(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempt(s)")
}

func TestClient_ContextCancelledDuringBackoff(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(flaky(10, http.StatusBadGateway, &calls, nil))
	defer srv.Close()

	cfg := fastConfig(5)
	cfg.RetryWaitMin = time.Hour
	cfg.RetryWaitMax = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)

	_, err = New(cfg).Do(ctx, req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_WaitIsCapped(t *testing.T) {
	c := New(Config{RetryWaitMin: 100 * time.Millisecond, RetryWaitMax: 300 * time.Millisecond})

	for attempt := 1; attempt <= 8; attempt++ {
		d := c.wait(attempt)
		assert.LessOrEqual(t, d, 375*time.Millisecond, "attempt %d", attempt)
		assert.GreaterOrEqual(t, d, 75*time.Millisecond, "attempt %d", attempt)
	}
	assert.Zero(t, New(Config{}).wait(1))
}
