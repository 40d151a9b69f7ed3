package cron

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linernotes/linernotes/internal/domain"
)

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) ReconcileAll(ctx context.Context) (domain.ReconcileReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.ReconcileReport), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestManager_RunNow(t *testing.T) {
	sweeper := new(mockSweeper)
	m := NewManager(sweeper, "@every 10m", newTestLogger())
	ctx := context.Background()

	sweeper.On("ReconcileAll", mock.MatchedBy(func(c context.Context) bool {
		_, hasDeadline := c.Deadline()
		return hasDeadline
	})).Return(domain.ReconcileReport{CommentLikes: 2}, nil)

	report, err := m.RunNow(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Total())
}

func TestManager_InvalidSchedule(t *testing.T) {
	m := NewManager(new(mockSweeper), "every now and then", newTestLogger())

	err := m.Start()

	assert.Error(t, err)
}

func TestManager_RunsOnSchedule(t *testing.T) {
	sweeper := new(mockSweeper)
	ran := make(chan struct{}, 4)
	sweeper.On("ReconcileAll", mock.Anything).
		Return(domain.ReconcileReport{}, nil).
		Run(func(mock.Arguments) { ran <- struct{}{} })

	m := NewManager(sweeper, "@every 1s", newTestLogger())
	require.NoError(t, m.Start())
	defer m.Stop(context.Background())

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("sweep did not run")
	}
}

func TestManager_RunSwallowsErrors(t *testing.T) {
	sweeper := new(mockSweeper)
	sweeper.On("ReconcileAll", mock.Anything).Return(domain.ReconcileReport{}, errors.New("db down"))

	m := NewManager(sweeper, "@every 10m", newTestLogger())

	assert.NotPanics(t, m.run)
	sweeper.AssertNumberOfCalls(t, "ReconcileAll", 1)
}

func TestManager_StopHonoursContext(t *testing.T) {
	m := NewManager(new(mockSweeper), "@every 10m", newTestLogger())
	require.NoError(t, m.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	m.Stop(ctx)
}
