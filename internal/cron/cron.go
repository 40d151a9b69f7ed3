// Package cron schedules the periodic counter reconciliation sweep.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/linernotes/linernotes/internal/domain"
)

// DefaultSweepTimeout bounds a single sweep run.
const DefaultSweepTimeout = 5 * time.Minute

// Sweeper recomputes every drifted counter.
type Sweeper interface {
	ReconcileAll(ctx context.Context) (domain.ReconcileReport, error)
}

// Manager runs the reconciliation sweep on a schedule.
type Manager struct {
	cron     *cron.Cron
	sweeper  Sweeper
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewManager creates a manager for the given standard cron expression or
// descriptor such as "@every 10m". Overlapping runs are skipped.
func NewManager(sweeper Sweeper, schedule string, logger *slog.Logger) *Manager {
	cl := cronLogger{logger: logger}
	return &Manager{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		sweeper:  sweeper,
		schedule: schedule,
		timeout:  DefaultSweepTimeout,
		logger:   logger,
	}
}

// Start registers the sweep and starts the scheduler.
func (m *Manager) Start() error {
	if _, err := m.cron.AddFunc(m.schedule, m.run); err != nil {
		return fmt.Errorf("schedule reconciliation sweep %q: %w", m.schedule, err)
	}

	m.cron.Start()
	m.logger.Info("cron manager started", slog.String("reconcile_schedule", m.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running sweep, bounded by ctx.
func (m *Manager) Stop(ctx context.Context) {
	done := m.cron.Stop()
	select {
	case <-done.Done():
		m.logger.Info("cron manager stopped")
	case <-ctx.Done():
		m.logger.Warn("cron manager stop timed out with a sweep still running")
	}
}

// RunNow performs one sweep immediately, bounded by the sweep timeout. The
// outcome is logged the same way as a scheduled run.
func (m *Manager) RunNow(ctx context.Context) (domain.ReconcileReport, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	report, err := m.sweeper.ReconcileAll(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "reconciliation sweep failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return domain.ReconcileReport{}, err
	}

	m.logger.InfoContext(ctx, "reconciliation sweep completed",
		slog.Int64("corrected", report.Total()),
		slog.Duration("duration", time.Since(start)),
	)
	return report, nil
}

func (m *Manager) run() {
	_, _ = m.RunNow(context.Background())
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{slog.String("error", err.Error())}, keysAndValues...)
	l.logger.Error("cron: "+msg, args...)
}
