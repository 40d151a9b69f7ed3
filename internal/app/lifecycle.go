package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Run serves HTTP, consumes reconcile requests and schedules the counter
// sweep. It returns after ctx is cancelled or a component fails, with every
// resource released.
func (a *App) Run(ctx context.Context) error {
	if err := a.cron.Start(); err != nil {
		return errors.Join(err, a.Shutdown())
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http server listening", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.reconcile != nil {
		g.Go(func() error {
			if err := a.reconcile.Start(gctx); err != nil {
				return fmt.Errorf("reconcile consumer: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			a.logger.Info("shutdown signal received")
		}
		return a.Shutdown()
	})

	return g.Wait()
}

// shutdownStep releases one resource within its time budget.
type shutdownStep struct {
	name   string
	budget time.Duration
	stop   func(context.Context) error
}

func closeFunc(fn func() error) func(context.Context) error {
	return func(context.Context) error { return fn() }
}

// Shutdown releases resources in dependency order: the HTTP server drains
// first, then the sweep scheduler, then spans are flushed, then Kafka, then
// the stores the handlers used.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down")

	steps := []shutdownStep{
		{"http server", 5 * time.Second, a.httpServer.Shutdown},
		{"cron", 5 * time.Second, func(ctx context.Context) error {
			a.cron.Stop(ctx)
			return nil
		}},
	}
	if a.tracerShutdown != nil {
		steps = append(steps, shutdownStep{"tracer", 3 * time.Second, a.tracerShutdown})
	}
	if a.reconcile != nil {
		steps = append(steps, shutdownStep{"reconcile consumer", 0, closeFunc(a.reconcile.Close)})
	}
	if a.dlq != nil {
		steps = append(steps, shutdownStep{"dead-letter producer", 0, closeFunc(a.dlq.Close)})
	}
	if a.producer != nil {
		steps = append(steps, shutdownStep{"event producer", 0, closeFunc(a.producer.Close)})
	}
	steps = append(steps,
		shutdownStep{"redis", 0, closeFunc(a.rdb.Close)},
		shutdownStep{"postgres", 0, func(context.Context) error {
			a.pool.Close()
			return nil
		}},
	)

	var errs []error
	for _, step := range steps {
		if err := step.run(); err != nil {
			a.logger.Error("shutdown step failed",
				slog.String("step", step.name),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

func (s shutdownStep) run() error {
	ctx := context.Background()
	if s.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.budget)
		defer cancel()
	}
	return s.stop(ctx)
}
