package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// ServeOptions configures Serve.
type ServeOptions struct {
	ListenAddr string
	CronSecret string
	// Interval enables an in-process check every Interval. Zero disables it
	// and checks only run when the HTTP endpoint is called.
	Interval time.Duration
}

// Serve runs the HTTP endpoint, and the periodic check if enabled, until ctx
// is canceled.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	srv := &http.Server{
		Addr:              opts.ListenAddr,
		Handler:           a.Handler(opts.CronSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("listening", "addr", opts.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if opts.Interval > 0 {
		g.Go(func() error {
			a.runEvery(gctx, opts.Interval)
			return nil
		})
	}

	return g.Wait()
}

// runEvery runs a check immediately and then every interval until ctx is done.
// Failed checks are logged; the next tick tries again.
func (a *App) runEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := a.Check(ctx); err != nil {
			a.logger.Error("scheduled check failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
