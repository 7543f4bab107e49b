package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/quickbill-api/internal/config"
	"github.com/sangkips/quickbill-api/internal/presentation/http/middleware"
	"github.com/sangkips/quickbill-api/internal/presentation/http/routes"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(cfg *config.Config) *cobra.Command {
	var sweepEvery time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if cfg.App.Env == "production" {
				gin.SetMode(gin.ReleaseMode)
			}

			flush := initSentry(&cfg.Sentry)
			defer flush()

			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			limiter := middleware.NewRateLimiter(middleware.RateLimiterConfigFor(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Duration,
			))
			defer limiter.Stop()
			a.deps.RateLimiter = limiter

			if sweepEvery > 0 {
				go runSweeps(ctx, a, sweepEvery)
			}

			port := cfg.App.Port
			if port == "" {
				port = "8080"
			}
			srv := &http.Server{
				Addr:              ":" + port,
				Handler:           routes.Setup(a.handlers, a.deps),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
				log.Printf("Environment: %s", cfg.App.Env)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Println("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().DurationVar(&sweepEvery, "sweep-every", time.Hour, "how often to mark past-due invoices overdue and purge expired idempotency keys (0 disables)")

	return cmd
}

func runSweeps(ctx context.Context, a *app, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.invoices.SweepOverdue(ctx); err != nil {
				log.Printf("Overdue sweep failed: %v", err)
			}
			if _, err := a.deps.IdempotencyRepo.DeleteExpired(ctx, time.Now()); err != nil {
				log.Printf("Idempotency key purge failed: %v", err)
			}
		}
	}
}
