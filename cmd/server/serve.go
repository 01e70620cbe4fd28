package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/jackpot/backend/internal/handlers"
	"github.com/anonto42/jackpot/backend/internal/metrics"
	"github.com/anonto42/jackpot/backend/internal/middleware"
	"github.com/anonto42/jackpot/backend/internal/router"
	"github.com/anonto42/jackpot/backend/internal/services"
	"github.com/anonto42/jackpot/backend/pkg/breaker"
	"github.com/anonto42/jackpot/backend/pkg/logger"
	"github.com/anonto42/jackpot/backend/validators"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the metrics endpoint",
		RunE:  runServe,
	}
	cmd.Flags().String("port", "", "HTTP port (overrides PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}
	log := logger.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	reg := metrics.NewRegistry()
	storage := breaker.New(breaker.DefaultConfig("storage"), log)
	identities := breaker.New(breaker.DefaultConfig("identity"), log)
	opts := []services.Option{
		services.WithPublisher(a.publisher),
		services.WithBreaker(storage),
		services.WithIdentityBreaker(identities),
		services.WithMetrics(reg),
		services.WithLogger(log),
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	router.SetupMiddleware(e, log)
	router.SetupRoutes(e, router.Dependencies{
		Coordinator: services.NewReconciliationCoordinator(a.follows, a.engagement, a.posts, a.users, opts...),
		Reader:      services.NewProfileAggregator(a.follows, a.engagement, a.posts, a.users, opts...),
		Health:      handlers.NewHealthHandler(a.health),
		Auth:        a.auth,
		Mutation:    eMiddleware.RateLimiterWithConfig(cfg.RateLimiterConfig(middleware.CallerKey)),
	}, log)

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           reg.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("HTTP server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info().Str("port", cfg.MetricsPort).Msg("metrics server listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Join(e.Shutdown(shutdownCtx), metricsSrv.Shutdown(shutdownCtx))
	})
	return g.Wait()
}
