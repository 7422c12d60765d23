package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spacesedan/tickerflow/config"
	"github.com/spacesedan/tickerflow/internal/app"
	"github.com/spacesedan/tickerflow/internal/handler"
	"github.com/spacesedan/tickerflow/internal/logging"
	"github.com/spacesedan/tickerflow/internal/monitoring"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.Env, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scorer, aggregator, err := app.Scoring(cfg)
	if err != nil {
		slog.Error("Failed to set up scoring", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, closeStore, err := app.PriceStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open price cache store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	prices := app.PriceCache(cfg, store)

	var priceSourceHealthy atomic.Bool
	priceSourceHealthy.Store(true)
	go monitoring.WarmPriceCache(ctx, prices, cfg.PriceCache.WarmInterval, &priceSourceHealthy)

	h := handler.New(
		app.MentionAggregator(cfg, scorer),
		aggregator,
		prices,
		&priceSourceHealthy,
		handler.Settings{
			CompanyName:    cfg.Ticker.CompanyName,
			Communities:    cfg.Mentions.Communities,
			Terms:          cfg.Mentions.Terms,
			DefaultLimit:   cfg.Mentions.DefaultLimit,
			MaxLimit:       cfg.Mentions.MaxLimit,
			RequestTimeout: cfg.HTTP.RequestTimeout,
		},
	)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.NewRouter(h, cfg.HTTP.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting API server",
			slog.String("addr", cfg.HTTP.Addr),
			slog.String("ticker", cfg.Ticker.Symbol),
			slog.String("scorer", cfg.Scorer.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down API server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Forced shutdown", slog.String("error", err.Error()))
	}
}
