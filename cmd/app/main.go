// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-gateway/internal/config"
	aiAdapters "chat-gateway/internal/infra/adapters/ai"
	"chat-gateway/internal/infra/adapters/identity"
	pg "chat-gateway/internal/infra/db/postgres"
	"chat-gateway/internal/infra/logging"
	"chat-gateway/internal/infra/metrics"
	"chat-gateway/internal/infra/ratelimit"
	red "chat-gateway/internal/infra/redis"
	"chat-gateway/internal/infra/sched"
	"chat-gateway/internal/infra/web"
	"chat-gateway/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, insecure cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis session cache (optional) ----
	var cache *red.SessionCache
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		cache = red.NewSessionCache(redisClient, cfg.Redis.TTL)
	} else {
		logger.Info().Msg("redis.url empty; session cache disabled")
	}

	// ---- Repositories ----
	chatRepo := pg.NewChatRepo(pool, cache)

	// ---- Adapters ----
	ai, err := aiAdapters.NewOpenAIAdapter(cfg.AI)
	if err != nil {
		logger.Fatal().Err(err).Msg("openai adapter")
	}
	resolver := identity.NewClient(cfg.Backend)

	// ---- Use cases ----
	chatUC := usecase.NewChatUseCase(chatRepo, ai, cfg.Chat, logger)

	// ---- Rate limiter ----
	limiter := ratelimit.NewSlidingWindow()
	go limiter.Run(ctx, 5*time.Minute, 15*time.Minute)

	// ---- Cleanup worker (daily) ----
	worker := sched.NewCleanupWorker(sched.DefaultCleanupInterval, chatUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- HTTP server ----
	srv := web.NewServer(chatUC, resolver, limiter, cfg, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
