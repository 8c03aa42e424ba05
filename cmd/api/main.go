package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/whatsapp-bridge/internal/api/router"
	"github.com/wolfman30/whatsapp-bridge/internal/botpress"
	"github.com/wolfman30/whatsapp-bridge/internal/bridge"
	appconfig "github.com/wolfman30/whatsapp-bridge/internal/config"
	"github.com/wolfman30/whatsapp-bridge/internal/observability/metrics"
	"github.com/wolfman30/whatsapp-bridge/internal/session"
	"github.com/wolfman30/whatsapp-bridge/internal/wati"
	"github.com/wolfman30/whatsapp-bridge/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)

	// Refuse to start serving traffic with incomplete configuration.
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting whatsapp-bridge API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"session_mode", cfg.SessionMode,
		"session_store", cfg.SessionStore,
	)

	// Metrics
	registry := prometheus.NewRegistry()
	bridgeMetrics := metrics.NewBridgeMetrics(registry)

	// Downstream clients
	botClient := botpress.NewClient(cfg.BotBaseURL, cfg.BotToken, cfg.HTTPTimeout, logger.WithComponent("botpress"))
	sender := wati.NewSender(cfg.WatiBaseURL, cfg.WatiTenantID, cfg.WatiToken, cfg.HTTPTimeout, logger.WithComponent("wati"))

	// Conversation correlation
	var resolver session.Resolver
	if cfg.SessionMode == appconfig.SessionModeStateful {
		var store session.Store
		if cfg.SessionStore == "redis" {
			redisClient := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
			})
			if err := redisClient.Ping(context.Background()).Err(); err != nil {
				logger.Error("failed to connect to redis", "error", err, "addr", cfg.RedisAddr)
				os.Exit(1)
			}
			defer redisClient.Close()
			store = session.NewRedisStore(redisClient)
		} else {
			store = session.NewMemoryStore()
		}
		resolver = session.NewStatefulResolver(store, botClient, logger.WithComponent("session"))
	} else {
		resolver = session.NewStatelessResolver()
	}

	// Webhook handlers
	bridgeHandler := bridge.NewHandler(botClient, sender, resolver, bridgeMetrics, cfg.FallbackReply, logger.WithComponent("bridge"))

	// Setup router
	r := router.New(&router.Config{
		Logger:         logger,
		Bridge:         bridgeHandler,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
