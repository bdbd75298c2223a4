// cmd/visa-status-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"visa-status-service/internal/common/config"
	"visa-status-service/internal/common/database"
	"visa-status-service/internal/common/logger"
	"visa-status-service/internal/ingest"
	"visa-status-service/internal/notify"
	"visa-status-service/internal/ratelimit"
	"visa-status-service/internal/service"
	"visa-status-service/internal/transport"
)

// retryWithBackoff attempts an operation with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting visa status service",
		zap.String("environment", cfg.App.Environment),
		zap.String("addr", cfg.Server.Addr()),
	)

	ctx := context.Background()

	// --- Redis (optional: limiter falls back to in-process windows) ---
	var redisClient *database.RedisClient
	if cfg.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Warn("redis unavailable, using in-memory rate limiting without response cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Record ingestion ---
	ingester := ingest.NewIngester(cfg.Ingestion, log)
	store := ingest.NewStore()
	if err := store.Reload(ingester, cfg.Ingestion.SourcePath); err != nil {
		// A broken source is not fatal: serve the empty index and let
		// operators fix the file and restart.
		log.WithError(err).Warn("ingestion failed, serving empty index", map[string]interface{}{
			"path": cfg.Ingestion.SourcePath,
		})
	}

	// --- Mail transport ---
	var mailer notify.Mailer
	switch cfg.Mail.Provider {
	case "ses":
		mailer, err = notify.NewSESMailer(ctx, cfg.Mail.SES.Region)
		if err != nil {
			zapLog.Fatal("ses mailer init failed", zap.Error(err))
		}
	default:
		mailer = notify.NewSMTPMailer(cfg.Mail)
	}
	dispatcher := notify.NewDispatcher(mailer, cfg.Mail.From, log)

	// --- Admission control ---
	quotas := ratelimit.Quotas{
		ratelimit.EndpointCheckStatus: cfg.RateLimits.CheckStatus,
		ratelimit.EndpointSendEmail:   cfg.RateLimits.SendEmail,
	}
	var limiter ratelimit.Limiter
	if redisClient != nil {
		limiter = ratelimit.NewRedisLimiter(redisClient, quotas, log)
	} else {
		limiter = ratelimit.NewMemoryLimiter(quotas)
	}

	// --- Response cache ---
	var cache *service.ResponseCache
	if cfg.Cache.Enabled && redisClient != nil {
		cache = service.NewResponseCache(redisClient, config.GetDuration(cfg.Cache.TTL), log)
	}

	statusService := service.NewStatusService(store, limiter, dispatcher, cache, log)
	handler := transport.NewHandler(statusService, dispatcher, limiter, store, log)
	router := transport.InitRoutes(handler)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("server failed", zap.Error(err))
		}
	}()
	zapLog.Info("server listening", zap.String("addr", cfg.Server.Addr()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("server stopped")
}
