package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/post-scheduler/config"
	"github.com/ErlanBelekov/post-scheduler/internal/health"
	"github.com/ErlanBelekov/post-scheduler/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/post-scheduler/internal/log"
	"github.com/ErlanBelekov/post-scheduler/internal/metrics"
	"github.com/ErlanBelekov/post-scheduler/internal/notify"
	"github.com/ErlanBelekov/post-scheduler/internal/publisher"
	"github.com/ErlanBelekov/post-scheduler/internal/queue"
	"github.com/ErlanBelekov/post-scheduler/internal/retention"
	httptransport "github.com/ErlanBelekov/post-scheduler/internal/transport/http"
	"github.com/ErlanBelekov/post-scheduler/internal/transport/http/handler"
	"github.com/ErlanBelekov/post-scheduler/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	userRepo := postgres.NewUserRepository(pool)
	postRepo := postgres.NewPostRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	deliveryRepo := postgres.NewDeliveryRepository(pool)

	queueClient := queue.NewQStashClient(
		cfg.QueueBaseURL,
		cfg.QueueToken,
		time.Duration(cfg.QueueTimeoutSec)*time.Second,
		logger,
	)
	verifier := queue.NewSignatureVerifier(cfg.QueueCurrentSignKey, cfg.QueueNextSignKey)

	pub := publisher.New(cfg.Env, cfg.PlatformAPIBase, time.Duration(cfg.PublishTimeoutSec)*time.Second, logger)
	notifier := notify.New(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)

	postUsecase := usecase.NewPostUsecase(postRepo, deliveryRepo, queueClient, cfg.PublicCallbackURL, logger)
	webhookUsecase := usecase.NewWebhookUsecase(postRepo, accountRepo, userRepo, deliveryRepo, pub, notifier, logger)

	postHandler := handler.NewPostHandler(postUsecase, logger)
	webhookHandler := handler.NewWebhookHandler(verifier, webhookUsecase, logger)

	sweeper, err := retention.NewSweeper(
		postRepo,
		cfg.PurgeCronSpec,
		time.Duration(cfg.PurgeRetentionDays)*24*time.Hour,
		logger,
	)
	if err != nil {
		stop()
		log.Fatalf("retention: %v", err)
	}
	go sweeper.Start(ctx)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, postHandler, webhookHandler, userRepo, []byte(cfg.JWTSecret)),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
