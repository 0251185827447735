package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/study-planner/internal/cache"
	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/benvon/study-planner/internal/telemetry"
	"github.com/benvon/study-planner/internal/workers"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const serviceName = "study-planner-worker"

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.New(logger.Options{Service: serviceName, Debug: debugMode, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
	)

	if cfg.RabbitMQURL == "" || cfg.RedisURL == "" {
		zapLogger.Fatal("worker_requires_rabbitmq_and_redis",
			zap.Bool("rabbitmq_configured", cfg.RabbitMQURL != ""),
			zap.Bool("redis_configured", cfg.RedisURL != ""),
		)
	}
	if cfg.OpenAIKey == "" {
		zapLogger.Fatal("openai_api_key_not_configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(ctx, serviceName, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	redisConn, err := cache.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}

	jobQueue, err := queue.Connect(ctx, cfg.RabbitMQURL, queue.DefaultConnectTimeout, zapLogger)
	if err != nil {
		_ = redisConn.Close()
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := multierr.Append(jobQueue.Close(), redisConn.Close()); err != nil {
			zapLogger.Warn("failed_to_close_connections", zap.Error(err))
		}
	}()

	aiProvider, err := ai.NewProvider(cfg.AIProvider, ai.ProviderConfig{
		APIKey:    cfg.OpenAIKey,
		BaseURL:   cfg.AIBaseURL,
		Model:     cfg.AIModel,
		Logger:    zapLogger,
		DebugMode: debugMode,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_create_ai_provider", zap.String("provider", cfg.AIProvider), zap.Error(err))
	}

	recommender := workers.NewRecommender(
		aiProvider,
		workers.NewRedisResultStore(redisConn.Client(), workers.DefaultResultTTL),
		jobQueue,
		zapLogger,
	)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming_messages", zap.Error(err))
	}

	zapLogger.Info("worker_started", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	if err := recommender.Run(ctx, msgChan, errChan); err != nil {
		zapLogger.Error("worker_stopped", zap.Error(err))
		return
	}
	zapLogger.Info("worker_stopped")
}
