package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/benvon/study-planner/internal/cache"
	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/handlers"
	"github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/middleware"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/planner"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/benvon/study-planner/internal/settings"
	"github.com/benvon/study-planner/internal/telemetry"
	"github.com/benvon/study-planner/internal/timer"
	"github.com/benvon/study-planner/internal/workers"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const serviceName = "study-planner-api"

// Synchronous recommendations wait on the model, which has its own client timeout
var routeTimeouts = []middleware.RouteTimeout{
	{PathPrefix: "/api/v1/ai/recommendations", Timeout: ai.DefaultTimeout + 15*time.Second},
}

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug logging, including LLM request previews")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(logger.Options{Service: serviceName, Debug: debugMode, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Strings("allowed_origins", cfg.AllowedOrigins()),
		zap.String("settings_backend", cfg.SettingsBackend),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry if enabled
	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else if tp, err := telemetry.InitTracer(ctx, serviceName, cfg.OTELEndpoint); err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracingEnabled = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	healthChecker := handlers.NewHealthChecker(zapLogger)
	var closers []io.Closer

	// Redis backs rate limiting, the redis settings backend and job results
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		closers = append(closers, rc)
		redisClient = rc.Client()
		healthChecker.AddCheck("redis", rc.Ping)
		zapLogger.Info("connected_to_redis")
	}

	// PostgreSQL is only needed by the postgres settings backend
	var settingsRepo database.SettingsRepositoryInterface
	if cfg.DatabaseURL != "" {
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
		}
		closers = append(closers, db)
		healthChecker.AddCheck("database", db.HealthCheck)

		repo := database.NewSettingsRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			zapLogger.Fatal("failed_to_create_settings_schema", zap.Error(err))
		}
		settingsRepo = repo
		zapLogger.Info("connected_to_database")
	}

	// RabbitMQ is optional; without it recommendation jobs are disabled
	var jobQueue queue.JobQueue
	var rabbit *queue.RabbitMQQueue
	if cfg.RabbitMQURL != "" {
		rabbit, err = queue.Connect(ctx, cfg.RabbitMQURL, queue.DefaultConnectTimeout, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
		}
		closers = append(closers, rabbit)
		healthChecker.AddCheck("queue", rabbit.HealthCheck)
	}

	var results workers.ResultStore
	switch {
	case rabbit != nil && redisClient != nil:
		jobQueue = rabbit
		results = workers.NewRedisResultStore(redisClient, workers.DefaultResultTTL)
	case rabbit != nil:
		zapLogger.Warn("recommendation_jobs_disabled", zap.String("reason", "REDIS_URL is required to share job results with the worker"))
	}

	// Entity store and focus timer
	store := planner.NewStore(nil)
	store.SetLogger(zapLogger)
	if cfg.SeedDemoData {
		planner.SeedDemo(store)
		zapLogger.Info("demo_data_seeded",
			zap.Int("tasks", len(store.Tasks())),
			zap.Int("exams", len(store.Exams())),
		)
	}

	settingsStore, err := settings.Open(settings.Options{
		Backend: cfg.SettingsBackend,
		Path:    cfg.SettingsPath,
		Redis:   redisClient,
		Repo:    settingsRepo,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_open_settings_store", zap.Error(err))
	}
	timerSettings, err := settingsStore.Load(ctx)
	if err != nil {
		zapLogger.Warn("failed_to_load_timer_settings_using_defaults", zap.Error(err))
		timerSettings = models.DefaultTimerSettings()
	}

	runnerCtx, cancelRunner := context.WithCancel(context.Background())
	defer cancelRunner()
	focusTimer := timer.New(timerSettings, store, zapLogger)
	runner := timer.NewRunner(runnerCtx, focusTimer, zapLogger)

	aiProvider, err := createAIProvider(cfg, zapLogger, debugMode)
	if err != nil {
		zapLogger.Warn("failed_to_create_ai_provider_ai_features_disabled", zap.Error(err))
		aiProvider = nil
	}

	// Setup router
	r := mux.NewRouter()

	// Middleware registered first wraps everything registered after it
	if tracingEnabled {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.Logging(zapLogger))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout, routeTimeouts...))

	rateLimitMW, err := middleware.RateLimit(cfg.RateLimit, redisClient, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Public routes (no rate limiting)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", handlers.VersionInfo).Methods(http.MethodGet)

	openAPIHandler := handlers.NewOpenAPIHandler(filepath.Join("api", "openapi", "openapi.yaml"), zapLogger)
	openAPIHandler.RegisterRoutes(r)

	// API v1 routes
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rateLimitMW)

	handlers.NewTaskHandler(store).RegisterRoutes(apiRouter.PathPrefix("/tasks").Subrouter())
	handlers.NewExamHandler(store).RegisterRoutes(apiRouter.PathPrefix("/exams").Subrouter())
	handlers.NewStatsHandler(store, zapLogger).RegisterRoutes(apiRouter)
	handlers.NewTimerHandler(runner, settingsStore, zapLogger).RegisterRoutes(apiRouter.PathPrefix("/timer").Subrouter())
	handlers.NewAIHandler(store, aiProvider, jobQueue, results, cfg.DefaultHoursPerDay, zapLogger).
		RegisterRoutes(apiRouter.PathPrefix("/ai").Subrouter())

	// CORS wraps the router so preflight requests are answered before route matching
	corsMW := middleware.CORS(cfg.AllowedOrigins(), zapLogger, debugMode)

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        corsMW(r),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   middleware.LongestTimeout(middleware.DefaultRequestTimeout, routeTimeouts...) + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	if rabbit != nil {
		sweeper := queue.NewDLQSweeper(rabbit, queue.DefaultSweepInterval, queue.DefaultDLQRetention, zapLogger)
		go func() {
			if err := sweeper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_sweeper_stopped_with_error", zap.Error(err))
			}
		}()
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	// Stop ticking before the store and backends go away
	runner.Close()
	cancelRunner()

	var closeErr error
	for i := len(closers) - 1; i >= 0; i-- {
		closeErr = multierr.Append(closeErr, closers[i].Close())
	}
	if closeErr != nil {
		zapLogger.Warn("failed_to_close_connections", zap.Error(closeErr))
	}

	zapLogger.Info("server_exited")
}

// createAIProvider builds the configured provider; callers treat an error as AI disabled
func createAIProvider(cfg *config.Config, logger *zap.Logger, debugMode bool) (ai.AIProvider, error) {
	return ai.NewProvider(cfg.AIProvider, ai.ProviderConfig{
		APIKey:    cfg.OpenAIKey,
		BaseURL:   cfg.AIBaseURL,
		Model:     cfg.AIModel,
		Logger:    logger,
		DebugMode: debugMode,
	})
}
