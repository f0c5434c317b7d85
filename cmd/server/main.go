package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pathforge/api/internal/client"
	"github.com/pathforge/api/internal/config"
	"github.com/pathforge/api/internal/handler"
	"github.com/pathforge/api/internal/logging"
	"github.com/pathforge/api/internal/middleware"
	"github.com/pathforge/api/internal/model"
	"github.com/pathforge/api/internal/refine"
	"github.com/pathforge/api/internal/service"
	"github.com/pathforge/api/internal/storage"
	ws "github.com/pathforge/api/internal/websocket"
	"github.com/pathforge/api/internal/worker"
	"github.com/pathforge/api/pkg/response"
)

// @title          PathForge API
// @version        1.0
// @description    Gesture path ingestion and robot motion-program service.
// @host           localhost:8000
// @BasePath       /
// @schemes        http https
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logging.New(cfg.Server.LogLevel, cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()

	// Redis backs the queue, the rate limiter and optionally the index
	redisClient := connectRedis(ctx, cfg, zlog)
	if redisClient != nil {
		defer redisClient.Close()
	}
	if cfg.Index.Backend == "redis" && redisClient == nil {
		zlog.Fatal("redis index backend selected but redis is not available")
	}

	blobs, err := storage.NewBlobStoreFromConfig(ctx, &cfg.Storage)
	if err != nil {
		zlog.Fatal("failed to initialize blob store", zap.Error(err))
	}
	index, err := storage.NewIndexStoreFromConfig(ctx, cfg, redisClient)
	if err != nil {
		zlog.Fatal("failed to initialize index store", zap.Error(err))
	}
	store := storage.NewArtifactStore(blobs, index)

	// Refinement is optional; an unconfigured generator degrades to base programs
	var refiner refine.Refiner = refine.Disabled{}
	generatorName := ""
	if cfg.Refinement.Enabled {
		gen, err := client.NewTextGenerator(ctx, cfg)
		if err != nil {
			zlog.Fatal("failed to initialize refinement client", zap.Error(err))
		}
		if !gen.IsConfigured() {
			zlog.Warn("refinement enabled but no API key configured", zap.String("generator", gen.Name()))
		}
		generatorName = gen.Name()
		refiner = refine.NewLLMRefiner(gen, refine.Options{
			MaxPoints: cfg.Refinement.MaxPoints,
			Timeout:   cfg.Refinement.Timeout,
		}, zlog.Named("refine"))
	}

	// Initialize WebSocket hub
	hub := ws.NewHub(zlog.Named("ws"))
	go hub.Run()
	defer hub.Close()

	// The queue needs Redis; without it ingestion runs synchronously
	var asynqClient *asynq.Client
	if cfg.Queue.Enabled {
		if redisClient == nil {
			zlog.Warn("queue enabled but redis is not available, processing synchronously")
		} else {
			asynqClient = asynq.NewClient(redisOpt(cfg))
			defer asynqClient.Close()
		}
	}

	// Initialize services
	ingestService := service.NewIngestService(store, refiner, asynqClient, hub, zlog.Named("ingest"), service.IngestOptions{
		ProgramName:      cfg.Codegen.ProgramName,
		RapidVariant:     model.RapidVariant(cfg.Codegen.RapidVariant),
		ExpectedSourceID: cfg.Source.ExpectedID,
	})
	queryService := service.NewQueryService(store, zlog.Named("query"))

	// Initialize handlers
	telemetryHandler := handler.NewTelemetryHandler(ingestService, zlog.Named("http"))
	latestHandler := handler.NewLatestHandler(queryService)
	systemHandler := handler.NewSystemHandler(handler.HealthInfo{
		Storage:    cfg.Storage.Backend,
		Index:      cfg.Index.Backend,
		Queue:      asynqClient != nil,
		Refinement: cfg.Refinement.Enabled,
		Generator:  generatorName,
		Redis:      redisClient != nil,
	})
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: response.ErrorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body} ${reqHeaders}\n"
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept," + handler.SourceHeader,
	}))

	app.Get("/", systemHandler.Root)
	app.Get("/health", systemHandler.Health)

	// Ingestion
	api := app.Group("/api")
	api.Post("/telemetry", rateLimiter.IngestLimit(cfg.RateLimit.IngestPerMin), telemetryHandler.Ingest)

	// Polled read endpoints
	latest := app.Group("/latest")
	latest.Get("/status", latestHandler.Status)
	latest.Get("/path", latestHandler.Path)
	latest.Get("/code", latestHandler.Code)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/latest", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, ws.TopicLatest)
	}))

	// Start Asynq worker server
	var workerServer *asynq.Server
	if asynqClient != nil {
		workerServer = startWorkerServer(cfg, ingestService, zlog.Named("worker"))
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("shutting down server")
		if workerServer != nil {
			workerServer.Shutdown()
		}
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zlog.Error("server shutdown error", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Server.Port
	zlog.Info("server starting",
		zap.String("addr", addr),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("index", cfg.Index.Backend),
		zap.Bool("queue", asynqClient != nil),
		zap.Bool("refinement", cfg.Refinement.Enabled))
	if err := app.Listen(addr); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}

// connectRedis returns a client only when something needs Redis and it answers a ping
func connectRedis(ctx context.Context, cfg *config.Config, zlog *zap.Logger) *redis.Client {
	needed := cfg.Queue.Enabled || cfg.Index.Backend == "redis" || cfg.RateLimit.IngestPerMin > 0
	if !needed {
		return nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		zlog.Warn("redis not available", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = redisClient.Close()
		return nil
	}
	return redisClient
}

func startWorkerServer(cfg *config.Config, ingestService *service.IngestService, zlog *zap.Logger) *asynq.Server {
	asynqLogLevel := asynq.InfoLevel
	switch strings.ToLower(cfg.Server.LogLevel) {
	case "debug":
		asynqLogLevel = asynq.DebugLevel
	case "warn":
		asynqLogLevel = asynq.WarnLevel
	case "error":
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Queues: map[string]int{
				service.QueueIngest: 1,
			},
			Logger:   zlog.Sugar(),
			LogLevel: asynqLogLevel,
		},
	)

	mux := asynq.NewServeMux()
	worker.NewIngestWorker(ingestService, zlog).Register(mux)

	go func() {
		if err := srv.Run(mux); err != nil {
			zlog.Error("asynq worker error", zap.Error(fmt.Errorf("run: %w", err)))
		}
	}()
	return srv
}
