package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"firmdesk.app/intake/common/id"
	"firmdesk.app/intake/common/logger"
	"firmdesk.app/intake/common/otel"
	"firmdesk.app/intake/core/config"
	"firmdesk.app/intake/core/db"
	"firmdesk.app/intake/internal/http/middleware"
	httprouter "firmdesk.app/intake/internal/http/router"
	"firmdesk.app/intake/internal/mapping"
	"firmdesk.app/intake/internal/provider"
	"firmdesk.app/intake/internal/queue"
	"firmdesk.app/intake/internal/service"
	"firmdesk.app/intake/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "intake server starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)

	nodeID := cfg.Worker.NodeID
	if nodeID < 0 {
		nodeID = id.NodeFor(cfg.Worker.ID)
	}
	if err := id.Init(nodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	notifier := queue.NewNopNotifier()
	var dedup *queue.Filter
	if cfg.Pipeline.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}

		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.NotifyStream)

		notifier = queue.NewRedisNotifier(redisClient, cfg.Pipeline.NotifyStream, cfg.Pipeline.DLQAlertStream, slog.Default())
		dedup = queue.NewFilter(redisClient, cfg.Pipeline.WebhookDedupTTL)
	} else {
		slog.WarnContext(ctx, "redis disabled, workers fall back to polling")
	}
	defer notifier.Close()

	tuning, err := config.LoadTuning(cfg.Mapping.TuningFile, cfg.Mapping.Thresholds())
	if err != nil {
		slog.ErrorContext(ctx, "failed to load mapping tuning", "error", err, "path", cfg.Mapping.TuningFile)
		os.Exit(1)
	}

	stores := store.NewStores(database.Queries())
	mapper := mapping.NewMapper(mapping.NewStoreDirectory(stores.CRM(), stores.Artifacts()), tuning)

	services := service.NewServices(
		stores,
		service.NewTxRunner(database),
		mapper,
		provider.NewRegistryFromConfig(ctx, cfg.Providers),
		notifier,
		service.JobsConfig{
			MaxBackoff:         cfg.Worker.MaxBackoff,
			DefaultMaxAttempts: cfg.Worker.DefaultMaxAttempts,
		},
		slog.Default(),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	routerCfg := httprouter.RouterConfig{
		TraceHeaderName: cfg.Pipeline.TraceHeaderName,
		AdminAPIKey:     cfg.AdminAPIKey,
		DB:              database,
		WebhookSecret:   cfg.Pipeline.WebhookSecret,
	}
	if dedup != nil {
		routerCfg.Dedup = dedup
	}

	router := setupRouter(cfg, services, routerCfg)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services, routerCfg httprouter.RouterConfig) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, routerCfg)

	return router
}

const banner = `
██╗███╗   ██╗████████╗ █████╗ ██╗  ██╗███████╗
██║████╗  ██║╚══██╔══╝██╔══██╗██║ ██╔╝██╔════╝
██║██╔██╗ ██║   ██║   ███████║█████╔╝ █████╗
██║██║╚██╗██║   ██║   ██╔══██║██╔═██╗ ██╔══╝
██║██║ ╚████║   ██║   ██║  ██║██║  ██╗███████╗
╚═╝╚═╝  ╚═══╝   ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝
`
