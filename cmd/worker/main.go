package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"firmdesk.app/intake/common/id"
	"firmdesk.app/intake/common/logger"
	"firmdesk.app/intake/common/otel"
	"firmdesk.app/intake/core/config"
	"firmdesk.app/intake/core/db"
	"firmdesk.app/intake/internal/mapping"
	"firmdesk.app/intake/internal/provider"
	"firmdesk.app/intake/internal/queue"
	"firmdesk.app/intake/internal/service"
	"firmdesk.app/intake/internal/store"
	"firmdesk.app/intake/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "intake worker starting",
		"env", cfg.Env,
		"worker_id", cfg.Worker.ID,
		"consumer_group", cfg.Pipeline.NotifyGroup)

	nodeID := cfg.Worker.NodeID
	if nodeID < 0 {
		nodeID = id.NodeFor(cfg.Worker.ID)
	}
	if err := id.Init(nodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	// Without Redis the worker polls; the database stays the source of truth.
	notifier := queue.NewNopNotifier()
	var listener queue.Listener = queue.PollListener{Interval: cfg.Worker.PollInterval}
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
		redisListener, err := queue.NewRedisListener(redisClient, queue.ListenerConfig{
			Stream:    cfg.Pipeline.NotifyStream,
			Group:     cfg.Pipeline.NotifyGroup,
			Consumer:  cfg.Pipeline.NotifyConsumer,
			BatchSize: int64(cfg.Worker.BatchSize),
			Block:     cfg.Worker.PollInterval,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to create job listener", "error", err)
			os.Exit(1)
		}
		listener = redisListener
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
	jobs := services.Jobs()

	w := worker.New(jobs, listener, worker.Handlers(services.Ingestion()), worker.Config{
		ID:        cfg.Worker.ID,
		BatchSize: cfg.Worker.BatchSize,
	})

	reclaimer := worker.NewReclaimer(jobs, worker.ReclaimerConfig{
		Interval:   cfg.Worker.ReclaimInterval,
		StaleAfter: cfg.Worker.StaleClaimTimeout,
	})

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	errCh := make(chan error, 2)
	go func() {
		errCh <- w.Run(runCtx)
	}()
	go func() {
		reclaimer.Run(runCtx)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Reclaimer first; the worker may be mid-job.
		reclaimer.Stop()
		w.Stop()
		close(done)
	}()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded, abandoning in-flight jobs")
		cancelRun()
	case <-done:
	}

	for i := 0; i < 2; i++ {
		select {
		case err := <-errCh:
			if err != nil {
				slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
			}
		default:
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			slog.ErrorContext(ctx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
██╗███╗   ██╗████████╗ █████╗ ██╗  ██╗███████╗    ██╗    ██╗ ██████╗ ██████╗ ██╗  ██╗███████╗██████╗
██║████╗  ██║╚══██╔══╝██╔══██╗██║ ██╔╝██╔════╝    ██║    ██║██╔═══██╗██╔══██╗██║ ██╔╝██╔════╝██╔══██╗
██║██╔██╗ ██║   ██║   ███████║█████╔╝ █████╗      ██║ █╗ ██║██║   ██║██████╔╝█████╔╝ █████╗  ██████╔╝
██║██║╚██╗██║   ██║   ██╔══██║██╔═██╗ ██╔══╝      ██║███╗██║██║   ██║██╔══██╗██╔═██╗ ██╔══╝  ██╔══██╗
██║██║ ╚████║   ██║   ██║  ██║██║  ██╗███████╗    ╚███╔███╔╝╚██████╔╝██║  ██║██║  ██╗███████╗██║  ██║
╚═╝╚═╝  ╚═══╝   ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝     ╚══╝╚══╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝
`
