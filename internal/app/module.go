package app

import (
	"context"
	"fmt"

	"video-hosting/internal/infrastructure/queue"
	"video-hosting/internal/pkg/config"
	"video-hosting/internal/pkg/metrics"
	"video-hosting/internal/usecases"
	"video-hosting/pkg/constants"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Core provides everything both binaries share: config, logging, metrics,
// metadata, blob/asset storage and the transcode queue.
var Core = fx.Options(
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log.Named("fx")}
	}),
	fx.Provide(
		NewConfig,
		NewLogger,
		metrics.NewPipeline,
		NewRepositories,
		NewBlobStore,
		NewAssetStore,
		NewQueue,
		NewProcessor,
		NewWorkerPool,
	),
)

// Server runs the HTTP API and the janitor. The worker pool runs in-process
// unless TRANSCODE_EMBEDDED=false.
var Server = fx.Options(
	Core,
	fx.Provide(
		NewEnqueuer,
		NewUploadService,
		NewCleanupService,
		NewScheduler,
		NewFiberApp,
	),
	fx.Invoke(RunEmbeddedWorkerPool, RunJanitor, RunHTTPServer),
)

// Worker only consumes the shared queue.
var Worker = fx.Options(
	Core,
	fx.Invoke(RunWorkerPool),
)

func RunWorkerPool(lc fx.Lifecycle, pool *queue.TranscodeWorkerPool) {
	lc.Append(fx.Hook{
		OnStart: pool.Start,
		OnStop:  pool.Shutdown,
	})
}

func RunEmbeddedWorkerPool(lc fx.Lifecycle, cfg *config.Config, pool *queue.TranscodeWorkerPool) {
	if !cfg.Transcode.Embedded {
		return
	}
	RunWorkerPool(lc, pool)
}

func RunJanitor(lc fx.Lifecycle, scheduler *usecases.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			scheduler.Start()
			return nil
		},
		OnStop: scheduler.Stop,
	})
}

// RequireSharedQueue refuses to start a worker that would consume a queue
// no API server can feed.
func RequireSharedQueue(cfg *config.Config) error {
	if cfg.Transcode.QueueDriver != constants.DriverRedis {
		return fmt.Errorf("worker needs QUEUE_DRIVER=redis, got %q", cfg.Transcode.QueueDriver)
	}
	if cfg.Database.Driver == constants.DriverMemory {
		return fmt.Errorf("worker needs a shared database, DB_DRIVER=memory is process-local")
	}
	return nil
}
