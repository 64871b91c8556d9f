package app

import (
	"context"
	"fmt"

	domainrepo "video-hosting/internal/domain/repositories"
	"video-hosting/internal/infrastructure/db"
	"video-hosting/internal/infrastructure/processor"
	"video-hosting/internal/infrastructure/queue"
	infra_repo "video-hosting/internal/infrastructure/repositories"
	"video-hosting/internal/infrastructure/storage"
	"video-hosting/internal/pkg/config"
	"video-hosting/internal/pkg/logger"
	"video-hosting/internal/pkg/metrics"
	"video-hosting/internal/usecases"
	"video-hosting/pkg/constants"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewConfig() (*config.Config, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func NewLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	undo := zap.ReplaceGlobals(log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = log.Sync()
			undo()
			return nil
		},
	})
	return log, nil
}

type Repositories struct {
	fx.Out

	Videos   domainrepo.VideoRepository
	Chunks   domainrepo.ChunkRepository
	Sessions domainrepo.SessionRepository
}

// NewRepositories picks the metadata backend from DB_DRIVER.
func NewRepositories(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (Repositories, error) {
	if cfg.Database.Driver == constants.DriverMemory {
		log.Warn("using in-memory metadata store; state is lost on restart")
		mem := infra_repo.NewInMemoryRepository()
		return Repositories{Videos: mem, Chunks: mem, Sessions: mem}, nil
	}

	database, err := db.NewPostgresDB(cfg.Database, log)
	if err != nil {
		return Repositories{}, err
	}
	if cfg.Database.AutoMigration {
		if err := db.Migrate(database, log); err != nil {
			return Repositories{}, err
		}
	}

	sqlDB, err := database.DB()
	if err != nil {
		return Repositories{}, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return sqlDB.Close()
		},
	})

	return Repositories{
		Videos:   infra_repo.NewVideoRepository(database),
		Chunks:   infra_repo.NewChunkRepository(database),
		Sessions: infra_repo.NewSessionRepository(database),
	}, nil
}

func NewBlobStore(cfg *config.Config) (domainrepo.BlobStore, error) {
	return storage.NewLocalBlobStore(cfg.Upload.SourceDir)
}

func NewAssetStore(cfg *config.Config) (domainrepo.AssetStore, error) {
	if cfg.Storage.Driver == constants.DriverS3 {
		return storage.NewS3Storage(context.Background(), cfg.Storage.S3Bucket, cfg.Storage.S3Region)
	}
	return storage.NewLocalStorage(cfg.Upload.AssetDir), nil
}

func NewQueue(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (queue.Queue, error) {
	if cfg.Transcode.QueueDriver != constants.DriverRedis {
		return queue.NewMemoryQueue(), nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr(), err)
	}
	log.Info("Redis connection established", zap.String("addr", cfg.Redis.Addr()))

	q := queue.NewRedisQueue(rdb, constants.TranscodeQueueKey)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return q.Close()
		},
	})
	return q, nil
}

func NewProcessor(cfg *config.Config) queue.Processor {
	return processor.NewFFmpeg(cfg.Transcode.FFmpegPath, processor.NewCommandRunner())
}

func NewWorkerPool(
	cfg *config.Config,
	q queue.Queue,
	videos domainrepo.VideoRepository,
	blobs domainrepo.BlobStore,
	assets domainrepo.AssetStore,
	proc queue.Processor,
	m *metrics.Pipeline,
	log *zap.Logger,
) *queue.TranscodeWorkerPool {
	return queue.NewTranscodeWorkerPool(queue.PoolConfig{
		Concurrency: cfg.Transcode.Concurrency,
		Timeout:     cfg.Transcode.Timeout,
		WorkDir:     cfg.Upload.WorkDir,
	}, q, videos, blobs, assets, proc, m, log)
}

// NewEnqueuer hands completed uploads to the local pool when it runs in this
// process, or straight onto the shared queue for external workers.
func NewEnqueuer(cfg *config.Config, q queue.Queue, log *zap.Logger, pool *queue.TranscodeWorkerPool) usecases.Enqueuer {
	if cfg.Transcode.Embedded {
		return pool
	}
	return queueEnqueuer{q: q, log: log}
}

type queueEnqueuer struct {
	q   queue.Queue
	log *zap.Logger
}

func (e queueEnqueuer) Enqueue(ctx context.Context, videoID string) {
	if err := e.q.Enqueue(ctx, videoID); err != nil {
		e.log.Error("enqueue failed", zap.String("video_id", videoID), zap.Error(err))
	}
}

func NewUploadService(
	cfg *config.Config,
	videos domainrepo.VideoRepository,
	chunks domainrepo.ChunkRepository,
	blobs domainrepo.BlobStore,
	assets domainrepo.AssetStore,
	enqueuer usecases.Enqueuer,
	m *metrics.Pipeline,
	log *zap.Logger,
) usecases.UploadService {
	return usecases.NewUploadService(videos, chunks, blobs, assets, enqueuer, usecases.UploadSettings{
		ChunkSize:       cfg.Upload.ChunkSize,
		MaxFileSize:     cfg.Upload.MaxFileSize,
		Concurrency:     cfg.Transcode.Concurrency,
		StaleAfter:      cfg.Janitor.StaleAfter,
		JanitorInterval: cfg.Janitor.Interval,
	}, m, log)
}

func NewCleanupService(
	cfg *config.Config,
	videos domainrepo.VideoRepository,
	sessions domainrepo.SessionRepository,
	blobs domainrepo.BlobStore,
	assets domainrepo.AssetStore,
	m *metrics.Pipeline,
	log *zap.Logger,
) usecases.CleanupService {
	return usecases.NewCleanupService(videos, sessions, blobs, assets, usecases.CleanupSettings{
		StaleAfter: cfg.Janitor.StaleAfter,
		SessionTTL: cfg.Janitor.SessionTTL,
	}, m, log)
}

func NewScheduler(cfg *config.Config, cleanup usecases.CleanupService, log *zap.Logger) *usecases.Scheduler {
	return usecases.NewScheduler(cleanup, cfg.Janitor.Interval, log)
}
