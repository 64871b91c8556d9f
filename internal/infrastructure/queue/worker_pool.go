package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"video-hosting/internal/domain/repositories"
	"video-hosting/internal/infrastructure/storage"
	"video-hosting/internal/pkg/metrics"
	"video-hosting/pkg/constants"
	fe "video-hosting/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const stageLookup = "lookup"

// Processor turns a source upload into the delivery assets.
type Processor interface {
	Transcode(ctx context.Context, src, dst string) error
	Thumbnail(ctx context.Context, src, dst string) error
}

type PoolConfig struct {
	Concurrency int
	Timeout     time.Duration // 0: transcodes run until they finish
	WorkDir     string
}

// TranscodeWorkerPool consumes the transcode queue. One dispatcher dequeues
// IDs and hands each to its own goroutine; a weighted semaphore bounds how
// many of them transcode at once.
type TranscodeWorkerPool struct {
	cfg       PoolConfig
	queue     Queue
	videos    repositories.VideoRepository
	blobs     repositories.BlobStore
	assets    repositories.AssetStore
	processor Processor
	metrics   *metrics.Pipeline
	log       *zap.Logger
	now       func() time.Time

	sem      *semaphore.Weighted
	mu       sync.Mutex
	inFlight map[string]struct{}
	wg       sync.WaitGroup

	cancel     context.CancelFunc
	dispatched chan struct{}
}

func NewTranscodeWorkerPool(
	cfg PoolConfig,
	q Queue,
	videos repositories.VideoRepository,
	blobs repositories.BlobStore,
	assets repositories.AssetStore,
	processor Processor,
	m *metrics.Pipeline,
	log *zap.Logger,
) *TranscodeWorkerPool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &TranscodeWorkerPool{
		cfg:       cfg,
		queue:     q,
		videos:    videos,
		blobs:     blobs,
		assets:    assets,
		processor: processor,
		metrics:   m,
		log:       log.Named("transcode"),
		now:       func() time.Time { return time.Now().UTC() },
		sem:       semaphore.NewWeighted(int64(cfg.Concurrency)),
		inFlight:  make(map[string]struct{}),
	}
}

// Enqueue hands a completed upload to the pool. Failures are logged only.
func (p *TranscodeWorkerPool) Enqueue(ctx context.Context, videoID string) {
	if err := p.queue.Enqueue(ctx, videoID); err != nil {
		p.log.Error("enqueue failed", zap.String("video_id", videoID), zap.Error(err))
	}
}

// Start re-enqueues videos left in PROCESSING by a previous run and starts
// the dispatcher.
func (p *TranscodeWorkerPool) Start(ctx context.Context) error {
	if err := os.MkdirAll(p.cfg.WorkDir, 0755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}

	pending, err := p.videos.ListByStatus(ctx, constants.VideoStatusProcessing)
	if err != nil {
		return fmt.Errorf("list pending transcodes: %w", err)
	}
	for _, v := range pending {
		p.Enqueue(ctx, v.ID.String())
	}
	if len(pending) > 0 {
		p.log.Info("recovered pending transcodes", zap.Int("count", len(pending)))
	}
	p.refreshDepth(ctx)

	dispatchCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.dispatched = make(chan struct{})
	go p.dispatch(dispatchCtx)

	p.log.Info("worker pool started", zap.Int("concurrency", p.cfg.Concurrency))
	return nil
}

// Shutdown stops dequeuing and waits for in-flight transcodes until ctx is
// done. Running transcodes are not killed.
func (p *TranscodeWorkerPool) Shutdown(ctx context.Context) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	<-p.dispatched

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.log.Info("worker pool stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}

func (p *TranscodeWorkerPool) dispatch(ctx context.Context) {
	defer close(p.dispatched)
	for {
		id, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrQueueClosed) {
				return
			}
			p.log.Warn("dequeue failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		p.refreshDepth(ctx)

		if !p.claim(id) {
			p.log.Debug("video already in flight", zap.String("video_id", id))
			continue
		}
		p.wg.Add(1)
		go p.run(ctx, id)
	}
}

func (p *TranscodeWorkerPool) refreshDepth(ctx context.Context) {
	n, err := p.queue.Len(ctx)
	if err != nil {
		p.log.Debug("queue length unavailable", zap.Error(err))
		return
	}
	p.metrics.QueueDepth.Set(float64(n))
}

func (p *TranscodeWorkerPool) claim(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.inFlight[id]; exists {
		return false
	}
	p.inFlight[id] = struct{}{}
	return true
}

func (p *TranscodeWorkerPool) release(id string) {
	p.mu.Lock()
	delete(p.inFlight, id)
	p.mu.Unlock()
}

// run waits for a slot; items still waiting at shutdown stay PROCESSING and
// are picked up again by the next Start.
func (p *TranscodeWorkerPool) run(ctx context.Context, id string) {
	defer p.wg.Done()
	defer p.release(id)

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer p.sem.Release(1)

	workCtx := context.Background()
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		workCtx, cancel = context.WithTimeout(workCtx, p.cfg.Timeout)
		defer cancel()
	}

	p.metrics.ActiveTranscodes.Inc()
	defer p.metrics.ActiveTranscodes.Dec()

	log := p.log.With(zap.String("video_id", id))
	started := time.Now()
	if stage, err := p.process(workCtx, id); err != nil {
		if stage == stageLookup && fe.HasCode(err, fe.CodeNotFound) {
			// duplicate queue entry for a video already finished or reclaimed
			log.Debug("video no longer awaiting transcode, skipped")
			return
		}
		p.metrics.TranscodeFailures.WithLabelValues(stage).Inc()
		log.Error("transcode failed", zap.String("stage", stage), zap.Error(err))
		return
	}
	p.metrics.TranscodeDuration.Observe(time.Since(started).Seconds())
	log.Info("video ready", zap.Duration("took", time.Since(started)))
}

// process returns the failing stage together with its error.
func (p *TranscodeWorkerPool) process(ctx context.Context, id string) (string, error) {
	videoID, err := uuid.Parse(id)
	if err != nil {
		return stageLookup, err
	}
	filename, err := p.videos.GetVideoFilename(ctx, videoID)
	if err != nil {
		return stageLookup, err
	}
	src := p.blobs.Path(filename)

	processed := filepath.Join(p.cfg.WorkDir, id+constants.ProcessedExt)
	thumb := filepath.Join(p.cfg.WorkDir, id+constants.ThumbnailExt)
	defer os.Remove(processed)
	defer os.Remove(thumb)

	if err := p.processor.Transcode(ctx, src, processed); err != nil {
		return "transcode", err
	}
	if err := p.processor.Thumbnail(ctx, src, thumb); err != nil {
		return "thumbnail", err
	}

	videoKey, thumbKey := storage.VideoKey(id), storage.ThumbnailKey(id)
	if err := p.assets.Put(ctx, videoKey, processed); err != nil {
		return "publish", err
	}
	if err := p.assets.Put(ctx, thumbKey, thumb); err != nil {
		return "publish", multierr.Append(err, p.assets.Delete(ctx, videoKey))
	}

	if err := p.videos.DeleteVideoTemp(ctx, videoID); err != nil {
		return "cleanup", err
	}
	if err := p.blobs.Delete(filename); err != nil {
		return "cleanup", err
	}

	moved, err := p.videos.MarkReady(ctx, videoID, p.now())
	if err != nil {
		return "finalize", err
	}
	if !moved {
		// another worker already finished it; the assets are its own
		if v, getErr := p.videos.GetVideo(ctx, videoID); getErr == nil && v.Status == constants.VideoStatusReady {
			return "", nil
		}
		// deleted or reclaimed while transcoding
		err := multierr.Combine(p.assets.Delete(ctx, videoKey), p.assets.Delete(ctx, thumbKey))
		p.log.Warn("video left PROCESSING during transcode, assets removed",
			zap.String("video_id", id), zap.Error(err))
	}
	return "", nil
}
