package queue

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"video-hosting/internal/domain/entities"
	"video-hosting/internal/infrastructure/repositories"
	"video-hosting/internal/infrastructure/storage"
	"video-hosting/internal/pkg/metrics"
	"video-hosting/pkg/constants"
	fe "video-hosting/pkg/errors"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProcessor struct {
	gate    chan struct{} // when set, Transcode blocks until closed
	fail    map[string]bool
	started chan string

	active    atomic.Int32
	maxActive atomic.Int32
}

func (f *fakeProcessor) Transcode(_ context.Context, src, dst string) error {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		max := f.maxActive.Load()
		if n <= max || f.maxActive.CompareAndSwap(max, n) {
			break
		}
	}
	if f.started != nil {
		f.started <- src
	}
	if f.gate != nil {
		<-f.gate
	}
	for name := range f.fail {
		if bytes.Contains([]byte(src), []byte(name)) {
			return fe.ErrExternalTool(errors.New("exit status 1"))
		}
	}
	return os.WriteFile(dst, []byte("transcoded"), 0644)
}

func (f *fakeProcessor) Thumbnail(_ context.Context, _, dst string) error {
	return os.WriteFile(dst, []byte("jpeg"), 0644)
}

type poolFixture struct {
	pool   *TranscodeWorkerPool
	repo   *repositories.InMemoryRepository
	blobs  *storage.LocalBlobStore
	assets *storage.LocalStorage
	queue  *MemoryQueue
	m      *metrics.Pipeline
}

func newPoolFixture(t *testing.T, concurrency int, proc Processor) *poolFixture {
	t.Helper()
	blobs, err := storage.NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)
	f := &poolFixture{
		repo:   repositories.NewInMemoryRepository(),
		blobs:  blobs,
		assets: storage.NewLocalStorage(t.TempDir()),
		queue:  NewMemoryQueue(),
		m:      metrics.NewPipeline(),
	}
	f.pool = NewTranscodeWorkerPool(
		PoolConfig{Concurrency: concurrency, WorkDir: t.TempDir()},
		f.queue, f.repo, f.blobs, f.assets, proc, f.m, zap.NewNop(),
	)
	return f
}

func (f *poolFixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.pool.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = f.pool.Shutdown(ctx)
		_ = f.queue.Close()
	})
}

// seedProcessing stores a fully uploaded video waiting for transcode.
func (f *poolFixture) seedProcessing(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	filename := id.String() + ".mov"
	require.NoError(t, f.repo.CreateUpload(context.Background(),
		&entities.Video{ID: id, Name: "clip", Status: constants.VideoStatusProcessing},
		&entities.VideoTemp{ID: id, Filename: filename}, nil))
	_, err := f.blobs.WriteStream(filename, bytes.NewReader([]byte("source")))
	require.NoError(t, err)
	return id
}

func (f *poolFixture) status(t *testing.T, id uuid.UUID) string {
	t.Helper()
	v, err := f.repo.GetVideo(context.Background(), id)
	require.NoError(t, err)
	return v.Status
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	proc := &fakeProcessor{gate: make(chan struct{}), started: make(chan string, 3)}
	f := newPoolFixture(t, 2, proc)
	f.start(t)

	ids := []uuid.UUID{f.seedProcessing(t), f.seedProcessing(t), f.seedProcessing(t)}
	for _, id := range ids {
		f.pool.Enqueue(context.Background(), id.String())
	}

	<-proc.started
	<-proc.started
	select {
	case <-proc.started:
		t.Fatal("third transcode started while two slots were held")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, int32(2), proc.active.Load())

	close(proc.gate)
	for _, id := range ids {
		id := id
		require.Eventually(t, func() bool {
			return f.status(t, id) == constants.VideoStatusReady
		}, 2*time.Second, 10*time.Millisecond)
	}
	assert.Equal(t, int32(2), proc.maxActive.Load())
}

func TestWorkerPoolPublishesAndCleansUp(t *testing.T) {
	f := newPoolFixture(t, 2, &fakeProcessor{})
	f.start(t)
	id := f.seedProcessing(t)

	f.pool.Enqueue(context.Background(), id.String())

	require.Eventually(t, func() bool {
		return f.status(t, id) == constants.VideoStatusReady
	}, 2*time.Second, 10*time.Millisecond)

	ctx := context.Background()
	data, err := f.assets.Read(ctx, storage.VideoKey(id.String()))
	require.NoError(t, err)
	assert.Equal(t, "transcoded", string(data))
	_, err = f.assets.Read(ctx, storage.ThumbnailKey(id.String()))
	assert.NoError(t, err)

	_, err = f.repo.GetVideoFilename(ctx, id)
	assert.True(t, fe.HasCode(err, fe.CodeNotFound))
	_, err = os.Stat(f.blobs.Path(id.String() + ".mov"))
	assert.True(t, os.IsNotExist(err))

	v, _ := f.repo.GetVideo(ctx, id)
	assert.NotNil(t, v.UploadedAt)
}

func TestWorkerPoolFailureLeavesProcessingAndFreesSlot(t *testing.T) {
	proc := &fakeProcessor{fail: map[string]bool{}}
	f := newPoolFixture(t, 1, proc)
	f.start(t)
	bad := f.seedProcessing(t)
	good := f.seedProcessing(t)
	proc.fail[bad.String()] = true

	f.pool.Enqueue(context.Background(), bad.String())
	f.pool.Enqueue(context.Background(), good.String())

	require.Eventually(t, func() bool {
		return f.status(t, good) == constants.VideoStatusReady
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, constants.VideoStatusProcessing, f.status(t, bad))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.m.TranscodeFailures.WithLabelValues("transcode")))
	_, err := os.Stat(f.blobs.Path(bad.String() + ".mov"))
	assert.NoError(t, err, "source of a failed transcode is kept")
}

func TestWorkerPoolSkipsDuplicateEntriesOfFinishedVideos(t *testing.T) {
	f := newPoolFixture(t, 1, &fakeProcessor{})
	f.start(t)
	done := f.seedProcessing(t)
	f.pool.Enqueue(context.Background(), done.String())
	require.Eventually(t, func() bool {
		return f.status(t, done) == constants.VideoStatusReady
	}, 2*time.Second, 10*time.Millisecond)

	// a second copy of the same ID, as left on a shared queue by a restart
	f.pool.Enqueue(context.Background(), done.String())
	next := f.seedProcessing(t)
	f.pool.Enqueue(context.Background(), next.String())
	require.Eventually(t, func() bool {
		return f.status(t, next) == constants.VideoStatusReady
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.pool.Shutdown(ctx))

	assert.Zero(t, testutil.ToFloat64(f.m.TranscodeFailures.WithLabelValues(stageLookup)))
	assert.Equal(t, constants.VideoStatusReady, f.status(t, done))
	_, err := f.assets.Read(context.Background(), storage.VideoKey(done.String()))
	assert.NoError(t, err, "assets of the finished video are untouched")
}

func TestWorkerPoolRecoversProcessingOnStart(t *testing.T) {
	f := newPoolFixture(t, 2, &fakeProcessor{})
	id := f.seedProcessing(t)

	f.start(t)

	require.Eventually(t, func() bool {
		return f.status(t, id) == constants.VideoStatusReady
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorkerPoolDropsAssetsOfVideoDeletedMidTranscode(t *testing.T) {
	proc := &fakeProcessor{gate: make(chan struct{}), started: make(chan string, 1)}
	f := newPoolFixture(t, 1, proc)
	f.start(t)
	id := f.seedProcessing(t)
	f.pool.Enqueue(context.Background(), id.String())

	<-proc.started
	require.NoError(t, f.repo.UpdateStatus(context.Background(), id, constants.VideoStatusDeleting))
	close(proc.gate)

	require.Eventually(t, func() bool {
		_, err := f.repo.GetVideoFilename(context.Background(), id)
		return fe.HasCode(err, fe.CodeNotFound)
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_, err := f.assets.Read(context.Background(), storage.VideoKey(id.String()))
		return fe.HasCode(err, fe.CodeNotFound)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, constants.VideoStatusDeleting, f.status(t, id))
}

func TestWorkerPoolKeepsAssetsWhenAnotherWorkerFinishedFirst(t *testing.T) {
	proc := &fakeProcessor{gate: make(chan struct{}), started: make(chan string, 1)}
	f := newPoolFixture(t, 1, proc)
	f.start(t)
	id := f.seedProcessing(t)
	f.pool.Enqueue(context.Background(), id.String())

	<-proc.started
	moved, err := f.repo.MarkReady(context.Background(), id, time.Now())
	require.NoError(t, err)
	require.True(t, moved)
	close(proc.gate)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.pool.Shutdown(ctx))

	_, err = f.assets.Read(context.Background(), storage.VideoKey(id.String()))
	assert.NoError(t, err)
	_, err = f.assets.Read(context.Background(), storage.ThumbnailKey(id.String()))
	assert.NoError(t, err)
	assert.Equal(t, constants.VideoStatusReady, f.status(t, id))
}

func TestClaimSkipsInFlightDuplicates(t *testing.T) {
	f := newPoolFixture(t, 1, &fakeProcessor{})

	assert.True(t, f.pool.claim("a"))
	assert.False(t, f.pool.claim("a"))
	f.pool.release("a")
	assert.True(t, f.pool.claim("a"))
}

func TestMemoryQueueFIFOAndClose(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(ctx, id))
	}
	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	for _, want := range []string{"a", "b", "c"} {
		got, err := q.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := q.Dequeue(ctx)
		assert.ErrorIs(t, err, ErrQueueClosed)
	}()
	n, err = q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Close())
	wg.Wait()

	assert.ErrorIs(t, q.Enqueue(ctx, "d"), ErrQueueClosed)
}

func TestWorkerPoolReportsQueueDepth(t *testing.T) {
	f := newPoolFixture(t, 1, &fakeProcessor{})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, f.queue.Enqueue(ctx, uuid.NewString()))
	}

	f.pool.refreshDepth(ctx)
	assert.Equal(t, float64(3), testutil.ToFloat64(f.m.QueueDepth))

	f.start(t)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.m.QueueDepth) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMemoryQueueDequeueHonorsContext(t *testing.T) {
	q := NewMemoryQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
