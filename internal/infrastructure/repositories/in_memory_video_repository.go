package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"video-hosting/internal/domain/entities"
	"video-hosting/pkg/constants"
	fe "video-hosting/pkg/errors"

	"github.com/google/uuid"
)

// InMemoryRepository implements the video, chunk and session repositories
// behind a single mutex. It backs DB_DRIVER=memory and the tests.
type InMemoryRepository struct {
	mu       sync.Mutex
	videos   map[uuid.UUID]*entities.Video
	temps    map[uuid.UUID]string
	chunks   map[uuid.UUID]map[uuid.UUID]entities.VideoChunk // video -> chunk
	sessions map[uuid.UUID]entities.Session
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		videos:   make(map[uuid.UUID]*entities.Video),
		temps:    make(map[uuid.UUID]string),
		chunks:   make(map[uuid.UUID]map[uuid.UUID]entities.VideoChunk),
		sessions: make(map[uuid.UUID]entities.Session),
	}
}

func (r *InMemoryRepository) CreateUpload(_ context.Context, video *entities.Video, temp *entities.VideoTemp, chunks []entities.VideoChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.videos[video.ID]; ok {
		return fe.ErrAlreadyExists(fmt.Errorf("video %s", video.ID))
	}
	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now().UTC()
	}
	stored := *video
	r.videos[video.ID] = &stored

	if _, ok := r.temps[temp.ID]; !ok {
		r.temps[temp.ID] = temp.Filename
	}

	set := make(map[uuid.UUID]entities.VideoChunk, len(chunks))
	for _, c := range chunks {
		set[c.ID] = c
	}
	r.chunks[video.ID] = set
	return nil
}

func (r *InMemoryRepository) GetVideo(_ context.Context, id uuid.UUID) (*entities.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, ok := r.videos[id]
	if !ok {
		return nil, fe.ErrNotFound(fmt.Errorf("video %s", id))
	}
	copied := *video
	return &copied, nil
}

func (r *InMemoryRepository) GetVideoFilename(_ context.Context, id uuid.UUID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.temps[id]
	if !ok {
		return "", fe.ErrNotFound(fmt.Errorf("upload session %s", id))
	}
	return name, nil
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, ok := r.videos[id]
	if !ok {
		return fe.ErrNotFound(fmt.Errorf("video %s", id))
	}
	video.Status = status
	return nil
}

func (r *InMemoryRepository) AdvanceStatus(_ context.Context, id uuid.UUID, from, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, ok := r.videos[id]
	if !ok || video.Status != from {
		return false, nil
	}
	video.Status = to
	return true, nil
}

func (r *InMemoryRepository) MarkReady(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, ok := r.videos[id]
	if !ok || video.Status != constants.VideoStatusProcessing {
		return false, nil
	}
	video.Status = constants.VideoStatusReady
	video.UploadedAt = &at
	return true, nil
}

func (r *InMemoryRepository) DeleteVideoTemp(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.temps, id)
	return nil
}

func (r *InMemoryRepository) ListByStatus(_ context.Context, status string) ([]entities.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]entities.Video, 0)
	for _, video := range r.videos {
		if video.Status == status {
			result = append(result, *video)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *InMemoryRepository) ClaimVideosToDelete(_ context.Context, cutoff time.Time) ([]entities.VideoToDelete, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	claimed := make([]entities.VideoToDelete, 0)
	for id, video := range r.videos {
		stale := video.Status != constants.VideoStatusReady && video.CreatedAt.Before(cutoff)
		if !stale && video.Status != constants.VideoStatusDeleting {
			continue
		}
		item := entities.VideoToDelete{ID: id}
		if name, ok := r.temps[id]; ok {
			item.Filename = &name
		}
		claimed = append(claimed, item)

		delete(r.chunks, id)
		delete(r.temps, id)
		delete(r.videos, id)
	}
	return claimed, nil
}

func (r *InMemoryRepository) GetChunk(_ context.Context, chunkID, videoID uuid.UUID) (*entities.VideoChunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chunk, ok := r.chunks[videoID][chunkID]
	if !ok {
		return nil, fe.ErrNotFound(fmt.Errorf("chunk %s of video %s", chunkID, videoID))
	}
	return &chunk, nil
}

func (r *InMemoryRepository) GetAllChunks(_ context.Context, videoID uuid.UUID) ([]entities.VideoChunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]entities.VideoChunk, 0, len(r.chunks[videoID]))
	for _, c := range r.chunks[videoID] {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start < result[j].Start })
	return result, nil
}

func (r *InMemoryRepository) CompleteChunk(_ context.Context, videoID, chunkID uuid.UUID) (entities.ChunkCompletion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, ok := r.videos[videoID]
	if !ok {
		return entities.ChunkCompletion{}, fe.ErrNotFound(fmt.Errorf("video %s", videoID))
	}
	set := r.chunks[videoID]
	if _, ok := set[chunkID]; !ok {
		return entities.ChunkCompletion{}, fe.ErrNotFound(fmt.Errorf("chunk %s of video %s", chunkID, videoID))
	}
	delete(set, chunkID)

	out := entities.ChunkCompletion{Remaining: int64(len(set))}
	if !constants.IsUploadable(video.Status) {
		return out, nil
	}
	if out.Remaining == 0 {
		video.Status = constants.VideoStatusProcessing
		out.Completed = true
	} else {
		video.Status = constants.VideoStatusUploading
	}
	return out, nil
}

func (r *InMemoryRepository) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, s := range r.sessions {
		if s.AccessedAt.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}
