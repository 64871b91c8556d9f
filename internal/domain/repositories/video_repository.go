package repositories

import (
	"context"
	"time"

	"video-hosting/internal/domain/entities"

	"github.com/google/uuid"
)

// VideoRepository persists videos and their transient upload sessions.
// Lookups of missing rows fail with a not_found UploadError.
type VideoRepository interface {
	// CreateUpload stores the video, its upload session and the chunk plan
	// atomically. chunks may be empty for single-shot uploads.
	CreateUpload(ctx context.Context, video *entities.Video, temp *entities.VideoTemp, chunks []entities.VideoChunk) error
	GetVideo(ctx context.Context, id uuid.UUID) (*entities.Video, error)
	GetVideoFilename(ctx context.Context, id uuid.UUID) (string, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// AdvanceStatus moves the video from one status to another and reports
	// false when it was no longer in from.
	AdvanceStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	// MarkReady moves a PROCESSING video to READY. It reports false when no
	// row was moved (already READY, deleting or gone).
	MarkReady(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	DeleteVideoTemp(ctx context.Context, id uuid.UUID) error
	ListByStatus(ctx context.Context, status string) ([]entities.Video, error)
	// ClaimVideosToDelete removes, in one transaction, every video that is
	// DELETING or is not READY and was created before cutoff, and returns
	// what was removed so its files can be reclaimed.
	ClaimVideosToDelete(ctx context.Context, cutoff time.Time) ([]entities.VideoToDelete, error)
}

type ChunkRepository interface {
	GetChunk(ctx context.Context, chunkID, videoID uuid.UUID) (*entities.VideoChunk, error)
	GetAllChunks(ctx context.Context, videoID uuid.UUID) ([]entities.VideoChunk, error)
	// CompleteChunk deletes a written chunk and, serialized with other
	// writers of the same video, advances the video to UPLOADING or, when
	// no chunk remains, PROCESSING.
	CompleteChunk(ctx context.Context, videoID, chunkID uuid.UUID) (entities.ChunkCompletion, error)
}

type SessionRepository interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
