package usecases

import (
	"video-hosting/internal/domain/entities"

	"github.com/google/uuid"
)

// PlanChunks splits [0, totalSize) into contiguous windows of chunkSize
// bytes with inclusive ends; the last window holds the remainder. Callers
// reject non-positive sizes.
func PlanChunks(videoID uuid.UUID, totalSize, chunkSize int64) []entities.VideoChunk {
	if totalSize <= 0 || chunkSize <= 0 {
		return nil
	}
	n := (totalSize + chunkSize - 1) / chunkSize
	chunks := make([]entities.VideoChunk, 0, n)
	for start := int64(0); start < totalSize; start += chunkSize {
		size := chunkSize
		if start+size > totalSize {
			size = totalSize - start
		}
		chunks = append(chunks, entities.VideoChunk{
			ID:        uuid.New(),
			VideoID:   videoID,
			ChunkSize: size,
			Start:     start,
			End:       start + size - 1,
		})
	}
	return chunks
}
