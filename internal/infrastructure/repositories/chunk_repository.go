package repositories

import (
	"context"
	"fmt"

	"video-hosting/internal/domain/entities"
	"video-hosting/internal/domain/repositories"
	"video-hosting/pkg/constants"
	fe "video-hosting/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type chunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) repositories.ChunkRepository {
	return &chunkRepository{db: db}
}

func (r *chunkRepository) GetChunk(ctx context.Context, chunkID, videoID uuid.UUID) (*entities.VideoChunk, error) {
	var chunk entities.VideoChunk
	err := r.db.WithContext(ctx).First(&chunk, "id = ? AND video_id = ?", chunkID, videoID).Error
	if err != nil {
		return nil, translateError(err, "chunk %s of video %s", chunkID, videoID)
	}
	return &chunk, nil
}

func (r *chunkRepository) GetAllChunks(ctx context.Context, videoID uuid.UUID) ([]entities.VideoChunk, error) {
	var chunks []entities.VideoChunk
	err := r.db.WithContext(ctx).Where("video_id = ?", videoID).Order("start_position").Find(&chunks).Error
	if err != nil {
		return nil, fe.ErrStorage(err)
	}
	return chunks, nil
}

// CompleteChunk holds the video row lock for the whole delete/count/advance
// sequence, so concurrent completions of the same video are serialized and
// exactly one of them observes zero remaining chunks.
func (r *chunkRepository) CompleteChunk(ctx context.Context, videoID, chunkID uuid.UUID) (entities.ChunkCompletion, error) {
	var out entities.ChunkCompletion
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var video entities.Video
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&video, "id = ?", videoID).Error; err != nil {
			return translateError(err, "video %s", videoID)
		}

		res := tx.Where("id = ? AND video_id = ?", chunkID, videoID).Delete(&entities.VideoChunk{})
		if res.Error != nil {
			return fe.ErrStorage(res.Error)
		}
		if res.RowsAffected == 0 {
			return fe.ErrNotFound(fmt.Errorf("chunk %s of video %s", chunkID, videoID))
		}

		if err := tx.Model(&entities.VideoChunk{}).Where("video_id = ?", videoID).Count(&out.Remaining).Error; err != nil {
			return fe.ErrStorage(err)
		}

		if !constants.IsUploadable(video.Status) {
			return nil
		}
		next := constants.VideoStatusUploading
		if out.Remaining == 0 {
			next = constants.VideoStatusProcessing
		}
		if next != video.Status {
			if err := tx.Model(&entities.Video{}).Where("id = ?", videoID).Update("status", next).Error; err != nil {
				return fe.ErrStorage(err)
			}
		}
		out.Completed = out.Remaining == 0
		return nil
	})
	if err != nil {
		return entities.ChunkCompletion{}, err
	}
	return out, nil
}
