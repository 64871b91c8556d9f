package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"video-hosting/internal/domain/entities"
	"video-hosting/internal/domain/repositories"
	"video-hosting/pkg/constants"
	fe "video-hosting/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type videoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) repositories.VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) CreateUpload(ctx context.Context, video *entities.Video, temp *entities.VideoTemp, chunks []entities.VideoChunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(video).Error; err != nil {
			return fe.ErrStorage(fmt.Errorf("insert video: %w", err))
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(temp).Error; err != nil {
			return fe.ErrStorage(fmt.Errorf("insert upload session: %w", err))
		}
		if len(chunks) > 0 {
			if err := tx.CreateInBatches(chunks, 500).Error; err != nil {
				return fe.ErrStorage(fmt.Errorf("insert chunks: %w", err))
			}
		}
		return nil
	})
}

func (r *videoRepository) GetVideo(ctx context.Context, id uuid.UUID) (*entities.Video, error) {
	var video entities.Video
	if err := r.db.WithContext(ctx).First(&video, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "video %s", id)
	}
	return &video, nil
}

func (r *videoRepository) GetVideoFilename(ctx context.Context, id uuid.UUID) (string, error) {
	var temp entities.VideoTemp
	if err := r.db.WithContext(ctx).First(&temp, "id = ?", id).Error; err != nil {
		return "", translateError(err, "upload session %s", id)
	}
	return temp.Filename, nil
}

func (r *videoRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.db.WithContext(ctx).Model(&entities.Video{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fe.ErrStorage(res.Error)
	}
	if res.RowsAffected == 0 {
		return fe.ErrNotFound(fmt.Errorf("video %s", id))
	}
	return nil
}

func (r *videoRepository) AdvanceStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entities.Video{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, fe.ErrStorage(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *videoRepository) MarkReady(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entities.Video{}).
		Where("id = ? AND status = ?", id, constants.VideoStatusProcessing).
		Updates(map[string]interface{}{
			"status":      constants.VideoStatusReady,
			"uploaded_at": at,
		})
	if res.Error != nil {
		return false, fe.ErrStorage(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *videoRepository) DeleteVideoTemp(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&entities.VideoTemp{}, "id = ?", id).Error; err != nil {
		return fe.ErrStorage(err)
	}
	return nil
}

func (r *videoRepository) ListByStatus(ctx context.Context, status string) ([]entities.Video, error) {
	var videos []entities.Video
	if err := r.db.WithContext(ctx).Where("status = ?", status).Order("created_at").Find(&videos).Error; err != nil {
		return nil, fe.ErrStorage(err)
	}
	return videos, nil
}

// ClaimVideosToDelete locks candidates with SKIP LOCKED so rows held by an
// in-progress chunk completion are left for the next sweep.
func (r *videoRepository) ClaimVideosToDelete(ctx context.Context, cutoff time.Time) ([]entities.VideoToDelete, error) {
	var claimed []entities.VideoToDelete
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var videos []entities.Video
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("(status <> ? AND created_at < ?) OR status = ?",
				constants.VideoStatusReady, cutoff, constants.VideoStatusDeleting).
			Find(&videos).Error
		if err != nil {
			return err
		}
		if len(videos) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(videos))
		for _, v := range videos {
			ids = append(ids, v.ID)
		}

		var temps []entities.VideoTemp
		if err := tx.Where("id IN ?", ids).Find(&temps).Error; err != nil {
			return err
		}
		filenames := make(map[uuid.UUID]string, len(temps))
		for _, t := range temps {
			filenames[t.ID] = t.Filename
		}

		if err := tx.Where("video_id IN ?", ids).Delete(&entities.VideoChunk{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&entities.VideoTemp{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&entities.Video{}).Error; err != nil {
			return err
		}

		claimed = make([]entities.VideoToDelete, 0, len(ids))
		for _, id := range ids {
			item := entities.VideoToDelete{ID: id}
			if name, ok := filenames[id]; ok {
				item.Filename = &name
			}
			claimed = append(claimed, item)
		}
		return nil
	})
	if err != nil {
		return nil, fe.ErrStorage(fmt.Errorf("claim videos: %w", err))
	}
	return claimed, nil
}

func translateError(err error, format string, args ...interface{}) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return fe.ErrNotFound(fmt.Errorf(format, args...))
	}
	return fe.ErrStorage(err)
}
