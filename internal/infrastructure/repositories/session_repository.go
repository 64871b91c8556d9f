package repositories

import (
	"context"
	"time"

	"video-hosting/internal/domain/entities"
	"video-hosting/internal/domain/repositories"
	fe "video-hosting/pkg/errors"

	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) repositories.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("accessed_at < ?", cutoff).Delete(&entities.Session{})
	if res.Error != nil {
		return 0, fe.ErrStorage(res.Error)
	}
	return res.RowsAffected, nil
}
