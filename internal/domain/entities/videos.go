package entities

import (
	"time"

	"github.com/google/uuid"
)

type Video struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name       string     `gorm:"column:name;type:varchar(255);not null"`
	IsPremium  bool       `gorm:"column:is_premium;not null;default:false"`
	Status     string     `gorm:"column:status;type:varchar(20);not null;index"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null;autoCreateTime"`
	UploadedAt *time.Time `gorm:"column:uploaded_at"` // set when the video becomes READY
}

func (Video) TableName() string {
	return "videos"
}

// VideoToDelete is a reclaimed video together with the source file it may
// still have on disk.
type VideoToDelete struct {
	ID       uuid.UUID
	Filename *string
}
