package entities

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID     string    `gorm:"column:user_id;type:varchar(255);not null"`
	AccessedAt time.Time `gorm:"column:accessed_at;not null"`
}

func (Session) TableName() string {
	return "sessions"
}
