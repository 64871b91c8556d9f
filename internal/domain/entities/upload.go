package entities

import "github.com/google/uuid"

// VideoTemp is the transient upload session of a video that has not been
// transcoded yet. Filename is always "<video id>.<ext>".
type VideoTemp struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Filename string    `gorm:"column:filename;type:varchar(255);not null"`
}

func (VideoTemp) TableName() string {
	return "videos_temp"
}

// VideoChunk is one outstanding byte range of a source upload. End is
// inclusive. The row is deleted once its bytes are written.
type VideoChunk struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	VideoID   uuid.UUID `gorm:"column:video_id;type:uuid;not null;index"`
	ChunkSize int64     `gorm:"column:chunk_size;not null"`
	Start     int64     `gorm:"column:start_position;not null"`
	End       int64     `gorm:"column:end_position;not null"`
}

func (VideoChunk) TableName() string {
	return "video_chunks"
}

// ChunkCompletion is the outcome of removing a written chunk. Completed is
// true only for the caller whose removal moved the video to PROCESSING.
type ChunkCompletion struct {
	Remaining int64
	Completed bool
}
