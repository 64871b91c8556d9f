package dto

import "time"

type CreateUploadRequestDTO struct {
	Name      string `json:"name"`
	IsPremium bool   `json:"isPremium"`
	TotalSize int64  `json:"bufferSize"`
	Extension string `json:"extension"`
}

type ChunkDTO struct {
	ID        string `json:"id"`
	ChunkSize int64  `json:"chunkSize"`
	Start     int64  `json:"start"`
	End       int64  `json:"end"`
}

type CreateUploadResponse struct {
	VideoID   string     `json:"id"`
	ChunkSize int64      `json:"chunkSize"`
	Chunks    []ChunkDTO `json:"chunks"`
}

type UploadChunkRequestDTO struct {
	VideoID   string `json:"video_id" form:"video_id"`
	ChunkID   string `json:"chunkId" form:"chunkId"`
	ChunkHash string `json:"chunkHash" form:"chunkHash"` // optional hex SHA-256
}

type UploadChunkResponse struct {
	Status          string `json:"status"`
	VideoID         string `json:"id"`
	ChunkID         string `json:"chunkId"`
	RemainingChunks int64  `json:"remainingChunks"`
	VideoStatus     string `json:"videoStatus"`
}

type SingleShotUploadResponse struct {
	Status  string `json:"status"`
	VideoID string `json:"id"`
}

type DeleteVideoResponse struct {
	Status  string `json:"status"`
	VideoID string `json:"id"`
}

type UploadStatusResponse struct {
	VideoID         string     `json:"id"`
	Name            string     `json:"name"`
	IsPremium       bool       `json:"isPremium"`
	Status          string     `json:"status"`
	RemainingChunks int        `json:"remainingChunks"`
	CreatedAt       time.Time  `json:"createdAt"`
	UploadedAt      *time.Time `json:"uploadedAt,omitempty"`
}

// StreamChunk is a byte range of a processed video.
type StreamChunk struct {
	Data   []byte
	Start  int64
	End    int64
	Length int64
}

type PipelineSettingsResponse struct {
	ChunkSize            int64  `json:"chunkSize"`
	TranscodeConcurrency int    `json:"transcodeConcurrency"`
	StaleAfter           string `json:"staleAfter"`
	JanitorInterval      string `json:"janitorInterval"`
}

type CleanupResponse struct {
	Status         string `json:"status"`
	VideosDeleted  int    `json:"videosDeleted"`
	SessionsPurged int64  `json:"sessionsPurged"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
