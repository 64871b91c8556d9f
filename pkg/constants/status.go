package constants

// Video lifecycle statuses. A video only moves forward through
// PENDING -> UPLOADING -> PROCESSING -> READY; DELETING may be set from any
// status and is reclaimed by the janitor.
const (
	VideoStatusPending    = "PENDING"
	VideoStatusUploading  = "UPLOADING"
	VideoStatusProcessing = "PROCESSING"
	VideoStatusReady      = "READY"
	VideoStatusDeleting   = "DELETING"
)

const (
	StatusOK       = "ok"
	StatusQueued   = "queued"
	StatusAccepted = "accepted"
	StatusFailed   = "failed"
)

// Driver names accepted by QUEUE_DRIVER and STORAGE_DRIVER.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverLocal  = "local"
	DriverS3     = "s3"
)

const (
	TranscodeQueueKey = "transcode_queue"
	ProcessedExt      = ".mp4"
	ThumbnailExt      = ".jpg"
)

// IsUploadable reports whether chunks may still be written for a video in
// the given status.
func IsUploadable(status string) bool {
	return status == VideoStatusPending || status == VideoStatusUploading
}
