package usecases

import (
	"context"
	"fmt"
	"io"
	"time"

	"video-hosting/internal/domain/dto"
	"video-hosting/internal/domain/entities"
	"video-hosting/internal/domain/repositories"
	"video-hosting/internal/infrastructure/storage"
	"video-hosting/internal/pkg/metrics"
	consts "video-hosting/pkg/constants"
	"video-hosting/pkg/errors"
	"video-hosting/pkg/file"
	"video-hosting/pkg/helper"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultStreamWindow is served when a range request leaves its end open.
const DefaultStreamWindow int64 = 1 << 20

// Enqueuer hands a fully uploaded video to the transcode pipeline. It never
// reports failure to the caller.
type Enqueuer interface {
	Enqueue(ctx context.Context, videoID string)
}

type UploadSettings struct {
	ChunkSize       int64
	MaxFileSize     int64
	Concurrency     int
	StaleAfter      time.Duration
	JanitorInterval time.Duration
}

type UploadService interface {
	CreateUpload(ctx context.Context, req dto.CreateUploadRequestDTO) (*dto.CreateUploadResponse, error)
	UploadChunk(ctx context.Context, req dto.UploadChunkRequestDTO, data []byte) (*dto.UploadChunkResponse, error)
	CreateUploadSingleShot(ctx context.Context, name string, isPremium bool, extension string, r io.Reader) (*dto.SingleShotUploadResponse, error)
	DeleteVideo(ctx context.Context, videoID string) (*dto.DeleteVideoResponse, error)
	GetUploadStatus(ctx context.Context, videoID string) (*dto.UploadStatusResponse, error)
	GetThumbnail(ctx context.Context, videoID string) ([]byte, error)
	StreamVideo(ctx context.Context, videoID, rangeHeader string) (*dto.StreamChunk, error)
	Settings() dto.PipelineSettingsResponse
}

type uploadService struct {
	videos   repositories.VideoRepository
	chunks   repositories.ChunkRepository
	blobs    repositories.BlobStore
	assets   repositories.AssetStore
	enqueuer Enqueuer
	settings UploadSettings
	metrics  *metrics.Pipeline
	log      *zap.Logger
	now      func() time.Time
}

func NewUploadService(
	videos repositories.VideoRepository,
	chunks repositories.ChunkRepository,
	blobs repositories.BlobStore,
	assets repositories.AssetStore,
	enqueuer Enqueuer,
	settings UploadSettings,
	m *metrics.Pipeline,
	log *zap.Logger,
) UploadService {
	return &uploadService{
		videos:   videos,
		chunks:   chunks,
		blobs:    blobs,
		assets:   assets,
		enqueuer: enqueuer,
		settings: settings,
		metrics:  m,
		log:      log.Named("upload"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *uploadService) CreateUpload(ctx context.Context, req dto.CreateUploadRequestDTO) (*dto.CreateUploadResponse, error) {
	name, err := helper.ValidateName(req.Name)
	if err != nil {
		return nil, errors.ErrInvalidInput(err)
	}
	if err := s.checkSize(req.TotalSize); err != nil {
		return nil, err
	}
	if !file.IsVideoExtension(req.Extension) {
		return nil, errors.ErrInvalidInput(fmt.Errorf("unsupported extension %q", req.Extension))
	}

	videoID := uuid.New()
	filename := file.SourceFilename(videoID.String(), req.Extension)
	if err := s.blobs.Preallocate(filename, req.TotalSize); err != nil {
		return nil, err
	}

	plan := PlanChunks(videoID, req.TotalSize, s.settings.ChunkSize)
	video := &entities.Video{
		ID:        videoID,
		Name:      name,
		IsPremium: req.IsPremium,
		Status:    consts.VideoStatusPending,
		CreatedAt: s.now(),
	}
	if err := s.videos.CreateUpload(ctx, video, &entities.VideoTemp{ID: videoID, Filename: filename}, plan); err != nil {
		_ = s.blobs.Delete(filename)
		return nil, err
	}

	s.log.Info("upload created",
		zap.String("video_id", videoID.String()),
		zap.Int64("size", req.TotalSize),
		zap.Int("chunks", len(plan)))

	resp := &dto.CreateUploadResponse{
		VideoID:   videoID.String(),
		ChunkSize: s.settings.ChunkSize,
		Chunks:    make([]dto.ChunkDTO, 0, len(plan)),
	}
	for _, c := range plan {
		resp.Chunks = append(resp.Chunks, dto.ChunkDTO{
			ID:        c.ID.String(),
			ChunkSize: c.ChunkSize,
			Start:     c.Start,
			End:       c.End,
		})
	}
	return resp, nil
}

// UploadChunk writes one chunk into the preallocated source file. Chunks may
// arrive in any order and concurrently; the one that completes the set
// enqueues the video.
func (s *uploadService) UploadChunk(ctx context.Context, req dto.UploadChunkRequestDTO, data []byte) (*dto.UploadChunkResponse, error) {
	videoID, err := uuid.Parse(req.VideoID)
	if err != nil {
		return nil, errors.ErrInvalidInput(fmt.Errorf("video id: %w", err))
	}
	chunkID, err := uuid.Parse(req.ChunkID)
	if err != nil {
		return nil, errors.ErrInvalidInput(fmt.Errorf("chunk id: %w", err))
	}

	video, err := s.videos.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !consts.IsUploadable(video.Status) {
		return nil, errors.ErrInvalidState(fmt.Errorf("video %s is %s", videoID, video.Status))
	}

	chunk, err := s.chunks.GetChunk(ctx, chunkID, videoID)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != chunk.ChunkSize {
		return nil, errors.ErrInvalidChunk(fmt.Errorf("chunk %s carries %d bytes, want %d", chunkID, len(data), chunk.ChunkSize))
	}
	if err := file.ValidateHash(data, req.ChunkHash); err != nil {
		return nil, errors.ErrInvalidChunk(err)
	}

	filename, err := s.videos.GetVideoFilename(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := s.blobs.WriteRange(filename, chunk.Start, data); err != nil {
		return nil, err
	}
	s.metrics.ChunksWritten.Inc()

	done, err := s.chunks.CompleteChunk(ctx, videoID, chunkID)
	if err != nil {
		return nil, err
	}

	status := consts.VideoStatusUploading
	if done.Completed {
		status = consts.VideoStatusProcessing
		s.metrics.UploadsCompleted.Inc()
		s.log.Info("upload complete, queued for transcode", zap.String("video_id", req.VideoID))
		s.enqueuer.Enqueue(context.WithoutCancel(ctx), videoID.String())
	}

	return &dto.UploadChunkResponse{
		Status:          consts.StatusOK,
		VideoID:         videoID.String(),
		ChunkID:         chunkID.String(),
		RemainingChunks: done.Remaining,
		VideoStatus:     status,
	}, nil
}

// CreateUploadSingleShot stores a whole file from one request body and
// queues it once the body is on disk. The video stays PENDING while the body
// streams so restart recovery never picks up a partial source.
func (s *uploadService) CreateUploadSingleShot(ctx context.Context, name string, isPremium bool, extension string, r io.Reader) (*dto.SingleShotUploadResponse, error) {
	name, err := helper.ValidateName(name)
	if err != nil {
		return nil, errors.ErrInvalidInput(err)
	}
	if !file.IsVideoExtension(extension) {
		return nil, errors.ErrInvalidInput(fmt.Errorf("unsupported extension %q", extension))
	}

	videoID := uuid.New()
	filename := file.SourceFilename(videoID.String(), extension)
	video := &entities.Video{
		ID:        videoID,
		Name:      name,
		IsPremium: isPremium,
		Status:    consts.VideoStatusPending,
		CreatedAt: s.now(),
	}
	if err := s.videos.CreateUpload(ctx, video, &entities.VideoTemp{ID: videoID, Filename: filename}, nil); err != nil {
		return nil, err
	}

	n, err := s.blobs.WriteStream(filename, io.LimitReader(r, s.settings.MaxFileSize+1))
	if err == nil && n == 0 {
		err = errors.ErrInvalidSize(fmt.Errorf("empty upload"))
	}
	if err == nil && n > s.settings.MaxFileSize {
		err = errors.ErrInvalidSize(fmt.Errorf("upload exceeds %d bytes", s.settings.MaxFileSize))
	}
	if err != nil {
		// the janitor reclaims the row and whatever reached the disk
		if statusErr := s.videos.UpdateStatus(ctx, videoID, consts.VideoStatusDeleting); statusErr != nil {
			s.log.Error("mark failed single-shot upload", zap.String("video_id", videoID.String()), zap.Error(statusErr))
		}
		if errors.Code(err) == errors.CodeInternal {
			err = errors.ErrStorage(err)
		}
		return nil, err
	}

	moved, err := s.videos.AdvanceStatus(ctx, videoID, consts.VideoStatusPending, consts.VideoStatusProcessing)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, errors.ErrInvalidState(fmt.Errorf("video %s was deleted during upload", videoID))
	}

	s.log.Info("single-shot upload stored", zap.String("video_id", videoID.String()), zap.Int64("size", n))
	s.metrics.UploadsCompleted.Inc()
	s.enqueuer.Enqueue(context.WithoutCancel(ctx), videoID.String())

	return &dto.SingleShotUploadResponse{Status: consts.StatusQueued, VideoID: videoID.String()}, nil
}

// DeleteVideo only flags the video; files and rows go with the next janitor
// sweep.
func (s *uploadService) DeleteVideo(ctx context.Context, videoID string) (*dto.DeleteVideoResponse, error) {
	id, err := uuid.Parse(videoID)
	if err != nil {
		return nil, errors.ErrInvalidInput(fmt.Errorf("video id: %w", err))
	}
	if err := s.videos.UpdateStatus(ctx, id, consts.VideoStatusDeleting); err != nil {
		return nil, err
	}
	s.log.Info("video marked for deletion", zap.String("video_id", videoID))
	return &dto.DeleteVideoResponse{Status: consts.StatusAccepted, VideoID: id.String()}, nil
}

func (s *uploadService) GetUploadStatus(ctx context.Context, videoID string) (*dto.UploadStatusResponse, error) {
	id, err := uuid.Parse(videoID)
	if err != nil {
		return nil, errors.ErrInvalidInput(fmt.Errorf("video id: %w", err))
	}
	video, err := s.videos.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	remaining, err := s.chunks.GetAllChunks(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.UploadStatusResponse{
		VideoID:         video.ID.String(),
		Name:            video.Name,
		IsPremium:       video.IsPremium,
		Status:          video.Status,
		RemainingChunks: len(remaining),
		CreatedAt:       video.CreatedAt,
		UploadedAt:      video.UploadedAt,
	}, nil
}

func (s *uploadService) GetThumbnail(ctx context.Context, videoID string) ([]byte, error) {
	id, err := uuid.Parse(videoID)
	if err != nil {
		return nil, errors.ErrInvalidInput(fmt.Errorf("video id: %w", err))
	}
	if _, err := s.videos.GetVideo(ctx, id); err != nil {
		return nil, err
	}
	return s.assets.Read(ctx, storage.ThumbnailKey(id.String()))
}

// StreamVideo serves a byte range of a READY video. An open-ended range is
// capped at DefaultStreamWindow bytes.
func (s *uploadService) StreamVideo(ctx context.Context, videoID, rangeHeader string) (*dto.StreamChunk, error) {
	id, err := uuid.Parse(videoID)
	if err != nil {
		return nil, errors.ErrInvalidInput(fmt.Errorf("video id: %w", err))
	}
	video, err := s.videos.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if video.Status != consts.VideoStatusReady {
		return nil, errors.ErrNotFound(fmt.Errorf("video %s is not ready", videoID))
	}

	start, end, err := helper.ParseRange(rangeHeader)
	if err != nil {
		return nil, errors.ErrInvalidInput(err)
	}
	if end < 0 || end-start+1 > DefaultStreamWindow {
		end = start + DefaultStreamWindow - 1
	}

	data, total, err := s.assets.ReadRange(ctx, storage.VideoKey(id.String()), start, end)
	if err != nil {
		return nil, err
	}
	return &dto.StreamChunk{
		Data:   data,
		Start:  start,
		End:    start + int64(len(data)) - 1,
		Length: total,
	}, nil
}

func (s *uploadService) Settings() dto.PipelineSettingsResponse {
	return dto.PipelineSettingsResponse{
		ChunkSize:            s.settings.ChunkSize,
		TranscodeConcurrency: s.settings.Concurrency,
		StaleAfter:           s.settings.StaleAfter.String(),
		JanitorInterval:      s.settings.JanitorInterval.String(),
	}
}

func (s *uploadService) checkSize(size int64) error {
	if size <= 0 {
		return errors.ErrInvalidSize(fmt.Errorf("size must be positive, got %d", size))
	}
	if size > s.settings.MaxFileSize {
		return errors.ErrInvalidSize(fmt.Errorf("size %d exceeds limit %d", size, s.settings.MaxFileSize))
	}
	return nil
}
