package usecases

import (
	"context"
	"time"

	"video-hosting/internal/domain/dto"
	"video-hosting/internal/domain/repositories"
	"video-hosting/internal/infrastructure/storage"
	"video-hosting/internal/pkg/metrics"
	consts "video-hosting/pkg/constants"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type CleanupService interface {
	// SweepVideos reclaims videos that are DELETING or stuck before READY
	// for longer than the staleness window.
	SweepVideos(ctx context.Context) (int, error)
	SweepSessions(ctx context.Context) (int64, error)
	// RunOnce runs both sweeps; a failing sweep does not stop the other.
	RunOnce(ctx context.Context) dto.CleanupResponse
}

type CleanupSettings struct {
	StaleAfter time.Duration
	SessionTTL time.Duration
}

type cleanupService struct {
	videos   repositories.VideoRepository
	sessions repositories.SessionRepository
	blobs    repositories.BlobStore
	assets   repositories.AssetStore
	settings CleanupSettings
	metrics  *metrics.Pipeline
	log      *zap.Logger
	now      func() time.Time
}

func NewCleanupService(
	videos repositories.VideoRepository,
	sessions repositories.SessionRepository,
	blobs repositories.BlobStore,
	assets repositories.AssetStore,
	settings CleanupSettings,
	m *metrics.Pipeline,
	log *zap.Logger,
) CleanupService {
	return &cleanupService{
		videos:   videos,
		sessions: sessions,
		blobs:    blobs,
		assets:   assets,
		settings: settings,
		metrics:  m,
		log:      log.Named("janitor"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SweepVideos removes the rows first, in one claim, then the files. File
// errors are collected so one stubborn file does not keep the others.
func (s *cleanupService) SweepVideos(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.settings.StaleAfter)
	claimed, err := s.videos.ClaimVideosToDelete(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	var errs error
	for _, v := range claimed {
		id := v.ID.String()
		errs = multierr.Append(errs, s.assets.Delete(ctx, storage.VideoKey(id)))
		errs = multierr.Append(errs, s.assets.Delete(ctx, storage.ThumbnailKey(id)))
		if v.Filename != nil {
			errs = multierr.Append(errs, s.blobs.Delete(*v.Filename))
		}
	}

	s.metrics.JanitorVideos.Add(float64(len(claimed)))
	if len(claimed) > 0 {
		s.log.Info("reclaimed videos", zap.Int("count", len(claimed)), zap.Time("cutoff", cutoff))
	}
	return len(claimed), errs
}

func (s *cleanupService) SweepSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now().Add(-s.settings.SessionTTL))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("purged expired sessions", zap.Int64("count", n))
	}
	return n, nil
}

func (s *cleanupService) RunOnce(ctx context.Context) dto.CleanupResponse {
	resp := dto.CleanupResponse{Status: consts.StatusOK}

	videos, err := s.SweepVideos(ctx)
	resp.VideosDeleted = videos
	if err != nil {
		resp.Status = consts.StatusFailed
		s.metrics.JanitorSweepErrors.WithLabelValues("videos").Inc()
		s.log.Error("video sweep failed", zap.Error(err))
	}

	sessions, err := s.SweepSessions(ctx)
	resp.SessionsPurged = sessions
	if err != nil {
		resp.Status = consts.StatusFailed
		s.metrics.JanitorSweepErrors.WithLabelValues("sessions").Inc()
		s.log.Error("session sweep failed", zap.Error(err))
	}
	return resp
}
