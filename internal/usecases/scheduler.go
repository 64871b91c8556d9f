package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the janitor on a fixed interval, plus once at start.
// Overlapping runs are skipped.
type Scheduler struct {
	cron     *cron.Cron
	job      cron.Job
	interval time.Duration
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(cleanup CleanupService, interval time.Duration, log *zap.Logger) *Scheduler {
	log = log.Named("janitor")
	cronLog := cron.PrintfLogger(zap.NewStdLog(log))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     cron.New(cron.WithLogger(cronLog)),
		interval: interval,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.job = cron.NewChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)).
		Then(cron.FuncJob(func() {
			started := time.Now()
			resp := cleanup.RunOnce(s.ctx)
			s.log.Debug("janitor run finished",
				zap.String("status", resp.Status),
				zap.Int("videos", resp.VideosDeleted),
				zap.Int64("sessions", resp.SessionsPurged),
				zap.Duration("took", time.Since(started)))
		}))
	return s
}

func (s *Scheduler) Start() {
	s.cron.Schedule(cron.Every(s.interval), s.job)
	s.cron.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.job.Run()
	}()
	s.log.Info("janitor scheduled", zap.Duration("interval", s.interval))
}

// Stop waits for a running sweep to finish, or ctx to expire, then cancels
// whatever is left.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.wg.Wait()
		close(done)
	}()
	defer s.cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
