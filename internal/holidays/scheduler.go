package holidays

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tartampluch/go-miti/internal/config"
)

// Job is a refresh task, usually Loader.Refresh.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	spec string
	job  Job
	cron *cron.Cron

	mu       sync.Mutex
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// NewScheduler validates spec (standard five-field cron syntax) and binds it
// to job.
func NewScheduler(spec string, job Job) (*Scheduler, error) {
	s := &Scheduler{spec: spec, job: job, cron: cron.New()}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("%s %q: %w", config.ErrSchedule, spec, err)
	}
	return s, nil
}

// Start runs the job once immediately, then on schedule, until Stop or until
// ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	slog.Info(config.MsgSchedulerStart,
		config.LogKeyComponent, config.CompScheduler,
		config.LogKeySchedule, s.spec,
	)
	s.cron.Start()
	go s.run()
	go func() {
		<-s.ctx.Done()
		s.Stop()
	}()
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.stopOnce.Do(func() {
		<-s.cron.Stop().Done()
		slog.Info(config.MsgSchedulerStop, config.LogKeyComponent, config.CompScheduler)
	})
}

// Next returns the next scheduled run, or the zero time when stopped.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) run() {
	s.mu.Lock()
	if s.running || s.ctx == nil || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx := s.ctx
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	log := slog.With(config.LogKeyComponent, config.CompScheduler)
	if err := s.job(ctx); err != nil {
		log.Error(config.ErrHolidayLoad, config.LogKeyError, err)
		return
	}
	log.Debug(config.MsgHolidaysLoaded, config.LogKeyDuration, time.Since(start).Milliseconds())
}
