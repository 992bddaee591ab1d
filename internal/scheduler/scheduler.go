package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Interval is a cron schedule that fires every d, with sub-second precision
// (cron.Every rounds to whole seconds).
type Interval time.Duration

func (i Interval) Next(t time.Time) time.Time {
	return t.Add(time.Duration(i))
}

// Scheduler runs periodic jobs on a cron engine. A Scheduler is single-use:
// once stopped it cannot be started again.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
}

func New(logger zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{logger: logger}

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// cronLogger routes cron's engine chatter to debug and its errors, including
// recovered job panics, to error.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// Every registers job to run every d. The job receives a context that is
// cancelled when the scheduler stops.
func (s *Scheduler) Every(d time.Duration, name string, job func(ctx context.Context)) error {
	if d <= 0 {
		return errors.New("scheduler: interval must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errors.New("scheduler: already stopped")
	}
	s.cron.Schedule(Interval(d), cron.FuncJob(func() {
		if s.ctx.Err() != nil {
			return
		}
		job(s.ctx)
	}))
	s.logger.Debug().Str("job", name).Dur("interval", d).Msg("job scheduled")
	return nil
}

// Start begins running the registered jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop halts the engine and waits for running jobs. Safe to call repeatedly.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	s.mu.Unlock()

	s.cancel()
	if started {
		<-s.cron.Stop().Done()
	}
}

// IsRunning reports whether jobs are being scheduled.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.stopped
}
