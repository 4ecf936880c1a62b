// Package worker runs periodic maintenance jobs alongside the API server.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnknownJob is returned by RunOnce for an unregistered job name.
var ErrUnknownJob = errors.New("unknown job")

// Job is a unit of work run on a fixed interval.
type Job struct {
	// Name identifies the job in logs and stats.
	Name string

	// Interval between runs. The first run happens immediately.
	Interval time.Duration

	// Timeout bounds a single run.
	// Default: the interval
	Timeout time.Duration

	Run func(ctx context.Context) error
}

// JobStats tracks the runs of one job.
type JobStats struct {
	Runs         int64
	Failures     int64
	LastRunAt    time.Time
	LastDuration time.Duration
	LastError    string
}

// Scheduler runs jobs, each on its own goroutine and ticker.
type Scheduler struct {
	jobs   map[string]Job
	order  []string
	logger zerolog.Logger

	mu    sync.RWMutex
	stats map[string]JobStats
}

// NewScheduler creates a scheduler. Jobs with a non-positive interval or no
// Run func are skipped.
func NewScheduler(logger zerolog.Logger, jobs ...Job) *Scheduler {
	s := &Scheduler{
		jobs:   make(map[string]Job, len(jobs)),
		logger: logger,
		stats:  make(map[string]JobStats, len(jobs)),
	}
	for _, job := range jobs {
		if job.Interval <= 0 || job.Run == nil {
			logger.Debug().Str("job", job.Name).Msg("job disabled")
			continue
		}
		if job.Timeout <= 0 {
			job.Timeout = job.Interval
		}
		if _, dup := s.jobs[job.Name]; !dup {
			s.order = append(s.order, job.Name)
		}
		s.jobs[job.Name] = job
	}
	return s
}

// Jobs returns the names of the scheduled jobs in registration order.
func (s *Scheduler) Jobs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Run starts every job and blocks until ctx is cancelled and all in-flight
// runs have returned.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, name := range s.order {
		job := s.jobs[name]
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.loop(ctx, job)
		}()
	}

	s.logger.Info().Strs("jobs", s.order).Msg("worker started")
	wg.Wait()
	s.logger.Info().Msg("worker stopped")
}

// RunOnce runs the named job immediately.
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, job)
}

// Stats returns a copy of the stats of every job that has run.
func (s *Scheduler) Stats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]JobStats, len(s.stats))
	for name, st := range s.stats {
		out[name] = st
	}
	return out
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		_ = s.execute(ctx, job) //nolint:errcheck // recorded in stats and logged
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	runCtx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	start := time.Now()
	err := job.Run(runCtx)
	duration := time.Since(start)

	s.mu.Lock()
	st := s.stats[job.Name]
	st.Runs++
	st.LastRunAt = start
	st.LastDuration = duration
	st.LastError = ""
	if err != nil {
		st.Failures++
		st.LastError = err.Error()
	}
	s.stats[job.Name] = st
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Str("job", job.Name).Dur("duration", duration).Msg("job failed")
		return err
	}
	s.logger.Debug().Str("job", job.Name).Dur("duration", duration).Msg("job completed")
	return nil
}
