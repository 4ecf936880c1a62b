package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnote/quillnote/internal/health"
	"github.com/quillnote/quillnote/internal/worker"
)

func TestNewScheduler_SkipsDisabledJobs(t *testing.T) {
	s := worker.NewScheduler(zerolog.Nop(),
		worker.Job{Name: "a", Interval: time.Minute, Run: func(context.Context) error { return nil }},
		worker.Job{Name: "disabled", Interval: 0, Run: func(context.Context) error { return nil }},
		worker.Job{Name: "no-run", Interval: time.Minute},
	)

	assert.Equal(t, []string{"a"}, s.Jobs())
}

func TestScheduler_RunOnce(t *testing.T) {
	boom := errors.New("boom")
	fail := true
	s := worker.NewScheduler(zerolog.Nop(), worker.Job{
		Name:     "flaky",
		Interval: time.Minute,
		Run: func(context.Context) error {
			if fail {
				return boom
			}
			return nil
		},
	})

	err := s.RunOnce(context.Background(), "flaky")
	assert.ErrorIs(t, err, boom)

	fail = false
	require.NoError(t, s.RunOnce(context.Background(), "flaky"))

	st := s.Stats()["flaky"]
	assert.Equal(t, int64(2), st.Runs)
	assert.Equal(t, int64(1), st.Failures)
	assert.Empty(t, st.LastError)
	assert.False(t, st.LastRunAt.IsZero())

	assert.ErrorIs(t, s.RunOnce(context.Background(), "missing"), worker.ErrUnknownJob)
}

func TestScheduler_RunAppliesTimeout(t *testing.T) {
	s := worker.NewScheduler(zerolog.Nop(), worker.Job{
		Name:     "slow",
		Interval: time.Hour,
		Timeout:  10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	err := s.RunOnce(context.Background(), "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	var runs atomic.Int32
	s := worker.NewScheduler(zerolog.Nop(), worker.Job{
		Name:     "tick",
		Interval: 5 * time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

type stubProber struct{ calls atomic.Int32 }

func (p *stubProber) CheckAll(context.Context) health.Report {
	p.calls.Add(1)
	return health.Report{Status: health.StatusDegraded}
}

type stubSweeper struct {
	deleted int64
	err     error
}

func (s stubSweeper) DeleteExpired(context.Context, time.Time) (int64, error) {
	return s.deleted, s.err
}

func TestHealthProbeJob(t *testing.T) {
	prober := &stubProber{}
	job := worker.HealthProbeJob(prober, time.Minute, zerolog.Nop())

	assert.Equal(t, worker.JobHealthProbe, job.Name)
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, int32(1), prober.calls.Load())
}

func TestSessionSweepJob(t *testing.T) {
	job := worker.SessionSweepJob(stubSweeper{deleted: 3}, time.Minute, zerolog.Nop())
	assert.NoError(t, job.Run(context.Background()))

	failing := worker.SessionSweepJob(stubSweeper{err: errors.New("db down")}, time.Minute, zerolog.Nop())
	assert.EqualError(t, failing.Run(context.Background()), "db down")
}
