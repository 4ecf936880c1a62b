package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillnote/quillnote/internal/health"
)

// Job names.
const (
	JobHealthProbe  = "health-probe"
	JobSessionSweep = "session-sweep"
)

// HealthProber runs a full health check.
type HealthProber interface {
	CheckAll(ctx context.Context) health.Report
}

// SessionSweeper removes expired sessions.
type SessionSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// HealthProbeJob probes every backend service so the health gauges stay
// current between requests to /api/health.
func HealthProbeJob(prober HealthProber, interval time.Duration, logger zerolog.Logger) Job {
	return Job{
		Name:     JobHealthProbe,
		Interval: interval,
		Run: func(ctx context.Context) error {
			report := prober.CheckAll(ctx)
			if report.Status != health.StatusHealthy {
				logger.Warn().
					Str("status", string(report.Status)).
					Int64("latency_ms", report.LatencyMS).
					Msg("backend not healthy")
			}
			return nil
		},
	}
}

// SessionSweepJob deletes expired rows from the session store.
func SessionSweepJob(sweeper SessionSweeper, interval time.Duration, logger zerolog.Logger) Job {
	return Job{
		Name:     JobSessionSweep,
		Interval: interval,
		Run: func(ctx context.Context) error {
			n, err := sweeper.DeleteExpired(ctx, time.Now())
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info().Int64("deleted", n).Msg("expired sessions removed")
			}
			return nil
		},
	}
}
