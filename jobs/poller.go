package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	clienterrors "github.com/debtwise/go-debtwise-client/internal/errors"
	"github.com/debtwise/go-debtwise-client/rest"
)

const (
	// DefaultInterval between status polls.
	DefaultInterval = time.Second

	// DefaultMaxAttempts bounds how long a job is awaited. There is no
	// wall-clock timeout; the attempt ceiling is the timeout substitute.
	DefaultMaxAttempts = 60
)

// ProgressFunc observes each reported progress value (0-100).
type ProgressFunc func(progress int)

// Poller awaits a job's terminal state by polling its status at a fixed
// interval with a bounded number of attempts. Cancellation is cooperative:
// the context is checked once per iteration, an in-flight call is never
// aborted mid-request.
type Poller struct {
	jobs        *Service
	interval    time.Duration
	maxAttempts int
	onProgress  ProgressFunc
	sleep       func(ctx context.Context, d time.Duration)
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithMaxAttempts(n int) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

func WithProgress(fn ProgressFunc) PollerOption {
	return func(p *Poller) { p.onProgress = fn }
}

// withSleep overrides the waiting primitive (for tests).
func withSleep(sleep func(ctx context.Context, d time.Duration)) PollerOption {
	return func(p *Poller) { p.sleep = sleep }
}

func NewPoller(jobs *Service, options ...PollerOption) *Poller {
	poller := &Poller{
		jobs:        jobs,
		interval:    DefaultInterval,
		maxAttempts: DefaultMaxAttempts,
		sleep:       sleepContext,
	}
	for _, opt := range options {
		opt(poller)
	}
	return poller
}

// Await polls the job until it reaches a terminal state and returns the
// full record. A completed status costs one extra round-trip to fetch the
// result payload, which the status endpoint may omit for size.
//
// Failure modes: ErrPollingCancelled when the context is done,
// ErrJobFailed with the job's own message, ErrPollingTimeout when the
// attempt budget runs out. Transport-level poll failures are retried within
// the same budget; a job-reported failure never is.
func (p *Poller) Await(ctx context.Context, jobID string) (*Job, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(clienterrors.ErrPollingCancelled, "job %s: %v", jobID, err)
		}

		info, err := p.jobs.Status(ctx, jobID)
		if err != nil {
			if !retryablePollError(err) || attempt == p.maxAttempts {
				return nil, errors.Wrapf(err, "[Poller.Await] poll job %s", jobID)
			}
			log.Debug().Err(err).Str("job_id", jobID).Int("attempt", attempt).Msg("Transient poll failure, retrying")
			p.sleep(ctx, p.interval)
			continue
		}

		switch info.Status {
		case StatusCompleted:
			job, err := p.jobs.Get(ctx, jobID)
			if err != nil {
				return nil, errors.Wrapf(err, "[Poller.Await] fetch result for job %s", jobID)
			}
			return job, nil

		case StatusFailed:
			message := info.Error
			if message == "" {
				message = "job reported failure without a message"
			}
			return nil, errors.Wrapf(clienterrors.ErrJobFailed, "job %s: %s", jobID, message)

		default:
			if p.onProgress != nil && info.Progress != nil {
				p.onProgress(*info.Progress)
			}
			if attempt < p.maxAttempts {
				p.sleep(ctx, p.interval)
			}
		}
	}
	return nil, errors.Wrapf(clienterrors.ErrPollingTimeout, "job %s not terminal after %d attempts", jobID, p.maxAttempts)
}

// retryablePollError reports whether a poll failure was transport-level.
// HTTP-status failures (the job endpoint rejecting the request) propagate
// immediately; only network failures are worth retrying.
func retryablePollError(err error) bool {
	return rest.ErrorStatus(err) == 0
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
