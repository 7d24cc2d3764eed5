package genvideo

import (
	"context"
	"time"

	"veogen/internal/domain"
	"veogen/internal/infra"
)

// ProgressFunc is called after every status query while a job is in flight.
// It is advisory feedback for the caller's UI and has no effect on the
// result.
type ProgressFunc func(jobID string, polls int)

// Poller drives one job handle to its terminal state by querying the service
// at a fixed interval. No backoff and no retry cap: polling runs until the
// service reports the job done or the context is cancelled.
type Poller struct {
	svc      JobService
	interval time.Duration
	logger   infra.Logger

	// OnProgress, when set, receives a notification per poll iteration.
	OnProgress ProgressFunc
}

// NewPoller constructs a Poller querying svc every interval.
func NewPoller(svc JobService, interval time.Duration, logger infra.Logger) *Poller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Poller{svc: svc, interval: interval, logger: logger}
}

// Await blocks until the job behind handle reaches a terminal state and
// returns its outcome. Errors never escape: transport failures and service-
// reported failures both come back as a failed JobResult for the given
// variant index.
func (p *Poller) Await(ctx context.Context, variant int, handle JobHandle) domain.JobResult {
	polls := 0
	for {
		snap, err := p.svc.PollStatus(ctx, handle)
		if err != nil {
			return domain.JobResult{
				Variant: variant,
				Err:     &domain.PollError{Variant: variant, JobID: handle.ID(), Err: err},
			}
		}
		polls++
		if p.OnProgress != nil {
			p.OnProgress(handle.ID(), polls)
		}

		if snap.Done {
			if snap.Succeeded {
				return domain.JobResult{Variant: variant, VideoURIs: snap.VideoURIs}
			}
			reason := snap.Reason
			if reason == "" {
				reason = "service reported no result"
			}
			return domain.JobResult{
				Variant: variant,
				Err:     &domain.GenerationFailed{Variant: variant, Reason: reason},
			}
		}

		p.logger.Debug().
			Str("job_id", handle.ID()).
			Int("polls", polls).
			Msg("genvideo: still processing")

		select {
		case <-ctx.Done():
			return domain.JobResult{
				Variant: variant,
				Err:     &domain.PollError{Variant: variant, JobID: handle.ID(), Err: ctx.Err()},
			}
		case <-time.After(p.interval):
		}
	}
}
