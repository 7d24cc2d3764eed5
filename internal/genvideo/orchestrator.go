package genvideo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"veogen/internal/domain"
	"veogen/internal/infra"
	"veogen/internal/storage"
)

// OrchestratorOptions controls how the Orchestrator is configured.
type OrchestratorOptions struct {
	Service      JobService
	Poller       *Poller
	Bucket       string
	OutputPrefix string
	MaxVariants  int
	Logger       infra.Logger
}

// Orchestrator issues independent generation jobs for the requested variant
// count and aggregates their outcomes. Variants are fault-isolated: one
// failing never aborts its siblings.
type Orchestrator struct {
	svc          JobService
	poller       *Poller
	bucket       string
	outputPrefix string
	maxVariants  int
	logger       infra.Logger
	now          func() time.Time
}

// NewOrchestrator validates the options and builds an Orchestrator.
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	if opts.Service == nil {
		return nil, errors.New("genvideo: job service is required")
	}
	if opts.Poller == nil {
		return nil, errors.New("genvideo: poller is required")
	}
	if opts.Bucket == "" {
		return nil, errors.New("genvideo: bucket is required")
	}
	if opts.OutputPrefix == "" {
		opts.OutputPrefix = "generated-videos"
	}
	if opts.MaxVariants < 1 {
		opts.MaxVariants = 4
	}
	return &Orchestrator{
		svc:          opts.Service,
		poller:       opts.Poller,
		bucket:       opts.Bucket,
		outputPrefix: opts.OutputPrefix,
		maxVariants:  opts.MaxVariants,
		logger:       opts.Logger,
		now:          time.Now,
	}, nil
}

// Generate submits count independent jobs derived from template and drives
// each to completion. The returned BatchResult always holds one entry per
// variant, ordered by submission index regardless of completion order. The
// error is non-nil only when the request itself is invalid or every single
// variant failed; partial success is returned as-is.
func (o *Orchestrator) Generate(ctx context.Context, template domain.GenerationRequest, count int) (domain.BatchResult, error) {
	if count < 1 {
		return domain.BatchResult{}, domain.ErrNoVariants
	}
	if count > o.maxVariants {
		return domain.BatchResult{}, fmt.Errorf("%w: %d exceeds limit %d", domain.ErrTooManyVariants, count, o.maxVariants)
	}

	results := make([]domain.JobResult, count)
	var g errgroup.Group
	for i := 0; i < count; i++ {
		req := template
		req.OutputURI = storage.ObjectURI(o.bucket, uniqueKey(o.outputPrefix, o.now(), ""))
		idx := i
		g.Go(func() error {
			results[idx] = o.runVariant(ctx, idx, req)
			return nil
		})
	}
	// Workers record failures in their result slot and never return an error.
	_ = g.Wait()

	batch := domain.BatchResult{Results: results}
	if batch.AllFailed() {
		return batch, domain.ErrAllVariantsFailed
	}
	return batch, nil
}

func (o *Orchestrator) runVariant(ctx context.Context, idx int, req domain.GenerationRequest) domain.JobResult {
	handle, err := o.svc.Submit(ctx, req)
	if err != nil {
		o.logger.Error().Err(err).Int("variant", idx).Msg("genvideo: submit failed")
		return domain.JobResult{
			Variant: idx,
			Err:     &domain.SubmissionError{Variant: idx, Err: err},
		}
	}

	o.logger.Info().
		Int("variant", idx).
		Str("job_id", handle.ID()).
		Str("output", req.OutputURI).
		Msg("genvideo: job submitted")

	result := o.poller.Await(ctx, idx, handle)
	if result.Err != nil {
		o.logger.Error().Err(result.Err).Int("variant", idx).Msg("genvideo: variant failed")
	} else {
		o.logger.Info().Int("variant", idx).Int("videos", len(result.VideoURIs)).Msg("genvideo: variant completed")
	}
	return result
}
