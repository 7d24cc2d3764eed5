package genvideo

import (
	"context"
	"time"

	"veogen/internal/domain"
)

// JobHandle identifies one in-flight generation job. Implementations keep
// whatever service-side operation token they need behind it; callers only
// ever see the ID.
type JobHandle interface {
	ID() string
}

// StatusSnapshot is one observation of a job's state.
type StatusSnapshot struct {
	Done      bool
	Succeeded bool
	VideoURIs []string
	Reason    string
}

// JobService is the generation service surface the workflow depends on.
type JobService interface {
	Submit(ctx context.Context, req domain.GenerationRequest) (JobHandle, error)
	PollStatus(ctx context.Context, handle JobHandle) (StatusSnapshot, error)
}

// ObjectStore is the storage surface the workflow depends on: storing input
// images and signing download URLs for generated videos.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
