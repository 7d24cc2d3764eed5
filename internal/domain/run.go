package domain

import "time"

// RunStatus enumerates batch run lifecycle states.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// Run records one batch invocation: what was asked for and what came out.
// Video URIs are stored so signed links can be recomputed later; the links
// themselves are never persisted.
type Run struct {
	ID              string
	InputKind       InputKind
	Prompt          string
	ImageURI        string
	AspectRatio     string
	DurationSeconds int32
	Variants        int
	Status          RunStatus
	VideoURIs       []string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
