package domain

import "time"

// InputKind discriminates what a generation request was seeded with.
type InputKind string

const (
	InputKindText  InputKind = "text"
	InputKindImage InputKind = "image"
)

// ImageInput references an already-uploaded source image in object storage.
type ImageInput struct {
	StorageURI string
	MIMEType   string
}

// GenerationRequest describes one video generation job. Exactly one of
// Prompt or Image is set. OutputURI is the storage prefix the service writes
// results under; the orchestrator derives a fresh one per variant, so a
// request is never reused across jobs.
type GenerationRequest struct {
	Prompt          string
	Image           *ImageInput
	AspectRatio     string
	DurationSeconds int32
	OutputURI       string
}

// Kind reports whether the request is image- or text-seeded.
func (r GenerationRequest) Kind() InputKind {
	if r.Image != nil {
		return InputKindImage
	}
	return InputKindText
}

// JobResult is the terminal outcome of one generation job. Err is nil on
// success; VideoURIs holds the produced video locations in the order the
// service reported them.
type JobResult struct {
	Variant   int
	VideoURIs []string
	Err       error
}

// Succeeded reports whether the job produced a result.
func (r JobResult) Succeeded() bool {
	return r.Err == nil
}

// BatchResult aggregates the outcomes of one batch invocation. Results always
// has one entry per requested variant, in submission order; failed variants
// keep their slot so every failure stays attributable to its index.
type BatchResult struct {
	Results []JobResult
}

// VideoURIs flattens the succeeded variants' video URIs, preserving
// submission order across variants.
func (b BatchResult) VideoURIs() []string {
	var uris []string
	for _, r := range b.Results {
		if r.Succeeded() {
			uris = append(uris, r.VideoURIs...)
		}
	}
	return uris
}

// AllFailed reports whether no variant produced a video.
func (b BatchResult) AllFailed() bool {
	for _, r := range b.Results {
		if r.Succeeded() {
			return false
		}
	}
	return true
}

// DownloadLink is a time-limited public URL for one stored video. Links are
// derived on demand and never persisted. Err is set when signing failed for
// this entry; the entry still occupies its slot in the published sequence.
type DownloadLink struct {
	VideoURI  string
	SignedURL string
	ExpiresAt time.Time
	Err       error
}
