package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrNoVariants        = errors.New("no variants requested")
	ErrTooManyVariants   = errors.New("too many variants requested")
	ErrAllVariantsFailed = errors.New("all variants failed")
	ErrBucketInit        = errors.New("bucket initialization failed")
)

// UploadError wraps a failure to store input bytes at a given key.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %q: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// SubmissionError wraps a failure to submit one variant's generation request.
type SubmissionError struct {
	Variant int
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("variant %d: submit: %v", e.Variant, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// PollError wraps a transport or protocol failure while querying job status.
type PollError struct {
	Variant int
	JobID   string
	Err     error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("variant %d: poll job %s: %v", e.Variant, e.JobID, e.Err)
}

func (e *PollError) Unwrap() error { return e.Err }

// GenerationFailed marks a job the service reported as done without a result.
type GenerationFailed struct {
	Variant int
	Reason  string
}

func (e *GenerationFailed) Error() string {
	return fmt.Sprintf("variant %d: generation failed: %s", e.Variant, e.Reason)
}

// LinkError wraps a failure to sign a download URL for one video.
type LinkError struct {
	URI string
	Err error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("sign %q: %v", e.URI, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }
