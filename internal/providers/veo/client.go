package veo

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"veogen/internal/domain"
	"veogen/internal/genvideo"
	"veogen/internal/infra"
)

const DefaultModel = "veo-2.0-generate-001"

// Client submits video generation requests to Veo on Vertex AI and exposes
// the long-running operation behind an opaque job handle.
type Client struct {
	client *genai.Client
	model  string
	logger infra.Logger
}

// NewClient wraps an initialized genai client. model falls back to
// DefaultModel when empty.
func NewClient(client *genai.Client, model string, logger infra.Logger) (*Client, error) {
	if client == nil {
		return nil, errors.New("veo: genai client is required")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: client, model: model, logger: logger}, nil
}

// Model returns the model identifier requests are submitted against.
func (c *Client) Model() string { return c.model }

// operationHandle keeps the service-side operation token. The poller refreshes
// it in place on every status query; it is never shared across jobs.
type operationHandle struct {
	op *genai.GenerateVideosOperation
}

func (h *operationHandle) ID() string { return h.op.Name }

// Submit starts one generation job and returns its handle.
func (c *Client) Submit(ctx context.Context, req domain.GenerationRequest) (genvideo.JobHandle, error) {
	cfg := &genai.GenerateVideosConfig{
		AspectRatio:  req.AspectRatio,
		OutputGCSURI: req.OutputURI,
	}
	if req.DurationSeconds > 0 {
		duration := req.DurationSeconds
		cfg.DurationSeconds = &duration
	}

	var image *genai.Image
	if req.Image != nil {
		image = &genai.Image{
			GCSURI:   req.Image.StorageURI,
			MIMEType: req.Image.MIMEType,
		}
	}

	op, err := c.client.Models.GenerateVideos(ctx, c.model, req.Prompt, image, cfg)
	if err != nil {
		return nil, fmt.Errorf("veo: generate videos: %w", err)
	}

	c.logger.Debug().
		Str("operation", op.Name).
		Str("model", c.model).
		Str("kind", string(req.Kind())).
		Msg("veo: operation started")
	return &operationHandle{op: op}, nil
}

// PollStatus refreshes the operation and translates its state into a
// StatusSnapshot.
func (c *Client) PollStatus(ctx context.Context, handle genvideo.JobHandle) (genvideo.StatusSnapshot, error) {
	h, ok := handle.(*operationHandle)
	if !ok {
		return genvideo.StatusSnapshot{}, fmt.Errorf("veo: foreign job handle %T", handle)
	}

	op, err := c.client.Operations.GetVideosOperation(ctx, h.op, nil)
	if err != nil {
		return genvideo.StatusSnapshot{}, fmt.Errorf("veo: get operation: %w", err)
	}
	h.op = op

	if !op.Done {
		return genvideo.StatusSnapshot{}, nil
	}
	if len(op.Error) > 0 {
		return genvideo.StatusSnapshot{Done: true, Reason: operationErrorMessage(op.Error)}, nil
	}
	if op.Response == nil {
		return genvideo.StatusSnapshot{Done: true, Reason: "operation finished without a response"}, nil
	}

	var uris []string
	for _, generated := range op.Response.GeneratedVideos {
		if generated == nil || generated.Video == nil || generated.Video.URI == "" {
			continue
		}
		uris = append(uris, generated.Video.URI)
	}
	if len(uris) == 0 {
		return genvideo.StatusSnapshot{Done: true, Reason: "response contained no videos"}, nil
	}
	return genvideo.StatusSnapshot{Done: true, Succeeded: true, VideoURIs: uris}, nil
}

func operationErrorMessage(operr map[string]any) string {
	if msg, ok := operr["message"].(string); ok && msg != "" {
		return msg
	}
	return fmt.Sprintf("operation error: %v", operr)
}

var _ genvideo.JobService = (*Client)(nil)
