package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"veogen/internal/domain"
)

type generateRequest struct {
	Prompt          string `json:"prompt"`
	ImageURI        string `json:"image_uri"`
	MIMEType        string `json:"mime_type"`
	AspectRatio     string `json:"aspect_ratio"`
	DurationSeconds int32  `json:"duration_seconds"`
	Variants        int    `json:"variants"`
}

type runResponse struct {
	RunID     string   `json:"run_id"`
	Status    string   `json:"status"`
	InputKind string   `json:"input_kind"`
	Variants  int      `json:"variants"`
	VideoURIs []string `json:"video_uris,omitempty"`
	Error     string   `json:"error,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

// GenerationsCreate starts one batch run: it records the run, launches the
// blocking orchestration in the background, and answers immediately with the
// run id to poll.
func (a *App) GenerationsCreate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	req.Prompt = strings.TrimSpace(req.Prompt)
	req.ImageURI = strings.TrimSpace(req.ImageURI)
	if (req.Prompt == "") == (req.ImageURI == "") {
		a.error(w, http.StatusBadRequest, "bad_request", "exactly one of prompt or image_uri is required")
		return
	}
	if req.ImageURI != "" && req.MIMEType == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "mime_type is required with image_uri")
		return
	}
	if req.Variants == 0 {
		req.Variants = 1
	}
	if req.Variants < 1 {
		a.error(w, http.StatusBadRequest, "bad_request", "variants must be positive")
		return
	}
	if a.MaxVariants > 0 && req.Variants > a.MaxVariants {
		a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("variants must not exceed %d", a.MaxVariants))
		return
	}
	if req.AspectRatio == "" {
		req.AspectRatio = "16:9"
	}

	template := domain.GenerationRequest{
		Prompt:          req.Prompt,
		AspectRatio:     req.AspectRatio,
		DurationSeconds: req.DurationSeconds,
	}
	if req.ImageURI != "" {
		template.Image = &domain.ImageInput{StorageURI: req.ImageURI, MIMEType: req.MIMEType}
	}

	run := &domain.Run{
		ID:              uuid.NewString(),
		InputKind:       template.Kind(),
		Prompt:          req.Prompt,
		ImageURI:        req.ImageURI,
		AspectRatio:     req.AspectRatio,
		DurationSeconds: req.DurationSeconds,
		Variants:        req.Variants,
		Status:          domain.RunStatusRunning,
	}
	if err := a.Runs.Create(r.Context(), run); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: create run failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to record run")
		return
	}

	go a.executeRun(run.ID, template, req.Variants)

	a.json(w, http.StatusAccepted, runResponse{
		RunID:     run.ID,
		Status:    string(run.Status),
		InputKind: string(run.InputKind),
		Variants:  run.Variants,
	})
}

// executeRun drives the batch to completion and records the outcome. It runs
// detached from the originating request.
func (a *App) executeRun(runID string, template domain.GenerationRequest, count int) {
	genCtx := context.Background()
	if a.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(genCtx, a.GenerateTimeout)
		defer cancel()
	}

	batch, err := a.Orchestrator.Generate(genCtx, template, count)

	status := domain.RunStatusSucceeded
	var errMsg string
	switch {
	case err != nil:
		status = domain.RunStatusFailed
		errMsg = err.Error()
		if errors.Is(err, domain.ErrAllVariantsFailed) {
			if joined := joinVariantErrors(batch); joined != "" {
				errMsg = joined
			}
		}
	case anyVariantFailed(batch):
		status = domain.RunStatusPartial
		errMsg = joinVariantErrors(batch)
	}

	// The outcome write must outlive genCtx: after a generation timeout the
	// run would otherwise stay running forever.
	recordCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Runs.UpdateOutcome(recordCtx, runID, status, batch.VideoURIs(), errMsg); err != nil {
		a.Logger.Error().Err(err).Str("run_id", runID).Msg("handlers: record outcome failed")
	}
	a.Logger.Info().
		Str("run_id", runID).
		Str("status", string(status)).
		Int("videos", len(batch.VideoURIs())).
		Msg("handlers: run finished")
}

func anyVariantFailed(batch domain.BatchResult) bool {
	for _, r := range batch.Results {
		if !r.Succeeded() {
			return true
		}
	}
	return false
}

func joinVariantErrors(batch domain.BatchResult) string {
	var parts []string
	for _, r := range batch.Results {
		if r.Err != nil {
			parts = append(parts, r.Err.Error())
		}
	}
	return strings.Join(parts, "; ")
}

// GenerationsGet reports current status and produced video URIs for one run.
func (a *App) GenerationsGet(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	run, err := a.Runs.GetByID(r.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "run not found")
			return
		}
		a.Logger.Error().Err(err).Str("run_id", runID).Msg("handlers: load run failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load run")
		return
	}
	a.json(w, http.StatusOK, runToResponse(run))
}

// GenerationsList returns the most recent runs.
func (a *App) GenerationsList(w http.ResponseWriter, r *http.Request) {
	runs, err := a.Runs.ListRecent(r.Context(), 20)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: list runs failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list runs")
		return
	}
	items := make([]runResponse, 0, len(runs))
	for i := range runs {
		items = append(items, runToResponse(&runs[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type linkEntry struct {
	VideoURI  string `json:"video_uri"`
	SignedURL string `json:"signed_url,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// GenerationsLinks recomputes signed download links for a finished run's
// videos. Links are never stored, so every call issues fresh ones.
func (a *App) GenerationsLinks(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	run, err := a.Runs.GetByID(r.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "run not found")
			return
		}
		a.Logger.Error().Err(err).Str("run_id", runID).Msg("handlers: load run failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load run")
		return
	}
	if run.Status == domain.RunStatusRunning {
		a.error(w, http.StatusConflict, "run_in_progress", "run has not finished yet")
		return
	}

	links := a.Publisher.Publish(r.Context(), run.VideoURIs)
	entries := make([]linkEntry, 0, len(links))
	for _, link := range links {
		entry := linkEntry{VideoURI: link.VideoURI}
		if link.Err != nil {
			entry.Error = link.Err.Error()
		} else {
			entry.SignedURL = link.SignedURL
			entry.ExpiresAt = link.ExpiresAt.Format(time.RFC3339)
		}
		entries = append(entries, entry)
	}
	a.json(w, http.StatusOK, map[string]any{"links": entries})
}

func runToResponse(run *domain.Run) runResponse {
	resp := runResponse{
		RunID:     run.ID,
		Status:    string(run.Status),
		InputKind: string(run.InputKind),
		Variants:  run.Variants,
		VideoURIs: run.VideoURIs,
		Error:     run.ErrorMessage,
	}
	if !run.CreatedAt.IsZero() {
		resp.CreatedAt = run.CreatedAt.Format(time.RFC3339)
	}
	if !run.UpdatedAt.IsZero() {
		resp.UpdatedAt = run.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}
