package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veogen/internal/domain"
	"veogen/internal/storage"
	"veogen/pkg/zip"
)

// ObjectReader fetches stored object bytes for bundling.
type ObjectReader interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// GenerationsArchive bundles a finished run's videos into one zip download.
// A video that cannot be fetched is skipped; the archive still ships with
// whatever could be read.
func (a *App) GenerationsArchive(w http.ResponseWriter, r *http.Request) {
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
	if len(run.VideoURIs) == 0 {
		a.error(w, http.StatusNotFound, "no_videos", "run produced no videos")
		return
	}

	var assets []zip.Asset
	for i, uri := range run.VideoURIs {
		key, err := storage.ObjectKey(a.Bucket, uri)
		if err != nil {
			a.Logger.Warn().Err(err).Str("uri", uri).Msg("handlers: archive skipped bad uri")
			continue
		}
		data, err := a.Objects.Download(r.Context(), key)
		if err != nil {
			a.Logger.Warn().Err(err).Str("uri", uri).Msg("handlers: archive fetch failed")
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("video-%02d.mp4", i+1),
			MIME:     "video/mp4",
			Data:     data,
		})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusBadGateway, "archive_failed", "no videos could be fetched")
		return
	}

	blob := zip.ArchiveAssets(assets)
	if blob == nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "run-"+run.ID+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}
