package handlers

import (
	"io"
	"net/http"
	"strings"
)

const maxUploadBytes = 20 << 20

// UploadsCreate accepts raw image bytes and stores them as generation input.
// The Content-Type header decides the stored object's type.
func (a *App) UploadsCreate(w http.ResponseWriter, r *http.Request) {
	contentType := strings.TrimSpace(r.Header.Get("Content-Type"))
	switch contentType {
	case "image/png", "image/jpeg", "image/jpg":
	default:
		a.error(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected image/png or image/jpeg")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read body")
		return
	}
	if len(data) > maxUploadBytes {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "image exceeds upload limit")
		return
	}

	uri, err := a.Uploader.UploadImage(r.Context(), data, contentType)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: image upload failed")
		a.error(w, http.StatusBadGateway, "upload_failed", "failed to store image")
		return
	}

	a.json(w, http.StatusCreated, map[string]string{
		"storage_uri": uri,
		"mime_type":   contentType,
	})
}
