package genvideo

import (
	"context"
	"errors"
	"time"

	"veogen/internal/domain"
	"veogen/internal/infra"
)

// Uploader stores user-supplied input images under a timestamped unique key
// and hands back the gs:// URI a generation request can reference.
type Uploader struct {
	store  ObjectStore
	prefix string
	logger infra.Logger
	now    func() time.Time
}

// NewUploader builds an Uploader writing under the given key prefix.
func NewUploader(store ObjectStore, prefix string, logger infra.Logger) *Uploader {
	if prefix == "" {
		prefix = "input-images"
	}
	return &Uploader{store: store, prefix: prefix, logger: logger, now: time.Now}
}

// UploadImage stores raw image bytes and returns their storage URI.
func (u *Uploader) UploadImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", &domain.UploadError{Err: errors.New("empty image payload")}
	}
	key := uniqueKey(u.prefix, u.now(), extensionForMIME(mimeType))
	uri, err := u.store.Upload(ctx, key, data, mimeType)
	if err != nil {
		return "", &domain.UploadError{Key: key, Err: err}
	}
	u.logger.Info().Str("key", key).Int("bytes", len(data)).Msg("genvideo: input image stored")
	return uri, nil
}
