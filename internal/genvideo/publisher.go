package genvideo

import (
	"context"
	"time"

	"veogen/internal/domain"
	"veogen/internal/infra"
	"veogen/internal/storage"
)

// Publisher converts stored video URIs into time-limited signed download
// links. Links are derived on demand and never cached or persisted.
type Publisher struct {
	store  ObjectStore
	bucket string
	ttl    time.Duration
	logger infra.Logger
	now    func() time.Time
}

// NewPublisher builds a Publisher issuing links valid for ttl.
func NewPublisher(store ObjectStore, bucket string, ttl time.Duration, logger infra.Logger) *Publisher {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Publisher{store: store, bucket: bucket, ttl: ttl, logger: logger, now: time.Now}
}

// Publish returns exactly one DownloadLink per input URI, order preserved.
// A URI that cannot be signed gets its Err field set; the entry keeps its
// position so the caller can attribute the failure.
func (p *Publisher) Publish(ctx context.Context, videoURIs []string) []domain.DownloadLink {
	links := make([]domain.DownloadLink, len(videoURIs))
	for i, uri := range videoURIs {
		links[i] = p.link(ctx, uri)
	}
	return links
}

func (p *Publisher) link(ctx context.Context, uri string) domain.DownloadLink {
	key, err := storage.ObjectKey(p.bucket, uri)
	if err != nil {
		p.logger.Warn().Err(err).Str("uri", uri).Msg("genvideo: link skipped, bad uri")
		return domain.DownloadLink{VideoURI: uri, Err: &domain.LinkError{URI: uri, Err: err}}
	}

	url, err := p.store.SignedURL(ctx, key, p.ttl)
	if err != nil {
		p.logger.Warn().Err(err).Str("uri", uri).Msg("genvideo: signing failed")
		return domain.DownloadLink{VideoURI: uri, Err: &domain.LinkError{URI: uri, Err: err}}
	}

	return domain.DownloadLink{
		VideoURI:  uri,
		SignedURL: url,
		ExpiresAt: p.now().Add(p.ttl),
	}
}
