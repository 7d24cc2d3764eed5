package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"

	"veogen/internal/domain"
	"veogen/internal/infra"
)

// GCSStore wraps the Google Cloud Storage client for the single bucket the
// service writes inputs and generated videos to.
type GCSStore struct {
	client    *gcs.Client
	projectID string
	bucket    string
	region    string
	logger    infra.Logger
}

// NewGCSStore builds a store bound to one bucket. The bucket does not have to
// exist yet; EnsureBucket creates it on demand.
func NewGCSStore(client *gcs.Client, projectID, bucket, region string, logger infra.Logger) (*GCSStore, error) {
	if client == nil {
		return nil, errors.New("storage: gcs client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	return &GCSStore{
		client:    client,
		projectID: projectID,
		bucket:    bucket,
		region:    region,
		logger:    logger,
	}, nil
}

// Bucket returns the bucket name the store is bound to.
func (s *GCSStore) Bucket() string { return s.bucket }

// BucketExists reports whether the configured bucket exists.
func (s *GCSStore) BucketExists(ctx context.Context) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gcs.ErrBucketNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("storage: bucket attrs: %w", err)
}

// CreateBucket creates the configured bucket in the configured region.
func (s *GCSStore) CreateBucket(ctx context.Context) error {
	attrs := &gcs.BucketAttrs{Location: s.region}
	if err := s.client.Bucket(s.bucket).Create(ctx, s.projectID, attrs); err != nil {
		return fmt.Errorf("storage: create bucket %q: %w", s.bucket, err)
	}
	return nil
}

// EnsureBucket creates the bucket if it does not exist yet. Safe to call on
// every session start. Failures wrap domain.ErrBucketInit.
func (s *GCSStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.BucketExists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBucketInit, err)
	}
	if exists {
		return nil
	}
	if err := s.CreateBucket(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBucketInit, err)
	}
	s.logger.Info().Str("bucket", s.bucket).Str("region", s.region).Msg("storage: created bucket")
	return nil
}

// BlobExists reports whether an object is present at the given key.
func (s *GCSStore) BlobExists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("storage: object attrs %q: %w", key, err)
}

// Upload writes data at the given key and returns the object's gs:// URI.
func (s *GCSStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: write %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: finalize %q: %w", key, err)
	}
	return ObjectURI(s.bucket, key), nil
}

// Download reads the full object at key.
func (s *GCSStore) Download(ctx context.Context, key string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", key, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("storage: read %q: %w", key, err)
	}
	return data, nil
}

// SignedURL issues a V4 signed GET URL for the object at key, valid for ttl.
func (s *GCSStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	opts := &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	}
	url, err := s.client.Bucket(s.bucket).SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("storage: sign %q: %w", key, err)
	}
	return url, nil
}

// ObjectURI renders the canonical gs://{bucket}/{key} form.
func ObjectURI(bucket, key string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, strings.TrimLeft(key, "/"))
}

// ObjectKey strips the gs://{bucket}/ prefix from a URI. It returns an error
// when the URI does not belong to the given bucket.
func ObjectKey(bucket, uri string) (string, error) {
	prefix := fmt.Sprintf("gs://%s/", bucket)
	if !strings.HasPrefix(uri, prefix) {
		return "", fmt.Errorf("storage: uri %q is not in bucket %q", uri, bucket)
	}
	key := strings.TrimPrefix(uri, prefix)
	if key == "" {
		return "", fmt.Errorf("storage: uri %q has no object key", uri)
	}
	return key, nil
}
