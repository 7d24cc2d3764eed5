package genvideo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"veogen/internal/domain"
)

// fakeStore signs URLs deterministically and can be told to fail per key.
type fakeStore struct {
	mu       sync.Mutex
	uploads  map[string][]byte
	failSign map[string]error
	signed   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: map[string][]byte{}, failSign: map[string]error{}}
}

func (s *fakeStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[key] = append([]byte(nil), data...)
	return "gs://test-bucket/" + key, nil
}

func (s *fakeStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failSign[key]; ok {
		return "", err
	}
	s.signed = append(s.signed, key)
	return fmt.Sprintf("https://storage.example.com/%s?sig=%d", key, len(s.signed)), nil
}

func TestPublishReturnsOneLinkPerURI(t *testing.T) {
	store := newFakeStore()
	p := NewPublisher(store, "test-bucket", time.Hour, zerolog.Nop())

	uris := []string{
		"gs://test-bucket/generated-videos/a.mp4",
		"gs://test-bucket/generated-videos/b.mp4",
		"gs://test-bucket/generated-videos/c.mp4",
	}
	links := p.Publish(context.Background(), uris)
	if len(links) != len(uris) {
		t.Fatalf("got %d links for %d uris", len(links), len(uris))
	}
	for i, link := range links {
		if link.VideoURI != uris[i] {
			t.Fatalf("link %d out of order: %q", i, link.VideoURI)
		}
		if link.Err != nil {
			t.Fatalf("link %d unexpectedly failed: %v", i, link.Err)
		}
		if link.SignedURL == "" {
			t.Fatalf("link %d missing signed url", i)
		}
	}
}

func TestPublishMarksFailedEntriesInPlace(t *testing.T) {
	store := newFakeStore()
	store.failSign["generated-videos/b.mp4"] = errors.New("signing key unavailable")
	p := NewPublisher(store, "test-bucket", time.Hour, zerolog.Nop())

	uris := []string{
		"gs://test-bucket/generated-videos/a.mp4",
		"gs://test-bucket/generated-videos/b.mp4",
		"gs://test-bucket/generated-videos/c.mp4",
	}
	links := p.Publish(context.Background(), uris)
	if len(links) != 3 {
		t.Fatalf("failed entry was dropped: got %d links", len(links))
	}

	var linkErr *domain.LinkError
	if !errors.As(links[1].Err, &linkErr) {
		t.Fatalf("expected LinkError on entry 1, got %v", links[1].Err)
	}
	if linkErr.URI != uris[1] {
		t.Fatalf("link error not attributable: %q", linkErr.URI)
	}
	if links[0].Err != nil || links[2].Err != nil {
		t.Fatal("sibling links must not be affected")
	}
}

func TestPublishRejectsForeignBucketURIs(t *testing.T) {
	p := NewPublisher(newFakeStore(), "test-bucket", time.Hour, zerolog.Nop())

	links := p.Publish(context.Background(), []string{"gs://elsewhere/clip.mp4"})
	if len(links) != 1 {
		t.Fatalf("got %d links", len(links))
	}
	var linkErr *domain.LinkError
	if !errors.As(links[0].Err, &linkErr) {
		t.Fatalf("expected LinkError, got %v", links[0].Err)
	}
}

func TestPublishSetsExpiry(t *testing.T) {
	store := newFakeStore()
	p := NewPublisher(store, "test-bucket", 30*time.Minute, zerolog.Nop())
	issued := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return issued }

	links := p.Publish(context.Background(), []string{"gs://test-bucket/generated-videos/a.mp4"})
	if got, want := links[0].ExpiresAt, issued.Add(30*time.Minute); !got.Equal(want) {
		t.Fatalf("ExpiresAt = %s, want %s", got, want)
	}
}

func TestPublishEmptyInput(t *testing.T) {
	p := NewPublisher(newFakeStore(), "test-bucket", time.Hour, zerolog.Nop())
	if links := p.Publish(context.Background(), nil); len(links) != 0 {
		t.Fatalf("expected no links, got %d", len(links))
	}
}
