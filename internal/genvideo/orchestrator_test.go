package genvideo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"veogen/internal/domain"
)

// fakeJobService completes jobs on the first status query. Outcomes are
// scripted per variant. Submissions arrive concurrently, so the variant is
// recovered from the output key's timestamp rather than arrival order:
// newTestOrchestrator installs a clock that advances one second per read,
// and output keys are derived in variant order before the fan-out.
type fakeJobService struct {
	mu        sync.Mutex
	submitted []domain.GenerationRequest
	failSub   map[int]error         // variant -> submit error
	failJob   map[int]string        // variant -> failure reason
	uris      map[int][]string      // variant -> produced uris
	delay     map[int]time.Duration // variant -> artificial poll latency
}

type fakeHandle struct {
	id  string
	idx int
}

func (h fakeHandle) ID() string { return h.id }

func (s *fakeJobService) Submit(ctx context.Context, req domain.GenerationRequest) (JobHandle, error) {
	idx := variantOf(req.OutputURI)
	s.mu.Lock()
	s.submitted = append(s.submitted, req)
	err, failed := s.failSub[idx]
	s.mu.Unlock()
	if failed {
		return nil, err
	}
	return fakeHandle{id: fmt.Sprintf("job-%d", idx), idx: idx}, nil
}

func (s *fakeJobService) PollStatus(ctx context.Context, handle JobHandle) (StatusSnapshot, error) {
	h := handle.(fakeHandle)
	s.mu.Lock()
	d := s.delay[h.idx]
	reason, failed := s.failJob[h.idx]
	uris := s.uris[h.idx]
	s.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
	if failed {
		return StatusSnapshot{Done: true, Succeeded: false, Reason: reason}, nil
	}
	if uris == nil {
		uris = []string{fmt.Sprintf("gs://test-bucket/generated-videos/video-%d.mp4", h.idx)}
	}
	return StatusSnapshot{Done: true, Succeeded: true, VideoURIs: uris}, nil
}

// variantClock advances one second per read so each variant's output key
// carries its index in the timestamp seconds.
func variantClock() func() time.Time {
	var n int
	base := time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)
	return func() time.Time {
		t := base.Add(time.Duration(n) * time.Second)
		n++
		return t
	}
}

func variantOf(uri string) int {
	slash := strings.LastIndex(uri, "/")
	const layout = "20060102_150405"
	if slash < 0 || len(uri) < slash+1+len(layout) {
		return -1
	}
	stamp, err := time.Parse(layout, uri[slash+1:slash+1+len(layout)])
	if err != nil {
		return -1
	}
	return stamp.Second()
}

func newTestOrchestrator(t *testing.T, svc JobService) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(OrchestratorOptions{
		Service:      svc,
		Poller:       NewPoller(svc, time.Millisecond, zerolog.Nop()),
		Bucket:       "test-bucket",
		OutputPrefix: "generated-videos",
		MaxVariants:  4,
		Logger:       zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewOrchestrator returned error: %v", err)
	}
	o.now = variantClock()
	return o
}

func TestGenerateProducesOneResultPerVariant(t *testing.T) {
	for count := 1; count <= 4; count++ {
		svc := &fakeJobService{}
		o := newTestOrchestrator(t, svc)

		batch, err := o.Generate(context.Background(), domain.GenerationRequest{Prompt: "a sunrise"}, count)
		if err != nil {
			t.Fatalf("count=%d: unexpected error: %v", count, err)
		}
		if len(batch.Results) != count {
			t.Fatalf("count=%d: got %d results", count, len(batch.Results))
		}
		if len(svc.submitted) != count {
			t.Fatalf("count=%d: got %d submissions", count, len(svc.submitted))
		}
		for i, r := range batch.Results {
			if r.Variant != i {
				t.Fatalf("count=%d: result %d carries variant %d", count, i, r.Variant)
			}
		}
	}
}

func TestGenerateFlattensURIsInSubmissionOrder(t *testing.T) {
	svc := &fakeJobService{uris: map[int][]string{
		0: {"gs://test-bucket/generated-videos/a.mp4"},
		1: {"gs://test-bucket/generated-videos/b1.mp4", "gs://test-bucket/generated-videos/b2.mp4"},
		2: {"gs://test-bucket/generated-videos/c.mp4"},
	}}
	o := newTestOrchestrator(t, svc)

	batch, err := o.Generate(context.Background(), domain.GenerationRequest{Prompt: "waves"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := batch.VideoURIs()
	want := []string{
		"gs://test-bucket/generated-videos/a.mp4",
		"gs://test-bucket/generated-videos/b1.mp4",
		"gs://test-bucket/generated-videos/b2.mp4",
		"gs://test-bucket/generated-videos/c.mp4",
	}
	if len(got) != len(want) {
		t.Fatalf("flattened uris mismatch: %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("uri[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGenerateIsolatesVariantFailures(t *testing.T) {
	svc := &fakeJobService{
		failSub: map[int]error{1: errors.New("quota exhausted")},
		failJob: map[int]string{2: "render error"},
	}
	o := newTestOrchestrator(t, svc)

	batch, err := o.Generate(context.Background(), domain.GenerationRequest{Prompt: "storm"}, 4)
	if err != nil {
		t.Fatalf("partial failure must not surface as error, got: %v", err)
	}
	if len(batch.Results) != 4 {
		t.Fatalf("failed variants were dropped: got %d results", len(batch.Results))
	}

	var subErr *domain.SubmissionError
	if !errors.As(batch.Results[1].Err, &subErr) || subErr.Variant != 1 {
		t.Fatalf("variant 1: expected SubmissionError, got %v", batch.Results[1].Err)
	}
	var genErr *domain.GenerationFailed
	if !errors.As(batch.Results[2].Err, &genErr) || genErr.Variant != 2 {
		t.Fatalf("variant 2: expected GenerationFailed, got %v", batch.Results[2].Err)
	}
	if !batch.Results[0].Succeeded() || !batch.Results[3].Succeeded() {
		t.Fatal("healthy variants must not be affected by sibling failures")
	}
	if len(batch.VideoURIs()) != 2 {
		t.Fatalf("expected 2 flattened uris, got %d", len(batch.VideoURIs()))
	}
}

func TestGenerateOrdersResultsByVariantNotCompletion(t *testing.T) {
	// Variant 0 finishes last; its result must still land first.
	svc := &fakeJobService{
		delay: map[int]time.Duration{0: 30 * time.Millisecond},
		uris: map[int][]string{
			0: {"gs://test-bucket/generated-videos/slow.mp4"},
			1: {"gs://test-bucket/generated-videos/fast-1.mp4"},
			2: {"gs://test-bucket/generated-videos/fast-2.mp4"},
		},
	}
	o := newTestOrchestrator(t, svc)

	batch, err := o.Generate(context.Background(), domain.GenerationRequest{Prompt: "race"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := batch.VideoURIs()
	want := []string{
		"gs://test-bucket/generated-videos/slow.mp4",
		"gs://test-bucket/generated-videos/fast-1.mp4",
		"gs://test-bucket/generated-videos/fast-2.mp4",
	}
	if len(got) != len(want) {
		t.Fatalf("flattened uris mismatch: %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("uri[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGenerateReportsWhenAllVariantsFail(t *testing.T) {
	svc := &fakeJobService{failJob: map[int]string{0: "oops", 1: "oops"}}
	o := newTestOrchestrator(t, svc)

	batch, err := o.Generate(context.Background(), domain.GenerationRequest{Prompt: "void"}, 2)
	if !errors.Is(err, domain.ErrAllVariantsFailed) {
		t.Fatalf("expected ErrAllVariantsFailed, got %v", err)
	}
	if len(batch.Results) != 2 {
		t.Fatalf("results must still be attributable, got %d", len(batch.Results))
	}
}

func TestGenerateValidatesCount(t *testing.T) {
	o := newTestOrchestrator(t, &fakeJobService{})

	if _, err := o.Generate(context.Background(), domain.GenerationRequest{Prompt: "x"}, 0); !errors.Is(err, domain.ErrNoVariants) {
		t.Fatalf("count=0: expected ErrNoVariants, got %v", err)
	}
	if _, err := o.Generate(context.Background(), domain.GenerationRequest{Prompt: "x"}, 5); !errors.Is(err, domain.ErrTooManyVariants) {
		t.Fatalf("count=5: expected ErrTooManyVariants, got %v", err)
	}
}

func TestGenerateDerivesDistinctOutputURIs(t *testing.T) {
	svc := &fakeJobService{}
	o := newTestOrchestrator(t, svc)
	o.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	if _, err := o.Generate(context.Background(), domain.GenerationRequest{Prompt: "twins"}, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]bool{}
	for _, req := range svc.submitted {
		if !strings.HasPrefix(req.OutputURI, "gs://test-bucket/generated-videos/20240102_030405_") {
			t.Fatalf("output uri %q lacks expected prefix", req.OutputURI)
		}
		if seen[req.OutputURI] {
			t.Fatalf("output uri %q reused within the same second", req.OutputURI)
		}
		seen[req.OutputURI] = true
	}
}

func TestGenerateDoesNotMutateTemplate(t *testing.T) {
	svc := &fakeJobService{}
	o := newTestOrchestrator(t, svc)

	template := domain.GenerationRequest{Prompt: "still life", AspectRatio: "16:9"}
	if _, err := o.Generate(context.Background(), template, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if template.OutputURI != "" {
		t.Fatalf("template mutated: %q", template.OutputURI)
	}
	for _, req := range svc.submitted {
		if req.AspectRatio != "16:9" || req.Prompt != "still life" {
			t.Fatalf("shared parameters not carried: %+v", req)
		}
	}
}
