package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/profile"
)

// flaky fails the first n calls with err.
type flaky struct {
	n     int
	err   error
	calls int
}

func (f *flaky) next() error {
	f.calls++
	if f.calls <= f.n {
		return f.err
	}
	return nil
}

type flakyEmbedder struct {
	flaky
	healthErr error
}

func (f *flakyEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if err := f.next(); err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0}, TotalTokens: 3}, nil
}

func (f *flakyEmbedder) HealthCheck(_ context.Context) error { return f.healthErr }

type plainEmbedder struct{}

func (plainEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, nil
}

type flakyReranker struct{ flaky }

func (f *flakyReranker) Rerank(_ context.Context, _ string, docs []string, _ int) ([]domain.RerankHit, error) {
	if err := f.next(); err != nil {
		return nil, err
	}
	return []domain.RerankHit{{Index: 0, Text: docs[0], Score: 1}}, nil
}

type flakyExtractor struct{ flaky }

func (f *flakyExtractor) Extract(_ context.Context, _ string) (profile.Profile, error) {
	if err := f.next(); err != nil {
		return profile.Profile{}, err
	}
	return profile.New([]profile.Keyword{{Term: "union", Weight: 3}}, nil, nil, "draft")
}

type flakySynthesizer struct{ flaky }

func (f *flakySynthesizer) Synthesize(_ context.Context, req domain.AnswerRequest) (string, error) {
	if err := f.next(); err != nil {
		return "", err
	}
	return "answer to " + req.Query, nil
}

func TestEmbedder_Retries(t *testing.T) {
	inner := &flakyEmbedder{flaky: flaky{n: 1, err: domain.ErrEmbeddingProviderError}}
	res, err := NewEmbedder(inner, fastPolicy(3), nil).Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 || len(res.Embedding) != 2 || res.TotalTokens != 3 {
		t.Errorf("calls = %d, result = %+v", inner.calls, res)
	}
}

func TestEmbedder_Exhausted(t *testing.T) {
	inner := &flakyEmbedder{flaky: flaky{n: 10, err: domain.ErrEmbeddingProviderError}}
	_, err := NewEmbedder(inner, fastPolicy(3), nil).Embed(context.Background(), "text")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestEmbedder_HealthCheck(t *testing.T) {
	inner := &flakyEmbedder{healthErr: errors.New("down")}
	if err := NewEmbedder(inner, fastPolicy(3), nil).HealthCheck(context.Background()); err == nil {
		t.Error("expected health error to propagate")
	}
	if err := NewEmbedder(plainEmbedder{}, fastPolicy(3), nil).HealthCheck(context.Background()); err != nil {
		t.Errorf("expected nil for embedder without health check, got %v", err)
	}
}

func TestReranker_Retries(t *testing.T) {
	inner := &flakyReranker{flaky: flaky{n: 2, err: domain.ErrRerankProviderError}}
	hits, err := NewReranker(inner, fastPolicy(3), nil).Rerank(context.Background(), "q", []string{"a"}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 3 || len(hits) != 1 || hits[0].Text != "a" {
		t.Errorf("calls = %d, hits = %+v", inner.calls, hits)
	}
}

func TestProfileExtractor_Retries(t *testing.T) {
	inner := &flakyExtractor{flaky: flaky{n: 1, err: domain.ErrLanguageModelError}}
	p, err := NewProfileExtractor(inner, fastPolicy(2), nil).Extract(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 || p.InitialAnswer() != "draft" || len(p.Keywords()) != 1 {
		t.Errorf("calls = %d, profile = %+v", inner.calls, p)
	}
}

func TestProfileExtractor_InvalidProfileNotRetried(t *testing.T) {
	inner := &flakyExtractor{flaky: flaky{n: 5, err: domain.ErrInvalidProfile}}
	_, err := NewProfileExtractor(inner, fastPolicy(3), nil).Extract(context.Background(), "q")
	if !errors.Is(err, domain.ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestAnswerSynthesizer_Retries(t *testing.T) {
	inner := &flakySynthesizer{flaky: flaky{n: 1, err: domain.ErrLanguageModelError}}
	got, err := NewAnswerSynthesizer(inner, fastPolicy(2), nil).
		Synthesize(context.Background(), domain.AnswerRequest{Query: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "answer to q" || inner.calls != 2 {
		t.Errorf("answer = %q, calls = %d", got, inner.calls)
	}
}
