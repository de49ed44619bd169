package resilience

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/profile"
)

// Collaborator labels used in logs and retry metrics.
const (
	CollaboratorEmbedding = "embedding"
	CollaboratorRerank    = "rerank"
	CollaboratorProfile   = "profile"
	CollaboratorAnswer    = "answer"
)

// Embedder retries embedding calls.
type Embedder struct {
	inner  domain.Embedder
	policy Policy
	logger *zap.Logger
}

// NewEmbedder wraps inner with policy.
func NewEmbedder(inner domain.Embedder, policy Policy, log *zap.Logger) *Embedder {
	return &Embedder{inner: inner, policy: policy, logger: nopIfNil(log)}
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var res domain.EmbeddingResult
	err := e.policy.Do(ctx, CollaboratorEmbedding, e.logger, func(ctx context.Context) error {
		var err error
		res, err = e.inner.Embed(ctx, text)
		return err
	})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return res, nil
}

// HealthCheck delegates to the wrapped embedder without retries.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// Reranker retries rerank calls.
type Reranker struct {
	inner  RerankClient
	policy Policy
	logger *zap.Logger
}

// NewReranker wraps inner with policy.
func NewReranker(inner RerankClient, policy Policy, log *zap.Logger) *Reranker {
	return &Reranker{inner: inner, policy: policy, logger: nopIfNil(log)}
}

// Rerank implements the rerank provider contract.
func (r *Reranker) Rerank(ctx context.Context, query string, docs []string, topN int) ([]domain.RerankHit, error) {
	var hits []domain.RerankHit
	err := r.policy.Do(ctx, CollaboratorRerank, r.logger, func(ctx context.Context) error {
		var err error
		hits, err = r.inner.Rerank(ctx, query, docs, topN)
		return err
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// ProfileExtractor retries keyword-profile extraction.
type ProfileExtractor struct {
	inner  Extractor
	policy Policy
	logger *zap.Logger
}

// NewProfileExtractor wraps inner with policy.
func NewProfileExtractor(inner Extractor, policy Policy, log *zap.Logger) *ProfileExtractor {
	return &ProfileExtractor{inner: inner, policy: policy, logger: nopIfNil(log)}
}

// Extract implements the profile extractor contract.
func (p *ProfileExtractor) Extract(ctx context.Context, query string) (profile.Profile, error) {
	var out profile.Profile
	err := p.policy.Do(ctx, CollaboratorProfile, p.logger, func(ctx context.Context) error {
		var err error
		out, err = p.inner.Extract(ctx, query)
		return err
	})
	if err != nil {
		return profile.Profile{}, err
	}
	return out, nil
}

// AnswerSynthesizer retries answer synthesis.
type AnswerSynthesizer struct {
	inner  Synthesizer
	policy Policy
	logger *zap.Logger
}

// NewAnswerSynthesizer wraps inner with policy.
func NewAnswerSynthesizer(inner Synthesizer, policy Policy, log *zap.Logger) *AnswerSynthesizer {
	return &AnswerSynthesizer{inner: inner, policy: policy, logger: nopIfNil(log)}
}

// Synthesize implements the answer synthesizer contract.
func (a *AnswerSynthesizer) Synthesize(ctx context.Context, req domain.AnswerRequest) (string, error) {
	var answer string
	err := a.policy.Do(ctx, CollaboratorAnswer, a.logger, func(ctx context.Context) error {
		var err error
		answer, err = a.inner.Synthesize(ctx, req)
		return err
	})
	if err != nil {
		return "", err
	}
	return answer, nil
}

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
