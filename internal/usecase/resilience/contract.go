package resilience

import (
	"context"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/profile"
)

// RerankClient is the raw reranking provider.
type RerankClient interface {
	Rerank(ctx context.Context, query string, docs []string, topN int) ([]domain.RerankHit, error)
}

// Extractor is the raw keyword-profile model.
type Extractor interface {
	Extract(ctx context.Context, query string) (profile.Profile, error)
}

// Synthesizer is the raw answer model.
type Synthesizer interface {
	Synthesize(ctx context.Context, req domain.AnswerRequest) (string, error)
}
