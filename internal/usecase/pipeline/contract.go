package pipeline

import (
	"context"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/profile"
	"github.com/kailas-cloud/evidex/internal/domain/search/candidate"
	"github.com/kailas-cloud/evidex/internal/domain/search/match"
	"github.com/kailas-cloud/evidex/internal/domain/search/ranked"
)

// KeywordSearcher weighs profile keywords and runs weighted keyword search.
type KeywordSearcher interface {
	Weigh(p profile.Profile) ([]profile.WeightedKeyword, error)
	SearchWeighted(
		ctx context.Context, p profile.Profile, weights []profile.WeightedKeyword, topN int,
	) ([]match.Keyword, error)
}

// SemanticSearcher runs embedding-similarity search.
type SemanticSearcher interface {
	Search(ctx context.Context, query string, n int) ([]match.Semantic, error)
}

// Reranker orders deduplicated candidates by relevance.
type Reranker interface {
	Rerank(ctx context.Context, query string, cands []candidate.Candidate) ([]ranked.Result, error)
}

// ProfileExtractor derives a keyword profile from a natural-language query.
type ProfileExtractor interface {
	Extract(ctx context.Context, query string) (profile.Profile, error)
}

// AnswerSynthesizer writes the final answer from the query and evidence.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, req domain.AnswerRequest) (string, error)
}
