package rerank

import (
	"context"

	"github.com/kailas-cloud/evidex/internal/domain"
)

// Reranker scores texts against a query. Hits come back best first, at most topN.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string, topN int) ([]domain.RerankHit, error)
}

// SourceLookup resolves a document's source label ("" when unknown).
type SourceLookup interface {
	Source(id string) string
}
