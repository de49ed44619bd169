package evidex

import "context"

// Embedder converts text to vector embeddings.
// Vectors must have the dimension of the corpus embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Reranker orders documents by relevance to a query.
// Hits come back best first, at most topN; Index points into documents.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RerankHit, error)
}

// RerankHit is one entry of a reranking response.
type RerankHit struct {
	Index int
	Text  string
	Score float64
}
