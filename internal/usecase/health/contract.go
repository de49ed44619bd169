package health

import "context"

// CachePinger checks embedding cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CorpusCounter reports the number of loaded documents.
type CorpusCounter interface {
	Len() int
}
