package semantic

import (
	"context"

	"github.com/kailas-cloud/evidex/internal/domain"
	domdoc "github.com/kailas-cloud/evidex/internal/domain/document"
)

// Corpus provides read-only access to every document in load order.
type Corpus interface {
	All() []domdoc.Document
	// Dimensions is the embedding length shared by every document, 0 for an empty corpus.
	Dimensions() int
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
