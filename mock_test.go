package evidex

import (
	"context"
	"strings"
	"sync/atomic"
)

const testDocuments = `[
  {"text_id": "1", "full_text": "Liberty and union, now and forever, one and inseparable.",
   "source": "Reply to Hayne, 1830", "summary": "Senate speech", "embedding": [1, 0]},
  {"text_id": "2", "full_text": "A house divided against itself cannot stand.",
   "source": "House Divided Speech, 1858", "summary": "Senate campaign", "embedding": [0, 1]},
  {"text_id": "3", "full_text": "The liberty of the press is essential to the security of freedom.",
   "source": "Letter to the Editor, 1862", "summary": "Press freedom", "embedding": [0.9, 0.1]}
]`

const testTerms = `{"corpusTerms": {"terms": [
  {"term": "liberty", "rawFreq": 2},
  {"term": "house", "rawFreq": 1},
  {"term": "the", "rawFreq": 40}
]}}`

// mockEmbedder maps texts mentioning liberty to [1, 0] and everything else to [0, 1].
type mockEmbedder struct {
	calls atomic.Int64
	err   error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	m.calls.Add(1)
	if m.err != nil {
		return EmbeddingResult{}, m.err
	}
	vec := []float32{0, 1}
	if strings.Contains(strings.ToLower(text), "liberty") {
		vec = []float32{1, 0}
	}
	return EmbeddingResult{Embedding: vec, PromptTokens: 3, TotalTokens: 3}, nil
}

// mockReranker returns documents in reverse submission order without echoing text.
type mockReranker struct {
	calls atomic.Int64
	docs  []string
	err   error
}

func (m *mockReranker) Rerank(_ context.Context, _ string, documents []string, topN int) ([]RerankHit, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	m.docs = documents
	hits := make([]RerankHit, 0, len(documents))
	for i := len(documents) - 1; i >= 0 && len(hits) < topN; i-- {
		hits = append(hits, RerankHit{Index: i, Score: 1 - float64(len(hits))*0.1})
	}
	return hits, nil
}
