package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyKeywordSet signals a keyword profile without keywords to weigh.
	ErrEmptyKeywordSet = errors.New("empty keyword set")
	// ErrInvalidProfile signals a malformed keyword profile.
	ErrInvalidProfile = errors.New("invalid keyword profile")
	// ErrInvalidQuery signals an empty or oversized user query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrCorpusUnavailable signals a corpus that could not be loaded or is inconsistent.
	ErrCorpusUnavailable = errors.New("corpus unavailable")
	// ErrDocumentNotFound signals a missing corpus document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRerankProviderError signals a reranking provider failure.
	ErrRerankProviderError = errors.New("rerank provider error")
	// ErrLanguageModelError signals a chat model failure (profile extraction or answer synthesis).
	ErrLanguageModelError = errors.New("language model error")
	// ErrNotConfigured signals a collaborator that was not wired.
	ErrNotConfigured = errors.New("collaborator not configured")
)

// Stage names a pipeline step for error reporting and metrics.
type Stage string

// Pipeline stages.
const (
	StageProfile  Stage = "profile"
	StageKeyword  Stage = "keyword_search"
	StageSemantic Stage = "semantic_search"
	StageDedup    Stage = "dedup"
	StageRerank   Stage = "rerank"
	StageAnswer   Stage = "answer"
)

// StageError attributes a failure to the pipeline stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err with its stage. Returns nil for a nil err.
func NewStageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
