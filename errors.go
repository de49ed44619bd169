package evidex

import "github.com/kailas-cloud/evidex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrInvalidProfile         = domain.ErrInvalidProfile
	ErrEmptyKeywordSet        = domain.ErrEmptyKeywordSet
	ErrCorpusUnavailable      = domain.ErrCorpusUnavailable
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrRerankProviderError    = domain.ErrRerankProviderError
	ErrLanguageModelError     = domain.ErrLanguageModelError
	ErrNotConfigured          = domain.ErrNotConfigured
)

// StageError reports the pipeline stage that failed. Use errors.As() to extract it.
type StageError = domain.StageError
