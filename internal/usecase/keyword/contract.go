package keyword

import domdoc "github.com/kailas-cloud/evidex/internal/domain/document"

// Corpus provides read-only access to every document in load order.
type Corpus interface {
	All() []domdoc.Document
}

// TermFrequencies provides corpus-wide raw term frequencies.
type TermFrequencies interface {
	RawFreq(term string) int64
	TotalWords() int64
}
