package corpus

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/evidex/internal/domain"
	domdoc "github.com/kailas-cloud/evidex/internal/domain/document"
)

// Store is the immutable in-memory corpus. Safe for concurrent reads.
type Store struct {
	docs       []domdoc.Document
	byID       map[string]int
	freq       map[string]int64
	totalWords int64
	dims       int
}

// NewStore validates documents and term frequencies and builds the store.
// Duplicate IDs and inconsistent embedding dimensions yield ErrCorpusUnavailable.
func NewStore(docs []domdoc.Document, terms map[string]int64) (*Store, error) {
	s := &Store{
		docs: make([]domdoc.Document, 0, len(docs)),
		byID: make(map[string]int, len(docs)),
		freq: make(map[string]int64, len(terms)),
	}

	for i := range docs {
		d := docs[i]
		if _, dup := s.byID[d.ID()]; dup {
			return nil, fmt.Errorf("%w: duplicate document id %q", domain.ErrCorpusUnavailable, d.ID())
		}
		dims := len(d.Embedding())
		if s.dims == 0 {
			s.dims = dims
		} else if dims != s.dims {
			return nil, fmt.Errorf("%w: document %q: %w (got %d, want %d)",
				domain.ErrCorpusUnavailable, d.ID(), domain.ErrVectorDimMismatch, dims, s.dims)
		}
		s.byID[d.ID()] = len(s.docs)
		s.docs = append(s.docs, d)
	}

	for term, n := range terms {
		if n < 0 {
			return nil, fmt.Errorf("%w: negative frequency for term %q", domain.ErrCorpusUnavailable, term)
		}
		s.freq[strings.ToLower(term)] += n
		s.totalWords += n
	}

	return s, nil
}

// Get returns a document by ID.
func (s *Store) Get(id string) (domdoc.Document, error) {
	i, ok := s.byID[domdoc.NormalizeID(id)]
	if !ok {
		return domdoc.Document{}, fmt.Errorf("get %q: %w", id, domain.ErrDocumentNotFound)
	}
	return s.docs[i], nil
}

// Source returns the source label of a document, "" when unknown.
func (s *Store) Source(id string) string {
	if i, ok := s.byID[domdoc.NormalizeID(id)]; ok {
		return s.docs[i].Source()
	}
	return ""
}

// All returns every document in load order. Callers must not modify the slice.
func (s *Store) All() []domdoc.Document { return s.docs }

// Len returns the number of documents.
func (s *Store) Len() int { return len(s.docs) }

// Dimensions returns the embedding dimension shared by all documents (0 for an empty corpus).
func (s *Store) Dimensions() int { return s.dims }

// RawFreq returns the corpus frequency of a term (case-insensitive), 0 when unseen.
func (s *Store) RawFreq(term string) int64 { return s.freq[strings.ToLower(term)] }

// TotalWords returns the sum of all raw term frequencies.
func (s *Store) TotalWords() int64 { return s.totalWords }
