package corpus

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/evidex/internal/domain"
	domdoc "github.com/kailas-cloud/evidex/internal/domain/document"
)

// LoadFiles reads the documents and term-frequency files and builds the store.
func LoadFiles(documentsPath, termsPath string) (*Store, error) {
	docsFile, err := os.Open(documentsPath) //nolint:gosec // path from config
	if err != nil {
		return nil, fmt.Errorf("%w: open documents: %w", domain.ErrCorpusUnavailable, err)
	}
	defer func() { _ = docsFile.Close() }()

	termsFile, err := os.Open(termsPath) //nolint:gosec // path from config
	if err != nil {
		return nil, fmt.Errorf("%w: open terms: %w", domain.ErrCorpusUnavailable, err)
	}
	defer func() { _ = termsFile.Close() }()

	return Load(docsFile, termsFile)
}

// Load decodes documents (JSON array) and terms (Voyant corpusTerms export) and builds the store.
func Load(documents, terms io.Reader) (*Store, error) {
	docs, err := DecodeDocuments(documents)
	if err != nil {
		return nil, err
	}
	freq, err := DecodeTerms(terms)
	if err != nil {
		return nil, err
	}
	return NewStore(docs, freq)
}

// DecodeDocuments parses a JSON array of documents.
func DecodeDocuments(r io.Reader) ([]domdoc.Document, error) {
	var dtos []documentDTO
	if err := json.NewDecoder(r).Decode(&dtos); err != nil {
		return nil, fmt.Errorf("%w: decode documents: %w", domain.ErrCorpusUnavailable, err)
	}

	docs := make([]domdoc.Document, 0, len(dtos))
	for i := range dtos {
		d, err := dtos[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: document #%d: %w", domain.ErrCorpusUnavailable, i, err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// DecodeTerms parses a corpus-terms export into a term → raw frequency map.
func DecodeTerms(r io.Reader) (map[string]int64, error) {
	var dto termsDTO
	if err := json.NewDecoder(r).Decode(&dto); err != nil {
		return nil, fmt.Errorf("%w: decode terms: %w", domain.ErrCorpusUnavailable, err)
	}

	freq := make(map[string]int64, len(dto.CorpusTerms.Terms))
	for _, t := range dto.CorpusTerms.Terms {
		if t.Term == "" {
			continue
		}
		freq[t.Term] += t.RawFreq
	}
	return freq, nil
}
