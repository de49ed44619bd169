package document

import (
	"fmt"
	"strings"
)

// idPrefix is the label some corpus exports put in front of the identifier.
const idPrefix = "Text #:"

// Document is a corpus entry (immutable value object).
type Document struct {
	id        string
	body      string
	source    string
	summary   string
	keywords  []string
	embedding []float32
}

// New validates and creates a Document.
// ID is required and normalized (the "Text #:" export prefix is stripped).
// Body may be empty: such documents still take part in keyword matching on
// summary/keywords and in vector similarity.
func New(id, body, source, summary string, keywords []string, embedding []float32) (Document, error) {
	id = NormalizeID(id)
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(embedding) == 0 {
		return Document{}, fmt.Errorf("document %q has no embedding", id)
	}

	return Document{
		id:        id,
		body:      body,
		source:    source,
		summary:   summary,
		keywords:  cloneStrings(keywords),
		embedding: cloneVector(embedding),
	}, nil
}

// Reconstruct creates a Document without validation (test and storage hydration).
func Reconstruct(id, body, source, summary string, keywords []string, embedding []float32) Document {
	return Document{
		id: id, body: body, source: source, summary: summary,
		keywords: keywords, embedding: embedding,
	}
}

// NormalizeID trims whitespace and the "Text #:" / "Text ID:" labels from an identifier.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, idPrefix)
	id = strings.TrimPrefix(id, "Text ID:")
	return strings.TrimSpace(id)
}

// ID returns the stable document identifier.
func (d *Document) ID() string { return d.id }

// Body returns the full text.
func (d *Document) Body() string { return d.body }

// Source returns the source label (title, date, venue).
func (d *Document) Source() string { return d.source }

// Summary returns the human-written summary.
func (d *Document) Summary() string { return d.summary }

// Keywords returns the topical keyword tags.
func (d *Document) Keywords() []string { return d.keywords }

// Embedding returns the precomputed dense vector.
func (d *Document) Embedding() []float32 { return d.embedding }

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}

func cloneVector(v []float32) []float32 {
	c := make([]float32, len(v))
	copy(c, v)
	return c
}
