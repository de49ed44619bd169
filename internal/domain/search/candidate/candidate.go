package candidate

import (
	"strings"

	"github.com/kailas-cloud/evidex/internal/domain/search/kind"
	"github.com/kailas-cloud/evidex/internal/domain/search/match"
)

// Delimiter separates fields in a rerank line.
const Delimiter = "|"

// Candidate is a deduplicated search hit submitted to the reranker.
// All fields are always set; absent values are empty strings.
type Candidate struct {
	kind       kind.Kind
	documentID string
	summary    string
	quote      string
	source     string
}

// FromKeyword converts a keyword match into a candidate.
func FromKeyword(m *match.Keyword) Candidate {
	return Candidate{
		kind:       kind.Keyword,
		documentID: m.DocumentID(),
		summary:    m.Summary(),
		quote:      m.Quote(),
		source:     m.Source(),
	}
}

// FromSemantic converts a semantic match into a candidate. The best segment becomes the quote.
func FromSemantic(m *match.Semantic) Candidate {
	return Candidate{
		kind:       kind.Semantic,
		documentID: m.DocumentID(),
		summary:    m.Summary(),
		quote:      m.Segment(),
		source:     m.Source(),
	}
}

// Reconstruct rebuilds a candidate without validation.
func Reconstruct(k kind.Kind, documentID, summary, quote, source string) Candidate {
	return Candidate{kind: k, documentID: documentID, summary: summary, quote: quote, source: source}
}

// Kind returns the retrieval method that produced the candidate.
func (c *Candidate) Kind() kind.Kind { return c.kind }

// DocumentID returns the document identifier.
func (c *Candidate) DocumentID() string { return c.documentID }

// Summary returns the document summary.
func (c *Candidate) Summary() string { return c.summary }

// Quote returns the snippet or segment.
func (c *Candidate) Quote() string { return c.quote }

// Source returns the document source label.
func (c *Candidate) Source() string { return c.source }

// Line serializes the candidate for the reranker:
//
//	{Kind}|Text ID: {id}|Summary: {summary}|{quote}
func (c *Candidate) Line() string {
	var b strings.Builder
	b.WriteString(string(c.kind))
	b.WriteString(Delimiter)
	b.WriteString("Text ID: ")
	b.WriteString(Sanitize(c.documentID))
	b.WriteString(Delimiter)
	b.WriteString("Summary: ")
	b.WriteString(Sanitize(c.summary))
	b.WriteString(Delimiter)
	b.WriteString(Sanitize(c.quote))
	return b.String()
}

var fieldReplacer = strings.NewReplacer(Delimiter, " ", "\r\n", " ", "\n", " ", "\r", " ")

// Sanitize trims a field and replaces delimiters and line breaks with spaces.
func Sanitize(s string) string {
	return strings.TrimSpace(fieldReplacer.Replace(s))
}
