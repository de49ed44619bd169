package ranked

import "github.com/kailas-cloud/evidex/internal/domain/search/kind"

// SourceUnavailable is reported when the corpus has no source for a ranked document.
const SourceUnavailable = "Source information not available"

// Result is a reranked candidate. Rank is 1-based and follows the reranker order.
type Result struct {
	rank       int
	kind       kind.Kind
	documentID string
	source     string
	summary    string
	quote      string
	score      float64
}

// New creates a ranked result. An empty source is replaced by SourceUnavailable.
func New(rank int, k kind.Kind, documentID, source, summary, quote string, score float64) Result {
	if source == "" {
		source = SourceUnavailable
	}
	return Result{
		rank: rank, kind: k, documentID: documentID, source: source,
		summary: summary, quote: quote, score: score,
	}
}

// Rank returns the 1-based position.
func (r *Result) Rank() int { return r.rank }

// Kind returns the retrieval method that produced the result.
func (r *Result) Kind() kind.Kind { return r.kind }

// DocumentID returns the document identifier.
func (r *Result) DocumentID() string { return r.documentID }

// Source returns the source label.
func (r *Result) Source() string { return r.source }

// Summary returns the document summary.
func (r *Result) Summary() string { return r.summary }

// Quote returns the key quote.
func (r *Result) Quote() string { return r.quote }

// Score returns the reranker relevance score.
func (r *Result) Score() float64 { return r.score }
