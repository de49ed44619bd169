package match

// KeywordCount is the number of whole-word occurrences of one profile keyword.
type KeywordCount struct {
	Term  string
	Count int
}

// Keyword is a keyword-search hit.
type Keyword struct {
	documentID string
	source     string
	summary    string
	quote      string
	score      float64
	counts     []KeywordCount
}

// NewKeyword creates a keyword-search hit.
func NewKeyword(
	documentID, source, summary, quote string,
	score float64, counts []KeywordCount,
) Keyword {
	return Keyword{
		documentID: documentID, source: source, summary: summary,
		quote: quote, score: score, counts: counts,
	}
}

// DocumentID returns the matched document identifier.
func (m *Keyword) DocumentID() string { return m.documentID }

// Source returns the document source label.
func (m *Keyword) Source() string { return m.source }

// Summary returns the document summary.
func (m *Keyword) Summary() string { return m.summary }

// Quote returns the snippet centered on the reference keyword occurrence.
func (m *Keyword) Quote() string { return m.quote }

// Score returns the sum of count x dynamic weight over matched keywords.
func (m *Keyword) Score() float64 { return m.score }

// Counts returns per-keyword occurrence counts in profile order (matched keywords only).
func (m *Keyword) Counts() []KeywordCount { return m.counts }

// Semantic is a vector-similarity hit with its best-matching segment.
type Semantic struct {
	documentID string
	similarity float64
	segment    string
	source     string
	summary    string
}

// NewSemantic creates a semantic-search hit.
func NewSemantic(documentID string, similarity float64, segment, source, summary string) Semantic {
	return Semantic{
		documentID: documentID, similarity: similarity, segment: segment,
		source: source, summary: summary,
	}
}

// DocumentID returns the matched document identifier.
func (m *Semantic) DocumentID() string { return m.documentID }

// Similarity returns the cosine similarity between the query and the document.
func (m *Semantic) Similarity() float64 { return m.similarity }

// Segment returns the word window most similar to the query ("" for empty bodies).
func (m *Semantic) Segment() string { return m.segment }

// Source returns the document source label.
func (m *Semantic) Source() string { return m.source }

// Summary returns the document summary.
func (m *Semantic) Summary() string { return m.summary }
