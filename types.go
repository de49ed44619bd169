package evidex

import "time"

// SearchKind is the retrieval method that produced a hit.
type SearchKind string

// Retrieval methods.
const (
	KindKeyword  SearchKind = "Keyword"
	KindSemantic SearchKind = "Semantic"
)

// Keyword is a search term with its model-assigned importance (> 0).
type Keyword struct {
	Term   string
	Weight float64
}

// Profile describes what to look for: weighted keywords in priority order,
// optional year and source-title filters and an optional draft answer.
type Profile struct {
	Keywords      []Keyword
	Years         []string
	Sources       []string
	InitialAnswer string
}

// Weight is a keyword with its original and corpus-derived weight.
// The rarest keyword of a profile has Dynamic == 10.
type Weight struct {
	Term     string
	Original float64
	Dynamic  float64
}

// KeywordCount is the number of whole-word occurrences of one keyword.
type KeywordCount struct {
	Term  string
	Count int
}

// KeywordMatch is a keyword-search hit.
type KeywordMatch struct {
	TextID  string
	Source  string
	Summary string
	Quote   string
	Score   float64
	Counts  []KeywordCount
}

// SemanticMatch is a vector-similarity hit with its best-matching segment.
type SemanticMatch struct {
	TextID     string
	Similarity float64
	Segment    string
	Source     string
	Summary    string
}

// Candidate is a deduplicated hit submitted to the reranker.
type Candidate struct {
	Kind    SearchKind
	TextID  string
	Summary string
	Quote   string
	Source  string
}

// Result is a reranked hit. Rank is 1-based.
type Result struct {
	Rank    int
	Kind    SearchKind
	TextID  string
	Source  string
	Summary string
	Quote   string
	Score   float64
}

// Report carries every intermediate artifact of one retrieval run.
type Report struct {
	Query           string
	SemanticQuery   string
	Weights         []Weight
	KeywordMatches  []KeywordMatch
	SemanticMatches []SemanticMatch
	Candidates      []Candidate
	Results         []Result
	// Evidence is the formatted block of the top results handed to answer synthesis.
	Evidence  string
	Durations map[string]time.Duration
}

// Answer is the outcome of Ask.
type Answer struct {
	Profile Profile
	Report  *Report
	Text    string
}

// Health reports component availability. Status is "ok", "degraded" or "error".
type Health struct {
	Status    string
	Checks    map[string]string
	Documents int
}
