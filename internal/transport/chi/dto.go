package chi

import (
	"fmt"

	"github.com/kailas-cloud/evidex/internal/domain/profile"
	"github.com/kailas-cloud/evidex/internal/domain/search/candidate"
	"github.com/kailas-cloud/evidex/internal/domain/search/match"
	"github.com/kailas-cloud/evidex/internal/domain/search/ranked"
	"github.com/kailas-cloud/evidex/internal/usecase/pipeline"
)

// ErrorCode is a machine-readable error category.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeNotConfigured    ErrorCode = "not_configured"
	ErrorCodeProviderError    ErrorCode = "provider_error"
	ErrorCodeTimeout          ErrorCode = "timeout"
	ErrorCodeUnavailable      ErrorCode = "unavailable"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Stage   string    `json:"stage,omitempty"`
}

// KeywordDTO is one weighted profile keyword. A list keeps profile order.
type KeywordDTO struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// ProfileDTO is a keyword profile on the wire.
type ProfileDTO struct {
	Keywords      []KeywordDTO `json:"keywords"`
	Years         []string     `json:"years,omitempty"`
	Sources       []string     `json:"sources,omitempty"`
	InitialAnswer string       `json:"initial_answer,omitempty"`
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query   string     `json:"query"`
	Profile ProfileDTO `json:"profile"`
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Query string `json:"query"`
}

// WeightDTO is a keyword with its original and dynamic weight.
type WeightDTO struct {
	Term     string  `json:"term"`
	Original float64 `json:"original"`
	Dynamic  float64 `json:"dynamic"`
}

// KeywordMatchDTO is a keyword-search hit.
type KeywordMatchDTO struct {
	TextID  string         `json:"text_id"`
	Source  string         `json:"source"`
	Summary string         `json:"summary"`
	Quote   string         `json:"quote"`
	Score   float64        `json:"score"`
	Counts  map[string]int `json:"counts"`
}

// SemanticMatchDTO is a semantic-search hit.
type SemanticMatchDTO struct {
	TextID     string  `json:"text_id"`
	Similarity float64 `json:"similarity"`
	Segment    string  `json:"segment"`
	Source     string  `json:"source"`
	Summary    string  `json:"summary"`
}

// CandidateDTO is a deduplicated candidate sent to the reranker.
type CandidateDTO struct {
	Kind    string `json:"kind"`
	TextID  string `json:"text_id"`
	Summary string `json:"summary"`
	Quote   string `json:"quote"`
	Source  string `json:"source"`
}

// ResultDTO is a reranked result.
type ResultDTO struct {
	Rank    int     `json:"rank"`
	Kind    string  `json:"kind"`
	TextID  string  `json:"text_id"`
	Source  string  `json:"source"`
	Summary string  `json:"summary"`
	Quote   string  `json:"quote"`
	Score   float64 `json:"score"`
}

// SearchResponse carries every intermediate artifact of a retrieval run.
type SearchResponse struct {
	Query           string             `json:"query"`
	SemanticQuery   string             `json:"semantic_query"`
	Weights         []WeightDTO        `json:"weights"`
	KeywordMatches  []KeywordMatchDTO  `json:"keyword_matches"`
	SemanticMatches []SemanticMatchDTO `json:"semantic_matches"`
	Candidates      []CandidateDTO     `json:"candidates"`
	Results         []ResultDTO        `json:"results"`
	Evidence        string             `json:"evidence"`
	DurationsMs     map[string]float64 `json:"durations_ms"`
}

// AskResponse is the body returned by POST /v1/ask.
type AskResponse struct {
	Profile ProfileDTO     `json:"profile"`
	Report  SearchResponse `json:"report"`
	Answer  string         `json:"answer"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Documents int               `json:"documents"`
}

func profileFromDTO(d ProfileDTO) (profile.Profile, error) {
	kws := make([]profile.Keyword, len(d.Keywords))
	for i, k := range d.Keywords {
		kws[i] = profile.Keyword{Term: k.Term, Weight: k.Weight}
	}
	p, err := profile.New(kws, d.Years, d.Sources, d.InitialAnswer)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("profile: %w", err)
	}
	return p, nil
}

func profileToDTO(p *profile.Profile) ProfileDTO {
	kws := make([]KeywordDTO, len(p.Keywords()))
	for i, k := range p.Keywords() {
		kws[i] = KeywordDTO{Term: k.Term, Weight: k.Weight}
	}
	return ProfileDTO{
		Keywords:      kws,
		Years:         p.Years(),
		Sources:       p.Sources(),
		InitialAnswer: p.InitialAnswer(),
	}
}

func reportToDTO(r *pipeline.Report) SearchResponse {
	resp := SearchResponse{
		Query:           r.Query,
		SemanticQuery:   r.SemanticQuery,
		Weights:         make([]WeightDTO, len(r.Weights)),
		KeywordMatches:  make([]KeywordMatchDTO, len(r.KeywordMatches)),
		SemanticMatches: make([]SemanticMatchDTO, len(r.SemanticMatches)),
		Candidates:      make([]CandidateDTO, len(r.Candidates)),
		Results:         make([]ResultDTO, len(r.Ranked)),
		Evidence:        r.Evidence,
		DurationsMs:     make(map[string]float64, len(r.Durations)),
	}
	for i, w := range r.Weights {
		resp.Weights[i] = WeightDTO{Term: w.Term, Original: w.Original, Dynamic: w.Dynamic}
	}
	for i := range r.KeywordMatches {
		resp.KeywordMatches[i] = keywordMatchToDTO(&r.KeywordMatches[i])
	}
	for i := range r.SemanticMatches {
		resp.SemanticMatches[i] = semanticMatchToDTO(&r.SemanticMatches[i])
	}
	for i := range r.Candidates {
		resp.Candidates[i] = candidateToDTO(&r.Candidates[i])
	}
	for i := range r.Ranked {
		resp.Results[i] = resultToDTO(&r.Ranked[i])
	}
	for stage, d := range r.Durations {
		resp.DurationsMs[string(stage)] = float64(d.Microseconds()) / 1000
	}
	return resp
}

func keywordMatchToDTO(m *match.Keyword) KeywordMatchDTO {
	counts := make(map[string]int, len(m.Counts()))
	for _, c := range m.Counts() {
		counts[c.Term] = c.Count
	}
	return KeywordMatchDTO{
		TextID:  m.DocumentID(),
		Source:  m.Source(),
		Summary: m.Summary(),
		Quote:   m.Quote(),
		Score:   m.Score(),
		Counts:  counts,
	}
}

func semanticMatchToDTO(m *match.Semantic) SemanticMatchDTO {
	return SemanticMatchDTO{
		TextID:     m.DocumentID(),
		Similarity: m.Similarity(),
		Segment:    m.Segment(),
		Source:     m.Source(),
		Summary:    m.Summary(),
	}
}

func candidateToDTO(c *candidate.Candidate) CandidateDTO {
	return CandidateDTO{
		Kind:    string(c.Kind()),
		TextID:  c.DocumentID(),
		Summary: c.Summary(),
		Quote:   c.Quote(),
		Source:  c.Source(),
	}
}

func resultToDTO(r *ranked.Result) ResultDTO {
	return ResultDTO{
		Rank:    r.Rank(),
		Kind:    string(r.Kind()),
		TextID:  r.DocumentID(),
		Source:  r.Source(),
		Summary: r.Summary(),
		Quote:   r.Quote(),
		Score:   r.Score(),
	}
}
