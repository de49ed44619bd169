package evidex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/profile"
	"github.com/kailas-cloud/evidex/internal/domain/search/candidate"
	"github.com/kailas-cloud/evidex/internal/domain/search/match"
	"github.com/kailas-cloud/evidex/internal/domain/search/ranked"
	healthuc "github.com/kailas-cloud/evidex/internal/usecase/health"
	pipelineuc "github.com/kailas-cloud/evidex/internal/usecase/pipeline"
)

// --- Profile conversions ---

func toInternalProfile(p Profile) (profile.Profile, error) {
	kws := make([]profile.Keyword, len(p.Keywords))
	for i, k := range p.Keywords {
		kws[i] = profile.Keyword{Term: k.Term, Weight: k.Weight}
	}
	out, err := profile.New(kws, p.Years, p.Sources, p.InitialAnswer)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("profile: %w", err)
	}
	return out, nil
}

func fromInternalProfile(p profile.Profile) Profile {
	kws := make([]Keyword, len(p.Keywords()))
	for i, k := range p.Keywords() {
		kws[i] = Keyword{Term: k.Term, Weight: k.Weight}
	}
	return Profile{
		Keywords:      kws,
		Years:         p.Years(),
		Sources:       p.Sources(),
		InitialAnswer: p.InitialAnswer(),
	}
}

// --- Report conversions ---

func fromReport(r *pipelineuc.Report) *Report {
	out := &Report{
		Query:           r.Query,
		SemanticQuery:   r.SemanticQuery,
		Weights:         make([]Weight, len(r.Weights)),
		KeywordMatches:  make([]KeywordMatch, len(r.KeywordMatches)),
		SemanticMatches: make([]SemanticMatch, len(r.SemanticMatches)),
		Candidates:      make([]Candidate, len(r.Candidates)),
		Results:         make([]Result, len(r.Ranked)),
		Evidence:        r.Evidence,
		Durations:       fromDurations(r.Durations),
	}
	for i, w := range r.Weights {
		out.Weights[i] = Weight{Term: w.Term, Original: w.Original, Dynamic: w.Dynamic}
	}
	for i := range r.KeywordMatches {
		out.KeywordMatches[i] = fromKeywordMatch(&r.KeywordMatches[i])
	}
	for i := range r.SemanticMatches {
		out.SemanticMatches[i] = fromSemanticMatch(&r.SemanticMatches[i])
	}
	for i := range r.Candidates {
		out.Candidates[i] = fromCandidate(&r.Candidates[i])
	}
	for i := range r.Ranked {
		out.Results[i] = fromResult(&r.Ranked[i])
	}
	return out
}

func fromKeywordMatch(m *match.Keyword) KeywordMatch {
	counts := make([]KeywordCount, len(m.Counts()))
	for i, c := range m.Counts() {
		counts[i] = KeywordCount{Term: c.Term, Count: c.Count}
	}
	return KeywordMatch{
		TextID:  m.DocumentID(),
		Source:  m.Source(),
		Summary: m.Summary(),
		Quote:   m.Quote(),
		Score:   m.Score(),
		Counts:  counts,
	}
}

func fromSemanticMatch(m *match.Semantic) SemanticMatch {
	return SemanticMatch{
		TextID:     m.DocumentID(),
		Similarity: m.Similarity(),
		Segment:    m.Segment(),
		Source:     m.Source(),
		Summary:    m.Summary(),
	}
}

func fromCandidate(c *candidate.Candidate) Candidate {
	return Candidate{
		Kind:    SearchKind(c.Kind()),
		TextID:  c.DocumentID(),
		Summary: c.Summary(),
		Quote:   c.Quote(),
		Source:  c.Source(),
	}
}

func fromResult(r *ranked.Result) Result {
	return Result{
		Rank:    r.Rank(),
		Kind:    SearchKind(r.Kind()),
		TextID:  r.DocumentID(),
		Source:  r.Source(),
		Summary: r.Summary(),
		Quote:   r.Quote(),
		Score:   r.Score(),
	}
}

func fromDurations(in map[domain.Stage]time.Duration) map[string]time.Duration {
	out := make(map[string]time.Duration, len(in))
	for stage, d := range in {
		out[string(stage)] = d
	}
	return out
}

func fromHealth(r healthuc.Report) Health {
	checks := make(map[string]string, len(r.Checks))
	for name, res := range r.Checks {
		checks[name] = string(res)
	}
	return Health{Status: string(r.Status), Checks: checks, Documents: r.Documents}
}

// --- Provider adapters ---

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// rerankerAdapter wraps public Reranker to satisfy the internal rerank client contract.
// Hits without Text get the submitted document at Index.
type rerankerAdapter struct {
	inner Reranker
}

func (a *rerankerAdapter) Rerank(ctx context.Context, query string, docs []string, topN int) ([]domain.RerankHit, error) {
	hits, err := a.inner.Rerank(ctx, query, docs, topN)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRerankProviderError, err)
	}
	out := make([]domain.RerankHit, len(hits))
	for i, h := range hits {
		text := h.Text
		if text == "" && h.Index >= 0 && h.Index < len(docs) {
			text = docs[h.Index]
		}
		out[i] = domain.RerankHit{Index: h.Index, Text: text, Score: h.Score}
	}
	return out, nil
}
