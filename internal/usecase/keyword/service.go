package keyword

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain/profile"
	"github.com/kailas-cloud/evidex/internal/domain/search/match"
	"github.com/kailas-cloud/evidex/internal/logger"
)

// DefaultSnippetRadius is the number of bytes kept on each side of the reference keyword.
const DefaultSnippetRadius = 300

// Service runs weighted whole-word keyword search over the corpus.
type Service struct {
	corpus Corpus
	terms  TermFrequencies
	radius int
	logger *zap.Logger
}

// New creates a keyword search service. radius <= 0 uses DefaultSnippetRadius.
func New(corpus Corpus, terms TermFrequencies, radius int, log *zap.Logger) *Service {
	if radius <= 0 {
		radius = DefaultSnippetRadius
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{corpus: corpus, terms: terms, radius: radius, logger: log}
}

// Weigh computes dynamic weights for the profile against the corpus term frequencies.
func (s *Service) Weigh(p profile.Profile) ([]profile.WeightedKeyword, error) {
	return Weigh(p, s.terms)
}

// Search weighs the profile keywords and returns the topN best matching documents.
func (s *Service) Search(ctx context.Context, p profile.Profile, topN int) ([]match.Keyword, error) {
	weights, err := s.Weigh(p)
	if err != nil {
		return nil, err
	}
	return s.SearchWeighted(ctx, p, weights, topN)
}

// compiledKeyword is a weighted keyword with its whole-word matcher.
type compiledKeyword struct {
	profile.WeightedKeyword
	words wordMatcher
}

// SearchWeighted scores documents with precomputed weights. topN <= 0 returns every match.
// Ties keep corpus order.
func (s *Service) SearchWeighted(
	ctx context.Context, p profile.Profile, weights []profile.WeightedKeyword, topN int,
) ([]match.Keyword, error) {
	compiled := make([]compiledKeyword, len(weights))
	for i, w := range weights {
		compiled[i] = compiledKeyword{WeightedKeyword: w, words: wholeWord(w.Term)}
	}
	filter := newSourceFilter(p.Years(), p.Sources())

	var results []match.Keyword
	docs := s.corpus.All()
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("keyword search: %w", err)
		}
		d := &docs[i]
		if !filter.pass(d.Source()) {
			continue
		}
		if m, ok := s.score(d.ID(), d.Body(), d.Source(), d.Summary(), d.Keywords(), compiled); ok {
			results = append(results, m)
		}
	}

	slices.SortStableFunc(results, func(a, b match.Keyword) int {
		switch {
		case a.Score() > b.Score():
			return -1
		case a.Score() < b.Score():
			return 1
		default:
			return 0
		}
	})
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}

	logger.FromContext(ctx, s.logger).Debug("Keyword search finished",
		zap.Int("keywords", len(weights)),
		zap.Int("documents", len(docs)),
		zap.Int("matches", len(results)),
	)
	return results, nil
}

// score counts keyword occurrences in body, summary and tags. Matching is
// case-insensitive, so offsets into the combined text are offsets into the body too.
func (s *Service) score(
	id, body, source, summary string, tags []string, kws []compiledKeyword,
) (match.Keyword, bool) {
	combined := body + " " + summary + " " + strings.Join(tags, " ")

	var (
		total     float64
		counts    []match.KeywordCount
		refPos    = -1
		refWeight float64
	)
	for _, k := range kws {
		locs := k.words.findAll(combined)
		if len(locs) == 0 {
			continue
		}
		counts = append(counts, match.KeywordCount{Term: k.Term, Count: len(locs)})
		total += float64(len(locs)) * k.Dynamic
		if refPos < 0 || k.Original > refWeight {
			refPos, refWeight = locs[0][0], k.Original
		}
	}
	if len(counts) == 0 {
		return match.Keyword{}, false
	}

	return match.NewKeyword(id, source, summary, snippet(body, refPos, s.radius), total, counts), true
}

// snippet returns body[pos-radius : pos+radius] clipped to the body and to rune
// boundaries, with line breaks flattened to spaces.
func snippet(body string, pos, radius int) string {
	start := min(max(0, pos-radius), len(body))
	end := min(len(body), pos+radius)
	if start >= end {
		return ""
	}
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}
	for end < len(body) && !utf8.RuneStart(body[end]) {
		end++
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(body[start:end])
}

// sourceFilter restricts documents by their source label.
// Years match as substrings; source tokens match as whole words. Empty families pass.
type sourceFilter struct {
	years   []string
	sources []wordMatcher
}

func newSourceFilter(years, sources []string) sourceFilter {
	f := sourceFilter{years: make([]string, 0, len(years))}
	for _, y := range years {
		f.years = append(f.years, strings.ToLower(y))
	}
	for _, src := range sources {
		f.sources = append(f.sources, wholeWord(src))
	}
	return f
}

func (f sourceFilter) pass(source string) bool {
	lower := strings.ToLower(source)
	if len(f.years) > 0 && !slices.ContainsFunc(f.years, func(y string) bool {
		return strings.Contains(lower, y)
	}) {
		return false
	}
	if len(f.sources) > 0 && !slices.ContainsFunc(f.sources, func(m wordMatcher) bool {
		return m.matchString(lower)
	}) {
		return false
	}
	return true
}
