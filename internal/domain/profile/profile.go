package profile

import (
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/evidex/internal/domain"
)

// Keyword is a user-relevant term with its user (or model) assigned weight.
type Keyword struct {
	Term   string
	Weight float64
}

// WeightedKeyword pairs a keyword with its corpus-frequency normalized weight.
// Original is the user weight (used for snippet placement), Dynamic is in (0, 10]
// (used for ranking).
type WeightedKeyword struct {
	Term     string
	Original float64
	Dynamic  float64
}

// Profile is the per-query keyword profile (immutable value object).
// Keyword order is significant: it breaks ties in snippet placement.
type Profile struct {
	keywords      []Keyword
	years         []string
	sources       []string
	initialAnswer string
}

// New validates and normalizes a keyword profile.
// Terms are trimmed and lowercased and must be unique; weights must be positive and finite.
// An empty keyword list is accepted here and rejected by the weighting engine.
func New(keywords []Keyword, years, sources []string, initialAnswer string) (Profile, error) {
	seen := make(map[string]bool, len(keywords))
	kws := make([]Keyword, 0, len(keywords))
	for _, k := range keywords {
		term := strings.ToLower(strings.TrimSpace(k.Term))
		if term == "" {
			return Profile{}, fmt.Errorf("%w: empty keyword", domain.ErrInvalidProfile)
		}
		if k.Weight <= 0 || math.IsNaN(k.Weight) || math.IsInf(k.Weight, 0) {
			return Profile{}, fmt.Errorf("%w: keyword %q has non-positive weight %v",
				domain.ErrInvalidProfile, term, k.Weight)
		}
		if seen[term] {
			return Profile{}, fmt.Errorf("%w: duplicate keyword %q", domain.ErrInvalidProfile, term)
		}
		seen[term] = true
		kws = append(kws, Keyword{Term: term, Weight: k.Weight})
	}

	return Profile{
		keywords:      kws,
		years:         normalizeList(years, false),
		sources:       normalizeList(sources, true),
		initialAnswer: strings.TrimSpace(initialAnswer),
	}, nil
}

// Keywords returns the keywords in profile order.
func (p *Profile) Keywords() []Keyword { return p.keywords }

// Years returns the year filter tokens.
func (p *Profile) Years() []string { return p.years }

// Sources returns the lowercased source-text filter tokens.
func (p *Profile) Sources() []string { return p.sources }

// InitialAnswer returns the keyword model's draft answer, if any.
func (p *Profile) InitialAnswer() string { return p.initialAnswer }

// Weights returns the original weights keyed by term.
func (p *Profile) Weights() map[string]float64 {
	m := make(map[string]float64, len(p.keywords))
	for _, k := range p.keywords {
		m[k.Term] = k.Weight
	}
	return m
}

// SplitList splits a comma-separated filter string into trimmed, non-empty tokens.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func normalizeList(in []string, lower bool) []string {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if lower {
			s = strings.ToLower(s)
		}
		out = append(out, s)
	}
	return out
}
