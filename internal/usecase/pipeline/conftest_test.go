package pipeline

import (
	"context"
	"testing"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/profile"
	"github.com/kailas-cloud/evidex/internal/domain/search/candidate"
	"github.com/kailas-cloud/evidex/internal/domain/search/match"
	"github.com/kailas-cloud/evidex/internal/domain/search/ranked"
)

// --- Fakes ---

type fakeKeyword struct {
	weights  []profile.WeightedKeyword
	matches  []match.Keyword
	weighErr error
	err      error
	gotTopN  int
}

func (f *fakeKeyword) Weigh(p profile.Profile) ([]profile.WeightedKeyword, error) {
	if f.weighErr != nil {
		return nil, f.weighErr
	}
	return f.weights, nil
}

func (f *fakeKeyword) SearchWeighted(
	_ context.Context, _ profile.Profile, _ []profile.WeightedKeyword, topN int,
) ([]match.Keyword, error) {
	f.gotTopN = topN
	return f.matches, f.err
}

type fakeSemantic struct {
	matches  []match.Semantic
	err      error
	gotQuery string
	gotN     int
}

func (f *fakeSemantic) Search(_ context.Context, query string, n int) ([]match.Semantic, error) {
	f.gotQuery = query
	f.gotN = n
	return f.matches, f.err
}

// fakeReranker keeps candidate order and assigns descending scores.
type fakeReranker struct {
	err   error
	calls int
	got   []candidate.Candidate
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, cands []candidate.Candidate) ([]ranked.Result, error) {
	f.calls++
	f.got = cands
	if f.err != nil {
		return nil, f.err
	}
	out := make([]ranked.Result, len(cands))
	for i := range cands {
		c := &cands[i]
		out[i] = ranked.New(i+1, c.Kind(), c.DocumentID(), c.Source(), c.Summary(), c.Quote(), 0.9-float64(i)*0.1)
	}
	return out, nil
}

type fakeExtractor struct {
	profile profile.Profile
	err     error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) (profile.Profile, error) {
	return f.profile, f.err
}

type fakeAnswerer struct {
	answer string
	err    error
	got    domain.AnswerRequest
}

func (f *fakeAnswerer) Synthesize(_ context.Context, req domain.AnswerRequest) (string, error) {
	f.got = req
	return f.answer, f.err
}

// --- Helpers ---

func kwMatch(id string) match.Keyword {
	return match.NewKeyword(id, "src "+id, "sum "+id, "kw quote "+id, 1, nil)
}

func semMatch(id string) match.Semantic {
	return match.NewSemantic(id, 0.5, "seg "+id, "src "+id, "sum "+id)
}

func mustProfile(t *testing.T, initial string) profile.Profile {
	t.Helper()
	p, err := profile.New([]profile.Keyword{{Term: "emancipation", Weight: 5}}, nil, nil, initial)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	return p
}
