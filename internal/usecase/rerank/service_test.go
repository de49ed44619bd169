package rerank

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/search/candidate"
	"github.com/kailas-cloud/evidex/internal/domain/search/kind"
	"github.com/kailas-cloud/evidex/internal/domain/search/ranked"
)

// mockReranker echoes the submitted lines in the configured order, or returns canned hits.
type mockReranker struct {
	order  []int
	hits   []domain.RerankHit
	err    error
	calls  int
	gotTop int
	gotDoc []string
}

func (m *mockReranker) Rerank(_ context.Context, _ string, docs []string, topN int) ([]domain.RerankHit, error) {
	m.calls++
	m.gotTop = topN
	m.gotDoc = docs
	if m.err != nil {
		return nil, m.err
	}
	if m.hits != nil {
		return m.hits, nil
	}
	out := make([]domain.RerankHit, 0, len(m.order))
	for rank, i := range m.order {
		out = append(out, domain.RerankHit{Index: i, Text: docs[i], Score: 1 - float64(rank)*0.1})
	}
	return out, nil
}

type mapSources map[string]string

func (m mapSources) Source(id string) string { return m[id] }

func candidates() []candidate.Candidate {
	return []candidate.Candidate{
		candidate.Reconstruct(kind.Keyword, "A", "sum A", "quote A", "src A"),
		candidate.Reconstruct(kind.Semantic, "B", "sum B", "quote B", "src B"),
		candidate.Reconstruct(kind.Keyword, "C", "sum C", "quote C", ""),
	}
}

func TestRerank_FollowsRerankerOrder(t *testing.T) {
	rr := &mockReranker{order: []int{2, 0, 1}}
	svc := New(rr, mapSources{"A": "Source A", "B": "Source B"}, 0, nil, nil)

	got, err := svc.Rerank(context.Background(), "q", candidates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rr.gotTop != DefaultTopN {
		t.Errorf("topN = %d, want %d", rr.gotTop, DefaultTopN)
	}
	if rr.gotDoc[0] != "Keyword|Text ID: A|Summary: sum A|quote A" {
		t.Errorf("line = %q", rr.gotDoc[0])
	}

	wantIDs := []string{"C", "A", "B"}
	for i, r := range got {
		if r.Rank() != i+1 || r.DocumentID() != wantIDs[i] {
			t.Errorf("result %d = rank %d id %s, want rank %d id %s", i, r.Rank(), r.DocumentID(), i+1, wantIDs[i])
		}
	}
	if got[0].Source() != ranked.SourceUnavailable {
		t.Errorf("missing source = %q, want placeholder", got[0].Source())
	}
	if got[1].Source() != "Source A" || got[1].Summary() != "sum A" || got[1].Quote() != "quote A" {
		t.Errorf("result A = %+v", got[1])
	}
	if got[2].Kind() != kind.Semantic {
		t.Errorf("kind = %q, want Semantic", got[2].Kind())
	}
	if got[0].Score() != 1 {
		t.Errorf("score = %v, want 1", got[0].Score())
	}
}

func TestRerank_MalformedLineDropped(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_malformed_total"})
	rr := &mockReranker{hits: []domain.RerankHit{
		{Index: 1, Text: "Semantic|Text ID: B|Summary: sum B|quote B", Score: 0.9},
		{Index: 0, Text: "Keyword|Text ID: A", Score: 0.8},
		{Index: 2, Text: "Hybrid|Text ID: C|Summary: x|y", Score: 0.7},
		{Index: 2, Text: "Keyword|Text #: C|Summary: sum C|quote C", Score: 0.6},
	}}
	svc := New(rr, mapSources{}, 10, counter, nil)

	got, err := svc.Rerank(context.Background(), "q", candidates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].DocumentID() != "B" || got[1].DocumentID() != "C" {
		t.Errorf("ids = %s,%s", got[0].DocumentID(), got[1].DocumentID())
	}
	if got[0].Rank() != 1 || got[1].Rank() != 2 {
		t.Errorf("ranks not contiguous: %d,%d", got[0].Rank(), got[1].Rank())
	}
	if v := testutil.ToFloat64(counter); v != 2 {
		t.Errorf("malformed counter = %v, want 2", v)
	}
}

func TestRerank_RanksBoundedByTopN(t *testing.T) {
	rr := &mockReranker{order: []int{0, 1}}
	svc := New(rr, mapSources{}, 2, nil, nil)

	got, err := svc.Rerank(context.Background(), "q", candidates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rr.gotTop != 2 {
		t.Errorf("topN = %d, want 2", rr.gotTop)
	}
	for _, r := range got {
		if r.Rank() < 1 || r.Rank() > 2 {
			t.Errorf("rank %d out of [1,2]", r.Rank())
		}
	}
}

func TestRerank_EmptyCandidatesSkipsCall(t *testing.T) {
	rr := &mockReranker{}
	got, err := New(rr, mapSources{}, 0, nil, nil).Rerank(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 || rr.calls != 0 {
		t.Errorf("expected empty result without call, got %d results, %d calls", len(got), rr.calls)
	}
}

func TestRerank_ProviderError(t *testing.T) {
	rr := &mockReranker{err: domain.ErrRerankProviderError}
	got, err := New(rr, mapSources{}, 0, nil, nil).Rerank(context.Background(), "q", candidates())
	if !errors.Is(err, domain.ErrRerankProviderError) {
		t.Fatalf("expected ErrRerankProviderError, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no partial result, got %v", got)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		ok      bool
		id      string
		summary string
		quote   string
	}{
		{"Keyword|Text ID: 12|Summary: A speech|the quote", true, "12", "A speech", "the quote"},
		{" semantic | Text #: 7 | Summary:  x | q ", true, "7", "x", "q"},
		{"Keyword|Text ID: 1|Summary: s|q|extra", true, "1", "s", "q"},
		{"Keyword|Text ID: 1|Summary: s", false, "", "", ""},
		{"", false, "", "", ""},
		{"Other|Text ID: 1|Summary: s|q", false, "", "", ""},
	}
	for _, tc := range tests {
		_, id, summary, quote, ok := ParseLine(tc.line)
		if ok != tc.ok || id != tc.id || summary != tc.summary || quote != tc.quote {
			t.Errorf("ParseLine(%q) = (%q, %q, %q, %v)", tc.line, id, summary, quote, ok)
		}
	}
}

func TestParseLine_RoundTrip(t *testing.T) {
	c := candidate.Reconstruct(kind.Semantic, "Text #: 9", "multi\nline | summary", "q", "")
	k, id, summary, _, ok := ParseLine(c.Line())
	if !ok || k != kind.Semantic || id != "9" || summary != "multi line   summary" {
		t.Errorf("round trip = (%q, %q, %q, %v)", k, id, summary, ok)
	}
}
