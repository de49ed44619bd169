package keyword

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain"
	domdoc "github.com/kailas-cloud/evidex/internal/domain/document"
	"github.com/kailas-cloud/evidex/internal/domain/profile"
)

func TestSearch_ExactWeightedScore(t *testing.T) {
	corpus := newFakeCorpus(
		map[string]int64{"union": 90, "emancipation": 10},
		doc("A", "Emancipation of the Union, the union forever", "Speech, 1862"),
		doc("B", "The Union must be preserved", "Letter, 1861"),
	)
	p := mustProfile(t, []profile.Keyword{{Term: "union", Weight: 1}, {Term: "emancipation", Weight: 1}}, nil, nil)

	got, err := New(corpus, corpus, 0, zap.NewNop()).Search(context.Background(), p, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}

	unionW := 1 / 0.9 / 10 * 10
	if want := 2*unionW + 1*10; got[0].DocumentID() != "A" || math.Abs(got[0].Score()-want) > 1e-9 {
		t.Errorf("A: id=%s score=%v, want %v", got[0].DocumentID(), got[0].Score(), want)
	}
	if got[1].DocumentID() != "B" || math.Abs(got[1].Score()-unionW) > 1e-9 {
		t.Errorf("B: id=%s score=%v, want %v", got[1].DocumentID(), got[1].Score(), unionW)
	}

	counts := got[0].Counts()
	if len(counts) != 2 || counts[0].Term != "union" || counts[0].Count != 2 || counts[1].Count != 1 {
		t.Errorf("counts = %+v", counts)
	}
}

func TestSearch_EmancipationScenario(t *testing.T) {
	corpus := newFakeCorpus(
		map[string]int64{"emancipation": 50, "secession": 25, "the": 25},
		doc("B", "Slaves were emancipated in the District.", "Act, 1862"),
		doc("A", "The emancipation proclamation. On emancipation we stand.", "Proclamation, 1863"),
		doc("C", "Four score and seven years ago.", "Address, 1863"),
	)
	p := mustProfile(t, []profile.Keyword{{Term: "emancipation", Weight: 5}, {Term: "secession", Weight: 3}}, nil, nil)

	svc := New(corpus, corpus, 0, nil)
	weights, err := Weigh(p, corpus)
	if err != nil {
		t.Fatalf("Weigh: %v", err)
	}
	if weights[0].Dynamic != 5 {
		t.Fatalf("emancipation dynamic weight = %v, want 5", weights[0].Dynamic)
	}

	got, err := svc.SearchWeighted(context.Background(), p, weights, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].DocumentID() != "A" {
		t.Fatalf("expected only A, got %+v", got)
	}
	if got[0].Score() != 10 {
		t.Errorf("score = %v, want 10", got[0].Score())
	}
}

func TestSearch_TopNAndStableTies(t *testing.T) {
	corpus := newFakeCorpus(nil,
		doc("1", "war", ""),
		doc("2", "war war", ""),
		doc("3", "war", ""),
		doc("4", "war", ""),
	)
	p := mustProfile(t, []profile.Keyword{{Term: "war", Weight: 1}}, nil, nil)

	got, err := New(corpus, corpus, 0, nil).Search(context.Background(), p, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := []string{got[0].DocumentID(), got[1].DocumentID(), got[2].DocumentID()}
	if strings.Join(ids, ",") != "2,1,3" {
		t.Errorf("order = %v, want 2,1,3", ids)
	}
}

func TestSearch_WholeWordsOnly(t *testing.T) {
	corpus := newFakeCorpus(nil, doc("1", "warfare and prewar tensions", ""))
	p := mustProfile(t, []profile.Keyword{{Term: "war", Weight: 1}}, nil, nil)

	got, err := New(corpus, corpus, 0, nil).Search(context.Background(), p, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}

func TestSearch_NonASCIIWholeWords(t *testing.T) {
	body := "He met at the café near the river. The cafés were closed."
	corpus := newFakeCorpus(nil,
		doc("1", body, "Journal de la Rivière, 1862"),
		doc("2", "A quiet evening at home.", "Letters, 1862"),
	)
	p := mustProfile(t, []profile.Keyword{{Term: "Café", Weight: 5}}, nil, []string{"rivière"})

	got, err := New(corpus, corpus, 10, nil).Search(context.Background(), p, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].DocumentID() != "1" {
		t.Fatalf("expected document 1 only, got %+v", got)
	}
	if c := got[0].Counts(); len(c) != 1 || c[0].Count != 1 {
		t.Errorf("counts = %+v, want one whole-word café", c)
	}
	if want := body[strings.Index(body, "café")-10 : strings.Index(body, "café")+10]; got[0].Quote() != want {
		t.Errorf("quote = %q, want %q", got[0].Quote(), want)
	}
}

func TestSearch_MatchesSummaryAndTags(t *testing.T) {
	d := domdoc.Reconstruct("1", "Body without the term.", "src", "A note on liberty", []string{"Freedom"}, []float32{1})
	corpus := newFakeCorpus(nil, d)
	p := mustProfile(t, []profile.Keyword{{Term: "liberty", Weight: 1}, {Term: "freedom", Weight: 1}}, nil, nil)

	got, err := New(corpus, corpus, 0, nil).Search(context.Background(), p, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || len(got[0].Counts()) != 2 {
		t.Fatalf("expected summary and tag matches, got %+v", got)
	}
	if got[0].Quote() != "Body without the term." {
		t.Errorf("quote = %q, want body clipped to its bounds", got[0].Quote())
	}
	if got[0].Summary() != "A note on liberty" {
		t.Errorf("summary = %q", got[0].Summary())
	}
}

func TestSearch_SourceFilters(t *testing.T) {
	corpus := newFakeCorpus(nil,
		doc("1", "union", "Letter to Greeley, 1862"),
		doc("2", "union", "Gettysburg Address, 1863"),
		doc("3", "union", "Cooper Union Address, 1860"),
		doc("4", "union", "Greeleyville notes, 1862"),
	)
	kws := []profile.Keyword{{Term: "union", Weight: 1}}

	tests := []struct {
		name    string
		years   []string
		sources []string
		want    string
	}{
		{"no filters", nil, nil, "1,2,3,4"},
		{"year substring", []string{"1862"}, nil, "1,4"},
		{"years or", []string{"1860", "1863"}, nil, "2,3"},
		{"source whole word", nil, []string{"Greeley"}, "1"},
		{"years and sources", []string{"1863"}, []string{"address"}, "2"},
		{"no match", []string{"1999"}, nil, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := mustProfile(t, kws, tc.years, tc.sources)
			got, err := New(corpus, corpus, 0, nil).Search(context.Background(), p, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			ids := make([]string, len(got))
			for i := range got {
				ids[i] = got[i].DocumentID()
			}
			if strings.Join(ids, ",") != tc.want {
				t.Errorf("ids = %v, want %s", ids, tc.want)
			}
		})
	}
}

func TestSearch_SnippetUsesHighestOriginalWeight(t *testing.T) {
	body := strings.Repeat("a ", 200) + "slavery " + strings.Repeat("b ", 200) + "freedom " + strings.Repeat("c ", 200)
	corpus := newFakeCorpus(map[string]int64{"slavery": 1, "freedom": 100}, doc("1", body, ""))
	// slavery is rarer (higher dynamic weight) but freedom has the higher original weight.
	p := mustProfile(t, []profile.Keyword{{Term: "slavery", Weight: 1}, {Term: "freedom", Weight: 9}}, nil, nil)

	got, err := New(corpus, corpus, 10, nil).Search(context.Background(), p, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos := strings.Index(body, "freedom")
	if want := body[pos-10 : pos+10]; got[0].Quote() != want {
		t.Errorf("quote = %q, want %q", got[0].Quote(), want)
	}
}

func TestSearch_SnippetTieBreaksOnProfileOrder(t *testing.T) {
	body := "liberty first and then union later"
	corpus := newFakeCorpus(nil, doc("1", body, ""))
	p := mustProfile(t, []profile.Keyword{{Term: "union", Weight: 4}, {Term: "liberty", Weight: 4}}, nil, nil)

	got, err := New(corpus, corpus, 5, nil).Search(context.Background(), p, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos := strings.Index(body, "union")
	if want := body[pos-5 : pos+5]; got[0].Quote() != want {
		t.Errorf("quote = %q, want %q", got[0].Quote(), want)
	}
}

func TestSearch_EmptyKeywordSet(t *testing.T) {
	corpus := newFakeCorpus(nil, doc("1", "x", ""))
	_, err := New(corpus, corpus, 0, nil).Search(context.Background(), mustProfile(t, nil, nil, nil), 5)
	if !errors.Is(err, domain.ErrEmptyKeywordSet) {
		t.Fatalf("expected ErrEmptyKeywordSet, got %v", err)
	}
}

func TestSearch_ContextCancelled(t *testing.T) {
	corpus := newFakeCorpus(nil, doc("1", "war", ""))
	p := mustProfile(t, []profile.Keyword{{Term: "war", Weight: 1}}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(corpus, corpus, 0, nil).Search(ctx, p, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		pos    int
		radius int
		want   string
	}{
		{"middle", "0123456789", 5, 2, "3456"},
		{"clipped start", "0123456789", 1, 3, "0123"},
		{"clipped end", "0123456789", 9, 3, "6789"},
		{"newlines flattened", "ab\ncd\r\nef", 4, 10, "ab cd ef"},
		{"position past body", "short", 40, 10, ""},
		{"rune boundaries", "ééé", 2, 1, "éé"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := snippet(tc.body, tc.pos, tc.radius); got != tc.want {
				t.Errorf("snippet() = %q, want %q", got, tc.want)
			}
		})
	}
}
