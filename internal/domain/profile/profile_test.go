package profile

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/evidex/internal/domain"
)

func TestNew_Normalizes(t *testing.T) {
	p, err := New(
		[]Keyword{{Term: " Emancipation ", Weight: 5}, {Term: "Union", Weight: 2}},
		[]string{" 1863 ", ""},
		[]string{"Gettysburg", " "},
		"  draft  ",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	kws := p.Keywords()
	if len(kws) != 2 || kws[0].Term != "emancipation" || kws[1].Term != "union" {
		t.Fatalf("Keywords() = %+v", kws)
	}
	if len(p.Years()) != 1 || p.Years()[0] != "1863" {
		t.Errorf("Years() = %v", p.Years())
	}
	if len(p.Sources()) != 1 || p.Sources()[0] != "gettysburg" {
		t.Errorf("Sources() = %v", p.Sources())
	}
	if p.InitialAnswer() != "draft" {
		t.Errorf("InitialAnswer() = %q", p.InitialAnswer())
	}
	if p.Weights()["emancipation"] != 5 {
		t.Errorf("Weights() = %v", p.Weights())
	}
}

func TestNew_EmptyKeywordsAccepted(t *testing.T) {
	p, err := New(nil, nil, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Keywords()) != 0 {
		t.Errorf("expected no keywords, got %v", p.Keywords())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		kws  []Keyword
	}{
		{"blank term", []Keyword{{Term: "  ", Weight: 1}}},
		{"zero weight", []Keyword{{Term: "war", Weight: 0}}},
		{"negative weight", []Keyword{{Term: "war", Weight: -1}}},
		{"nan weight", []Keyword{{Term: "war", Weight: math.NaN()}}},
		{"duplicate ignoring case", []Keyword{{Term: "War", Weight: 1}, {Term: "war", Weight: 2}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.kws, nil, nil, "")
			if !errors.Is(err, domain.ErrInvalidProfile) {
				t.Fatalf("expected ErrInvalidProfile, got %v", err)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" Gettysburg, ,Cooper Union ,")
	if len(got) != 2 || got[0] != "Gettysburg" || got[1] != "Cooper Union" {
		t.Errorf("SplitList() = %q", got)
	}
	if SplitList("") != nil {
		t.Error("expected nil for empty input")
	}
}
