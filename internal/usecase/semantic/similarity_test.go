package semantic

import (
	"math"
	"strings"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{0.3, 0.4}, []float32{0.3, 0.4}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 2}, []float32{-1, -2}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"dimension mismatch", []float32{1}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Cosine(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSegment(t *testing.T) {
	body := "one  two\nthree\tfour five"
	got := Segment(body, 2)
	want := []string{"one two", "three four", "five"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Segment() = %q, want %q", got, want)
	}

	if Segment("   ", 100) != nil {
		t.Error("expected no segments for blank text")
	}

	long := strings.TrimSpace(strings.Repeat("w ", 201))
	if n := len(Segment(long, 100)); n != 3 {
		t.Errorf("expected 3 segments for 201 words, got %d", n)
	}
}
