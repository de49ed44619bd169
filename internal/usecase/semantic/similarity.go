package semantic

import (
	"math"
	"strings"
)

// Cosine returns dot(a,b) / (|a| |b|), accumulated in float64.
// Mismatched lengths and zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Segment splits text on whitespace into consecutive windows of size words joined
// by single spaces. The last window may be shorter; empty text has no segments.
func Segment(text string, size int) []string {
	words := strings.Fields(text)
	if len(words) == 0 || size <= 0 {
		return nil
	}
	out := make([]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := min(start+size, len(words))
		out = append(out, strings.Join(words[start:end], " "))
	}
	return out
}
