package pipeline

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/evidex/internal/domain/search/ranked"
)

// DefaultEvidenceTopN is the number of ranked results rendered as evidence.
const DefaultEvidenceTopN = 3

// FormatEvidence renders the first n ranked results as the evidence block of the answer prompt.
func FormatEvidence(results []ranked.Result, n int) string {
	if n > len(results) {
		n = len(results)
	}
	blocks := make([]string, 0, n)
	for i := range results[:max(n, 0)] {
		r := &results[i]
		blocks = append(blocks, fmt.Sprintf(
			"Match %d: Search Type - %s, Text ID - %s, Source - %s, Summary - %s, Key Quote - %s, Relevance Score - %.2f",
			r.Rank(), r.Kind(), r.DocumentID(), r.Source(), r.Summary(), r.Quote(), r.Score(),
		))
	}
	return strings.Join(blocks, "\n\n")
}
