package pipeline

import (
	"github.com/kailas-cloud/evidex/internal/domain/search/candidate"
	"github.com/kailas-cloud/evidex/internal/domain/search/match"
)

// Dedup merges keyword and semantic matches into one candidate list.
// Keyword matches come first, so a document found by both keeps keyword provenance.
func Dedup(keyword []match.Keyword, semantic []match.Semantic) []candidate.Candidate {
	all := make([]candidate.Candidate, 0, len(keyword)+len(semantic))
	for i := range keyword {
		all = append(all, candidate.FromKeyword(&keyword[i]))
	}
	for i := range semantic {
		all = append(all, candidate.FromSemantic(&semantic[i]))
	}
	return DedupCandidates(all)
}

// DedupCandidates keeps the first candidate for each document ID, preserving order.
func DedupCandidates(cands []candidate.Candidate) []candidate.Candidate {
	seen := make(map[string]struct{}, len(cands))
	out := make([]candidate.Candidate, 0, len(cands))
	for i := range cands {
		id := cands[i].DocumentID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, cands[i])
	}
	return out
}
