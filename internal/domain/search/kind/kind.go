package kind

import "strings"

// Kind is the retrieval method that produced a candidate.
type Kind string

// Retrieval kinds. The string values are part of the rerank line format.
const (
	Keyword  Kind = "Keyword"
	Semantic Kind = "Semantic"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == Keyword || k == Semantic
}

// Parse maps a label back to a Kind, ignoring case and surrounding whitespace.
func Parse(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keyword":
		return Keyword, true
	case "semantic":
		return Semantic, true
	default:
		return "", false
	}
}
