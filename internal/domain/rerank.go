package domain

// RerankHit is one entry of a reranking response.
// Index points into the submitted documents slice; Text echoes that document.
type RerankHit struct {
	Index int
	Text  string
	Score float64
}
