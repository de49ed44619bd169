package corpus

import (
	domdoc "github.com/kailas-cloud/evidex/internal/domain/document"
)

// documentDTO is one entry of the documents file.
type documentDTO struct {
	TextID    string    `json:"text_id"`
	FullText  string    `json:"full_text"`
	Source    string    `json:"source"`
	Summary   string    `json:"summary"`
	Keywords  []string  `json:"keywords"`
	Embedding []float32 `json:"embedding"`
}

// termsDTO mirrors a Voyant corpus-terms export.
type termsDTO struct {
	CorpusTerms struct {
		Terms []termDTO `json:"terms"`
	} `json:"corpusTerms"`
}

type termDTO struct {
	Term    string `json:"term"`
	RawFreq int64  `json:"rawFreq"`
}

func (d *documentDTO) toDomain() (domdoc.Document, error) {
	return domdoc.New(d.TextID, d.FullText, d.Source, d.Summary, d.Keywords, d.Embedding) //nolint:wrapcheck // caller adds position
}
