package keyword

import (
	"strings"
	"testing"

	domdoc "github.com/kailas-cloud/evidex/internal/domain/document"
	"github.com/kailas-cloud/evidex/internal/domain/profile"
)

// fakeCorpus implements Corpus and TermFrequencies for tests.
type fakeCorpus struct {
	docs  []domdoc.Document
	freq  map[string]int64
	total int64
}

func (f *fakeCorpus) All() []domdoc.Document { return f.docs }

func (f *fakeCorpus) RawFreq(term string) int64 { return f.freq[strings.ToLower(term)] }

func (f *fakeCorpus) TotalWords() int64 { return f.total }

func newFakeCorpus(freq map[string]int64, docs ...domdoc.Document) *fakeCorpus {
	var total int64
	for _, n := range freq {
		total += n
	}
	return &fakeCorpus{docs: docs, freq: freq, total: total}
}

func doc(id, body, source string) domdoc.Document {
	return domdoc.Reconstruct(id, body, source, "", nil, []float32{1})
}

func mustProfile(t *testing.T, kws []profile.Keyword, years, sources []string) profile.Profile {
	t.Helper()
	p, err := profile.New(kws, years, sources, "")
	if err != nil {
		t.Fatalf("profile.New: %v", err)
	}
	return p
}
