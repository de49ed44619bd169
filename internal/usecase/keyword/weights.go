package keyword

import (
	"fmt"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/profile"
)

// MaxWeight is the dynamic weight of the rarest keyword of a profile.
const MaxWeight = 10.0

// Weigh derives dynamic weights from corpus frequencies: rarer terms weigh more.
//
//	relative = rawFreq / totalWords   (1 for unseen terms)
//	inverse  = 1 / relative
//	dynamic  = inverse / max(inverse) * 10
//
// Result order follows the profile order.
func Weigh(p profile.Profile, terms TermFrequencies) ([]profile.WeightedKeyword, error) {
	kws := p.Keywords()
	if len(kws) == 0 {
		return nil, fmt.Errorf("weigh keywords: %w", domain.ErrEmptyKeywordSet)
	}

	total := terms.TotalWords()
	inverse := make([]float64, len(kws))
	maxInverse := 0.0
	for i, k := range kws {
		rel := 1.0
		if raw := terms.RawFreq(k.Term); total > 0 && raw > 0 {
			rel = float64(raw) / float64(total)
		}
		inverse[i] = 1 / rel
		if inverse[i] > maxInverse {
			maxInverse = inverse[i]
		}
	}

	out := make([]profile.WeightedKeyword, len(kws))
	for i, k := range kws {
		out[i] = profile.WeightedKeyword{
			Term:     k.Term,
			Original: k.Weight,
			Dynamic:  inverse[i] / maxInverse * MaxWeight,
		}
	}
	return out, nil
}
