package rerank

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain/search/candidate"
	"github.com/kailas-cloud/evidex/internal/domain/search/kind"
	"github.com/kailas-cloud/evidex/internal/domain/search/ranked"
	"github.com/kailas-cloud/evidex/internal/logger"
)

// DefaultTopN is the number of results requested from the reranker.
const DefaultTopN = 10

// Service serializes candidates, reranks them and parses the ranked lines back.
type Service struct {
	reranker  Reranker
	sources   SourceLookup
	topN      int
	malformed prometheus.Counter
	logger    *zap.Logger
}

// New creates a rerank adapter. topN <= 0 uses DefaultTopN; malformed may be nil.
func New(r Reranker, sources SourceLookup, topN int, malformed prometheus.Counter, log *zap.Logger) *Service {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{reranker: r, sources: sources, topN: topN, malformed: malformed, logger: log}
}

// Rerank orders candidates by relevance to query. Ranks are 1-based and contiguous
// in the reranker's order; lines that cannot be parsed are dropped.
func (s *Service) Rerank(ctx context.Context, query string, cands []candidate.Candidate) ([]ranked.Result, error) {
	if len(cands) == 0 {
		return []ranked.Result{}, nil
	}

	lines := make([]string, len(cands))
	for i := range cands {
		lines[i] = cands[i].Line()
	}

	hits, err := s.reranker.Rerank(ctx, query, lines, s.topN)
	if err != nil {
		return nil, fmt.Errorf("rerank %d candidates: %w", len(cands), err)
	}

	log := logger.FromContext(ctx, s.logger)
	results := make([]ranked.Result, 0, len(hits))
	for _, h := range hits {
		k, id, summary, quote, ok := ParseLine(h.Text)
		if !ok {
			log.Warn("Dropping malformed rerank line", zap.Int("index", h.Index), zap.String("line", h.Text))
			if s.malformed != nil {
				s.malformed.Inc()
			}
			continue
		}
		results = append(results, ranked.New(len(results)+1, k, id, s.sources.Source(id), summary, quote, h.Score))
	}
	return results, nil
}

// ParseLine splits "{Kind}|Text ID: {id}|Summary: {summary}|{quote}".
// Lines with fewer than four fields or an unknown kind are rejected.
func ParseLine(line string) (k kind.Kind, id, summary, quote string, ok bool) {
	parts := strings.Split(line, candidate.Delimiter)
	if len(parts) < 4 {
		return "", "", "", "", false
	}
	k, ok = kind.Parse(parts[0])
	if !ok {
		return "", "", "", "", false
	}

	id = strings.TrimSpace(parts[1])
	id = strings.ReplaceAll(id, "Text ID:", "")
	id = strings.ReplaceAll(id, "Text #:", "")
	summary = strings.ReplaceAll(strings.TrimSpace(parts[2]), "Summary:", "")

	return k, strings.TrimSpace(id), strings.TrimSpace(summary), strings.TrimSpace(parts[3]), true
}
