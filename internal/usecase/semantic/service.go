package semantic

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain"
	domdoc "github.com/kailas-cloud/evidex/internal/domain/document"
	"github.com/kailas-cloud/evidex/internal/domain/search/match"
	"github.com/kailas-cloud/evidex/internal/logger"
)

// Defaults for segment embedding.
const (
	DefaultPoolSize     = 5
	DefaultSegmentWords = 100
)

// Service ranks documents by embedding similarity and picks each hit's best segment.
// Segment embeddings run on a bounded worker pool shared by all queries.
type Service struct {
	corpus       Corpus
	embed        Embedder
	queryEmbed   Embedder
	pool         *ants.Pool
	poolSize     int
	segmentWords int
	logger       *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPoolSize sets the number of concurrent segment embedding calls.
func WithPoolSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.poolSize = size
		}
	}
}

// WithSegmentWords sets the segment window size in words.
func WithSegmentWords(words int) Option {
	return func(s *Service) {
		if words > 0 {
			s.segmentWords = words
		}
	}
}

// WithQueryEmbedder embeds queries with a different embedder than segments
// (e.g. one that prepends a query instruction).
func WithQueryEmbedder(e Embedder) Option {
	return func(s *Service) {
		if e != nil {
			s.queryEmbed = e
		}
	}
}

// WithLogger sets the fallback logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a semantic search service. Call Close to release the worker pool.
func New(corpus Corpus, embed Embedder, opts ...Option) (*Service, error) {
	s := &Service{
		corpus:       corpus,
		embed:        embed,
		queryEmbed:   embed,
		poolSize:     DefaultPoolSize,
		segmentWords: DefaultSegmentWords,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	pool, err := ants.NewPool(s.poolSize)
	if err != nil {
		return nil, fmt.Errorf("create segment pool: %w", err)
	}
	s.pool = pool
	return s, nil
}

// Close releases the worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// Search returns the n documents most similar to query, each with its best segment.
func (s *Service) Search(ctx context.Context, query string, n int) ([]match.Semantic, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidQuery)
	}

	q, err := s.queryEmbed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if err := s.checkDims("query", q.Embedding); err != nil {
		return nil, err
	}

	top := s.rank(q.Embedding, n)
	segments, err := s.embedSegments(ctx, top)
	if err != nil {
		return nil, err
	}

	results := make([]match.Semantic, len(top))
	for i, h := range top {
		best := bestSegment(q.Embedding, segments[i])
		results[i] = match.NewSemantic(h.doc.ID(), h.score, best, h.doc.Source(), h.doc.Summary())
	}

	logger.FromContext(ctx, s.logger).Debug("Semantic search finished",
		zap.Int("hits", len(results)),
		zap.Int("segments", countSegments(segments)),
	)
	return results, nil
}

type hit struct {
	doc   *domdoc.Document
	score float64
}

// rank scores every document against the query vector. Ties keep corpus order.
func (s *Service) rank(vec []float32, n int) []hit {
	docs := s.corpus.All()
	hits := make([]hit, len(docs))
	for i := range docs {
		hits[i] = hit{doc: &docs[i], score: Cosine(vec, docs[i].Embedding())}
	}
	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})
	if n > 0 && len(hits) > n {
		hits = hits[:n]
	}
	return hits
}

type segment struct {
	text string
	vec  []float32
}

// embedSegments embeds every segment of every hit on the pool. Results land in
// slots fixed at submission time, so completion order does not matter.
// The first failure cancels the remaining work and fails the search.
func (s *Service) embedSegments(ctx context.Context, hits []hit) ([][]segment, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([][]segment, len(hits))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i, h := range hits {
		texts := Segment(h.doc.Body(), s.segmentWords)
		out[i] = make([]segment, len(texts))
		for j, text := range texts {
			out[i][j].text = text
			slot := &out[i][j]
			docID := h.doc.ID()

			wg.Add(1)
			err := s.pool.Submit(func() {
				defer wg.Done()
				if ctx.Err() != nil {
					fail(fmt.Errorf("embed segment %d of %q: %w", j, docID, ctx.Err()))
					return
				}
				res, err := s.embed.Embed(ctx, text)
				if err == nil {
					err = s.checkDims("segment", res.Embedding)
				}
				if err != nil {
					fail(fmt.Errorf("embed segment %d of %q: %w", j, docID, err))
					return
				}
				slot.vec = res.Embedding
			})
			if err != nil {
				wg.Done()
				fail(fmt.Errorf("submit segment: %w", err))
			}
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// checkDims rejects vectors the corpus embeddings cannot be compared with.
func (s *Service) checkDims(what string, vec []float32) error {
	want := s.corpus.Dimensions()
	if want == 0 || len(vec) == want {
		return nil
	}
	return fmt.Errorf("%s vector has %d dimensions, corpus has %d: %w: %w",
		what, len(vec), want, domain.ErrVectorDimMismatch, domain.ErrEmbeddingProviderError)
}

// bestSegment returns the most similar segment text; the first wins ties.
func bestSegment(query []float32, segs []segment) string {
	best, bestScore := "", 0.0
	for i, sg := range segs {
		score := Cosine(query, sg.vec)
		if i == 0 || score > bestScore {
			best, bestScore = sg.text, score
		}
	}
	return best
}

func countSegments(segs [][]segment) int {
	n := 0
	for _, s := range segs {
		n += len(s)
	}
	return n
}
