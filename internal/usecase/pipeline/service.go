package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/profile"
	"github.com/kailas-cloud/evidex/internal/domain/search/candidate"
	"github.com/kailas-cloud/evidex/internal/domain/search/match"
	"github.com/kailas-cloud/evidex/internal/domain/search/ranked"
	"github.com/kailas-cloud/evidex/internal/logger"
	"github.com/kailas-cloud/evidex/internal/metrics"
)

// Default result counts per retrieval method.
const (
	DefaultKeywordTopN  = 5
	DefaultSemanticTopN = 5
)

// Config holds per-run result limits.
type Config struct {
	KeywordTopN  int
	SemanticTopN int
	EvidenceTopN int
	// HyDE appends the profile's initial answer to the semantic query.
	HyDE bool
}

func (c *Config) applyDefaults() {
	if c.KeywordTopN <= 0 {
		c.KeywordTopN = DefaultKeywordTopN
	}
	if c.SemanticTopN <= 0 {
		c.SemanticTopN = DefaultSemanticTopN
	}
	if c.EvidenceTopN <= 0 {
		c.EvidenceTopN = DefaultEvidenceTopN
	}
}

// Report carries every intermediate artifact of one retrieval run.
type Report struct {
	Query           string
	SemanticQuery   string
	Weights         []profile.WeightedKeyword
	KeywordMatches  []match.Keyword
	SemanticMatches []match.Semantic
	Candidates      []candidate.Candidate
	Ranked          []ranked.Result
	Evidence        string
	Durations       map[domain.Stage]time.Duration
}

// AskReport is the outcome of a full question-answering run.
type AskReport struct {
	Profile profile.Profile
	Report  *Report
	Answer  string
}

// Service orchestrates keyword search, semantic search, dedup and rerank.
// It holds no per-query state and is safe for concurrent use.
type Service struct {
	keyword   KeywordSearcher
	semantic  SemanticSearcher
	reranker  Reranker
	extractor ProfileExtractor
	answerer  AnswerSynthesizer
	cfg       Config
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithProfileExtractor enables Ask by wiring the keyword-profile model.
func WithProfileExtractor(e ProfileExtractor) Option {
	return func(s *Service) { s.extractor = e }
}

// WithAnswerSynthesizer enables Ask by wiring the answer model.
func WithAnswerSynthesizer(a AnswerSynthesizer) Option {
	return func(s *Service) { s.answerer = a }
}

// WithLogger sets the fallback logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a pipeline service.
func New(kw KeywordSearcher, sem SemanticSearcher, rr Reranker, cfg Config, opts ...Option) *Service {
	cfg.applyDefaults()
	s := &Service{keyword: kw, semantic: sem, reranker: rr, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run retrieves and ranks evidence for query using an explicit keyword profile.
func (s *Service) Run(ctx context.Context, query string, p profile.Profile) (*Report, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidQuery)
	}

	log := logger.FromContext(ctx, s.logger)
	report := &Report{
		Query:         query,
		SemanticQuery: s.semanticQuery(query, p),
		Durations:     make(map[domain.Stage]time.Duration, 4),
	}

	var kwTook, semTook time.Duration
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		weights, matches, err := s.searchKeyword(gctx, p)
		kwTook = observe(domain.StageKeyword, start, err)
		if err != nil {
			return domain.NewStageError(domain.StageKeyword, err)
		}
		report.Weights, report.KeywordMatches = weights, matches
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		matches, err := s.semantic.Search(gctx, report.SemanticQuery, s.cfg.SemanticTopN)
		semTook = observe(domain.StageSemantic, start, err)
		if err != nil {
			return domain.NewStageError(domain.StageSemantic, err)
		}
		report.SemanticMatches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Warn("Retrieval failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	report.Durations[domain.StageKeyword] = kwTook
	report.Durations[domain.StageSemantic] = semTook

	start := time.Now()
	report.Candidates = Dedup(report.KeywordMatches, report.SemanticMatches)
	report.Durations[domain.StageDedup] = observe(domain.StageDedup, start, nil)

	start = time.Now()
	results, err := s.reranker.Rerank(ctx, query, report.Candidates)
	report.Durations[domain.StageRerank] = observe(domain.StageRerank, start, err)
	if err != nil {
		log.Warn("Rerank failed", zap.String("query", query), zap.Error(err))
		return nil, domain.NewStageError(domain.StageRerank, err)
	}
	report.Ranked = results
	report.Evidence = FormatEvidence(results, s.cfg.EvidenceTopN)

	log.Info("Retrieval finished",
		zap.String("query", query),
		zap.Int("keywords", len(report.Weights)),
		zap.Int("keyword_matches", len(report.KeywordMatches)),
		zap.Int("semantic_matches", len(report.SemanticMatches)),
		zap.Int("candidates", len(report.Candidates)),
		zap.Strings("top_ids", topIDs(results)),
		zap.Duration("keyword_duration", kwTook),
		zap.Duration("semantic_duration", semTook),
		zap.Duration("rerank_duration", report.Durations[domain.StageRerank]),
	)
	return report, nil
}

// Ask extracts a keyword profile from query, runs retrieval and synthesizes an answer.
func (s *Service) Ask(ctx context.Context, query string) (*AskReport, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("%w: profile extractor", domain.ErrNotConfigured)
	}
	if s.answerer == nil {
		return nil, fmt.Errorf("%w: answer synthesizer", domain.ErrNotConfigured)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidQuery)
	}

	start := time.Now()
	p, err := s.extractor.Extract(ctx, query)
	observe(domain.StageProfile, start, err)
	if err != nil {
		return nil, domain.NewStageError(domain.StageProfile, err)
	}

	report, err := s.Run(ctx, query, p)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	answer, err := s.answerer.Synthesize(ctx, domain.AnswerRequest{
		Query:         query,
		InitialAnswer: p.InitialAnswer(),
		Evidence:      report.Evidence,
	})
	report.Durations[domain.StageAnswer] = observe(domain.StageAnswer, start, err)
	if err != nil {
		return nil, domain.NewStageError(domain.StageAnswer, err)
	}

	logger.FromContext(ctx, s.logger).Info("Answer synthesized",
		zap.String("query", query),
		zap.Int("answer_len", len(answer)),
	)
	return &AskReport{Profile: p, Report: report, Answer: answer}, nil
}

func (s *Service) searchKeyword(
	ctx context.Context, p profile.Profile,
) ([]profile.WeightedKeyword, []match.Keyword, error) {
	weights, err := s.keyword.Weigh(p)
	if err != nil {
		return nil, nil, fmt.Errorf("weigh keywords: %w", err)
	}
	matches, err := s.keyword.SearchWeighted(ctx, p, weights, s.cfg.KeywordTopN)
	if err != nil {
		return nil, nil, err
	}
	return weights, matches, nil
}

// semanticQuery returns the text embedded for semantic search.
func (s *Service) semanticQuery(query string, p profile.Profile) string {
	if s.cfg.HyDE && p.InitialAnswer() != "" {
		return query + " " + p.InitialAnswer()
	}
	return query
}

func observe(stage domain.Stage, start time.Time, err error) time.Duration {
	took := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.StageDuration.WithLabelValues(string(stage), status).Observe(took.Seconds())
	return took
}

func topIDs(results []ranked.Result) []string {
	ids := make([]string, len(results))
	for i := range results {
		ids[i] = results[i].DocumentID()
	}
	return ids
}
