package evidex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/db"
	dbRedis "github.com/kailas-cloud/evidex/internal/db/redis"
	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/metrics"
	corpusrepo "github.com/kailas-cloud/evidex/internal/repository/corpus"
	"github.com/kailas-cloud/evidex/internal/repository/embcache"
	"github.com/kailas-cloud/evidex/internal/transport/openai"
	"github.com/kailas-cloud/evidex/internal/transport/rerank"
	embeddinguc "github.com/kailas-cloud/evidex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/evidex/internal/usecase/health"
	keyworduc "github.com/kailas-cloud/evidex/internal/usecase/keyword"
	pipelineuc "github.com/kailas-cloud/evidex/internal/usecase/pipeline"
	rerankuc "github.com/kailas-cloud/evidex/internal/usecase/rerank"
	"github.com/kailas-cloud/evidex/internal/usecase/resilience"
	semanticuc "github.com/kailas-cloud/evidex/internal/usecase/semantic"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	keywordMaxTokens        = 500
	answerMaxTokens         = 2000
)

// Client is the evidex entry point. It is safe for concurrent use.
type Client struct {
	corpus   *corpusrepo.Store
	cache    db.Store
	semantic *semanticuc.Service
	pipeline *pipelineuc.Service
	health   *healthuc.Service
	obs      *observer
}

// New loads the corpus and wires the retrieval pipeline.
// A corpus, an embedder and a reranker are required.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{hyde: true}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	if cfg.embedder == nil && cfg.openAI == nil {
		return nil, errors.New("evidex: embedder required (use WithEmbedder or WithOpenAIEmbeddings)")
	}
	if cfg.reranker == nil && cfg.rerank == nil {
		return nil, errors.New("evidex: reranker required (use WithReranker, WithCohereReranker or WithTEIReranker)")
	}

	store, err := loadCorpus(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{corpus: store, obs: obs}
	if cfg.cache != nil {
		cache, err := createCache(cfg.cache)
		if err != nil {
			return nil, err
		}
		c.cache = cache
	}

	if err := c.wire(cfg); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func loadCorpus(cfg *clientConfig) (*corpusrepo.Store, error) {
	switch {
	case cfg.documents != nil && cfg.terms != nil:
		s, err := corpusrepo.Load(cfg.documents, cfg.terms)
		if err != nil {
			return nil, fmt.Errorf("evidex: load corpus: %w", err)
		}
		return s, nil
	case cfg.documentsPath != "" && cfg.termsPath != "":
		s, err := corpusrepo.LoadFiles(cfg.documentsPath, cfg.termsPath)
		if err != nil {
			return nil, fmt.Errorf("evidex: load corpus: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("evidex: %w: corpus required (use WithCorpusFiles or WithCorpus)",
			domain.ErrCorpusUnavailable)
	}
}

func createCache(cfg *cacheConfig) (db.Store, error) {
	s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
	if err != nil {
		return nil, fmt.Errorf("evidex: create redis store: %w", err)
	}
	if err := s.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("evidex: redis not ready: %w", err)
	}
	return s, nil
}

func retryPolicy(cfg *clientConfig) resilience.Policy {
	p := resilience.DefaultPolicy()
	if cfg.retryAttempts > 0 {
		p.MaxAttempts = cfg.retryAttempts
	}
	if cfg.retryBase > 0 {
		p.BaseDelay = cfg.retryBase
	}
	if cfg.retryMax > 0 {
		p.MaxDelay = cfg.retryMax
	}
	return p.WithTimeout(cfg.timeout)
}

func (c *Client) wire(cfg *clientConfig) error {
	log := cfg.logger
	policy := retryPolicy(cfg)

	embedder := c.buildEmbedder(cfg)
	resilientEmb := resilience.NewEmbedder(embedder, policy, log)

	semOpts := []semanticuc.Option{
		semanticuc.WithLogger(log),
		semanticuc.WithPoolSize(cfg.segmentWorkers),
		semanticuc.WithSegmentWords(cfg.segmentWords),
	}
	if cfg.queryInstruction != "" {
		semOpts = append(semOpts, semanticuc.WithQueryEmbedder(
			domain.NewInstructionEmbedder(resilientEmb, cfg.queryInstruction),
		))
	}
	sem, err := semanticuc.New(c.corpus, resilientEmb, semOpts...)
	if err != nil {
		return fmt.Errorf("evidex: %w", err)
	}
	c.semantic = sem

	rerankClient, err := buildRerankClient(cfg)
	if err != nil {
		return err
	}
	reranker := rerankuc.New(
		resilience.NewReranker(rerankClient, policy, log),
		c.corpus, cfg.rerankTopN, metrics.RerankMalformedTotal, log,
	)

	pipeOpts := []pipelineuc.Option{pipelineuc.WithLogger(log)}
	if cfg.llm != nil && cfg.llm.apiKey != "" {
		pipeOpts = append(pipeOpts, chatOptions(cfg.llm, policy, log)...)
	}

	c.pipeline = pipelineuc.New(
		keyworduc.New(c.corpus, c.corpus, cfg.snippetRadius, log),
		sem,
		reranker,
		pipelineuc.Config{
			KeywordTopN:  cfg.keywordTopN,
			SemanticTopN: cfg.semanticTopN,
			EvidenceTopN: cfg.evidenceTopN,
			HyDE:         cfg.hyde,
		},
		pipeOpts...,
	)

	c.health = healthuc.New(c.corpus, c.cache, resilientEmb, true)
	return nil
}

// buildEmbedder returns provider -> cache -> instrumentation.
func (c *Client) buildEmbedder(cfg *clientConfig) domain.Embedder {
	var (
		base     domain.Embedder
		provider = "custom"
		model    = "custom"
	)
	if cfg.embedder != nil {
		base = &embedderAdapter{inner: cfg.embedder}
	} else {
		provider, model = "openai", cfg.openAI.model
		base = openai.NewEmbedder(&openai.Config{
			APIKey:     cfg.openAI.apiKey,
			BaseURL:    cfg.openAI.baseURL,
			Model:      cfg.openAI.model,
			Dimensions: cfg.openAI.dimensions,
			Provider:   provider,
			Logger:     cfg.logger,
		})
	}

	if c.cache != nil {
		base = embcache.New(base, c.cache, model, cfg.cache.ttl, metrics.EmbeddingCacheTotal, cfg.logger)
	}
	return embeddinguc.NewInstrumentedEmbedder(base, provider, model, cfg.logger)
}

func buildRerankClient(cfg *clientConfig) (resilience.RerankClient, error) {
	if cfg.reranker != nil {
		return &rerankerAdapter{inner: cfg.reranker}, nil
	}
	client, err := rerank.New(&rerank.Config{
		Provider: cfg.rerank.provider,
		BaseURL:  cfg.rerank.baseURL,
		APIKey:   cfg.rerank.apiKey,
		Model:    cfg.rerank.model,
		Logger:   cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("evidex: create reranker: %w", err)
	}
	return client, nil
}

func chatOptions(llm *llmConfig, policy resilience.Policy, log *zap.Logger) []pipelineuc.Option {
	extractor := openai.NewProfileExtractor(&openai.ChatConfig{
		APIKey:       llm.apiKey,
		BaseURL:      llm.baseURL,
		Model:        llm.keywordModel,
		SystemPrompt: llm.keywordPrompt,
		Temperature:  llm.temperature,
		MaxTokens:    keywordMaxTokens,
		Logger:       log,
	})
	answerer := openai.NewAnswerSynthesizer(&openai.ChatConfig{
		APIKey:       llm.apiKey,
		BaseURL:      llm.baseURL,
		Model:        llm.answerModel,
		SystemPrompt: llm.answerPrompt,
		Temperature:  llm.temperature,
		MaxTokens:    answerMaxTokens,
		Logger:       log,
	})
	return []pipelineuc.Option{
		pipelineuc.WithProfileExtractor(resilience.NewProfileExtractor(extractor, policy, log)),
		pipelineuc.WithAnswerSynthesizer(resilience.NewAnswerSynthesizer(answerer, policy, log)),
	}
}

// Close releases the segment worker pool and the cache connection.
func (c *Client) Close() {
	if c.semantic != nil {
		c.semantic.Close()
	}
	if c.cache != nil {
		c.cache.Close()
	}
}

// Documents returns the number of loaded corpus documents.
func (c *Client) Documents() int {
	return c.corpus.Len()
}

// Search runs keyword and semantic retrieval for query, dedups and reranks the hits.
func (c *Client) Search(ctx context.Context, query string, p Profile) (_ *Report, err error) {
	defer func(start time.Time) { c.obs.observe(opSearch, start, err) }(time.Now())

	prof, err := toInternalProfile(p)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	report, err := c.pipeline.Run(ctx, query, prof)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromReport(report), nil
}

// Ask extracts a keyword profile from query with the chat model, runs Search
// and synthesizes an answer from the evidence. Requires WithLanguageModel.
func (c *Client) Ask(ctx context.Context, query string) (_ *Answer, err error) {
	defer func(start time.Time) { c.obs.observe(opAsk, start, err) }(time.Now())

	res, err := c.pipeline.Ask(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}
	return &Answer{
		Profile: fromInternalProfile(res.Profile),
		Report:  fromReport(res.Report),
		Text:    res.Answer,
	}, nil
}

// Health checks the corpus, the cache and the embedding provider.
func (c *Client) Health(ctx context.Context) Health {
	return fromHealth(c.health.Check(ctx))
}
