package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/config"
	"github.com/kailas-cloud/evidex/internal/db"
	dbRedis "github.com/kailas-cloud/evidex/internal/db/redis"
	"github.com/kailas-cloud/evidex/internal/domain"
	logpkg "github.com/kailas-cloud/evidex/internal/logger"
	"github.com/kailas-cloud/evidex/internal/metrics"
	"github.com/kailas-cloud/evidex/internal/repository/corpus"
	"github.com/kailas-cloud/evidex/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/evidex/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/evidex/internal/transport/openai"
	rerankTransport "github.com/kailas-cloud/evidex/internal/transport/rerank"
	embeddinguc "github.com/kailas-cloud/evidex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/evidex/internal/usecase/health"
	keyworduc "github.com/kailas-cloud/evidex/internal/usecase/keyword"
	pipelineuc "github.com/kailas-cloud/evidex/internal/usecase/pipeline"
	rerankuc "github.com/kailas-cloud/evidex/internal/usecase/rerank"
	"github.com/kailas-cloud/evidex/internal/usecase/resilience"
	semanticuc "github.com/kailas-cloud/evidex/internal/usecase/semantic"
	"github.com/kailas-cloud/evidex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting evidex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("built", version.Date),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("rerank_provider", cfg.Rerank.Provider),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()
	metrics.RegisterHTTPMetrics()

	store, err := corpus.LoadFiles(cfg.Corpus.DocumentsPath, cfg.Corpus.TermsPath)
	if err != nil {
		logger.Fatal("Failed to load corpus", zap.Error(err))
	}
	logger.Info("Corpus loaded",
		zap.Int("documents", store.Len()),
		zap.Int("dimensions", store.Dimensions()),
		zap.Int64("total_words", store.TotalWords()),
	)

	// Optional embedding cache
	var cache db.Store
	if cfg.Cache.Driver == config.CacheRedis {
		cache, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
			LocalTTL: time.Duration(cfg.Cache.LocalTTLSec) * time.Second,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cache.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := cache.WaitForReady(context.Background(), readiness); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Build embedder chain (composition root)
	embedder := buildEmbedder(&cfg, cache, logger)
	var queryEmbedder domain.Embedder = embedder
	if cfg.Embedding.QueryInstruction != "" {
		queryEmbedder = domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction)
	}

	semanticSvc, err := semanticuc.New(store, embedder,
		semanticuc.WithQueryEmbedder(queryEmbedder),
		semanticuc.WithPoolSize(cfg.Search.SegmentWorkers),
		semanticuc.WithSegmentWords(cfg.Search.SegmentWords),
		semanticuc.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("Failed to create semantic search", zap.Error(err))
	}
	defer semanticSvc.Close()

	keywordSvc := keyworduc.New(store, store, cfg.Search.SnippetRadius, logger)

	rerankClient, err := rerankTransport.New(&rerankTransport.Config{
		Provider: cfg.Rerank.Provider,
		BaseURL:  cfg.Rerank.BaseURL,
		APIKey:   cfg.Rerank.APIKey,
		Model:    cfg.Rerank.Model,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Failed to create reranker", zap.Error(err))
	}
	rerankSvc := rerankuc.New(
		resilience.NewReranker(rerankClient, retryPolicy(&cfg, cfg.Timeouts.RerankSec), logger),
		store, cfg.Rerank.TopN, metrics.RerankMalformedTotal, logger,
	)

	pipeOpts := []pipelineuc.Option{pipelineuc.WithLogger(logger)}
	if cfg.LLM.Enabled() {
		chatOpts, err := buildChat(&cfg, logger)
		if err != nil {
			logger.Fatal("Failed to configure chat models", zap.Error(err))
		}
		pipeOpts = append(pipeOpts, chatOpts...)
		logger.Info("Question answering enabled",
			zap.String("keyword_model", cfg.LLM.KeywordModel),
			zap.String("answer_model", cfg.LLM.AnswerModel),
		)
	} else {
		logger.Warn("Chat models not configured, /v1/ask is disabled")
	}

	pipelineSvc := pipelineuc.New(keywordSvc, semanticSvc, rerankSvc, pipelineuc.Config{
		KeywordTopN:  cfg.Search.KeywordTopN,
		SemanticTopN: cfg.Search.SemanticTopN,
		EvidenceTopN: cfg.Search.EvidenceTopN,
		HyDE:         cfg.Search.HyDEEnabled(),
	}, pipeOpts...)

	healthSvc := healthuc.New(store, cache, embedder, true)

	server := chiTransport.NewServer(pipelineSvc, healthSvc, logger)
	router := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func retryPolicy(cfg *config.Config, timeoutSec int) resilience.Policy {
	p := resilience.DefaultPolicy()
	p.MaxAttempts = cfg.Retry.MaxAttempts
	p.BaseDelay = time.Duration(cfg.Retry.BaseDelayMs) * time.Millisecond
	p.MaxDelay = time.Duration(cfg.Retry.MaxDelayMs) * time.Millisecond
	return p.WithTimeout(time.Duration(timeoutSec) * time.Second)
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Retry.
// The query instruction is applied outside the chain so cached segment vectors stay instruction-free.
func buildEmbedder(cfg *config.Config, cache db.Store, logger *zap.Logger) *resilience.Embedder {
	// Base provider (with transport metrics built-in)
	var embedder domain.Embedder = openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	if cache != nil {
		ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
		embedder = embcache.New(embedder, cache, cfg.Embedding.Model, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Provider, cfg.Embedding.Model, logger)

	return resilience.NewEmbedder(embedder, retryPolicy(cfg, cfg.Timeouts.EmbeddingSec), logger)
}

// buildChat wires the profile extractor and the answer synthesizer behind retries.
func buildChat(cfg *config.Config, logger *zap.Logger) ([]pipelineuc.Option, error) {
	keywordPrompt, err := config.ReadPrompt(cfg.LLM.KeywordPromptPath, openaiTransport.DefaultKeywordPrompt)
	if err != nil {
		return nil, err
	}
	answerPrompt, err := config.ReadPrompt(cfg.LLM.AnswerPromptPath, openaiTransport.DefaultAnswerPrompt)
	if err != nil {
		return nil, err
	}

	extractor := openaiTransport.NewProfileExtractor(&openaiTransport.ChatConfig{
		APIKey:       cfg.LLM.APIKey,
		BaseURL:      cfg.LLM.BaseURL,
		Model:        cfg.LLM.KeywordModel,
		SystemPrompt: keywordPrompt,
		Temperature:  cfg.LLM.Temperature,
		MaxTokens:    cfg.LLM.KeywordMaxTokens,
		Logger:       logger,
	})
	answerer := openaiTransport.NewAnswerSynthesizer(&openaiTransport.ChatConfig{
		APIKey:       cfg.LLM.APIKey,
		BaseURL:      cfg.LLM.BaseURL,
		Model:        cfg.LLM.AnswerModel,
		SystemPrompt: answerPrompt,
		Temperature:  cfg.LLM.Temperature,
		MaxTokens:    cfg.LLM.AnswerMaxTokens,
		Logger:       logger,
	})

	policy := retryPolicy(cfg, cfg.Timeouts.LLMSec)
	return []pipelineuc.Option{
		pipelineuc.WithProfileExtractor(resilience.NewProfileExtractor(extractor, policy, logger)),
		pipelineuc.WithAnswerSynthesizer(resilience.NewAnswerSynthesizer(answerer, policy, logger)),
	}, nil
}
