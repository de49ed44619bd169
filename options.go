package evidex

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type openAIConfig struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
}

type rerankConfig struct {
	provider string
	baseURL  string
	apiKey   string
	model    string
}

type llmConfig struct {
	apiKey        string
	baseURL       string
	keywordModel  string
	answerModel   string
	keywordPrompt string
	answerPrompt  string
	temperature   float32
}

type cacheConfig struct {
	addrs    []string
	password string
	ttl      time.Duration
}

type clientConfig struct {
	documentsPath string
	termsPath     string
	documents     io.Reader
	terms         io.Reader

	embedder         Embedder
	openAI           *openAIConfig
	queryInstruction string

	reranker   Reranker
	rerank     *rerankConfig
	rerankTopN int

	llm *llmConfig

	cache *cacheConfig

	keywordTopN    int
	semanticTopN   int
	evidenceTopN   int
	snippetRadius  int
	segmentWords   int
	segmentWorkers int
	hyde           bool

	retryAttempts int
	retryBase     time.Duration
	retryMax      time.Duration
	timeout       time.Duration

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithCorpusFiles loads documents (JSON array) and term frequencies
// (Voyant corpusTerms export) from disk.
func WithCorpusFiles(documentsPath, termsPath string) Option {
	return optionFunc(func(c *clientConfig) {
		c.documentsPath = documentsPath
		c.termsPath = termsPath
	})
}

// WithCorpus reads documents and term frequencies from the given readers.
// Takes precedence over WithCorpusFiles.
func WithCorpus(documents, terms io.Reader) Option {
	return optionFunc(func(c *clientConfig) {
		c.documents = documents
		c.terms = terms
	})
}

// WithEmbedder sets a custom text embedding provider.
// Takes precedence over WithOpenAIEmbeddings.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAIEmbeddings uses an OpenAI-compatible embeddings endpoint.
// Empty baseURL means api.openai.com; dimensions 0 keeps the model default.
func WithOpenAIEmbeddings(apiKey, baseURL, model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAI = &openAIConfig{apiKey: apiKey, baseURL: baseURL, model: model, dimensions: dimensions}
	})
}

// WithQueryInstruction prepends instruction to query texts before embedding.
// Document segments are embedded as is.
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryInstruction = instruction
	})
}

// WithReranker sets a custom reranking provider.
// Takes precedence over WithCohereReranker and WithTEIReranker.
func WithReranker(r Reranker) Option {
	return optionFunc(func(c *clientConfig) {
		c.reranker = r
	})
}

// WithCohereReranker uses the Cohere rerank API.
func WithCohereReranker(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.rerank = &rerankConfig{provider: "cohere", apiKey: apiKey, model: model}
	})
}

// WithTEIReranker uses a text-embeddings-inference /rerank server.
func WithTEIReranker(baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.rerank = &rerankConfig{provider: "tei", baseURL: baseURL, model: model}
	})
}

// WithRerankTopN bounds the number of reranked results. Default: 10.
func WithRerankTopN(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.rerankTopN = n
	})
}

// WithLanguageModel enables Ask. keywordModel extracts the keyword profile,
// answerModel writes the final answer. Empty baseURL means api.openai.com.
func WithLanguageModel(apiKey, baseURL, keywordModel, answerModel string) Option {
	return optionFunc(func(c *clientConfig) {
		if c.llm == nil {
			c.llm = &llmConfig{}
		}
		c.llm.apiKey = apiKey
		c.llm.baseURL = baseURL
		c.llm.keywordModel = keywordModel
		c.llm.answerModel = answerModel
	})
}

// WithPrompts overrides the keyword and answer system prompts.
// Empty strings keep the built-in prompts.
func WithPrompts(keywordPrompt, answerPrompt string) Option {
	return optionFunc(func(c *clientConfig) {
		if c.llm == nil {
			c.llm = &llmConfig{}
		}
		c.llm.keywordPrompt = keywordPrompt
		c.llm.answerPrompt = answerPrompt
	})
}

// WithTemperature sets the chat model sampling temperature. Default: 0.
func WithTemperature(t float32) Option {
	return optionFunc(func(c *clientConfig) {
		if c.llm == nil {
			c.llm = &llmConfig{}
		}
		c.llm.temperature = t
	})
}

// WithRedisCache caches embeddings in Redis. ttl <= 0 stores entries without expiration.
func WithRedisCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cache = &cacheConfig{addrs: []string{addr}, password: password, ttl: ttl}
	})
}

// WithSearchLimits sets how many keyword and semantic hits feed the reranker
// and how many reranked results make up the evidence block.
// Zero keeps the default (5, 5 and 3).
func WithSearchLimits(keywordTopN, semanticTopN, evidenceTopN int) Option {
	return optionFunc(func(c *clientConfig) {
		c.keywordTopN = keywordTopN
		c.semanticTopN = semanticTopN
		c.evidenceTopN = evidenceTopN
	})
}

// WithSnippetRadius sets the number of characters kept on each side of a keyword hit. Default: 300.
func WithSnippetRadius(chars int) Option {
	return optionFunc(func(c *clientConfig) {
		c.snippetRadius = chars
	})
}

// WithSegments sets the word window size for semantic segments and the
// number of workers embedding them. Zero keeps the default (100 words, 5 workers).
func WithSegments(words, workers int) Option {
	return optionFunc(func(c *clientConfig) {
		c.segmentWords = words
		c.segmentWorkers = workers
	})
}

// WithHyDE controls whether the profile's initial answer is appended to the
// semantic query. On by default.
func WithHyDE(enabled bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.hyde = enabled
	})
}

// WithRetry configures retries of provider calls.
// Defaults: 3 attempts, 250ms base delay, 4s max delay.
func WithRetry(maxAttempts int, baseDelay, maxDelay time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.retryAttempts = maxAttempts
		c.retryBase = baseDelay
		c.retryMax = maxDelay
	})
}

// WithTimeout bounds every single provider call attempt. Default: none.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
