package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the evidex configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
	Auth      AuthConfig      `yaml:"auth"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Rerank    RerankConfig    `yaml:"rerank"`
	LLM       LLMConfig       `yaml:"llm"`
	Search    SearchConfig    `yaml:"search"`
	Retry     RetryConfig     `yaml:"retry"`
	Timeouts  TimeoutsConfig  `yaml:"timeouts"`
	Cache     CacheConfig     `yaml:"cache"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CorpusConfig locates the corpus files loaded at startup.
type CorpusConfig struct {
	DocumentsPath string `yaml:"documents_path"`
	TermsPath     string `yaml:"terms_path"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"` // label for metrics (default: openai)
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
}

// RerankConfig holds reranking provider settings.
type RerankConfig struct {
	Provider string `yaml:"provider"` // cohere, tei
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	TopN     int    `yaml:"top_n"`
}

// LLMConfig holds chat model settings for profile extraction and answer synthesis.
type LLMConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	KeywordModel      string  `yaml:"keyword_model"`
	AnswerModel       string  `yaml:"answer_model"`
	KeywordPromptPath string  `yaml:"keyword_prompt_path"`
	AnswerPromptPath  string  `yaml:"answer_prompt_path"`
	Temperature       float32 `yaml:"temperature"`
	KeywordMaxTokens  int     `yaml:"keyword_max_tokens"`
	AnswerMaxTokens   int     `yaml:"answer_max_tokens"`
}

// Enabled reports whether the Ask flow can be wired.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" && c.KeywordModel != "" && c.AnswerModel != ""
}

// SearchConfig holds retrieval limits.
type SearchConfig struct {
	KeywordTopN    int   `yaml:"keyword_top_n"`
	SemanticTopN   int   `yaml:"semantic_top_n"`
	SegmentWords   int   `yaml:"segment_words"`
	SnippetRadius  int   `yaml:"snippet_radius"`
	SegmentWorkers int   `yaml:"segment_workers"`
	EvidenceTopN   int   `yaml:"evidence_top_n"`
	HyDE           *bool `yaml:"hyde"`
}

// HyDEEnabled reports whether the initial answer joins the semantic query.
// Unset means on.
func (s SearchConfig) HyDEEnabled() bool {
	return s.HyDE == nil || *s.HyDE
}

// RetryConfig holds the collaborator retry policy.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMs int `yaml:"base_delay_ms"`
	MaxDelayMs  int `yaml:"max_delay_ms"`
}

// TimeoutsConfig holds per-attempt collaborator timeouts.
type TimeoutsConfig struct {
	EmbeddingSec int `yaml:"embedding_sec"`
	RerankSec    int `yaml:"rerank_sec"`
	LLMSec       int `yaml:"llm_sec"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, redis (default: none)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLHours         int      `yaml:"ttl_hours"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	// LocalTTLSec keeps recently read vectors in process memory (rueidis client-side caching). 0 disables it.
	LocalTTLSec int `yaml:"local_ttl_sec"`
}

// Cache drivers.
const (
	CacheNone  = "none"
	CacheRedis = "redis"
)

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	c.applyHTTPDefaults()
	c.applyProviderDefaults()
	c.applySearchDefaults()
	c.applyRetryDefaults()
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheNone
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 24 * 30
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

func (c *Config) applyHTTPDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
}

func (c *Config) applyProviderDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Rerank.Provider == "" {
		c.Rerank.Provider = "cohere"
	}
	if c.Rerank.TopN <= 0 {
		c.Rerank.TopN = 10
	}
	if c.LLM.KeywordMaxTokens <= 0 {
		c.LLM.KeywordMaxTokens = 500
	}
	if c.LLM.AnswerMaxTokens <= 0 {
		c.LLM.AnswerMaxTokens = 2000
	}
}

func (c *Config) applySearchDefaults() {
	if c.Search.KeywordTopN <= 0 {
		c.Search.KeywordTopN = 5
	}
	if c.Search.SemanticTopN <= 0 {
		c.Search.SemanticTopN = 5
	}
	if c.Search.SegmentWords <= 0 {
		c.Search.SegmentWords = 100
	}
	if c.Search.SnippetRadius <= 0 {
		c.Search.SnippetRadius = 300
	}
	if c.Search.SegmentWorkers <= 0 {
		c.Search.SegmentWorkers = 5
	}
	if c.Search.EvidenceTopN <= 0 {
		c.Search.EvidenceTopN = 3
	}
	if c.Search.HyDE == nil {
		on := true
		c.Search.HyDE = &on
	}
}

func (c *Config) applyRetryDefaults() {
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelayMs <= 0 {
		c.Retry.BaseDelayMs = 250
	}
	if c.Retry.MaxDelayMs <= 0 {
		c.Retry.MaxDelayMs = 4000
	}
	if c.Timeouts.EmbeddingSec <= 0 {
		c.Timeouts.EmbeddingSec = 15
	}
	if c.Timeouts.RerankSec <= 0 {
		c.Timeouts.RerankSec = 20
	}
	if c.Timeouts.LLMSec <= 0 {
		c.Timeouts.LLMSec = 60
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Corpus.DocumentsPath == "" {
		return fmt.Errorf("corpus.documents_path is required")
	}
	if c.Corpus.TermsPath == "" {
		return fmt.Errorf("corpus.terms_path is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	switch c.Rerank.Provider {
	case "cohere":
	case "tei":
		if c.Rerank.BaseURL == "" {
			return fmt.Errorf("rerank.base_url is required for provider \"tei\"")
		}
	default:
		return fmt.Errorf("rerank.provider must be \"cohere\" or \"tei\", got %q", c.Rerank.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	}
	if c.Retry.MaxDelayMs < c.Retry.BaseDelayMs {
		return fmt.Errorf("retry.max_delay_ms (%d) must be >= retry.base_delay_ms (%d)",
			c.Retry.MaxDelayMs, c.Retry.BaseDelayMs)
	}
	switch c.Cache.Driver {
	case CacheNone:
	case CacheRedis:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver \"redis\"")
		}
	default:
		return fmt.Errorf("cache.driver must be \"none\" or \"redis\", got %q", c.Cache.Driver)
	}
	if c.Cache.LocalTTLSec < 0 {
		return fmt.Errorf("cache.local_ttl_sec must be >= 0, got %d", c.Cache.LocalTTLSec)
	}
	return nil
}

// ReadPrompt returns the contents of path, or fallback when path is empty.
func ReadPrompt(path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("read prompt %s: %w", path, err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt %s is empty", path)
	}
	return prompt, nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
