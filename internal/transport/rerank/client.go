package rerank

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/metrics"
)

// Supported providers.
const (
	ProviderCohere = "cohere"
	ProviderTEI    = "tei"
)

const defaultCohereURL = "https://api.cohere.ai"

// Config holds the reranking provider settings.
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Logger   *zap.Logger
	// HTTPClient overrides the default client (tests). Per-call timeouts come from ctx.
	HTTPClient *http.Client
}

// Client calls a hosted cross-encoder reranker (Cohere rerank API or a TEI /rerank server).
type Client struct {
	provider string
	url      string
	apiKey   string
	model    string
	http     *http.Client
	logger   *zap.Logger
}

// New creates a reranking client.
func New(cfg *Config) (*Client, error) {
	provider := strings.ToLower(cfg.Provider)
	base := strings.TrimRight(cfg.BaseURL, "/")

	var url string
	switch provider {
	case ProviderCohere:
		if base == "" {
			base = defaultCohereURL
		}
		url = base + "/v1/rerank"
	case ProviderTEI:
		if base == "" {
			return nil, fmt.Errorf("tei reranker requires base_url")
		}
		url = base + "/rerank"
	default:
		return nil, fmt.Errorf("unknown rerank provider %q", cfg.Provider)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		provider: provider,
		url:      url,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		http:     hc,
		logger:   logger,
	}, nil
}

// Provider returns the configured provider name.
func (c *Client) Provider() string { return c.provider }

// Rerank scores docs against query and returns at most topN hits, best first.
// Hit text is the submitted document at the returned index.
func (c *Client) Rerank(ctx context.Context, query string, docs []string, topN int) ([]domain.RerankHit, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if topN <= 0 || topN > len(docs) {
		topN = len(docs)
	}

	start := time.Now()
	var (
		hits []domain.RerankHit
		err  error
	)
	if c.provider == ProviderCohere {
		hits, err = c.cohere(ctx, query, docs, topN)
	} else {
		hits, err = c.tei(ctx, query, docs, topN)
	}

	if err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		return nil, err
	}
	metrics.RerankRequestsTotal.WithLabelValues(c.provider, c.model, "success").Inc()
	metrics.RerankRequestDuration.WithLabelValues(c.provider, c.model).Observe(time.Since(start).Seconds())
	return hits, nil
}

type cohereRequest struct {
	Model           string   `json:"model,omitempty"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	ReturnDocuments bool     `json:"return_documents"`
}

type cohereResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
		Document       *struct {
			Text string `json:"text"`
		} `json:"document,omitempty"`
	} `json:"results"`
}

func (c *Client) cohere(ctx context.Context, query string, docs []string, topN int) ([]domain.RerankHit, error) {
	var resp cohereResponse
	req := cohereRequest{Model: c.model, Query: query, Documents: docs, TopN: topN, ReturnDocuments: true}
	if err := c.post(ctx, req, &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.RerankHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		text := ""
		if r.Document != nil {
			text = r.Document.Text
		}
		hits = append(hits, domain.RerankHit{Index: r.Index, Text: pickText(docs, r.Index, text), Score: r.RelevanceScore})
	}
	return limit(hits, topN), nil
}

type teiRequest struct {
	Query      string   `json:"query"`
	Texts      []string `json:"texts"`
	Truncate   bool     `json:"truncate"`
	ReturnText bool     `json:"return_text"`
}

type teiResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
	Text  string  `json:"text,omitempty"`
}

func (c *Client) tei(ctx context.Context, query string, docs []string, topN int) ([]domain.RerankHit, error) {
	var resp []teiResult
	if err := c.post(ctx, teiRequest{Query: query, Texts: docs, Truncate: true, ReturnText: true}, &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.RerankHit, 0, len(resp))
	for _, r := range resp {
		hits = append(hits, domain.RerankHit{Index: r.Index, Text: pickText(docs, r.Index, r.Text), Score: r.Score})
	}
	return limit(hits, topN), nil
}

func (c *Client) post(ctx context.Context, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("rerank request: %w: %w", domain.ErrRerankProviderError, ctx.Err())
		}
		return fmt.Errorf("rerank request failed: %v: %w", err, domain.ErrRerankProviderError)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("Rerank provider returned an error",
			zap.String("provider", c.provider), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("rerank API error %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(respBody)), domain.ErrRerankProviderError)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode rerank response: %v: %w", err, domain.ErrRerankProviderError)
	}
	return nil
}

// pickText prefers the submitted document so the caller sees exactly what it sent.
func pickText(docs []string, i int, fallback string) string {
	if i >= 0 && i < len(docs) {
		return docs[i]
	}
	return fallback
}

func limit(hits []domain.RerankHit, n int) []domain.RerankHit {
	if len(hits) > n {
		return hits[:n]
	}
	return hits
}
