package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/profile"
	"github.com/kailas-cloud/evidex/internal/metrics"
)

// ChatConfig holds the chat model settings shared by the extractor and the synthesizer.
type ChatConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
	Logger       *zap.Logger
}

// ProfileExtractor asks a chat model for a weighted keyword profile of a question.
type ProfileExtractor struct {
	client *openai.Client
	cfg    ChatConfig
}

// NewProfileExtractor creates a keyword-profile extractor.
func NewProfileExtractor(cfg *ChatConfig) *ProfileExtractor {
	c := *cfg
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultKeywordPrompt
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return &ProfileExtractor{client: newClient(c.APIKey, c.BaseURL), cfg: c}
}

// Extract returns the keyword profile and draft answer for the query.
func (p *ProfileExtractor) Extract(ctx context.Context, query string) (profile.Profile, error) {
	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.cfg.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		Temperature: temperature(p.cfg.Temperature),
		MaxTokens:   p.cfg.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("profile", p.cfg.Model, "error").Inc()
		return profile.Profile{}, parseAPIError(err, "keyword model", domain.ErrLanguageModelError)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues("profile", p.cfg.Model, "error").Inc()
		return profile.Profile{}, fmt.Errorf("keyword model returned no choices: %w", domain.ErrLanguageModelError)
	}

	prof, err := ParseProfile(resp.Choices[0].Message.Content, p.cfg.Logger)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("profile", p.cfg.Model, "invalid").Inc()
		return profile.Profile{}, err
	}
	metrics.LLMRequestsTotal.WithLabelValues("profile", p.cfg.Model, "success").Inc()
	p.cfg.Logger.Debug("Keyword profile extracted",
		zap.Int("keywords", len(prof.Keywords())), chatElapsed(start))
	return prof, nil
}

// profileDTO is the keyword model response.
type profileDTO struct {
	InitialAnswer    string          `json:"initial_answer"`
	WeightedKeywords json.RawMessage `json:"weighted_keywords"`
	YearKeywords     json.RawMessage `json:"year_keywords"`
	TextKeywords     json.RawMessage `json:"text_keywords"`
}

// ParseProfile decodes a keyword model response. Keyword order follows the JSON object order.
// Entries with non-positive or unparseable weights and case-insensitive duplicates are dropped.
func ParseProfile(content string, logger *zap.Logger) (profile.Profile, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var dto profileDTO
	if err := json.Unmarshal([]byte(stripFences(content)), &dto); err != nil {
		return profile.Profile{}, fmt.Errorf("decode keyword profile: %v: %w", err, domain.ErrLanguageModelError)
	}

	weights, err := orderedWeights(dto.WeightedKeywords)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("weighted_keywords: %v: %w", err, domain.ErrLanguageModelError)
	}

	keywords := make([]profile.Keyword, 0, len(weights))
	seen := make(map[string]struct{}, len(weights))
	for _, kw := range weights {
		key := strings.ToLower(strings.TrimSpace(kw.Term))
		if _, dup := seen[key]; dup || key == "" || !(kw.Weight > 0) || math.IsInf(kw.Weight, 0) {
			logger.Warn("Dropping keyword from model profile",
				zap.String("keyword", kw.Term), zap.Float64("weight", kw.Weight))
			continue
		}
		seen[key] = struct{}{}
		keywords = append(keywords, kw)
	}

	years, err := stringList(dto.YearKeywords)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("year_keywords: %v: %w", err, domain.ErrLanguageModelError)
	}
	sources, err := stringList(dto.TextKeywords)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("text_keywords: %v: %w", err, domain.ErrLanguageModelError)
	}

	prof, err := profile.New(keywords, years, sources, dto.InitialAnswer)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("%w: %w", domain.ErrLanguageModelError, err)
	}
	return prof, nil
}

// orderedWeights walks the object token by token so keyword order survives decoding.
func orderedWeights(raw json.RawMessage) ([]profile.Keyword, error) {
	if isNull(raw) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("expected object")
	}

	var out []profile.Keyword
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		term, _ := keyTok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("read weight for %q: %w", term, err)
		}
		out = append(out, profile.Keyword{Term: term, Weight: toFloat(value)})
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("close object: %w", err)
	}
	return out, nil
}

// stringList accepts a JSON array of strings or numbers, or one comma-separated string.
func stringList(raw json.RawMessage) ([]string, error) {
	if isNull(raw) {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return profile.SplitList(s), nil
	}

	var items []any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("expected list or string: %w", err)
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case string:
			out = append(out, profile.SplitList(v)...)
		case json.Number:
			out = append(out, v.String())
		}
	}
	return out, nil
}

// toFloat returns NaN for values that are not numbers; those keywords get dropped.
func toFloat(v any) float64 {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// stripFences removes a markdown code fence some models wrap around JSON output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// chatElapsed is shared by both chat collaborators for debug logging.
func chatElapsed(start time.Time) zap.Field {
	return zap.Duration("elapsed", time.Since(start))
}
