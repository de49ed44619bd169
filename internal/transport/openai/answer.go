package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/metrics"
)

// AnswerSynthesizer writes the final answer from the query, draft answer and evidence.
type AnswerSynthesizer struct {
	client *openai.Client
	cfg    ChatConfig
}

// NewAnswerSynthesizer creates an answer-synthesis collaborator.
func NewAnswerSynthesizer(cfg *ChatConfig) *AnswerSynthesizer {
	c := *cfg
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultAnswerPrompt
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return &AnswerSynthesizer{client: newClient(c.APIKey, c.BaseURL), cfg: c}
}

// Synthesize returns the answer model's reply.
func (a *AnswerSynthesizer) Synthesize(ctx context.Context, req domain.AnswerRequest) (string, error) {
	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: a.cfg.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt()},
		},
		Temperature: temperature(a.cfg.Temperature),
		MaxTokens:   a.cfg.MaxTokens,
	})
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("answer", a.cfg.Model, "error").Inc()
		return "", parseAPIError(err, "answer model", domain.ErrLanguageModelError)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.LLMRequestsTotal.WithLabelValues("answer", a.cfg.Model, "error").Inc()
		return "", fmt.Errorf("answer model returned an empty reply: %w", domain.ErrLanguageModelError)
	}

	metrics.LLMRequestsTotal.WithLabelValues("answer", a.cfg.Model, "success").Inc()
	a.cfg.Logger.Debug("Answer synthesized",
		zap.Int("completion_tokens", resp.Usage.CompletionTokens), chatElapsed(start))
	return resp.Choices[0].Message.Content, nil
}
