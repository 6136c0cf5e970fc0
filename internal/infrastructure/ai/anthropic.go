// Package ai talks to the generation service and parses its answers.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/ports"
)

var _ ports.CommandGenerator = (*AnthropicGenerator)(nil)

// MissingKeyHelp is appended to ErrMissingAPIKey.
const MissingKeyHelp = `Please set it using one of these methods:

1. Set API key in config:
   ergo --set-api-key sk-ant-your-key-here

2. Set environment variable:
   export ANTHROPIC_API_KEY=sk-ant-your-key-here

3. Check current config:
   ergo --config

Get your API key from: https://console.anthropic.com`

// AnthropicGenerator calls the Messages API.
type AnthropicGenerator struct {
	cfg        domain.Config
	httpClient *http.Client
	logger     ports.Logger
}

// NewAnthropicGenerator builds a generator. A nil client uses one without a
// timeout; cancellation comes from the context.
func NewAnthropicGenerator(cfg domain.Config, client *http.Client, logger ports.Logger) *AnthropicGenerator {
	if client == nil {
		client = &http.Client{}
	}
	return &AnthropicGenerator{cfg: cfg, httpClient: client, logger: logger}
}

// Generate implements ports.CommandGenerator.
func (g *AnthropicGenerator) Generate(ctx context.Context, name string, args []string) (domain.GenerationResult, error) {
	prompt, err := renderGeneratePrompt(name, args)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	return g.complete(ctx, prompt)
}

// GenerateFromDescription implements ports.CommandGenerator.
func (g *AnthropicGenerator) GenerateFromDescription(ctx context.Context, description string) (domain.GenerationResult, error) {
	prompt, err := renderDescribePrompt(description)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	return g.complete(ctx, prompt)
}

// Regenerate implements ports.CommandGenerator.
func (g *AnthropicGenerator) Regenerate(ctx context.Context, req domain.FeedbackRequest) (domain.GenerationResult, error) {
	prompt, err := renderFeedbackPrompt(req)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	return g.complete(ctx, prompt)
}

func (g *AnthropicGenerator) complete(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	if !g.cfg.HasAPIKey() {
		return domain.GenerationResult{}, fmt.Errorf("%w. %s", domain.ErrMissingAPIKey, MissingKeyHelp)
	}

	payload := anthropicRequest{
		Model:     g.cfg.GetModel(),
		MaxTokens: g.cfg.GetMaxTokens(),
		Messages: []anthropicMessage{
			{
				Role: "user",
				Content: []anthropicContent{
					{Type: "text", Text: prompt},
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.GetEndpoint(), bytes.NewReader(body))
	if err != nil {
		return domain.GenerationResult{}, err
	}
	httpReq.Header.Set("x-api-key", g.cfg.AnthropicAPIKey)
	httpReq.Header.Set("anthropic-version", g.cfg.GetAPIVersion())
	httpReq.Header.Set("content-type", "application/json")

	g.logger.Debug("calling generation service", map[string]interface{}{
		"endpoint": g.cfg.GetEndpoint(),
		"model":    payload.Model,
	})
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("generation service unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("read generation response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.GenerationResult{}, &domain.ServiceError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	g.logger.Debug("generation service responded", map[string]interface{}{"bytes": len(raw)})

	result, err := ParseEnvelope(raw)
	if err != nil {
		g.logger.Error("unparseable generation response", err, nil)
		return domain.GenerationResult{}, err
	}
	return result, nil
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
