package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"
)

// ClientConfig holds the model client settings.
type ClientConfig struct {
	// DefaultModel is used when a call sets no model.
	DefaultModel string
	// Timeout bounds a single completion call.
	Timeout time.Duration
	// RatePerSec bounds completion call frequency; 0 disables limiting.
	RatePerSec float64
}

// Client implements Completer on top of a langchaingo model.
type Client struct {
	model   llms.Model
	config  ClientConfig
	limiter *rate.Limiter
}

// NewClient wraps a langchaingo model with rate limiting and timeouts.
func NewClient(model llms.Model, cfg ClientConfig) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return &Client{model: model, config: cfg, limiter: limiter}
}

// Complete runs one chat completion.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm: rate limit: %w", err)
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	model := opts.Model
	if model == "" {
		model = c.config.DefaultModel
	}

	callOpts := []llms.CallOption{
		llms.WithModel(model),
		llms.WithTemperature(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	resp, err := c.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", fmt.Errorf("llm: generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: empty response")
	}
	return resp.Choices[0].Content, nil
}
