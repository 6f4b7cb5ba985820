// Package generator produces answer text from a built prompt with bounded
// retries and a hard deadline.
package generator

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/apperror"
	"ai-docqa-be/pkg/llm"
	"ai-docqa-be/pkg/retry"
)

var ErrGenerationTimeout = errors.New("generation timed out")

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string
}

type Answer struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Attempts         int
}

type Config struct {
	Timeout     time.Duration
	MaxAttempts uint
}

type Generator struct {
	llm     llm.LLMProvider
	timeout time.Duration
	policy  retry.Policy
	logger  logger.ILogger
}

func New(provider llm.LLMProvider, cfg Config, log logger.ILogger) *Generator {
	policy := retry.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	policy.MaxElapsed = cfg.Timeout

	return &Generator{llm: provider, timeout: cfg.Timeout, policy: policy, logger: log}
}

// WithPolicy overrides the retry policy. The timeout still bounds the whole call.
func (g *Generator) WithPolicy(p retry.Policy) *Generator {
	g.policy = p
	return g
}

// Generate retries transient failures only. Content-policy and malformed
// request errors come back on the first attempt. Exceeding the timeout
// returns an error wrapping ErrGenerationTimeout.
func (g *Generator) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (*Answer, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userPrompt},
	}
	llmOpts := []llm.Option{llm.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		llmOpts = append(llmOpts, llm.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Model != "" {
		llmOpts = append(llmOpts, llm.WithModel(opts.Model))
	}

	attempts := 0
	completion, err := retry.Do(callCtx, g.policy, func(ctx context.Context) (*llm.Completion, error) {
		attempts++
		c, err := g.llm.Chat(ctx, messages, llmOpts...)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(c.Text) == "" {
			return nil, apperror.New(apperror.KindTransient, "generate", "empty completion")
		}
		return c, nil
	}, func(err error, wait time.Duration) {
		g.logger.Warn("GENERATOR", "Retrying generation", map[string]interface{}{
			"attempt": attempts,
			"error":   err.Error(),
			"wait":    wait.String(),
		})
	})

	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			g.logger.Error("GENERATOR", "Generation timed out", map[string]interface{}{
				"timeout":  g.timeout.String(),
				"attempts": attempts,
			})
			return nil, apperror.Wrap(apperror.KindTransient, "generate", ErrGenerationTimeout)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	return &Answer{
		Text:             strings.TrimSpace(completion.Text),
		Model:            completion.Model,
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
		Attempts:         attempts,
	}, nil
}
