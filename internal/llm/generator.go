package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/appbuilder/pkg/logger"
	"github.com/capitalize-ai/appbuilder/pkg/metrics"
)

const (
	// DefaultMaxAttempts is the number of model calls made before giving up.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is multiplied by attempt² between attempts.
	DefaultBaseDelay = 500 * time.Millisecond
)

// Generator turns a fully assembled prompt into raw model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RetryingGenerator calls a provider with bounded, sequential retries.
type RetryingGenerator struct {
	client      Client
	model       string
	maxTokens   int
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(time.Duration)
	logger      *logger.Logger
}

// RetryOption configures a RetryingGenerator.
type RetryOption func(*RetryingGenerator)

// WithMaxAttempts sets the attempt limit.
func WithMaxAttempts(n int) RetryOption {
	return func(g *RetryingGenerator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the backoff unit.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(g *RetryingGenerator) {
		g.baseDelay = d
	}
}

// WithSleep replaces time.Sleep between attempts.
func WithSleep(fn func(time.Duration)) RetryOption {
	return func(g *RetryingGenerator) {
		g.sleep = fn
	}
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) RetryOption {
	return func(g *RetryingGenerator) {
		g.maxTokens = n
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *logger.Logger) RetryOption {
	return func(g *RetryingGenerator) {
		g.logger = l
	}
}

// NewRetryingGenerator wraps client. An empty model selects the provider default.
func NewRetryingGenerator(client Client, model string, opts ...RetryOption) *RetryingGenerator {
	g := &RetryingGenerator{
		client:      client,
		model:       model,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		sleep:       time.Sleep,
		logger:      logger.Global(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate sends prompt as a single user message. After a failed attempt n it waits
// n² × base delay; once attempts are exhausted the last error is returned unchanged.
func (g *RetryingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	provider := g.client.Name()

	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		resp, err := g.client.Complete(ctx, &CompletionRequest{
			Model:     g.model,
			Messages:  []ChatMessage{{Role: "user", Content: prompt}},
			MaxTokens: g.maxTokens,
		})
		if err == nil {
			metrics.RecordLLMAttempt(provider, "success")
			g.recordUsage(provider, prompt, resp)
			return resp.Content, nil
		}

		lastErr = err
		metrics.RecordLLMAttempt(provider, "failure")

		if attempt == g.maxAttempts {
			break
		}

		delay := time.Duration(attempt*attempt) * g.baseDelay
		g.logger.Warn("model call failed, retrying",
			zap.String("provider", provider),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		g.sleep(delay)
	}

	g.logger.Error("model call failed, giving up",
		zap.String("provider", provider),
		zap.Int("attempts", g.maxAttempts),
		zap.Error(lastErr),
	)
	return "", lastErr
}

func (g *RetryingGenerator) recordUsage(provider, prompt string, resp *CompletionResponse) {
	tokensIn, tokensOut := resp.TokensIn, resp.TokensOut
	if tokensIn == 0 {
		tokensIn = EstimateTokensSimple(prompt)
	}
	if tokensOut == 0 {
		tokensOut = EstimateTokensSimple(resp.Content)
	}

	modelName := resp.Model
	if modelName == "" {
		modelName = provider
	}
	metrics.RecordLLMCall(modelName, float64(resp.LatencyMs)/1000.0, tokensIn, tokensOut)
}
