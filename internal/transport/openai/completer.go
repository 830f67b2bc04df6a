package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/cardex/internal/domain"
	"github.com/kailas-cloud/cardex/internal/metrics"
)

// CompleterConfig holds chat completion settings.
type CompleterConfig struct {
	Config
	MaxAttempts int
	BaseBackoff time.Duration
	// TotalTimeout bounds Complete across all attempts, backoff and rate limiting. Zero disables it.
	TotalTimeout   time.Duration
	RequestsPerSec float64
	Burst          int
	Temperature    float32
	MaxTokens      int
}

// Completer generates answers via the OpenAI-compatible chat completions API.
// Calls are rate limited and retried with exponential backoff.
type Completer struct {
	client      *openai.Client
	model       string
	provider    string
	user        string
	maxAttempts int
	backoff     time.Duration
	total       time.Duration
	temperature float32
	maxTokens   int
	limiter     *rate.Limiter
	logger      *zap.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewCompleter creates a chat completion provider.
func NewCompleter(cfg *CompleterConfig) *Completer {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := cfg.BaseBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Completer{
		client:      newClient(&cfg.Config),
		model:       cfg.Model,
		provider:    cfg.Provider,
		user:        cfg.User,
		maxAttempts: attempts,
		backoff:     backoff,
		total:       cfg.TotalTimeout,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		limiter:     rate.NewLimiter(limit, burst),
		logger:      logger,
		sleep:       sleepCtx,
	}
}

// Complete implements domain.Completer.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	if c.total > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.total)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		User:        c.user,
	}

	start := time.Now()
	defer func() {
		metrics.LLMRequestDuration.WithLabelValues(c.provider, c.model).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
			metrics.LLMErrorsTotal.WithLabelValues(c.provider, c.model, "rate_limited").Inc()
			return "", fmt.Errorf("wait for rate limiter: %v: %w", err, domain.ErrRateLimited)
		}

		text, err := c.once(ctx, req)
		if err == nil {
			metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, "success").Inc()
			return text, nil
		}
		lastErr = err
		metrics.LLMErrorsTotal.WithLabelValues(c.provider, c.model, errorType(err)).Inc()

		if attempt == c.maxAttempts || ctx.Err() != nil || !retryable(err) {
			break
		}
		delay := c.backoff << (attempt - 1)
		c.logger.Warn("Chat completion attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		if err := c.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
	return "", parseAPIError(lastErr, domain.ErrLLMProviderError)
}

func (c *Completer) once(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err //nolint:wrapcheck // wrapped once after retries
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errEmptyCompletion
	}
	return text, nil
}

var errEmptyCompletion = errors.New("empty completion")

// retryable reports whether another attempt may succeed.
// Client errors other than 408 and 429 are final.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	code := statusCode(err)
	if code == 0 || code == 408 || code == 429 {
		return true
	}
	return code >= 500
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
