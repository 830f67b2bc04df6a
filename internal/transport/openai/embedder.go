package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cardex/internal/domain"
	"github.com/kailas-cloud/cardex/internal/metrics"
)

// Embedder is an embedding provider using the OpenAI-compatible API
// (Gemini's compatibility endpoint by default).
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	provider   string
	logger     *zap.Logger
}

// Config holds the provider settings shared by the embedder and completer.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
	Provider   string
	// Timeout bounds each HTTP call; zero leaves the client default.
	Timeout time.Duration
	Logger  *zap.Logger
}

func newClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return openai.NewClientWithConfig(clientCfg)
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	return &Embedder{
		client:     newClient(cfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		provider:   cfg.Provider,
		logger:     cfg.Logger,
	}
}

// Embed implements domain.Embedder. Returns the vector and usage with transport-level metrics.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.create(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder with one API call.
// Vectors are returned in input order regardless of response order.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	return e.create(ctx, texts)
}

func (e *Embedder) create(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()

	resp, err := e.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), errorType(err)).Inc()
		return domain.BatchEmbeddingResult{}, parseAPIError(err, domain.ErrEmbeddingProviderError)
	}

	if len(resp.Data) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), "empty_response").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("expected %d embeddings, got %d: %w",
			len(texts), len(resp.Data), domain.ErrEmbeddingProviderError)
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	embeddings := make([][]float32, len(data))
	for i, d := range data {
		if len(d.Embedding) == 0 {
			metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
			metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), "empty_response").Inc()
			return domain.BatchEmbeddingResult{}, fmt.Errorf("empty embedding at %d: %w", i, domain.ErrEmbeddingProviderError)
		}
		embeddings[i] = d.Embedding
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, string(e.model)).Observe(duration.Seconds())

	totalTokens := resp.Usage.TotalTokens
	promptTokens := resp.Usage.PromptTokens
	if totalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, string(e.model), "prompt").Add(float64(promptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, string(e.model), "total").Add(float64(totalTokens))
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: promptTokens,
		TotalTokens:  totalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// errorType buckets a provider error for the error_type metric label.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case statusCode(err) == 429:
		return "rate_limited"
	default:
		return "api_error"
	}
}

func statusCode(err error) int {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	return 0
}

// parseAPIError extracts a human-readable error from the API response and
// wraps it with the given provider sentinel.
func parseAPIError(err, wrap error) error {
	if statusCode(err) == 429 {
		wrap = fmt.Errorf("%w: %w", wrap, domain.ErrRateLimited)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("provider API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("provider API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("provider API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("provider request failed: %v: %w", err, wrap)
}

// extractDetail pulls "detail" or "error.message" out of a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	return parsed.Error.Message
}
