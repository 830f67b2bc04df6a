package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cardex/internal/db"
	"github.com/kailas-cloud/cardex/internal/domain"
)

const keyPrefix = "cardex:emb_cache:"

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder caches embeddings in a key-value store.
// Keys are namespaced by model so a model switch never serves stale vectors.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	model      string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Embedder,
	s store,
	model string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		model:      model,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed returns a cached embedding or calls the inner embedder.
// Cache hit: TotalTokens = 0 (no real tokens consumed).
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if vec, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	c.incCache("miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	c.putToCache(ctx, key, result.Embedding)
	return result, nil
}

// BatchEmbed serves hits from the cache and sends only misses to the inner
// embedder in a single batch.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	embeddings := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		keys[i] = c.cacheKey(text)
		if vec, ok := c.getFromCache(ctx, keys[i]); ok {
			c.incCache("hit")
			embeddings[i] = vec
			continue
		}
		c.incCache("miss")
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
	}

	res, err := domain.BatchEmbed(ctx, c.inner, missTexts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed misses: %w", err)
	}
	if len(res.Embeddings) != len(missTexts) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf(
			"%w: got %d embeddings for %d texts",
			domain.ErrEmbeddingProviderError, len(res.Embeddings), len(missTexts),
		)
	}

	for j, i := range missIdx {
		embeddings[i] = res.Embeddings[j]
		c.putToCache(ctx, keys[i], res.Embeddings[j])
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return keyPrefix + c.model + ":" + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return vec, true
}

func (c *CachedEmbedder) putToCache(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	data := vectorToCacheBytes(vec)
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
