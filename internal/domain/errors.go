package domain

import (
	"errors"
)

var (
	// ErrInvalidQuery signals an empty or whitespace-only search query.
	ErrInvalidQuery = errors.New("search query is required")
	// ErrInvalidRequest signals malformed request parameters.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCardNotFound signals a missing or unpublished card.
	ErrCardNotFound = errors.New("card not found")
	// ErrSessionNotFound signals a missing chat session.
	ErrSessionNotFound = errors.New("chat session not found")
	// ErrComparisonTooFew signals a comparison request with fewer than two cards.
	ErrComparisonTooFew = errors.New("at least 2 cards required for comparison")
	// ErrStoreUnavailable signals that the record store could not serve a read.
	ErrStoreUnavailable = errors.New("search temporarily unavailable")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingQuotaExceeded signals that the daily embedding token budget is spent.
	ErrEmbeddingQuotaExceeded = errors.New("embedding token budget exhausted")
	// ErrLLMProviderError signals a chat completion provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
