package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/cardex/internal/domain"
	"github.com/kailas-cloud/cardex/internal/domain/card"
	"github.com/kailas-cloud/cardex/internal/domain/querylog"
	"github.com/kailas-cloud/cardex/internal/domain/search/request"
	"github.com/kailas-cloud/cardex/internal/domain/search/result"
	"github.com/kailas-cloud/cardex/internal/logger"
	"github.com/kailas-cloud/cardex/internal/metrics"
)

// errEmbeddingFailed cancels the speculative candidate fetch.
var errEmbeddingFailed = errors.New("query embedding failed")

// Service runs hybrid search: semantic ranking with a literal keyword fallback.
type Service struct {
	repo        Repository
	log         QueryLog
	embed       *QueryEmbedder
	contentType string
}

// New creates a search service ranking against vectors of contentType.
func New(repo Repository, log QueryLog, embed *QueryEmbedder, contentType string) *Service {
	if contentType == "" {
		contentType = card.ContentSummary
	}
	return &Service{repo: repo, log: log, embed: embed, contentType: contentType}
}

// Search executes one query. Only domain.ErrInvalidQuery and
// domain.ErrStoreUnavailable are returned; provider and query log failures
// degrade to keyword results.
func (s *Service) Search(ctx context.Context, req request.Request) (result.Response, error) {
	if strings.TrimSpace(req.Query()) == "" {
		return result.Response{}, domain.ErrInvalidQuery
	}
	start := time.Now()

	s.record(ctx, req)

	var (
		emb        QueryEmbedding
		candidates []card.Candidate
		fetchErr   error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		emb = s.embed.Embed(ctx, req.Query())
		if !emb.OK() {
			return errEmbeddingFailed
		}
		return nil
	})
	g.Go(func() error {
		candidates, fetchErr = s.repo.Candidates(gctx, s.contentType)
		return nil
	})
	_ = g.Wait()

	if !emb.OK() {
		logger.FromContext(ctx).Warn("Query embedding failed, using keyword search", zap.Error(emb.Err))
		return s.keyword(ctx, req, result.TypeKeyword, start)
	}
	if fetchErr != nil {
		return result.Response{}, fmt.Errorf("%w: fetch candidates: %w", domain.ErrStoreUnavailable, fetchErr)
	}

	results := rank(emb.Vector, candidates, req.Threshold(), req.Limit())
	if len(results) == 0 {
		return s.keyword(ctx, req, result.TypeKeywordFallback, start)
	}
	return s.respond(req, results, result.TypeSemantic, start), nil
}

func (s *Service) keyword(
	ctx context.Context, req request.Request, t result.SearchType, start time.Time,
) (result.Response, error) {
	cards, err := s.repo.KeywordSearch(ctx, req.Query(), req.Limit())
	if err != nil {
		return result.Response{}, fmt.Errorf("%w: keyword search: %w", domain.ErrStoreUnavailable, err)
	}
	return s.respond(req, keywordResults(cards, req.Limit()), t, start), nil
}

func (s *Service) respond(
	req request.Request, results []result.Result, t result.SearchType, start time.Time,
) result.Response {
	label := string(t)
	metrics.SearchRequestsTotal.WithLabelValues(label).Inc()
	metrics.SearchDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	metrics.SearchResultsCount.WithLabelValues(label).Observe(float64(len(results)))

	return result.Response{
		Query:      req.Query(),
		Results:    results,
		SearchType: t,
		Threshold:  req.Threshold(),
	}
}

// record appends the query to the log. Failures are reported, never returned.
func (s *Service) record(ctx context.Context, req request.Request) {
	if s.log == nil {
		return
	}
	entry, err := querylog.New(req.Query(), querylog.TypeSemanticSearch, map[string]any{
		"threshold": req.Threshold(),
		"limit":     req.Limit(),
	})
	if err == nil {
		err = s.log.Append(ctx, entry)
	}
	if err != nil {
		metrics.QueryLogFailuresTotal.Inc()
		logger.FromContext(ctx).Warn("Failed to log search query", zap.Error(err))
	}
}
