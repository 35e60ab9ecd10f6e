package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/logger"
	"github.com/kailas-cloud/rankdex/internal/metrics"
)

// Pipeline names. They key cache entries and metrics labels.
const (
	PipelineBaseline = "baseline"
	PipelineSmart    = "smart"
)

// Limits bound request sizes and the rerank candidate pool.
type Limits struct {
	// Default applies when the caller does not set a limit.
	Default int
	// Max caps the caller-supplied limit.
	Max int
	// RerankPool is how many lexical candidates the smart pipeline pulls
	// before reranking.
	RerankPool int
}

// Service orchestrates the two search pipelines. Baseline returns lexical
// order as-is; Smart reranks a larger candidate pool with the learned model
// and degrades to baseline behavior when the model is unavailable.
type Service struct {
	retriever Retriever
	store     DocumentStore
	cache     ResultCache
	ranker    Ranker
	limits    Limits
}

// New creates a search service.
func New(retriever Retriever, store DocumentStore, cache ResultCache, ranker Ranker, limits Limits) *Service {
	return &Service{
		retriever: retriever,
		store:     store,
		cache:     cache,
		ranker:    ranker,
		limits:    limits,
	}
}

// DefaultLimit is the limit applied when the caller does not set one.
func (s *Service) DefaultLimit() int {
	return s.limits.Default
}

// Baseline runs the lexical pipeline: candidates in index score order, with
// the learned score mirroring the lexical score.
func (s *Service) Baseline(ctx context.Context, query string, limit int) (*domain.SearchResponse, error) {
	return s.run(ctx, PipelineBaseline, query, limit)
}

// Smart runs the reranking pipeline. Without a ready model it is
// indistinguishable from Baseline, cache entries included.
func (s *Service) Smart(ctx context.Context, query string, limit int) (*domain.SearchResponse, error) {
	if !s.ranker.Ready() {
		return s.run(ctx, PipelineBaseline, query, limit)
	}
	return s.run(ctx, PipelineSmart, query, limit)
}

func (s *Service) run(ctx context.Context, pipeline, query string, limit int) (*domain.SearchResponse, error) {
	start := time.Now()

	if limit < 1 {
		return nil, domain.ErrInvalidLimit
	}
	if s.limits.Max > 0 && limit > s.limits.Max {
		limit = s.limits.Max
	}

	if strings.TrimSpace(query) == "" {
		return &domain.SearchResponse{Query: query, Results: []domain.RankedResult{}, Took: time.Since(start)}, nil
	}

	if results, ok := s.cache.GetSearch(ctx, pipeline, query, limit); ok {
		metrics.SearchRequestsTotal.WithLabelValues(pipeline, "cache").Inc()
		metrics.SearchDuration.WithLabelValues(pipeline).Observe(time.Since(start).Seconds())
		return &domain.SearchResponse{
			Query:        query,
			Results:      results,
			TotalResults: len(results),
			Took:         time.Since(start),
		}, nil
	}

	results, degraded := s.execute(ctx, pipeline, query, limit)

	// Degraded or empty outcomes stay out of the cache so the next request
	// retries the backends instead of replaying a bad answer for a full TTL.
	if !degraded && len(results) > 0 {
		s.cache.PutSearch(ctx, pipeline, query, limit, results)
	}
	metrics.SearchRequestsTotal.WithLabelValues(pipeline, "backend").Inc()
	metrics.SearchDuration.WithLabelValues(pipeline).Observe(time.Since(start).Seconds())

	return &domain.SearchResponse{
		Query:        query,
		Results:      results,
		TotalResults: len(results),
		Took:         time.Since(start),
	}, nil
}

// execute runs the pipeline against the backends. A retrieval outage
// degrades to zero results instead of failing the request; degraded reports
// that so the outcome is not cached.
func (s *Service) execute(ctx context.Context, pipeline, query string, limit int) (results []domain.RankedResult, degraded bool) {
	pool := limit
	if pipeline == PipelineSmart && s.limits.RerankPool > pool {
		pool = s.limits.RerankPool
	}

	candidates, err := s.retriever.Retrieve(ctx, query, pool)
	if err != nil {
		logger.FromContext(ctx).Warn("Lexical retrieval failed, returning empty results",
			zap.String("pipeline", pipeline), zap.Error(err))
		return []domain.RankedResult{}, true
	}

	resolved := s.resolve(ctx, candidates)

	// Seed the learned score with the lexical one so a rerank fallback
	// still reports meaningful scores.
	for i := range resolved {
		resolved[i].LearnedScore = resolved[i].LexicalScore
	}
	if pipeline == PipelineSmart {
		resolved = s.ranker.Rank(ctx, query, resolved)
	}

	if len(resolved) > limit {
		resolved = resolved[:limit]
	}

	results = make([]domain.RankedResult, 0, len(resolved))
	for i := range resolved {
		results = append(results, domain.ResultFromCandidate(&resolved[i]))
	}
	return results, false
}

// resolve attaches document metadata, cache first. Candidates whose
// document cannot be loaded are dropped; a stale index entry must not fail
// the whole request.
func (s *Service) resolve(ctx context.Context, candidates []domain.Candidate) []domain.Candidate {
	log := logger.FromContext(ctx)

	out := candidates[:0]
	for _, c := range candidates {
		if doc, ok := s.cache.GetDocument(ctx, c.ID); ok {
			c.Doc = doc
			out = append(out, c)
			continue
		}

		doc, err := s.store.GetByID(ctx, c.ID)
		if err != nil {
			if !errors.Is(err, domain.ErrDocumentNotFound) {
				log.Warn("Failed to resolve candidate document", zap.Int64("id", c.ID), zap.Error(err))
			}
			continue
		}
		s.cache.PutDocument(ctx, doc)
		c.Doc = doc
		out = append(out, c)
	}
	return out
}
