package stats

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/logger"
)

// topTagsCount is how many tags the stats report includes.
const topTagsCount = 10

// Service aggregates corpus and index statistics. The rendered payload is
// cached; aggregation queries are too heavy to run per request.
type Service struct {
	docs  DocumentStats
	index IndexStats
	cache BlobCache
}

// New creates a stats service.
func New(docs DocumentStats, index IndexStats, cache BlobCache) *Service {
	return &Service{docs: docs, index: index, cache: cache}
}

// Stats returns aggregate statistics, cached between refreshes. Index
// figures degrade to zero when the search backend is down; relational
// failures fail the request.
func (s *Service) Stats(ctx context.Context) (*domain.CorpusStats, error) {
	if data, ok := s.cache.GetStats(ctx); ok {
		var cached domain.CorpusStats
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
		logger.FromContext(ctx).Warn("Discarding corrupt cached stats")
	}

	out, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(out); err == nil {
		s.cache.PutStats(ctx, data)
	}
	return out, nil
}

func (s *Service) collect(ctx context.Context) (*domain.CorpusStats, error) {
	log := logger.FromContext(ctx)

	total, err := s.docs.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count articles: %w: %v", domain.ErrBackendUnavailable, err)
	}
	views, comments, err := s.docs.EngagementTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("engagement totals: %w: %v", domain.ErrBackendUnavailable, err)
	}
	tags, err := s.docs.TopTags(ctx, topTagsCount)
	if err != nil {
		return nil, fmt.Errorf("top tags: %w: %v", domain.ErrBackendUnavailable, err)
	}

	out := &domain.CorpusStats{
		TotalArticles: total,
		TotalViews:    views,
		TotalComments: comments,
		TopTags:       tags,
	}

	idx, err := s.index.Stats(ctx)
	if err != nil {
		log.Warn("Index stats unavailable", zap.Error(err))
	} else {
		out.IndexDocuments = idx.DocCount
		out.IndexSizeBytes = idx.SizeBytes
	}
	return out, nil
}
