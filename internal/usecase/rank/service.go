package rank

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/logger"
	"github.com/kailas-cloud/rankdex/internal/metrics"
)

// ModelInfo is static descriptive data about the loaded model, reported by
// the status endpoint.
type ModelInfo struct {
	Metrics        map[string]float64
	TrainedAt      string
	VocabularySize int
}

// Service applies learned reranking to lexical candidates. The service is
// total: any failure mode degrades to the incoming lexical order.
type Service struct {
	scorer   Scorer
	features FeatureBuilder
	schema   domain.FeatureSchema
	info     ModelInfo
}

// New creates a reranking service. scorer may be nil when no model is
// loaded; the service then passes candidates through unchanged.
func New(scorer Scorer, features FeatureBuilder, schema domain.FeatureSchema, info ModelInfo) *Service {
	return &Service{scorer: scorer, features: features, schema: schema, info: info}
}

// Ready reports whether learned reranking is available.
func (s *Service) Ready() bool {
	return s.scorer != nil && len(s.schema) > 0
}

// Rank reorders candidates by learned score, best first. Candidates whose
// feature vector cannot be built or does not match the model schema are
// dropped. When nothing can be scored, or scoring itself fails, the input
// is returned unchanged in its lexical order.
func (s *Service) Rank(ctx context.Context, query string, candidates []domain.Candidate) []domain.Candidate {
	log := logger.FromContext(ctx)

	if !s.Ready() {
		metrics.RerankFallbackTotal.WithLabelValues("not_ready").Inc()
		return candidates
	}
	if len(candidates) == 0 {
		return candidates
	}

	scorable := make([]domain.Candidate, 0, len(candidates))
	vectors := make([]domain.FeatureVector, 0, len(candidates))
	var dropped int
	for _, c := range candidates {
		if !c.Resolved() {
			dropped++
			continue
		}
		v := s.features.Vector(query, c.Doc, c.LexicalScore)
		if !s.schema.Matches(v) {
			dropped++
			continue
		}
		scorable = append(scorable, c)
		vectors = append(vectors, v)
	}
	if dropped > 0 {
		metrics.RerankDroppedTotal.Add(float64(dropped))
		log.Warn("Dropped candidates from reranking",
			zap.Int("dropped", dropped),
			zap.Int("scorable", len(scorable)),
			zap.Error(domain.ErrSchemaMismatch))
	}

	if len(scorable) == 0 {
		metrics.RerankFallbackTotal.WithLabelValues("no_valid_vectors").Inc()
		return candidates
	}

	scores, err := s.scorer.ScoreBatch(vectors)
	if err != nil || len(scores) != len(scorable) {
		metrics.RerankFallbackTotal.WithLabelValues("scoring_error").Inc()
		log.Warn("Batch scoring failed, keeping lexical order", zap.Error(err))
		return candidates
	}

	for i := range scorable {
		scorable[i].LearnedScore = scores[i]
	}
	// Stable keeps lexical order among equal learned scores.
	sort.SliceStable(scorable, func(i, j int) bool {
		return scorable[i].LearnedScore > scorable[j].LearnedScore
	})
	return scorable
}

// StatusReport describes the model for the status endpoint.
type StatusReport struct {
	Status         string             `json:"status"`
	FeatureCount   int                `json:"feature_count"`
	Features       []string           `json:"features,omitempty"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
	TrainedAt      string             `json:"trained_at,omitempty"`
	VocabularySize int                `json:"vectorizer_vocabulary,omitempty"`
}

// Status reports model readiness and descriptive metadata.
func (s *Service) Status() StatusReport {
	r := StatusReport{
		Status:         "fallback",
		FeatureCount:   len(s.schema),
		Features:       []string(s.schema),
		Metrics:        s.info.Metrics,
		TrainedAt:      s.info.TrainedAt,
		VocabularySize: s.info.VocabularySize,
	}
	if s.Ready() {
		r.Status = "ready"
	}
	return r
}
