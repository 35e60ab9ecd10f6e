package rank

import (
	"github.com/kailas-cloud/rankdex/internal/domain"
)

// Scorer scores feature vector batches with a learned model.
type Scorer interface {
	ScoreBatch(vectors []domain.FeatureVector) ([]float64, error)
}

// FeatureBuilder extracts ranking features for a query/document pair.
type FeatureBuilder interface {
	Vector(query string, doc *domain.Document, lexicalScore float64) domain.FeatureVector
}
