package model

import (
	"fmt"

	"github.com/dmitryikh/leaves"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// Scorer scores feature vectors with a loaded gradient-boosted model.
type Scorer struct {
	ensemble *leaves.Ensemble
}

// ScoreBatch scores vectors in one pass. All vectors must have the same
// width; the caller validates widths against the feature schema first.
func (s *Scorer) ScoreBatch(vectors []domain.FeatureVector) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, nil
	}

	cols := len(vectors[0])
	flat := make([]float64, 0, len(vectors)*cols)
	for i, v := range vectors {
		if len(v) != cols {
			return nil, fmt.Errorf("score batch: vector %d has width %d, want %d", i, len(v), cols)
		}
		flat = append(flat, v...)
	}

	preds := make([]float64, len(vectors)*s.ensemble.NOutputGroups())
	if err := s.ensemble.PredictDense(flat, len(vectors), cols, preds, 0, 1); err != nil {
		return nil, fmt.Errorf("score batch: %w", err)
	}

	if s.ensemble.NOutputGroups() == 1 {
		return preds, nil
	}
	// Multiclass models rank by the positive-class score.
	groups := s.ensemble.NOutputGroups()
	out := make([]float64, len(vectors))
	for i := range out {
		out[i] = preds[i*groups+groups-1]
	}
	return out, nil
}

// NumFeatures reports the feature width the model was trained with.
func (s *Scorer) NumFeatures() int {
	return s.ensemble.NFeatures()
}
