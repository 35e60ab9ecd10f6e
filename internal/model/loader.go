package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitryikh/leaves"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/feature"
)

// Paths locates the model artifacts on disk.
type Paths struct {
	Model      string
	Descriptor string
	Vectorizer string
}

// Artifacts holds whatever subset of the ranking artifacts loaded
// successfully. A missing or unreadable artifact degrades the pipeline, it
// never fails startup.
type Artifacts struct {
	Scorer     *Scorer
	Schema     domain.FeatureSchema
	Vectorizer *feature.Vectorizer
	Metrics    map[string]float64
	TrainedAt  string
}

// Ready reports whether the artifacts support learned reranking.
func (a *Artifacts) Ready() bool {
	return a != nil && a.Scorer != nil && len(a.Schema) > 0
}

// descriptor is the sidecar file written by the training pipeline.
type descriptor struct {
	FeatureColumns []string           `json:"feature_columns"`
	Metrics        map[string]float64 `json:"metrics"`
	TrainedAt      string             `json:"trained_at"`
}

// vectorizerFile is the exported tf-idf state.
type vectorizerFile struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
	NgramMax   int            `json:"ngram_max"`
}

// Load reads the model, its feature descriptor and the tf-idf vectorizer.
// Every failure is logged and degrades the corresponding artifact.
func Load(paths Paths, logger *zap.Logger) *Artifacts {
	a := &Artifacts{Vectorizer: feature.UnfitVectorizer()}

	ensemble, err := loadEnsemble(paths.Model)
	if err != nil {
		logger.Warn("Ranking model unavailable, searches fall back to lexical order",
			zap.String("path", paths.Model), zap.Error(err))
	} else {
		a.Scorer = &Scorer{ensemble: ensemble}
	}

	desc, err := loadDescriptor(paths.Descriptor)
	if err != nil {
		logger.Warn("Feature descriptor unavailable, searches fall back to lexical order",
			zap.String("path", paths.Descriptor), zap.Error(err))
	} else {
		a.Schema = domain.FeatureSchema(desc.FeatureColumns)
		a.Metrics = desc.Metrics
		a.TrainedAt = desc.TrainedAt
	}

	vec, err := loadVectorizer(paths.Vectorizer)
	if err != nil {
		logger.Warn("Vectorizer unavailable, tf-idf similarity features are zero",
			zap.String("path", paths.Vectorizer), zap.Error(err))
	} else {
		a.Vectorizer = vec
	}

	if a.Ready() {
		logger.Info("Ranking model loaded",
			zap.Int("features", len(a.Schema)),
			zap.Int("vocabulary", a.Vectorizer.VocabularySize()),
			zap.String("trained_at", a.TrainedAt))
	}
	return a
}

func loadEnsemble(path string) (*leaves.Ensemble, error) {
	if path == "" {
		return nil, fmt.Errorf("no model path configured")
	}
	ensemble, err := leaves.LGEnsembleFromFile(path, true)
	if err != nil {
		return nil, fmt.Errorf("load lightgbm model: %w", err)
	}
	return ensemble, nil
}

func loadDescriptor(path string) (*descriptor, error) {
	if path == "" {
		return nil, fmt.Errorf("no descriptor path configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	var d descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse descriptor: %w", err)
	}
	if len(d.FeatureColumns) == 0 {
		return nil, fmt.Errorf("descriptor has no feature columns")
	}
	return &d, nil
}

func loadVectorizer(path string) (*feature.Vectorizer, error) {
	if path == "" {
		return nil, fmt.Errorf("no vectorizer path configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vectorizer: %w", err)
	}
	var vf vectorizerFile
	if err := json.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("parse vectorizer: %w", err)
	}
	return feature.NewVectorizer(vf.Vocabulary, vf.IDF, vf.NgramMax)
}
