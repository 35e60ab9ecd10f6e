package search

import (
	"context"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// Retriever runs the lexical candidate stage.
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]domain.Candidate, error)
}

// DocumentStore reads canonical document metadata.
type DocumentStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
}

// ResultCache stores finished results and document metadata. Lookups never
// fail; a broken cache behaves as always-miss.
type ResultCache interface {
	GetSearch(ctx context.Context, pipeline, query string, limit int) ([]domain.RankedResult, bool)
	PutSearch(ctx context.Context, pipeline, query string, limit int, results []domain.RankedResult)
	GetDocument(ctx context.Context, id int64) (*domain.Document, bool)
	PutDocument(ctx context.Context, doc *domain.Document)
}

// Ranker applies learned reranking to resolved candidates.
type Ranker interface {
	Ready() bool
	Rank(ctx context.Context, query string, candidates []domain.Candidate) []domain.Candidate
}
