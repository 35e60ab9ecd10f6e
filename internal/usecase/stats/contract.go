package stats

import (
	"context"

	"github.com/kailas-cloud/rankdex/internal/db"
	"github.com/kailas-cloud/rankdex/internal/domain"
)

// DocumentStats reads aggregate figures from the relational store.
type DocumentStats interface {
	Count(ctx context.Context) (int64, error)
	EngagementTotals(ctx context.Context) (views, comments int64, err error)
	TopTags(ctx context.Context, n int) ([]domain.TagCount, error)
}

// IndexStats reads index-level figures from the search backend.
type IndexStats interface {
	Stats(ctx context.Context) (db.IndexStats, error)
}

// BlobCache stores the rendered stats payload.
type BlobCache interface {
	GetStats(ctx context.Context) ([]byte, bool)
	PutStats(ctx context.Context, data []byte)
}
