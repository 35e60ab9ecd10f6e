package rescache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/db"
	"github.com/kailas-cloud/rankdex/internal/domain"
)

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// TTLs configures expiry per cached kind.
type TTLs struct {
	Search   time.Duration
	Document time.Duration
	Stats    time.Duration
}

// Cache stores finished search results, document metadata and stats blobs.
// Every failure degrades to a miss or a dropped write; lookups never fail a
// request.
type Cache struct {
	store      store
	ttls       TTLs
	timeout    time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a result cache.
// cacheTotal is a counter vec with labels "kind" and "result", passed explicitly.
func New(s store, ttls TTLs, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{
		store:      s,
		ttls:       ttls,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// WithTimeout bounds every store call. The cache is an optimization; a
// slow cache must not stall the request it serves.
func (c *Cache) WithTimeout(d time.Duration) *Cache {
	c.timeout = d
	return c
}

// GetSearch returns the cached result list for a search request, if any.
func (c *Cache) GetSearch(ctx context.Context, pipeline, query string, limit int) ([]domain.RankedResult, bool) {
	key := searchFingerprint(pipeline, query, limit)
	data, ok := c.get(ctx, "search", key)
	if !ok {
		return nil, false
	}

	var results []domain.RankedResult
	if err := json.Unmarshal(data, &results); err != nil {
		c.logger.Warn("Failed to decode cached search results", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return results, true
}

// PutSearch stores a finished result list under the request fingerprint.
func (c *Cache) PutSearch(ctx context.Context, pipeline, query string, limit int, results []domain.RankedResult) {
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Warn("Failed to encode search results for cache", zap.Error(err))
		return
	}
	c.put(ctx, searchFingerprint(pipeline, query, limit), data, c.ttls.Search)
}

// GetDocument returns cached document metadata, if any.
func (c *Cache) GetDocument(ctx context.Context, id int64) (*domain.Document, bool) {
	data, ok := c.get(ctx, "document", docCacheKey(id))
	if !ok {
		return nil, false
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		c.logger.Warn("Failed to decode cached document", zap.Int64("id", id), zap.Error(err))
		return nil, false
	}
	return &doc, true
}

// PutDocument stores document metadata.
func (c *Cache) PutDocument(ctx context.Context, doc *domain.Document) {
	data, err := json.Marshal(doc)
	if err != nil {
		c.logger.Warn("Failed to encode document for cache", zap.Int64("id", doc.ID), zap.Error(err))
		return
	}
	c.put(ctx, docCacheKey(doc.ID), data, c.ttls.Document)
}

// GetStats returns the cached stats payload, if any. The payload is opaque
// to the cache.
func (c *Cache) GetStats(ctx context.Context) ([]byte, bool) {
	return c.get(ctx, "stats", statsKey)
}

// PutStats stores a stats payload.
func (c *Cache) PutStats(ctx context.Context, data []byte) {
	c.put(ctx, statsKey, data, c.ttls.Stats)
}

func (c *Cache) get(ctx context.Context, kind, key string) ([]byte, bool) {
	ctx, cancel := c.boundCtx(ctx)
	defer cancel()

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Cache lookup failed", zap.String("kind", kind), zap.Error(err))
		}
		c.incCache(kind, "miss")
		return nil, false
	}
	if len(data) == 0 {
		c.incCache(kind, "miss")
		return nil, false
	}
	c.incCache(kind, "hit")
	return data, true
}

func (c *Cache) put(ctx context.Context, key string, data []byte, ttl time.Duration) {
	ctx, cancel := c.boundCtx(ctx)
	defer cancel()

	if err := c.store.SetWithTTL(ctx, key, data, ttl); err != nil {
		c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) boundCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Cache) incCache(kind, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(kind, result).Inc()
	}
}
