package main

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/config"
	"github.com/kailas-cloud/rankdex/internal/db"
	dbRedis "github.com/kailas-cloud/rankdex/internal/db/redis"
	"github.com/kailas-cloud/rankdex/internal/domain"
	logpkg "github.com/kailas-cloud/rankdex/internal/logger"
	articlerepo "github.com/kailas-cloud/rankdex/internal/repository/article"
	"github.com/kailas-cloud/rankdex/internal/version"
)

const indexBatchSize = 500

// main rebuilds the full-text index from the canonical document store.
// The index is derived data; dropping and rebuilding it is always safe.
func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting rankdex reindex",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.String("index", cfg.Search.IndexName),
	)

	sqlDB, err := articlerepo.OpenDB(cfg.Postgres.DSN, cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns)
	if err != nil {
		logger.Fatal("Failed to connect to document store", zap.Error(err))
	}
	defer func() { _ = sqlDB.Close() }()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	articles := articlerepo.New(sqlDB)
	if err := articles.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure relational schema", zap.Error(err))
	}

	if err := recreateIndex(ctx, store, cfg.Search.IndexName); err != nil {
		logger.Fatal("Failed to recreate index", zap.Error(err))
	}

	total, err := loadDocuments(ctx, articles, store, logger)
	if err != nil {
		logger.Fatal("Failed to load documents", zap.Error(err))
	}

	stats, err := store.IndexInfo(ctx, cfg.Search.IndexName)
	if err != nil {
		logger.Warn("Index stats unavailable after reindex", zap.Error(err))
	}

	logger.Info("Reindex finished",
		zap.Int("documents", total),
		zap.Int64("indexed", stats.DocCount),
		zap.Int64("index_bytes", stats.SizeBytes),
	)
}

func recreateIndex(ctx context.Context, store db.Store, name string) error {
	if err := store.DropIndex(ctx, name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return err
	}

	// Field weights implement title > tags > body relevance.
	def := &db.IndexDefinition{
		Name:     name,
		Prefixes: []string{domain.DocKeyPrefix},
		Fields: []db.IndexField{
			{Name: "title", Type: db.IndexFieldText, Weight: 3},
			{Name: "tags", Type: db.IndexFieldText, Weight: 2},
			{Name: "body", Type: db.IndexFieldText},
			{Name: "views", Type: db.IndexFieldNumeric},
			{Name: "score", Type: db.IndexFieldNumeric},
			{Name: "comments_count", Type: db.IndexFieldNumeric},
		},
	}
	return store.CreateIndex(ctx, def)
}

func loadDocuments(ctx context.Context, articles *articlerepo.Repo, store db.Store, logger *zap.Logger) (int, error) {
	batch := make([]db.HashSetItem, 0, indexBatchSize)
	total := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store.HSetMulti(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		logger.Info("Indexed batch", zap.Int("total", total))
		batch = batch[:0]
		return nil
	}

	err := articles.ForEach(ctx, func(doc *domain.Document) error {
		batch = append(batch, db.HashSetItem{
			Key:    domain.DocKey(doc.ID),
			Fields: indexFields(doc),
		})
		if len(batch) >= indexBatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	return total, flush()
}

func indexFields(doc *domain.Document) map[string]string {
	return map[string]string{
		"title":          doc.Title,
		"body":           doc.Body,
		"tags":           strings.Join(doc.Tags, ", "),
		"url":            doc.URL,
		"views":          strconv.FormatInt(doc.Views, 10),
		"score":          strconv.FormatInt(doc.Score, 10),
		"comments_count": strconv.FormatInt(doc.CommentsCount, 10),
		"scraped_at":     doc.ScrapedAt.UTC().Format(time.RFC3339),
	}
}
