package article

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// Repo reads article documents from Postgres. Postgres is the system of
// record; the search index and caches are derived from it.
type Repo struct {
	db      *sql.DB
	timeout time.Duration
}

// New creates an article repository over an open connection pool.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// WithTimeout bounds point queries. Full scans (ForEach) stay unbounded;
// reindexing legitimately runs long.
func (r *Repo) WithTimeout(d time.Duration) *Repo {
	r.timeout = d
	return r
}

func (r *Repo) boundCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// OpenDB opens a pgx stdlib pool and verifies connectivity.
func OpenDB(dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the articles table if it does not exist. The advisory
// lock serializes bootstrap DDL across concurrent starts.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS articles (
	id BIGINT PRIMARY KEY,
	url TEXT NOT NULL,
	title TEXT NOT NULL,
	text_content TEXT NOT NULL DEFAULT '',
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	views BIGINT NOT NULL DEFAULT 0,
	score BIGINT NOT NULL DEFAULT 0,
	comments_count BIGINT NOT NULL DEFAULT 0,
	scraped_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_scraped_at ON articles(scraped_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const selectColumns = `id, url, title, text_content, tags, views, score, comments_count, scraped_at`

// GetByID loads a single article. Returns domain.ErrDocumentNotFound when
// the id has no row.
func (r *Repo) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	ctx, cancel := r.boundCtx(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
SELECT `+selectColumns+`
FROM articles
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("article %d: %w", id, domain.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("get article %d: %w", id, err)
	}
	return doc, nil
}

// ForEach streams every article to fn in id order. Used by reindexing,
// which needs the full corpus without holding it in memory at once.
func (r *Repo) ForEach(ctx context.Context, fn func(*domain.Document) error) error {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+selectColumns+`
FROM articles
ORDER BY id
`)
	if err != nil {
		return fmt.Errorf("select articles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return fmt.Errorf("scan article: %w", err)
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate articles: %w", err)
	}
	return nil
}

// Count reports the number of stored articles.
func (r *Repo) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.boundCtx(ctx)
	defer cancel()

	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// EngagementTotals sums views and comments across the corpus.
func (r *Repo) EngagementTotals(ctx context.Context) (views, comments int64, err error) {
	err = r.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(views), 0), COALESCE(SUM(comments_count), 0)
FROM articles
`).Scan(&views, &comments)
	if err != nil {
		return 0, 0, fmt.Errorf("engagement totals: %w", err)
	}
	return views, comments, nil
}

// TopTags returns the n most frequent tags.
func (r *Repo) TopTags(ctx context.Context, n int) ([]domain.TagCount, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT tag, COUNT(*) AS cnt
FROM articles, jsonb_array_elements_text(tags) AS tag
GROUP BY tag
ORDER BY cnt DESC, tag
LIMIT $1
`, n)
	if err != nil {
		return nil, fmt.Errorf("top tags: %w", err)
	}
	defer rows.Close()

	var out []domain.TagCount
	for rows.Next() {
		var tc domain.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var tagsRaw []byte

	err := row.Scan(
		&doc.ID, &doc.URL, &doc.Title, &doc.Body, &tagsRaw,
		&doc.Views, &doc.Score, &doc.CommentsCount, &doc.ScrapedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(tagsRaw) > 0 {
		if err := json.Unmarshal(tagsRaw, &doc.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	return &doc, nil
}
