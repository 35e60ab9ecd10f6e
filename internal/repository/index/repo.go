package index

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/rankdex/internal/db"
	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/resilience"
)

// store is the consumer interface for index operations (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	IndexInfo(ctx context.Context, name string) (db.IndexStats, error)
}

// Repo implements usecase/search.Retriever over the full-text index.
type Repo struct {
	store     store
	exec      *resilience.Executor
	indexName string
	timeout   time.Duration
}

// New creates an index repository. exec may be nil to call the store
// directly without retry or breaker protection.
func New(s store, exec *resilience.Executor, indexName string) *Repo {
	return &Repo{store: s, exec: exec, indexName: indexName}
}

// WithTimeout bounds every index call.
func (r *Repo) WithTimeout(d time.Duration) *Repo {
	r.timeout = d
	return r
}

// Retrieve runs a scored lexical search and returns candidates best-first.
// Any backend failure is reported as domain.ErrBackendUnavailable.
func (r *Repo) Retrieve(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	q := &db.TextQuery{
		IndexName:       r.indexName,
		Terms:           strings.Fields(strings.ToLower(query)),
		Fuzzy:           true,
		TopK:            limit,
		ReturnFields:    []string{"title", "body"},
		HighlightFields: []string{"title", "body"},
		SummarizeField:  "body",
		SummarizeFrags:  3,
	}

	ctx, cancel := r.boundCtx(ctx)
	defer cancel()

	var sr *db.SearchResult
	call := func(ctx context.Context) error {
		var err error
		sr, err = r.store.SearchText(ctx, q)
		return err
	}

	var err error
	if r.exec != nil {
		err = r.exec.Execute(ctx, "index.search", call, classifyIndexErr)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w: %v", domain.ErrBackendUnavailable, err)
	}

	return parseCandidates(sr), nil
}

// Stats reads document count and index size from the backend.
func (r *Repo) Stats(ctx context.Context) (db.IndexStats, error) {
	ctx, cancel := r.boundCtx(ctx)
	defer cancel()

	var stats db.IndexStats
	call := func(ctx context.Context) error {
		var err error
		stats, err = r.store.IndexInfo(ctx, r.indexName)
		return err
	}

	var err error
	if r.exec != nil {
		err = r.exec.Execute(ctx, "index.info", call, classifyIndexErr)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return db.IndexStats{}, fmt.Errorf("index stats: %w: %v", domain.ErrBackendUnavailable, err)
	}
	return stats, nil
}

func parseCandidates(sr *db.SearchResult) []domain.Candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	out := make([]domain.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id, err := parseDocID(entry.Key)
		if err != nil {
			// Foreign keys under the index prefix are skipped, not fatal.
			continue
		}
		out = append(out, domain.Candidate{
			ID:           id,
			LexicalScore: entry.Score,
			Highlights:   parseHighlights(entry.Fields),
		})
	}
	return out
}

func parseDocID(key string) (int64, error) {
	raw := strings.TrimPrefix(key, domain.DocKeyPrefix)
	if raw == key {
		return 0, fmt.Errorf("key %q outside document prefix", key)
	}
	return strconv.ParseInt(raw, 10, 64)
}

// parseHighlights keeps only fields where the backend marked a match.
func parseHighlights(fields map[string]string) map[string][]string {
	var hl map[string][]string
	for field, value := range fields {
		if !strings.Contains(value, "<em>") {
			continue
		}
		if hl == nil {
			hl = make(map[string][]string, 2)
		}
		hl[field] = splitFragments(value)
	}
	return hl
}

// splitFragments splits a summarized field on the backend's fragment
// separator. Unsummarized fields come through as a single fragment.
func splitFragments(value string) []string {
	parts := strings.Split(value, "... ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(strings.TrimSpace(p), "...")
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{value}
	}
	return out
}

func (r *Repo) boundCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func classifyIndexErr(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
