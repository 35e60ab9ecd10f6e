package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// mockRetriever implements Retriever for tests.
type mockRetriever struct {
	retrieveFn func(ctx context.Context, query string, limit int) ([]domain.Candidate, error)
	calls      int
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	m.calls++
	if m.retrieveFn != nil {
		return m.retrieveFn(ctx, query, limit)
	}
	return nil, nil
}

// mockStore implements DocumentStore backed by a fixed map.
type mockStore struct {
	docs  map[int64]*domain.Document
	calls int
}

func (m *mockStore) GetByID(_ context.Context, id int64) (*domain.Document, error) {
	m.calls++
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("article %d: %w", id, domain.ErrDocumentNotFound)
	}
	return doc, nil
}

// mockCache implements ResultCache with in-memory maps.
type mockCache struct {
	searches map[string][]domain.RankedResult
	docs     map[int64]*domain.Document
	puts     []string // pipeline of each PutSearch, in order
}

func newMockCache() *mockCache {
	return &mockCache{
		searches: make(map[string][]domain.RankedResult),
		docs:     make(map[int64]*domain.Document),
	}
}

func searchKey(pipeline, query string, limit int) string {
	return fmt.Sprintf("%s|%s|%d", pipeline, query, limit)
}

func (m *mockCache) GetSearch(_ context.Context, pipeline, query string, limit int) ([]domain.RankedResult, bool) {
	r, ok := m.searches[searchKey(pipeline, query, limit)]
	return r, ok
}

func (m *mockCache) PutSearch(_ context.Context, pipeline, query string, limit int, results []domain.RankedResult) {
	m.searches[searchKey(pipeline, query, limit)] = results
	m.puts = append(m.puts, pipeline)
}

func (m *mockCache) GetDocument(_ context.Context, id int64) (*domain.Document, bool) {
	doc, ok := m.docs[id]
	return doc, ok
}

func (m *mockCache) PutDocument(_ context.Context, doc *domain.Document) {
	m.docs[doc.ID] = doc
}

// mockRanker implements Ranker.
type mockRanker struct {
	ready  bool
	rankFn func(ctx context.Context, query string, candidates []domain.Candidate) []domain.Candidate
	calls  int
}

func (m *mockRanker) Ready() bool { return m.ready }

func (m *mockRanker) Rank(ctx context.Context, query string, candidates []domain.Candidate) []domain.Candidate {
	m.calls++
	if m.rankFn != nil {
		return m.rankFn(ctx, query, candidates)
	}
	return candidates
}

type fixture struct {
	svc       *Service
	retriever *mockRetriever
	store     *mockStore
	cache     *mockCache
	ranker    *mockRanker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		retriever: &mockRetriever{},
		store:     &mockStore{docs: make(map[int64]*domain.Document)},
		cache:     newMockCache(),
		ranker:    &mockRanker{},
	}
	f.svc = New(f.retriever, f.store, f.cache, f.ranker, Limits{Default: 10, Max: 100, RerankPool: 100})
	return f
}

// seedDoc registers a document in the store and returns it.
func (f *fixture) seedDoc(id int64, title string) *domain.Document {
	doc := &domain.Document{ID: id, Title: title, URL: fmt.Sprintf("https://example.com/%d", id)}
	f.store.docs[id] = doc
	return doc
}

func candidates(scores map[int64]float64, order ...int64) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(order))
	for _, id := range order {
		out = append(out, domain.Candidate{ID: id, LexicalScore: scores[id]})
	}
	return out
}
