package search

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

func TestBaselineKeepsLexicalOrder(t *testing.T) {
	f := newFixture(t)
	f.seedDoc(1, "first")
	f.seedDoc(2, "second")
	f.retriever.retrieveFn = func(_ context.Context, _ string, limit int) ([]domain.Candidate, error) {
		if limit != 10 {
			t.Errorf("baseline pool = %d, want the request limit", limit)
		}
		return candidates(map[int64]float64{1: 9.0, 2: 4.5}, 1, 2), nil
	}

	resp, err := f.svc.Baseline(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("Baseline() error = %v", err)
	}
	if resp.TotalResults != 2 {
		t.Fatalf("total = %d", resp.TotalResults)
	}
	for i, r := range resp.Results {
		if r.LearnedScore != r.LexicalScore {
			t.Errorf("result %d: learned %v != lexical %v", i, r.LearnedScore, r.LexicalScore)
		}
		if r.Score != r.LexicalScore {
			t.Errorf("result %d: score %v != lexical %v", i, r.Score, r.LexicalScore)
		}
	}
	if resp.Results[0].ID != 1 || resp.Results[1].ID != 2 {
		t.Errorf("order = %d, %d", resp.Results[0].ID, resp.Results[1].ID)
	}
	if f.ranker.calls != 0 {
		t.Error("baseline must not invoke the ranker")
	}
}

func TestInvalidLimit(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Baseline(context.Background(), "query", 0); !errors.Is(err, domain.ErrInvalidLimit) {
		t.Errorf("limit 0: err = %v", err)
	}
	if _, err := f.svc.Smart(context.Background(), "query", -3); !errors.Is(err, domain.ErrInvalidLimit) {
		t.Errorf("limit -3: err = %v", err)
	}
}

func TestLimitClampedToMax(t *testing.T) {
	f := newFixture(t)
	f.retriever.retrieveFn = func(_ context.Context, _ string, limit int) ([]domain.Candidate, error) {
		if limit != 100 {
			t.Errorf("pool = %d, want clamped 100", limit)
		}
		return nil, nil
	}

	if _, err := f.svc.Baseline(context.Background(), "query", 5000); err != nil {
		t.Fatalf("Baseline() error = %v", err)
	}
}

func TestEmptyQueryShortCircuits(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Smart(context.Background(), "   \t  ", 10)
	if err != nil {
		t.Fatalf("Smart() error = %v", err)
	}
	if len(resp.Results) != 0 || resp.TotalResults != 0 {
		t.Errorf("response = %+v", resp)
	}
	if f.retriever.calls != 0 {
		t.Error("empty query must not reach the index")
	}
	if len(f.cache.puts) != 0 {
		t.Error("empty query must not be cached")
	}
}

func TestSmartRerankAndTruncate(t *testing.T) {
	f := newFixture(t)
	for id := int64(1); id <= 4; id++ {
		f.seedDoc(id, "doc")
	}
	f.retriever.retrieveFn = func(_ context.Context, _ string, limit int) ([]domain.Candidate, error) {
		if limit != 100 {
			t.Errorf("smart pool = %d, want rerank pool 100", limit)
		}
		return candidates(map[int64]float64{1: 9, 2: 8, 3: 7, 4: 6}, 1, 2, 3, 4), nil
	}
	f.ranker.ready = true
	f.ranker.rankFn = func(_ context.Context, _ string, cands []domain.Candidate) []domain.Candidate {
		// Reverse and assign learned scores.
		out := make([]domain.Candidate, 0, len(cands))
		for i := len(cands) - 1; i >= 0; i-- {
			c := cands[i]
			c.LearnedScore = float64(10 - i)
			out = append(out, c)
		}
		return out
	}

	resp, err := f.svc.Smart(context.Background(), "query", 2)
	if err != nil {
		t.Fatalf("Smart() error = %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want truncation to 2", len(resp.Results))
	}
	if resp.Results[0].ID != 4 || resp.Results[1].ID != 3 {
		t.Errorf("order = %d, %d", resp.Results[0].ID, resp.Results[1].ID)
	}
	if resp.Results[0].Score != resp.Results[0].LearnedScore {
		t.Error("smart score must mirror the learned score")
	}
	if resp.Results[0].LexicalScore != 6 {
		t.Errorf("lexical score = %v, want preserved 6", resp.Results[0].LexicalScore)
	}
}

func TestSmartNotReadyMatchesBaseline(t *testing.T) {
	f := newFixture(t)
	f.seedDoc(1, "doc")
	f.retriever.retrieveFn = func(_ context.Context, _ string, limit int) ([]domain.Candidate, error) {
		if limit != 10 {
			t.Errorf("pool = %d, fallback must use the request limit", limit)
		}
		return candidates(map[int64]float64{1: 5}, 1), nil
	}

	smart, err := f.svc.Smart(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("Smart() error = %v", err)
	}
	if f.ranker.calls != 0 {
		t.Error("not-ready ranker must not be invoked")
	}
	if got, want := f.cache.puts, []string{PipelineBaseline}; !reflect.DeepEqual(got, want) {
		t.Errorf("cache writes = %v, want %v", got, want)
	}

	// A subsequent baseline request must hit the same cache entry.
	baseline, err := f.svc.Baseline(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("Baseline() error = %v", err)
	}
	if f.retriever.calls != 1 {
		t.Errorf("retriever ran %d times, want 1", f.retriever.calls)
	}
	if !reflect.DeepEqual(smart.Results, baseline.Results) {
		t.Errorf("smart %v != baseline %v", smart.Results, baseline.Results)
	}
}

func TestWarmCacheSkipsBackends(t *testing.T) {
	f := newFixture(t)
	f.seedDoc(1, "doc")
	f.retriever.retrieveFn = func(context.Context, string, int) ([]domain.Candidate, error) {
		return candidates(map[int64]float64{1: 5}, 1), nil
	}

	first, err := f.svc.Baseline(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("first call error = %v", err)
	}
	storeCalls := f.store.calls

	second, err := f.svc.Baseline(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("second call error = %v", err)
	}
	if f.retriever.calls != 1 {
		t.Errorf("retriever ran %d times, want 1", f.retriever.calls)
	}
	if f.store.calls != storeCalls {
		t.Error("warm cache must not touch the document store")
	}
	if !reflect.DeepEqual(first.Results, second.Results) {
		t.Errorf("cached results differ: %v vs %v", first.Results, second.Results)
	}
}

func TestUnresolvableCandidateDropped(t *testing.T) {
	f := newFixture(t)
	f.seedDoc(1, "doc")
	// id 999 is in the index but has no row.
	f.retriever.retrieveFn = func(context.Context, string, int) ([]domain.Candidate, error) {
		return candidates(map[int64]float64{999: 9, 1: 5}, 999, 1), nil
	}

	resp, err := f.svc.Baseline(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("Baseline() error = %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != 1 {
		t.Errorf("results = %+v, want only id 1", resp.Results)
	}
}

func TestDocumentCachePopulatedOnResolve(t *testing.T) {
	f := newFixture(t)
	f.seedDoc(1, "doc")
	f.retriever.retrieveFn = func(context.Context, string, int) ([]domain.Candidate, error) {
		return candidates(map[int64]float64{1: 5}, 1), nil
	}

	if _, err := f.svc.Baseline(context.Background(), "one", 10); err != nil {
		t.Fatalf("first query error = %v", err)
	}
	if f.store.calls != 1 {
		t.Fatalf("store calls = %d, want 1", f.store.calls)
	}

	// Different query, same document: resolution must come from cache.
	if _, err := f.svc.Baseline(context.Background(), "two", 10); err != nil {
		t.Fatalf("second query error = %v", err)
	}
	if f.store.calls != 1 {
		t.Errorf("store calls = %d, document cache not used", f.store.calls)
	}
}

func TestRetrieverOutageDegradesToEmpty(t *testing.T) {
	f := newFixture(t)
	f.seedDoc(1, "doc")
	f.retriever.retrieveFn = func(context.Context, string, int) ([]domain.Candidate, error) {
		return nil, domain.ErrBackendUnavailable
	}

	resp, err := f.svc.Baseline(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("Baseline() error = %v, a retrieval outage must not fail the request", err)
	}
	if len(resp.Results) != 0 || resp.TotalResults != 0 {
		t.Errorf("response = %+v, want empty", resp)
	}
	if len(f.cache.puts) != 0 {
		t.Error("degraded results must not be cached")
	}

	// Backend recovers: the next request must retry, not replay a cached miss.
	f.retriever.retrieveFn = func(context.Context, string, int) ([]domain.Candidate, error) {
		return candidates(map[int64]float64{1: 5}, 1), nil
	}
	resp, err = f.svc.Baseline(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("Baseline() after recovery error = %v", err)
	}
	if resp.TotalResults != 1 {
		t.Errorf("total = %d after recovery, want 1", resp.TotalResults)
	}
}

func TestBothPipelinesAgreeWithoutModel(t *testing.T) {
	f := newFixture(t)
	f.seedDoc(1, "intro to ml")
	f.seedDoc(2, "deep learning")
	f.retriever.retrieveFn = func(context.Context, string, int) ([]domain.Candidate, error) {
		return candidates(map[int64]float64{1: 9.1, 2: 7.0}, 1, 2), nil
	}

	smart, err := f.svc.Smart(context.Background(), "machine learning", 10)
	if err != nil {
		t.Fatalf("Smart() error = %v", err)
	}
	baseline, err := f.svc.Baseline(context.Background(), "machine learning", 10)
	if err != nil {
		t.Fatalf("Baseline() error = %v", err)
	}

	for _, resp := range []*domain.SearchResponse{smart, baseline} {
		if len(resp.Results) != 2 || resp.Results[0].ID != 1 || resp.Results[1].ID != 2 {
			t.Fatalf("results = %+v, want ids 1, 2", resp.Results)
		}
	}
	for i := range smart.Results {
		if smart.Results[i].Score != baseline.Results[i].Score {
			t.Errorf("result %d: smart score %v != baseline score %v",
				i, smart.Results[i].Score, baseline.Results[i].Score)
		}
	}
}

func TestNoMatchesNotCached(t *testing.T) {
	f := newFixture(t)
	f.retriever.retrieveFn = func(context.Context, string, int) ([]domain.Candidate, error) {
		return nil, nil
	}

	resp, err := f.svc.Baseline(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("Baseline() error = %v", err)
	}
	if resp.TotalResults != 0 {
		t.Errorf("total = %d, want 0", resp.TotalResults)
	}
	if len(f.cache.puts) != 0 {
		t.Error("empty result sets must not be cached")
	}
}
