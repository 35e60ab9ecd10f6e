package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/db"
	"github.com/kailas-cloud/rankdex/internal/domain"
	healthuc "github.com/kailas-cloud/rankdex/internal/usecase/health"
	rankuc "github.com/kailas-cloud/rankdex/internal/usecase/rank"
	searchuc "github.com/kailas-cloud/rankdex/internal/usecase/search"
	statsuc "github.com/kailas-cloud/rankdex/internal/usecase/stats"
)

// --- Stubs wired through the real usecase services ---

type stubRetriever struct {
	candidates []domain.Candidate
	err        error
}

func (s *stubRetriever) Retrieve(context.Context, string, int) ([]domain.Candidate, error) {
	return s.candidates, s.err
}

type stubDocStore struct {
	docs map[int64]*domain.Document
}

func (s *stubDocStore) GetByID(_ context.Context, id int64) (*domain.Document, error) {
	if doc, ok := s.docs[id]; ok {
		return doc, nil
	}
	return nil, domain.ErrDocumentNotFound
}

type stubCache struct{}

func (stubCache) GetSearch(context.Context, string, string, int) ([]domain.RankedResult, bool) {
	return nil, false
}
func (stubCache) PutSearch(context.Context, string, string, int, []domain.RankedResult) {}
func (stubCache) GetDocument(context.Context, int64) (*domain.Document, bool)           { return nil, false }
func (stubCache) PutDocument(context.Context, *domain.Document)                         {}

type stubStats struct {
	err error
}

func (s *stubStats) Count(context.Context) (int64, error) { return 12, s.err }
func (s *stubStats) EngagementTotals(context.Context) (int64, int64, error) {
	return 300, 40, s.err
}
func (s *stubStats) TopTags(context.Context, int) ([]domain.TagCount, error) {
	return []domain.TagCount{{Tag: "go", Count: 5}}, s.err
}

type stubIndexStats struct{}

func (stubIndexStats) Stats(context.Context) (db.IndexStats, error) {
	return db.IndexStats{DocCount: 12, SizeBytes: 2048}, nil
}

type stubBlobCache struct{}

func (stubBlobCache) GetStats(context.Context) ([]byte, bool) { return nil, false }
func (stubBlobCache) PutStats(context.Context, []byte)        {}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(context.Context) error { return s.err }

type testEnv struct {
	retriever *stubRetriever
	stats     *stubStats
	router    *chirouter.Mux
}

func newTestEnv(t *testing.T, indexErr error) *testEnv {
	t.Helper()

	retriever := &stubRetriever{}
	store := &stubDocStore{docs: map[int64]*domain.Document{
		1: {ID: 1, Title: "Go schedulers", URL: "https://example.com/1", Views: 100},
		2: {ID: 2, Title: "Postgres tuning", URL: "https://example.com/2", Views: 50},
	}}
	stats := &stubStats{}
	searchSvc := searchuc.New(retriever, store, stubCache{}, rankuc.New(nil, nil, nil, rankuc.ModelInfo{}),
		searchuc.Limits{Default: 10, Max: 100, RerankPool: 100})
	statsSvc := statsuc.New(stats, stubIndexStats{}, stubBlobCache{})
	rankSvc := rankuc.New(nil, nil, nil, rankuc.ModelInfo{})
	healthSvc := healthuc.New(&stubPinger{err: indexErr}, nil, rankSvc)

	srv := NewServer(searchSvc, statsSvc, rankSvc, healthSvc, zap.NewNop())
	r := chirouter.NewRouter()
	srv.Routes(r)
	return &testEnv{retriever: retriever, stats: stats, router: r}
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestSearchHandler(t *testing.T) {
	env := newTestEnv(t, nil)
	env.retriever.candidates = []domain.Candidate{
		{ID: 1, LexicalScore: 8.5},
		{ID: 2, LexicalScore: 3.1},
	}

	rr := doJSON(t, env.router, "POST", "/api/search", `{"query": "go", "top_n": 5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// Model is not loaded, so smart silently degrades to baseline results.
	if resp.Pipeline != "smart" {
		t.Errorf("pipeline = %q", resp.Pipeline)
	}
	if resp.TotalResults != 2 || len(resp.Results) != 2 {
		t.Fatalf("results = %+v", resp)
	}
	if resp.Results[0].ID != 1 || resp.Results[0].Title != "Go schedulers" {
		t.Errorf("first result = %+v", resp.Results[0])
	}
	if resp.Results[0].LearnedScore != resp.Results[0].LexicalScore {
		t.Error("degraded smart must mirror lexical scores")
	}
}

func TestSearchHandlerBadBody(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := doJSON(t, env.router, "POST", "/api/search", `{"query": `)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestSearchHandlerInvalidLimit(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := doJSON(t, env.router, "POST", "/api/search", `{"query": "go", "top_n": 0}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	var errResp errorBody
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != codeValidationFailed {
		t.Errorf("code = %q", errResp.Code)
	}
}

func TestSearchHandlerUnknownPipeline(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := doJSON(t, env.router, "POST", "/api/search", `{"query": "go", "pipeline": "psychic"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestSearchHandlerBackendDown(t *testing.T) {
	env := newTestEnv(t, nil)
	env.retriever.err = domain.ErrBackendUnavailable

	// An index outage degrades to an empty result set, not an error.
	rr := doJSON(t, env.router, "POST", "/api/search", `{"query": "go"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalResults != 0 || len(resp.Results) != 0 {
		t.Errorf("response = %+v, want empty", resp)
	}
}

func TestStatsHandlerBackendDown(t *testing.T) {
	env := newTestEnv(t, nil)
	env.stats.err = errors.New("connection refused")

	rr := doJSON(t, env.router, "GET", "/api/stats", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
	var errResp errorBody
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != codeBackendUnavailable {
		t.Errorf("code = %q", errResp.Code)
	}
}

func TestSearchHandlerCompare(t *testing.T) {
	env := newTestEnv(t, nil)
	env.retriever.candidates = []domain.Candidate{{ID: 1, LexicalScore: 2}}

	rr := doJSON(t, env.router, "POST", "/api/search", `{"query": "go", "compare": true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp compareResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Smart.Results) != 1 || len(resp.Baseline.Results) != 1 {
		t.Errorf("compare response = %+v", resp)
	}
}

func TestStatsHandler(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := doJSON(t, env.router, "GET", "/api/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var stats domain.CorpusStats
	if err := json.NewDecoder(rr.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalArticles != 12 || stats.IndexDocuments != 12 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestModelStatusHandler(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := doJSON(t, env.router, "GET", "/api/ml-model/status", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var status rankuc.StatusReport
	if err := json.NewDecoder(rr.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "fallback" {
		t.Errorf("status = %q", status.Status)
	}
}

func TestHealthHandler(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := doJSON(t, env.router, "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHealthHandlerDegraded(t *testing.T) {
	env := newTestEnv(t, domain.ErrBackendUnavailable)

	rr := doJSON(t, env.router, "GET", "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
}
