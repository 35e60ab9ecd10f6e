package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
	healthuc "github.com/kailas-cloud/rankdex/internal/usecase/health"
	rankuc "github.com/kailas-cloud/rankdex/internal/usecase/rank"
	searchuc "github.com/kailas-cloud/rankdex/internal/usecase/search"
	statsuc "github.com/kailas-cloud/rankdex/internal/usecase/stats"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest         = "bad_request"
	codeValidationFailed   = "validation_failed"
	codeBackendUnavailable = "backend_unavailable"
	codeInternalError      = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search API over HTTP.
type Server struct {
	search        *searchuc.Service
	stats         *statsuc.Service
	rank          *rankuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	stats *statsuc.Service,
	rank *rankuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search: search,
		stats:  stats,
		rank:   rank,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidLimit, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusServiceUnavailable, codeBackendUnavailable),
	}
	return s
}

// Routes mounts the API on router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/search", s.SearchDocuments)
	r.Get("/api/stats", s.GetStats)
	r.Get("/api/ml-model/status", s.ModelStatus)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// searchRequest is the body of POST /api/search.
type searchRequest struct {
	Query    string `json:"query"`
	TopN     *int   `json:"top_n,omitempty"`
	Pipeline string `json:"pipeline,omitempty"`
	Compare  bool   `json:"compare,omitempty"`
}

// searchPayload is one pipeline's portion of the response.
type searchPayload struct {
	Results      []domain.RankedResult `json:"results"`
	TotalResults int                   `json:"total_results"`
	TookMS       int64                 `json:"took_ms"`
}

type searchResponse struct {
	Query    string `json:"query"`
	Pipeline string `json:"pipeline"`
	searchPayload
}

type compareResponse struct {
	Query    string        `json:"query"`
	Smart    searchPayload `json:"smart"`
	Baseline searchPayload `json:"baseline"`
}

// SearchDocuments handles POST /api/search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	limit := s.search.DefaultLimit()
	if req.TopN != nil {
		limit = *req.TopN
	}

	if req.Compare {
		s.compareSearch(w, r, req.Query, limit)
		return
	}

	pipeline := req.Pipeline
	if pipeline == "" {
		pipeline = searchuc.PipelineSmart
	}

	var resp *domain.SearchResponse
	var err error
	switch pipeline {
	case searchuc.PipelineSmart:
		resp, err = s.search.Smart(r.Context(), req.Query, limit)
	case searchuc.PipelineBaseline:
		resp, err = s.search.Baseline(r.Context(), req.Query, limit)
	default:
		writeError(w, http.StatusBadRequest, codeValidationFailed, "pipeline must be \"smart\" or \"baseline\"")
		return
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:         resp.Query,
		Pipeline:      pipeline,
		searchPayload: payloadFrom(resp),
	})
}

// compareSearch runs both pipelines for side-by-side evaluation.
func (s *Server) compareSearch(w http.ResponseWriter, r *http.Request, query string, limit int) {
	smart, err := s.search.Smart(r.Context(), query, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	baseline, err := s.search.Baseline(r.Context(), query, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, compareResponse{
		Query:    query,
		Smart:    payloadFrom(smart),
		Baseline: payloadFrom(baseline),
	})
}

func payloadFrom(resp *domain.SearchResponse) searchPayload {
	results := resp.Results
	if results == nil {
		results = []domain.RankedResult{}
	}
	return searchPayload{
		Results:      results,
		TotalResults: resp.TotalResults,
		TookMS:       resp.Took.Milliseconds(),
	}
}

// GetStats handles GET /api/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ModelStatus handles GET /api/ml-model/status.
func (s *Server) ModelStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rank.Status())
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidLimit,
		domain.ErrBackendUnavailable,
		domain.ErrDocumentNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
