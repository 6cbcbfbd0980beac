// Package chi exposes the search service over HTTP and WebSocket.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reelsearch/internal/domain"
	"github.com/kailas-cloud/reelsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/reelsearch/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/reelsearch/internal/logger"
	"github.com/kailas-cloud/reelsearch/internal/metrics"
	healthuc "github.com/kailas-cloud/reelsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/reelsearch/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Options holds request defaults and browser access settings.
type Options struct {
	DefaultLimit     int
	DefaultThreshold float64
	// AllowedOrigins limits WebSocket upgrades; empty or "*" allows any origin.
	AllowedOrigins []string
}

// Server serves the search API.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	opts          Options
	upgrader      websocket.Upgrader
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, opts Options, logger *zap.Logger) *Server {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = request.DefaultLimit
	}
	if opts.DefaultThreshold <= 0 {
		opts.DefaultThreshold = request.DefaultThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search: search,
		health: health,
		opts:   opts,
		logger: logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrMissingVector, http.StatusUnprocessableEntity, ErrorCodeMissingVector),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, ErrorCodeIndexUnavailable),
		sentinelHandler(domain.ErrUnavailable, http.StatusServiceUnavailable, ErrorCodeServiceUnavailable),
	}
	return s
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/api/search", s.Search)
	r.Get("/api/similar", s.Similar)
	r.Get("/api/profiles/{name}", s.GetProfile)
	r.Get("/ws/similar", s.SimilarStream)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles GET /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, true, "q", r.URL.Query(), &q); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid query parameter q")
		return
	}
	limit, threshold, ok := s.bindLimits(w, r)
	if !ok {
		return
	}

	resp, err := s.search.Search(r.Context(), request.New(q, limit, threshold))
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("", "error").Inc()
		s.handleDomainError(w, r, err)
		return
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(resp.Mode), "ok").Inc()
	metrics.SearchResults.WithLabelValues(string(resp.Mode)).Observe(float64(len(resp.Results)))

	writeJSON(w, http.StatusOK, SearchResponse{
		Mode:            string(resp.Mode),
		MatchedEntities: resp.MatchedEntities,
		Results:         rankedToItems(resp.Results),
	})
}

// Similar handles GET /api/similar, the collected form of the similarity stream.
func (s *Server) Similar(w http.ResponseWriter, r *http.Request) {
	var seed string
	if err := runtime.BindQueryParameter("form", true, true, "dvd_id", r.URL.Query(), &seed); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid query parameter dvd_id")
		return
	}
	limit, threshold, ok := s.bindLimits(w, r)
	if !ok {
		return
	}

	resp, err := s.search.SimilarBatch(r.Context(), request.NewSimilar(seed, limit, threshold))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SimilarResponse{
		Mode:    string(mode.DeepSimilarity),
		Source:  recordToData(resp.Source),
		Results: rankedToItems(resp.Results),
	})
}

// GetProfile handles GET /api/profiles/{name}.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid profile name")
		return
	}

	p, err := s.search.Profile(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Tier: p.Tier(), Profile: p})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// bindLimits reads top_k and threshold. Missing values take the configured
// defaults; out-of-range values are clamped later by the request constructors.
func (s *Server) bindLimits(w http.ResponseWriter, r *http.Request) (int, float64, bool) {
	var topK *int
	if err := runtime.BindQueryParameter("form", true, false, "top_k", r.URL.Query(), &topK); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid query parameter top_k")
		return 0, 0, false
	}
	var threshold *float64
	if err := runtime.BindQueryParameter("form", true, false, "threshold", r.URL.Query(), &threshold); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid query parameter threshold")
		return 0, 0, false
	}

	limit, thr := s.opts.DefaultLimit, s.opts.DefaultThreshold
	if topK != nil {
		limit = *topK
	}
	if threshold != nil {
		thr = *threshold
	}
	return limit, thr, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrMissingVector,
		domain.ErrInvalidRequest,
		domain.ErrEmbeddingProviderError,
		domain.ErrIndexUnavailable,
		domain.ErrUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
