package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/acrobyte007/Sustainability/internal/config"
	"github.com/acrobyte007/Sustainability/internal/core/domain"
	"github.com/acrobyte007/Sustainability/internal/core/ports"
	"github.com/acrobyte007/Sustainability/internal/observability/metrics"
)

const serviceName = "api"

type documentReader interface {
	GetByID(ctx context.Context, namespace, id string) (*domain.Document, error)
	ListByNamespace(ctx context.Context, namespace string) ([]domain.Document, error)
}

// Dependencies are the inbound ports the router dispatches to. Metrics and
// Logger are optional.
type Dependencies struct {
	Ingestor  ports.DocumentIngestor
	Remover   ports.DocumentRemover
	Documents documentReader
	Extractor ports.IndicatorExtractor
	Jobs      ports.ExtractionJobService
	Metrics   *metrics.HTTPServerMetrics
	Logger    *slog.Logger
}

type Router struct {
	cfg    config.Config
	deps   Dependencies
	logger *slog.Logger
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{cfg: cfg, deps: deps, logger: logger}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.deps.Metrics != nil {
		mux.Handle("GET /metrics", rt.deps.Metrics.Handler())
	}

	mux.HandleFunc("GET /v1/indicators", rt.listIndicators)
	mux.HandleFunc("GET /v1/documents", rt.listDocuments)
	mux.HandleFunc("POST /v1/documents", rt.uploadDocument)
	mux.HandleFunc("GET /v1/documents/{id}", rt.getDocument)
	mux.HandleFunc("DELETE /v1/documents/{id}", rt.deleteDocument)

	mux.HandleFunc("POST /v1/extractions", rt.extract)
	mux.HandleFunc("GET /v1/extractions/stream", rt.streamExtraction)
	mux.HandleFunc("POST /v1/extractions/jobs", rt.enqueueJob)
	mux.HandleFunc("GET /v1/extractions/jobs/{id}", rt.getJob)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.limiter(), rt.onRateLimited)
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) limiter() *rate.Limiter {
	if rt.cfg.APIRateLimitRPS <= 0 {
		return nil
	}
	burst := rt.cfg.APIRateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rt.cfg.APIRateLimitRPS), burst)
}

func (rt *Router) onRateLimited() {
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordRateLimited(serviceName)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listIndicators(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"indicators": rt.deps.Extractor.Catalog()})
}

// writeDomainError maps typed errors to a status; 5xx causes are logged and
// not echoed to the client.
func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
