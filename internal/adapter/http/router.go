package http

import (
	"fmt"
	"net/http"
	"time"

	"rate-history-service/internal/metrics"
	"rate-history-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	handler *Handler
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewRouter(handler *Handler, log *logger.Logger, metrics *metrics.Metrics) *Router {
	return &Router{
		handler: handler,
		log:     log,
		metrics: metrics,
	}
}

func (r *Router) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		crw := &customResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		crw.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(crw, req)

		if req.URL.Path != "/metrics" {
			duration := time.Since(start).Seconds()
			r.metrics.HTTPRequestDuration.WithLabelValues(req.URL.Path, req.Method).Observe(duration)
			r.metrics.HTTPRequestsTotal.WithLabelValues(req.URL.Path, req.Method, fmt.Sprintf("%dxx", crw.statusCode/100)).Inc()
		}

		r.log.Info("HTTP request",
			"request_id", requestID,
			"method", req.Method,
			"path", req.URL.Path,
			"query", req.URL.RawQuery,
			"status", crw.statusCode,
			"duration", time.Since(start),
			"remote_addr", req.RemoteAddr,
		)
	})
}

type customResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (crw *customResponseWriter) WriteHeader(code int) {
	crw.statusCode = code
	crw.ResponseWriter.WriteHeader(code)
}

func (r *Router) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/table", r.handler.GetTableHandler)
	mux.HandleFunc("/api/v1/currencies", r.handler.GetCurrenciesHandler)
	mux.HandleFunc("/api/v1/query", r.handler.QueryHandler)

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	apiWithMiddleware := r.loggingMiddleware(mux)

	rootMux := http.NewServeMux()

	rootMux.Handle("/", apiWithMiddleware)
	rootMux.Handle("/api/", apiWithMiddleware)

	rootMux.Handle("/metrics", promhttp.Handler())

	return rootMux
}
