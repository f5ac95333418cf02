package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teranos/wander/logger"
)

// routes builds the HTTP mux. The WebSocket endpoint does its own origin
// checking during the upgrade; the JSON API goes through CORS and request
// metrics.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWebSocket)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", s.instrument("/health", s.HandleHealth))
	mux.HandleFunc("/api/trail", s.instrument("/api/trail", s.corsMiddleware(s.HandleTrail)))
	mux.HandleFunc("/api/engine", s.instrument("/api/engine", s.corsMiddleware(s.HandleEngine)))
	mux.HandleFunc("/api/config", s.instrument("/api/config", s.corsMiddleware(s.HandleConfig)))
	return mux
}

// corsMiddleware echoes allowed origins and answers preflight requests.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.checkOrigin(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

// responseRecorder captures the status code for request metrics.
type responseRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.statusCode = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.statusCode = http.StatusOK
		r.wroteHeader = true
	}
	return r.ResponseWriter.Write(b)
}

// instrument counts and times requests per route.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next(rec, r)
		elapsed := time.Since(start)

		s.metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.statusCode)).Inc()
		s.metrics.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		if s.shouldOutput(logger.OutputHTTPCalls) {
			s.log.Debugw("HTTP request",
				"route", route,
				"method", r.Method,
				"status", rec.statusCode,
				"elapsed", elapsed)
		}
	}
}
