// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/valpere/GIVerify/internal/monitoring"
	"github.com/valpere/GIVerify/internal/verify"
)

// maxBodyBytes bounds POST bodies; a product code is a short string
const maxBodyBytes = 4 << 10

// Verifier is the part of the core the HTTP boundary needs
type Verifier interface {
	ScrapeProduct(ctx context.Context, productCode string) (*verify.Result, error)
}

// Server exposes the verification core over HTTP
type Server struct {
	verifier    Verifier
	health      *monitoring.HealthManager
	metrics     *monitoring.MetricsManager
	metricsPath string
	logger      *zap.Logger
}

// Option configures a Server
type Option func(*Server)

// WithHealth serves health checks on /health
func WithHealth(health *monitoring.HealthManager) Option {
	return func(s *Server) { s.health = health }
}

// WithMetrics records request metrics and serves the registry on path
func WithMetrics(metrics *monitoring.MetricsManager, path string) Option {
	return func(s *Server) {
		s.metrics = metrics
		if path != "" {
			s.metricsPath = path
		}
	}
}

// WithLogger sets the request logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a server
func New(verifier Verifier, opts ...Option) *Server {
	s := &Server{
		verifier:    verifier,
		metricsPath: "/metrics",
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)

	if s.health != nil {
		r.Handle("/health", s.health.Handler()).Methods(http.MethodGet)
	}
	if s.metrics != nil {
		r.Handle(s.metricsPath, s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/products/{code}/verify", s.getVerifyHandler).Methods(http.MethodGet)
	api.HandleFunc("/verify", s.postVerifyHandler).Methods(http.MethodPost)

	return r
}

func (s *Server) getVerifyHandler(w http.ResponseWriter, r *http.Request) {
	s.verify(w, r, mux.Vars(r)["code"])
}

func (s *Server) postVerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductCode string `json:"product_code"`
	}
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.verify(w, r, req.ProductCode)
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request, code string) {
	result, err := s.verifier.ScrapeProduct(r.Context(), code)
	if err != nil {
		status, message := statusFor(err)
		if r.Context().Err() == nil {
			s.logger.Error("verification failed",
				zap.String("product_code", code),
				zap.Int("status", status),
				zap.Error(err),
			)
		}
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// statusFor maps core errors to a status and a message safe for callers
func statusFor(err error) (int, string) {
	switch {
	case eris.Is(err, verify.ErrEmptyProductCode):
		return http.StatusBadRequest, "product code is required"
	case eris.Is(err, verify.ErrSchedulerClosed):
		return http.StatusServiceUnavailable, "service is shutting down"
	case eris.Is(err, context.Canceled), eris.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request cancelled before verification finished"
	default:
		return http.StatusInternalServerError, "verification failed"
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusWriter captures the response code for logging and metrics
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		if s.metrics != nil {
			s.metrics.HTTPRequest(route, sw.status)
		}
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
