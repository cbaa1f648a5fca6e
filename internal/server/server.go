package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/stashop/internal/telemetry"
	"github.com/tournevent/stashop/pkg/webservice"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// RequestIDHeader carries the id assigned to each gateway request.
const RequestIDHeader = "X-Request-Id"

// Server is a read-only HTTP gateway answering /api/... requests from a
// webservice.Session, typically a fixture session.
type Server struct {
	port     int
	upstream string
	token    string
	session  webservice.Session
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
	gatherer prometheus.Gatherer
}

// Config holds server configuration.
type Config struct {
	Port int

	// Upstream is the shop root the request path is appended to before it
	// is handed to the session.
	Upstream string

	// Token, when set, must be presented as "Authorization: Bearer <token>"
	// on every /api request.
	Token string

	// Resources are recorded under their own metric label in addition to
	// webservice.StandardResources. Fixture sessions add their own.
	Resources []string

	// Registry receives the gateway metrics and backs /metrics. Defaults
	// to the global Prometheus registry.
	Registry *prometheus.Registry
}

type resourceLister interface {
	Resources() ([]string, error)
}

// New creates a new server instance.
func New(cfg Config, session webservice.Session, logger *otelzap.Logger) *Server {
	var (
		reg      prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if cfg.Registry != nil {
		reg, gatherer = cfg.Registry, cfg.Registry
	}
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}

	metrics := telemetry.NewMetrics(reg)
	metrics.AllowResources(cfg.Resources...)
	if lister, ok := session.(resourceLister); ok {
		if names, err := lister.Resources(); err == nil {
			metrics.AllowResources(names...)
		} else {
			logger.Warn("Failed to list session resources", zap.Error(err))
		}
	}

	return &Server{
		port:     cfg.Port,
		upstream: strings.TrimSuffix(cfg.Upstream, "/"),
		token:    cfg.Token,
		session:  telemetry.InstrumentSession(session, metrics),
		logger:   logger,
		metrics:  metrics,
		gatherer: gatherer,
	}
}

// Handler returns the gateway's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// Web service
	mux.HandleFunc("/api/", s.handleAPI)

	return s.withRequestID(mux)
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resource := webservice.ResourceFromURL(r.URL.Path)
	requestID := w.Header().Get(RequestIDHeader)

	if !s.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="stashop"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		s.metrics.RecordGatewayRequest(resource, strconv.Itoa(http.StatusUnauthorized))
		return
	}

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		s.metrics.RecordGatewayRequest(resource, strconv.Itoa(http.StatusMethodNotAllowed))
		return
	}

	resp, err := s.session.Get(ctx, s.upstream+r.URL.Path, r.URL.Query())
	if err != nil {
		s.logger.Ctx(ctx).Error("Gateway request failed",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		http.Error(w, err.Error(), http.StatusBadGateway)
		s.metrics.RecordGatewayRequest(resource, strconv.Itoa(http.StatusBadGateway))
		return
	}

	s.logger.Ctx(ctx).Debug("Gateway request served",
		zap.String("request_id", requestID),
		zap.String("path", r.URL.Path),
		zap.Int("status", resp.StatusCode),
	)

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
	s.metrics.RecordGatewayRequest(resource, strconv.Itoa(resp.StatusCode))
}

func (s *Server) authorized(r *http.Request) bool {
	if s.token == "" {
		return true
	}
	given, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(given), []byte(s.token)) == 1
}
