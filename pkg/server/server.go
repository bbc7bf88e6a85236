// Package server exposes the analysis engine, data processing, and
// dashboard pipeline over an HTTP API.
//
// Routes are mounted under /api/v1 in three groups: amazon-q for CLI
// analysis queries, bedrock for agent data processing, and dashboard
// for rendering and publishing. Every group endpoint wraps its payload
// in a success envelope; the root and health endpoints reply with bare
// documents so probes stay cheap to parse.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/entrhq/qbridge/pkg/config"
	"github.com/entrhq/qbridge/pkg/dashboard"
	"github.com/entrhq/qbridge/pkg/logging"
	"github.com/entrhq/qbridge/pkg/publisher"
	"github.com/entrhq/qbridge/pkg/qcli"
	"github.com/entrhq/qbridge/pkg/safety"
	"github.com/entrhq/qbridge/pkg/summarizer"
)

const apiVersion = "1.0.0"

// Body limit covers the bulk endpoint's 1MB payload cap with headroom
// for envelope fields.
const maxBodyBytes = 2 << 20

// Engine runs analysis queries against the Amazon Q CLI.
type Engine interface {
	Chat(ctx context.Context, message string) (*qcli.ParsedResponse, error)
	QueryCostOptimization(ctx context.Context, query string) (*qcli.ParsedResponse, error)
	QueryUnderutilization(ctx context.Context, resourceType, timeRange string) (*qcli.ParsedResponse, error)
	AnalyzeEC2Underutilization(ctx context.Context, timeRange string) (*qcli.ParsedResponse, error)
	AnalyzeEBSUnderutilization(ctx context.Context) (*qcli.ParsedResponse, error)
	AnalyzeS3Underutilization(ctx context.Context) (*qcli.ParsedResponse, error)
	AnalyzeLambdaUnderutilization(ctx context.Context) (*qcli.ParsedResponse, error)
	AnalyzeRDSUnderutilization(ctx context.Context) (*qcli.ParsedResponse, error)
	ComprehensiveCostAnalysis(ctx context.Context, services []string) (*qcli.ParsedResponse, error)
	CheckAvailability(ctx context.Context) error
}

// Processor condenses raw analysis output through an agent backend.
type Processor interface {
	ProcessDataObjects(ctx context.Context, objects []map[string]any, processingType string) (*summarizer.Result, error)
	CreateDashboardSummary(ctx context.Context, processedData string) (*summarizer.Result, error)
}

// SitePublisher deploys rendered dashboards to static hosting.
type SitePublisher interface {
	UploadStaticSite(ctx context.Context, htmlContent, siteID string, additionalFiles map[string]string) (string, error)
	SiteURL(siteID string) string
	EmbedCode(dashboardURL string, opts publisher.EmbedOptions) string
	ListDashboards(ctx context.Context) ([]publisher.Dashboard, error)
	CheckAvailability(ctx context.Context) error
}

// Renderer turns summary data into a deployable HTML document.
type Renderer interface {
	Render(data *dashboard.SummaryData, name string) (string, error)
	StaticAssets() map[string]string
}

// Server wires the API dependencies behind a chi router. Any dependency
// may be nil; its endpoints then answer 503 until it is configured.
type Server struct {
	cfg       config.ServerConfig
	engine    Engine
	processor Processor
	publisher SitePublisher
	renderer  Renderer
	logger    *logging.Logger

	started time.Time
	now     func() time.Time
}

// New builds a Server around the given dependencies. logger may be nil.
func New(cfg config.ServerConfig, engine Engine, processor Processor, sitePublisher SitePublisher, renderer Renderer, logger *logging.Logger) *Server {
	return &Server{
		cfg:       cfg,
		engine:    engine,
		processor: processor,
		publisher: sitePublisher,
		renderer:  renderer,
		logger:    logger,
		started:   time.Now(),
		now:       time.Now,
	}
}

// Handler assembles the full route tree. It is exposed separately from
// Start so tests can drive the router without binding a socket.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(s.requestIDMiddleware)
	router.Use(s.loggingMiddleware)
	router.Use(s.corsMiddleware)

	router.Get("/", s.handleRoot)
	router.Get("/health", s.handleHealth)

	router.Route("/api/v1", func(api chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			api.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}

		api.Route("/amazon-q", func(r chi.Router) {
			r.Post("/cost-optimization", s.handleCostOptimization)
			r.Post("/underutilization", s.handleUnderutilization)
			r.Post("/chat", s.handleChat)
			r.Get("/conversations/{conversationID}", s.handleConversation)
			r.Post("/analyze/ec2", s.handleAnalyzeEC2)
			r.Post("/analyze/ebs", s.handleAnalyzeEBS)
			r.Post("/analyze/s3", s.handleAnalyzeS3)
			r.Post("/analyze/lambda", s.handleAnalyzeLambda)
			r.Post("/analyze/rds", s.handleAnalyzeRDS)
			r.Post("/analyze/comprehensive", s.handleComprehensive)
		})

		api.Route("/bedrock", func(r chi.Router) {
			r.Post("/process", s.handleProcess)
			r.Post("/create-dashboard-summary", s.handleDashboardSummary)
			r.Post("/bulk-process", s.handleBulkProcess)
			r.Get("/session/{sessionID}/status", s.handleSessionStatus)
		})

		api.Route("/dashboard", func(r chi.Router) {
			r.Post("/generate", s.handleGenerateDashboard)
			r.Post("/workflow/complete", s.handleCompleteWorkflow)
			r.Get("/list", s.handleListDashboards)
			r.Get("/{siteID}/embed-code", s.handleEmbedCode)
		})
	})

	return router
}

// Start serves the API until ctx is cancelled, then drains in-flight
// requests before returning. The listener speaks h2c so gRPC-capable
// frontends can multiplex without TLS termination in front.
func (s *Server) Start(ctx context.Context) error {
	h2s := &http2.Server{}
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           h2c.NewHandler(s.Handler(), h2s),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.infof("API listening on %s", s.cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.infof("shutting down API server")
		return httpServer.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// envelope is the success wrapper every /api/v1 endpoint replies with.
type envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) respondData(w http.ResponseWriter, data any, message string) {
	respondJSON(w, http.StatusOK, envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: s.timestamp(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, label string, err error) {
	respondJSON(w, status, ErrorResponse{
		Error:     label,
		Message:   err.Error(),
		Timestamp: s.timestamp(),
		RequestID: requestIDFrom(r.Context()),
	})
}

// respondEngineError maps a failed dependency call onto the status
// taxonomy. Guardrail rejections are the caller's fault, CLI failures
// are upstream failures, and anything unrecognized stays a 500.
func (s *Server) respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status, label := classifyError(err)
	if status >= http.StatusInternalServerError {
		s.errorf("request failed: %v", err)
	} else {
		s.warnf("request rejected: %v", err)
	}
	s.writeError(w, r, status, label, err)
}

func classifyError(err error) (int, string) {
	var violation *safety.ViolationError
	switch {
	case errors.As(err, &violation):
		return http.StatusBadRequest, "policy_violation"
	case qcli.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case isInvocationError(err):
		return http.StatusBadGateway, "invocation_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func isInvocationError(err error) bool {
	var invocation *qcli.InvocationError
	return errors.As(err, &invocation)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads the request body into dst. Unknown fields pass
// through so clients carrying extra metadata keep working; oversized
// bodies fail before the decoder buffers them.
func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints where an empty body
// selects the defaults.
func decodeOptionalJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	err := decodeJSON(r, w, dst)
	if err != nil && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) respondValidationError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeError(w, r, http.StatusBadRequest, "validation_error", err)
}

func (s *Server) respondNotConfigured(w http.ResponseWriter, r *http.Request, what string) {
	s.writeError(w, r, http.StatusServiceUnavailable, "not_configured", fmt.Errorf("%s is not configured", what))
}

func (s *Server) engineReady(w http.ResponseWriter, r *http.Request) bool {
	if s.engine == nil {
		s.respondNotConfigured(w, r, "analysis engine")
		return false
	}
	return true
}

func (s *Server) processorReady(w http.ResponseWriter, r *http.Request) bool {
	if s.processor == nil {
		s.respondNotConfigured(w, r, "data processor")
		return false
	}
	return true
}

func (s *Server) publisherReady(w http.ResponseWriter, r *http.Request) bool {
	if s.publisher == nil {
		s.respondNotConfigured(w, r, "site publisher")
		return false
	}
	return true
}

func (s *Server) rendererReady(w http.ResponseWriter, r *http.Request) bool {
	if s.renderer == nil {
		s.respondNotConfigured(w, r, "dashboard renderer")
		return false
	}
	return true
}

type contextKey string

const requestIDKey contextKey = "request-id"

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.infof("%s %s -> %d (%dB in %s, request %s)",
			r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
			time.Since(start).Round(time.Millisecond), requestIDFrom(r.Context()))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// cliProbeState folds an availability probe error into the health
// vocabulary: a missing binary is reported distinctly from one that is
// present but failing.
func cliProbeState(err error) string {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return "not_found"
	}
	return "unavailable"
}

func (s *Server) infof(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Infof(format, args...)
	}
}

func (s *Server) warnf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warnf(format, args...)
	}
}

func (s *Server) errorf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Errorf(format, args...)
	}
}
