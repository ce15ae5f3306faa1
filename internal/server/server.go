// Package server exposes the interview orchestrator over a JSON REST API.
//
// Session routes under /sessions/{id} are guarded by session-scoped bearer
// tokens: a candidate exchanges their access code for a JWT that opens
// exactly one session. Everything oracle-backed sits behind rate limits.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Sukhwinder-i0/komyra-ai/internal/ingestion"
	"github.com/Sukhwinder-i0/komyra-ai/internal/metrics"
	"github.com/Sukhwinder-i0/komyra-ai/internal/orchestrator"
	"github.com/Sukhwinder-i0/komyra-ai/internal/server/middleware"
	"github.com/Sukhwinder-i0/komyra-ai/internal/server/ratelimit"
)

// jobIngester resolves a job-posting URL into cleaned text. Satisfied by
// ingestion.CachedIngester.
type jobIngester interface {
	Ingest(ctx context.Context, urlStr string, useBrowser bool, verbose bool) (string, *ingestion.Metadata, error)
}

// Config holds server configuration.
type Config struct {
	Port int
}

// Server is the HTTP front of the orchestrator.
type Server struct {
	httpServer  *http.Server
	orch        *orchestrator.Orchestrator
	jwtService  *JWTService
	rateLimiter *ratelimit.Limiter
	metrics     *metrics.Metrics
	validate    *validator.Validate
	ingester    jobIngester
}

// New creates a server around an orchestrator. The JWT service guards the
// session-scoped routes; metrics back the /metrics endpoint.
func New(orch *orchestrator.Orchestrator, jwtService *JWTService, m *metrics.Metrics, cfg Config) *Server {
	s := &Server{
		orch:        orch,
		jwtService:  jwtService,
		metrics:     m,
		rateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		validate:    newRequestValidator(),
		ingester:    ingestion.NewCachedIngester(0),
	}

	requireSession := middleware.SessionAuth(jwtService.AsTokenValidator())

	mux := http.NewServeMux()

	// Session lifecycle
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("POST /sessions/{id}/token", s.handleIssueToken)
	mux.Handle("POST /sessions/{id}/advance", requireSession(http.HandlerFunc(s.handleAdvance)))
	mux.Handle("POST /sessions/{id}/evaluate", requireSession(http.HandlerFunc(s.handleEvaluate)))
	mux.Handle("GET /sessions/{id}", requireSession(http.HandlerFunc(s.handleGetSession)))
	mux.Handle("GET /sessions/{id}/report", requireSession(http.HandlerFunc(s.handleGetReport)))
	mux.HandleFunc("GET /sessions", s.handleListSessions)

	// One-off helpers
	mux.HandleFunc("POST /profile/analyze", s.handleAnalyzeProfile)
	mux.HandleFunc("POST /ingest/job", s.handleIngestJob)

	// Probes
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Oracle calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// newRequestValidator builds the validator used on request bodies, reporting
// fields by their json names so errors read the way clients wrote them.
func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Start begins listening and blocks until an interrupt, then shuts down
// gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[server] listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] error: %v", err)
		}
	}()

	<-stop
	log.Println("[server] shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	log.Println("[server] stopped")
	return nil
}

// withCORS adds CORS headers. The Authorization header must be allowed or
// browsers strip the session token from preflighted requests.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit enforces per-client limits before any handler runs.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[server] %s %s from %s in %v", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMetrics returns a snapshot of the operational counters.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.metrics.GetSnapshot())
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[server] error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// domainError maps a domain error to its HTTP status and writes it.
func (s *Server) domainError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[server] internal error: %v", err)
		s.errorResponse(w, status, "internal error")
		return
	}
	s.errorResponse(w, status, err.Error())
}

// extractClientID identifies the client for rate limiting. The IP from
// RemoteAddr is enough for direct deployments; behind a trusted proxy this
// would read X-Forwarded-For instead.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[server] rate limit exceeded: limit=%d remaining=%d reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
