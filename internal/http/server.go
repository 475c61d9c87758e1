// Package http serves the dashboard JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"finboard/internal/dataset"
	"finboard/internal/services"
)

type Server struct {
	http.Server
	dashboard *services.DashboardService
	overrides *services.OverrideService
	data      *dataset.Dataset

	rateLimiter  *rateLimiter
	sessions     *sessionStore
	password     string
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. An empty password disables the session gate.
func NewServer(addr string, dashboard *services.DashboardService, overrides *services.OverrideService, data *dataset.Dataset, password string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		dashboard:   dashboard,
		overrides:   overrides,
		data:        data,
		rateLimiter: newRateLimiter(60),
		sessions:    newSessionStore(12 * time.Hour),
		password:    password,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /login", s.withMiddleware(s.handleLogin, false))
	mux.HandleFunc("POST /logout", s.withMiddleware(s.handleLogout, false))

	mux.HandleFunc("GET /api/timespans", s.withMiddleware(s.handleTimespans, true))
	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleTransactions, true))
	mux.HandleFunc("GET /api/summary", s.withMiddleware(s.handleSummary, true))
	mux.HandleFunc("GET /api/budgets", s.withMiddleware(s.handleBudgets, true))
	mux.HandleFunc("GET /api/overrides", s.withMiddleware(s.handleListOverrides, true))
	mux.HandleFunc("PUT /api/overrides/{id}", s.withMiddleware(s.handleUpsertOverride, true))
	mux.HandleFunc("DELETE /api/overrides/{id}", s.withMiddleware(s.handleDeleteOverride, true))

	return s
}

// withMiddleware adds security headers, request logging, the session
// gate and, for mutations, rate limiting.
func (s *Server) withMiddleware(next http.HandlerFunc, requireSession bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		setSecurityHeaders(w)

		if requireSession && !s.authorized(r) {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready only when the dataset can serve a snapshot.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.data.Snapshot(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
