// Package server provides the hosted classification backend: the HTTP API
// that browser clients reach through backend.HostedTransport.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/form-autofill/internal/backend"
	"github.com/jonathan/form-autofill/internal/server/middleware"
	"github.com/jonathan/form-autofill/internal/server/ratelimit"
	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/types"
	"go.uber.org/zap"
)

// maxRequestBytes bounds a request body.
const maxRequestBytes = 1 << 20

// autoAddCost is the credit price of one auto-add decision.
const autoAddCost = 1

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	transport   backend.Transport
	ledger      store.CreditLedger
	jwtService  *JWTService
	rateLimiter *ratelimit.Limiter
	logger      *zap.Logger
}

// Config holds server configuration. Transport does the actual
// classification, normally a backend.DirectTransport.
type Config struct {
	Port        int
	Transport   backend.Transport
	Ledger      store.CreditLedger
	JWT         *JWTService
	RateLimiter *ratelimit.Limiter
	Logger      *zap.Logger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("server requires a transport")
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("server requires a credit ledger")
	}
	if cfg.JWT == nil {
		return nil, fmt.Errorf("server requires a JWT service")
	}

	s := &Server{
		transport:   cfg.Transport,
		ledger:      cfg.Ledger,
		jwtService:  cfg.JWT,
		rateLimiter: cfg.RateLimiter,
		logger:      cfg.Logger,
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(nil)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the full middleware chain around the API routes.
func (s *Server) Handler() http.Handler {
	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())

	mux := http.NewServeMux()
	mux.Handle("POST "+backend.ClassifyFieldsPath, auth(http.HandlerFunc(s.handleClassifyFields)))
	mux.Handle("POST "+backend.AutoAddPath, auth(http.HandlerFunc(s.handleAutoAddDecision)))
	mux.Handle("GET "+backend.CreditsPath, auth(http.HandlerFunc(s.handleCredits)))
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.rateLimiter.Stop()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// handleClassifyFields charges one credit per started batch, classifies the
// chunk, and refunds the charge when classification fails.
func (s *Server) handleClassifyFields(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.GetAccountID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req types.ClassifyFieldsRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, &ErrValidation{Field: "fields", Message: err.Error()})
		return
	}

	cost := backend.CreditsFor(len(req.Fields))
	if err := s.charge(r.Context(), account, cost); err != nil {
		s.fail(w, r, err)
		return
	}

	resp, err := s.transport.ClassifyFields(r.Context(), &req)
	if err != nil {
		s.refund(r.Context(), account, cost)
		s.fail(w, r, err)
		return
	}

	if resp.Results == nil {
		resp.Results = []types.BackendResult{}
	}
	resp.CreditsUsed = cost
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleAutoAddDecision charges a flat autoAddCost per decision.
func (s *Server) handleAutoAddDecision(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.GetAccountID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req types.AutoAddRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, &ErrValidation{Field: "groupType", Message: err.Error()})
		return
	}

	if err := s.charge(r.Context(), account, autoAddCost); err != nil {
		s.fail(w, r, err)
		return
	}

	decision, err := s.transport.DecideAutoAdd(r.Context(), &req)
	if err != nil {
		s.refund(r.Context(), account, autoAddCost)
		s.fail(w, r, err)
		return
	}

	decision.CreditsUsed = autoAddCost
	s.jsonResponse(w, http.StatusOK, decision)
}

// handleCredits returns the caller's balance.
func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.GetAccountID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	balance, err := s.ledger.Balance(r.Context(), account)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]int{"credits": balance})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) charge(ctx context.Context, account uuid.UUID, n int) error {
	_, err := s.ledger.Debit(ctx, account, n)
	return err
}

func (s *Server) refund(ctx context.Context, account uuid.UUID, n int) {
	if _, err := s.ledger.Grant(ctx, account, n); err != nil {
		s.logger.Error("credit refund failed",
			zap.String("account", account.String()),
			zap.Int("credits", n),
			zap.Error(err))
	}
}

// decode reads a bounded JSON body, rejecting unknown fields.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

// fail logs err and writes it with the status HTTPStatus picks.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	s.errorResponse(w, status, PublicMessage(err))
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr))
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encoding JSON response failed", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// clientID is the remote IP, or the whole RemoteAddr when it has no port.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 with Retry-After when known.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Round(time.Second).Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", fmt.Sprintf("%d", secs))
	}
	s.logger.Warn("rate limit exceeded",
		zap.Int("limit", info.Limit),
		zap.Time("reset", info.ResetTime))
	s.errorResponse(w, http.StatusTooManyRequests, "rate limit exceeded")
}
