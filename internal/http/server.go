// Package http exposes the donation API over JSON.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"helpinghand/internal/auth"
	"helpinghand/internal/cache"
	"helpinghand/internal/donation"
	applog "helpinghand/internal/log"
	"helpinghand/internal/middleware/ratelimit"
	"helpinghand/internal/middleware/security"
	"helpinghand/internal/middleware/trace"
)

const apiPrefix = "/api/v1"

type Server struct {
	http.Server

	recorder  *donation.Recorder
	query     *donation.QueryEngine
	stats     *donation.Aggregator
	validator auth.Validator

	limiter    *ratelimit.Limiter
	resolver   *security.Resolver
	statsCache *cache.LRU[[]dailyTotalJSON]

	shutdownOnce sync.Once
}

// Options tunes the server beyond its required collaborators.
type Options struct {
	StatsCacheTTL     time.Duration
	RequestsPerMinute int
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, recorder *donation.Recorder, query *donation.QueryEngine, stats *donation.Aggregator, validator auth.Validator, opts Options) *Server {
	if validator == nil {
		validator = auth.NoopValidator{}
	}
	if opts.StatsCacheTTL <= 0 {
		opts.StatsCacheTTL = 30 * time.Second
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = ratelimit.DefaultConfig().RequestsPerMinute
	}

	resolver := security.NewResolver()
	s := &Server{
		recorder:  recorder,
		query:     query,
		stats:     stats,
		validator: validator,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RequestsPerMinute,
		}),
		resolver:   resolver,
		statsCache: cache.NewLRU[[]dailyTotalJSON](100, opts.StatsCacheTTL),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST "+apiPrefix+"/donation/payment/{campaignId}", s.requireAuth(s.handleRecordPayment))
	mux.HandleFunc("GET "+apiPrefix+"/donations", s.handleListDonations)
	mux.HandleFunc("GET "+apiPrefix+"/donation/{id}", s.handleGetDonation)
	mux.HandleFunc("GET "+apiPrefix+"/statistics/user-total-donation/{userId}", s.requireAuth(s.handleUserTotals))
	mux.HandleFunc("GET "+apiPrefix+"/statistics/payments", s.requireAuth(s.handleDailyTotals))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(resolver.ExtractClientIP)
	rateLimited := s.limiter.Middleware(resolver.ExtractClientIP, nil)
	logger := applog.New(applog.Config{Component: applog.ComponentHTTP})
	withLogger := applog.Middleware(logger)
	withRequestID := applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})

	handler := withRequestID(rateLimited(mux))
	handler = withLogger(handler)
	s.Server = http.Server{
		Addr:              addr,
		Handler:           headers.Middleware(tracer.Middleware(handler)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Shutdown stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type claimsKey struct{}

// requireAuth validates the bearer token and stores the claims in context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		claims, err := s.validator.Validate(r.Context(), token)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func claimsFromContext(ctx context.Context) auth.Claims {
	if claims, ok := ctx.Value(claimsKey{}).(auth.Claims); ok {
		return claims
	}
	return auth.Claims{}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
