// Package http exposes the subscription calendar as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"subcal/internal/cache"
	applog "subcal/internal/log"
	"subcal/internal/services"
)

type (
	// OwnerRecorder stores the reminder email announced by the identity proxy.
	OwnerRecorder interface {
		UpsertOwner(ctx context.Context, ownerID, email string) error
	}

	// Pinger reports backend readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Deps are the collaborators the server needs.
type Deps struct {
	Subscriptions  *services.SubscriptionService
	Owners         OwnerRecorder
	Ready          Pinger
	Logger         *applog.Logger
	CurrencySymbol string
	// Writes allowed per client IP per minute. Zero means 60.
	WriteLimit int
}

type Server struct {
	http.Server
	subs        *services.SubscriptionService
	owners      OwnerRecorder
	ready       Pinger
	logger      *applog.Logger
	structured  *applog.StructuredLogger
	symbol      string
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	// Last email recorded per owner, to skip redundant upserts.
	seenOwners   *cache.LRUCache[string]
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	limit := d.WriteLimit
	if limit <= 0 {
		limit = 60
	}

	s := &Server{
		subs:        d.Subscriptions,
		owners:      d.Owners,
		ready:       d.Ready,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		structured:  applog.NewStructuredLogger(logger),
		symbol:      d.CurrencySymbol,
		rateLimiter: newRateLimiter(limit, time.Minute),
		metrics:     &securityMetrics{},
		seenOwners:  cache.NewLRUCache[string](1000, time.Hour),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(logger *applog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.Recoverer,
		applog.Middleware(logger),
		chimw.RequestID,
		echoRequestID,
		applog.RequestIDMiddleware(requestIDFromContext),
		s.withRequestLogging,
		withSecurityHeaders,
	)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.withOwner, s.withWriteRateLimit)

		r.Get("/subscriptions", s.handleListSubscriptions)
		r.Post("/subscriptions", s.handleCreateSubscription)
		r.Delete("/subscriptions/{id}", s.handleEndSubscription)
		r.Get("/stats", s.handleStats)
		r.Get("/calendar/{year}", s.handleYearCalendar)
		r.Get("/calendar/{year}/{month}", s.handleMonthCalendar)
		r.Get("/reminders", s.handleReminders)
		r.Get("/notifications", s.handleNotifications)
		r.Get("/brands/{name}", s.handleBrand)
	})
	return r
}

// Shutdown stops background goroutines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
