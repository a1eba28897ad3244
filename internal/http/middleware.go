package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	applog "subcal/internal/log"
)

type ctxKey int

const ownerIDKey ctxKey = iota

const (
	headerOwnerID    = "X-Owner-ID"
	headerOwnerEmail = "X-Owner-Email"
	headerRequestID  = "X-Request-ID"
	maxOwnerIDLength = 128
)

// echoRequestID returns the id chosen by chimw.RequestID to the client.
func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			w.Header().Set(headerRequestID, id)
		}
		next.ServeHTTP(w, r)
	})
}

func requestIDFromContext(r *http.Request) string {
	return chimw.GetReqID(r.Context())
}

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		if detectSuspiciousRequest(r, s.metrics) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path)
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogHTTPEnd(r.Context(), r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// withOwner requires the X-Owner-ID header set by the identity proxy and
// records X-Owner-Email when present.
func (s *Server) withOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := strings.TrimSpace(r.Header.Get(headerOwnerID))
		if ownerID == "" || len(ownerID) > maxOwnerIDLength {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid owner identity", nil)
			return
		}

		if email := strings.TrimSpace(r.Header.Get(headerOwnerEmail)); email != "" && s.owners != nil {
			if prev, ok := s.seenOwners.Get(ownerID); !ok || prev != email {
				if err := s.owners.UpsertOwner(r.Context(), ownerID, email); err != nil {
					s.structured.LogError(r.Context(), "Failed to record owner email", err,
						applog.ComponentStorage, applog.OpCreate, applog.NewFields().WithOwner(ownerID))
				} else {
					s.seenOwners.Set(ownerID, email)
				}
			}
		}

		ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
		ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldOwnerID, ownerID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ownerFrom(ctx context.Context) string {
	id, _ := ctx.Value(ownerIDKey).(string)
	return id
}

// withWriteRateLimit throttles POST and DELETE per client IP.
func (s *Server) withWriteRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodDelete {
			clientIP := extractClientIP(r)
			if !s.rateLimiter.allow(clientIP, s.metrics) {
				applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
					applog.FieldClientIP, clientIP,
					applog.FieldMethod, r.Method,
					applog.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later", nil)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

