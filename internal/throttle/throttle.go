// Package throttle rate limits cast attempts per client address. The cast
// endpoint takes guessable six digit codes, so unthrottled access would let
// a client walk the code space; the limit caps guessing throughput without
// touching the credential semantics.
package throttle

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"votilio/pkg/platform/httputil"
	"votilio/pkg/requestcontext"
)

// Store answers whether one more attempt under a key fits in the window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Memory is a sliding-window attempt store for single-instance deployments
// and tests. Multi-instance deployments use the Redis store so the limit
// holds across replicas.
type Memory struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
}

// NewMemory creates an empty in-memory attempt store.
func NewMemory() *Memory {
	return &Memory{buckets: make(map[string][]time.Time)}
}

// Allow records an attempt and reports whether it stayed within the limit.
func (m *Memory) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-window)
	kept := m.buckets[key][:0]
	for _, t := range m.buckets[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit {
		m.buckets[key] = kept
		return false, nil
	}
	m.buckets[key] = append(kept, now)
	return true, nil
}

// Middleware enforces the attempt limit on wrapped handlers.
type Middleware struct {
	store  Store
	logger *slog.Logger
	limit  int
	window time.Duration
}

// NewMiddleware creates a throttle middleware. A nil store disables
// throttling, for tests and minimal dev setups.
func NewMiddleware(store Store, logger *slog.Logger, limit int, window time.Duration) *Middleware {
	return &Middleware{store: store, logger: logger, limit: limit, window: window}
}

// Limit wraps a handler with the per-client attempt limit. A store failure
// fails open: casting availability wins over throttle precision.
func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil || m.store == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()

		allowed, err := m.store.Allow(ctx, requestcontext.ClientIP(ctx), m.limit, m.window)
		if err != nil {
			m.logger.WarnContext(ctx, "throttle check failed, allowing request",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(m.window)))
			httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limited",
				"error_description": "too many attempts, slow down",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retrySeconds(d time.Duration) int {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}
