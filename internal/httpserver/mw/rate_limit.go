package mw

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/logbook/internal/logger"
	"github.com/MrSnakeDoc/logbook/internal/utils"
)

// RateLimitConfig sizes the ingest token buckets. One bucket exists per
// client address and project, so a chatty project cannot starve the
// others sharing a collector.
type RateLimitConfig struct {
	Burst         int // bucket capacity
	RefillPerMin  int // tokens added per minute
	MaxEntries    int // forces a sweep when the table grows past this
	SweepInterval time.Duration
	IdleTTL       time.Duration
	TrustProxy    bool
	Logger        logger.Logger

	now func() time.Time
}

type tokenBucket struct {
	tokens   float64
	refilled time.Time
	seen     time.Time
}

type limiter struct {
	cfg      RateLimitConfig
	rate     float64 // tokens per second
	capacity float64

	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	lastSweep time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	cfg.Burst = max(cfg.Burst, 1)
	cfg.RefillPerMin = max(cfg.RefillPerMin, 1)
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return &limiter{
		cfg:       cfg,
		rate:      float64(cfg.RefillPerMin) / 60,
		capacity:  float64(cfg.Burst),
		buckets:   make(map[string]*tokenBucket),
		lastSweep: cfg.now(),
	}
}

// take spends one token for key. When the bucket is empty it reports how
// long until the next token.
func (l *limiter) take(key string, now time.Time) (ok bool, remaining int, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.cfg.SweepInterval ||
		(l.cfg.MaxEntries > 0 && len(l.buckets) >= l.cfg.MaxEntries) {
		l.sweepLocked(now)
	}

	b, found := l.buckets[key]
	if !found {
		b = &tokenBucket{tokens: l.capacity, refilled: now}
		l.buckets[key] = b
	}
	b.seen = now

	if elapsed := now.Sub(b.refilled).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.rate)
		b.refilled = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens), 0
	}
	wait := time.Duration((1 - b.tokens) / l.rate * float64(time.Second))
	return false, 0, max(wait, time.Second)
}

func (l *limiter) sweepLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.seen) > l.cfg.IdleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// RateLimit throttles ingest per client and project with a token bucket.
// Rejected requests get 429, a Retry-After in whole seconds and the
// usual JSON error body.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limit := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := utils.ClientIP(r, l.cfg.TrustProxy)
			project := chi.URLParam(r, "projectID")

			ok, remaining, retryAfter := l.take(client+"|"+project, l.cfg.now())

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			if l.cfg.Logger != nil {
				l.cfg.Logger.Warn("ingest throttled",
					logger.String("client", client),
					logger.String("project_id", project),
					logger.Duration("retry_after", retryAfter))
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
		})
	}
}
