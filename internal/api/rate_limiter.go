package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/wallet-insights/internal/errors"
)

// Caller tiers accepted in the X-User-Tier header
const (
	TierFree    = "free"
	TierBasic   = "basic"
	TierPremium = "premium"
)

// Idle callers are forgotten after limiterIdleTTL. The map is swept at most
// once per limiterSweepInterval.
const (
	limiterIdleTTL        = 10 * time.Minute
	limiterSweepInterval  = time.Minute
	defaultRateLimitBurst = 10
)

// callerLimiter is a caller's token bucket and when it was last used
type callerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter manages rate limiting for API requests
type RateLimiter struct {
	limiters  map[string]*callerLimiter
	mu        sync.Mutex
	lastSweep time.Time
	now       func() time.Time

	// Rate limits per tier (requests per second)
	tierLimits map[string]rate.Limit

	// Burst size (number of requests that can be made in a burst)
	burstSize int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(freeTierRPS, basicTierRPS, premiumTierRPS int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*callerLimiter),
		now:      time.Now,
		tierLimits: map[string]rate.Limit{
			TierFree:    rate.Limit(freeTierRPS),
			TierBasic:   rate.Limit(basicTierRPS),
			TierPremium: rate.Limit(premiumTierRPS),
		},
		burstSize: defaultRateLimitBurst,
	}
}

// WithClock replaces the time source used for idle eviction
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	rl.now = now
	return rl
}

// getLimiter returns the limiter for a caller, created on first use.
// A caller keeps the tier it was first seen with until it goes idle.
func (rl *RateLimiter) getLimiter(callerID, tier string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweepLocked(now)

	if entry, exists := rl.limiters[callerID]; exists {
		entry.lastSeen = now
		return entry.limiter
	}

	limit, ok := rl.tierLimits[tier]
	if !ok {
		limit = rl.tierLimits[TierFree]
	}

	limiter := rate.NewLimiter(limit, rl.burstSize)
	rl.limiters[callerID] = &callerLimiter{limiter: limiter, lastSeen: now}
	return limiter
}

// sweepLocked drops callers idle for longer than limiterIdleTTL
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < limiterSweepInterval {
		return
	}
	rl.lastSweep = now
	for id, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(rl.limiters, id)
		}
	}
}

// retryAfter is the whole number of seconds until a limiter refills one token
func retryAfter(limiter *rate.Limiter) int {
	limit := float64(limiter.Limit())
	if limit <= 0 {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/limit)))
}

// callerKey identifies a caller by X-User-ID, falling back to the client host.
// The port is dropped so new connections share the host's bucket.
func callerKey(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimitMiddleware creates a middleware that enforces rate limiting.
// Health checks are never limited.
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			tier := r.Header.Get("X-User-Tier")
			if tier == "" {
				tier = TierFree
			}

			limiter := rl.getLimiter(callerKey(r), tier)
			if !limiter.Allow() {
				wait := retryAfter(limiter)
				limitErr := apperrors.NewRateLimitError(wait)
				limitErr.Details["tier"] = tier
				w.Header().Set("Retry-After", strconv.Itoa(wait))
				respondServiceError(w, r, limitErr)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
