package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dd0wney/cluso-resilience/pkg/logging"
)

// RateLimitConfig configures a per-client token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	CleanupInterval   time.Duration
	ClientExpiration  time.Duration
	// MaxClients bounds the bucket table; new clients beyond it are refused.
	MaxClients int
}

// DefaultRateLimitConfig suits the analytics endpoints, where each request
// runs a full network analysis.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 5,
		BurstSize:         10,
		CleanupInterval:   5 * time.Minute,
		ClientExpiration:  10 * time.Minute,
		MaxClients:        10000,
	}
}

// clientLimiter is one client's token bucket and when it was last used.
type clientLimiter struct {
	limiter *rate.Limiter

	mu       sync.Mutex
	lastSeen time.Time
}

// RateLimiter tracks one token bucket per client key.
type RateLimiter struct {
	config  RateLimitConfig
	logger  logging.Logger
	now     func() time.Time
	mu      sync.RWMutex
	clients map[string]*clientLimiter

	onReject func(*http.Request)

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewRateLimiter starts a limiter and its cleanup goroutine. Call Stop to
// release it.
func NewRateLimiter(config RateLimitConfig, logger logging.Logger) *RateLimiter {
	defaults := DefaultRateLimitConfig()
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	if config.ClientExpiration <= 0 {
		config.ClientExpiration = defaults.ClientExpiration
	}
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	rl := &RateLimiter{
		config:   config,
		logger:   logger,
		now:      time.Now,
		clients:  make(map[string]*clientLimiter),
		stopChan: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow takes one token from the client's bucket.
func (rl *RateLimiter) Allow(clientID string) bool {
	c := rl.bucket(clientID)
	if c == nil {
		return false
	}
	now := rl.now()
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
	return c.limiter.AllowN(now, 1)
}

// bucket returns the client's bucket, creating it full. It returns nil once
// MaxClients distinct clients are tracked.
func (rl *RateLimiter) bucket(clientID string) *clientLimiter {
	rl.mu.RLock()
	b, ok := rl.clients[clientID]
	rl.mu.RUnlock()
	if ok {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, ok = rl.clients[clientID]; ok {
		return b
	}
	if rl.config.MaxClients > 0 && len(rl.clients) >= rl.config.MaxClients {
		rl.logger.Warn("rate limiter client table full",
			logging.Int("max_clients", rl.config.MaxClients),
			logging.String("client", clientID))
		return nil
	}
	b = &clientLimiter{
		limiter:  rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize),
		lastSeen: rl.now(),
	}
	rl.clients[clientID] = b
	return b
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopChan:
			return
		}
	}
}

// cleanup drops buckets idle for longer than ClientExpiration.
func (rl *RateLimiter) cleanup() int {
	cutoff := rl.now().Add(-rl.config.ClientExpiration)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for id, b := range rl.clients {
		b.mu.Lock()
		expired := b.lastSeen.Before(cutoff)
		b.mu.Unlock()
		if expired {
			delete(rl.clients, id)
			removed++
		}
	}
	if removed > 0 {
		rl.logger.Debug("rate limiter cleanup", logging.Count(removed))
	}
	return removed
}

// Clients is the number of tracked buckets.
func (rl *RateLimiter) Clients() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.clients)
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

// OnReject registers fn to run for every refused request. It must be set
// before the limiter serves traffic.
func (rl *RateLimiter) OnReject(fn func(*http.Request)) {
	rl.onReject = fn
}

// ClientIDFunc extracts the rate limit key from a request.
type ClientIDFunc func(*http.Request) string

// RateLimit answers 429 with Retry-After when the client's bucket is empty.
// A nil limiter disables limiting.
func RateLimit(limiter *RateLimiter, clientID ClientIDFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := clientID(r)
			if !limiter.Allow(id) {
				limiter.logger.Warn("rate limit exceeded",
					logging.String("client", id),
					logging.String("path", r.URL.Path),
					logging.RequestID(GetRequestID(r)))
				if limiter.onReject != nil {
					limiter.onReject(r)
				}
				w.Header().Set("Retry-After", "1")
				w.Header().Set("X-RateLimit-Limit", strconv.FormatFloat(limiter.config.RequestsPerSecond, 'f', -1, 64))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after 1 second")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
