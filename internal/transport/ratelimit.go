package transport

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig bounds how many HTTP requests a single client IP may
// make against any route the router serves (its middleware wraps them all).
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration
}

// DefaultRateLimitConfig is what NewServer wires up: generous enough for
// a browser polling /api/leaderboard but tight enough to blunt a
// join-flood against a single room.
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 10,
	Burst:             20,
	CleanupInterval:   5 * time.Minute,
}

// ipQuota is one client IP's token bucket plus the timestamp the
// reaper needs to know whether it's still worth keeping around.
type ipQuota struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter throttles HTTP requests per source IP, lazily creating a
// token bucket per IP and reaping ones that have gone quiet so a room
// that runs for days doesn't accumulate a limiter per ephemeral client.
type IPRateLimiter struct {
	quotas   sync.Map // map[ip]*ipQuota
	cfg      RateLimitConfig
	stopChan chan struct{}
	stopOnce sync.Once

	rejectedCount uint64 // atomic
	allowedCount  uint64 // atomic
}

// NewIPRateLimiter builds a limiter and starts its background reaper.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	rl := &IPRateLimiter{
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
	go rl.reapLoop()
	return rl
}

// Stop halts the reaper goroutine. Called from Server.Stop.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
	})
}

func (rl *IPRateLimiter) quotaFor(ip string) *rate.Limiter {
	now := time.Now()

	if v, ok := rl.quotas.Load(ip); ok {
		q := v.(*ipQuota)
		q.lastSeen = now
		return q.limiter
	}

	fresh := &ipQuota{
		limiter:  rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst),
		lastSeen: now,
	}
	actual, _ := rl.quotas.LoadOrStore(ip, fresh)
	return actual.(*ipQuota).limiter
}

func (rl *IPRateLimiter) reapLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			rl.reapStale()
		}
	}
}

// reapStale drops any IP whose quota hasn't been touched in two cleanup
// windows — long enough that a client mid-session is never evicted.
func (rl *IPRateLimiter) reapStale() {
	cutoff := time.Now().Add(-rl.cfg.CleanupInterval * 2)

	rl.quotas.Range(func(key, value interface{}) bool {
		if value.(*ipQuota).lastSeen.Before(cutoff) {
			rl.quotas.Delete(key)
		}
		return true
	})
}

// Allow reports whether a request from ip fits within its current quota,
// tallying the decision into the allowed/rejected counters GetStats
// reports.
func (rl *IPRateLimiter) Allow(ip string) bool {
	if rl.quotaFor(ip).Allow() {
		atomic.AddUint64(&rl.allowedCount, 1)
		return true
	}
	atomic.AddUint64(&rl.rejectedCount, 1)
	return false
}

// Middleware wraps next with per-IP rate limiting, rejecting over-quota
// requests with 429 before they reach a handler.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := GetClientIP(r)
		if !rl.Allow(ip) {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetStats reports cumulative allow/reject counts across all IPs.
func (rl *IPRateLimiter) GetStats() map[string]uint64 {
	return map[string]uint64{
		"allowed":  atomic.LoadUint64(&rl.allowedCount),
		"rejected": atomic.LoadUint64(&rl.rejectedCount),
	}
}

// GetClientIP resolves the request's originating IP, preferring
// X-Forwarded-For / X-Real-IP (set by a reverse proxy in front of the
// room server) and falling back to the raw socket address.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Leftmost entry is the original client; trust the proxy chain
		// to have appended correctly.
		if idx := strings.Index(xff, ","); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// WebSocketRateLimiter caps how many simultaneous WebSocket connections
// one IP may hold against a room, independent of the HTTP rate limiter
// (a single long-lived socket wouldn't otherwise trip a requests/sec
// budget).
type WebSocketRateLimiter struct {
	perIPCounts sync.Map // map[ip]*int32
	maxPerIP    int

	rejectedCount uint64 // atomic
}

// NewWebSocketRateLimiter builds a limiter capping each IP at maxPerIP
// concurrent connections.
func NewWebSocketRateLimiter(maxPerIP int) *WebSocketRateLimiter {
	return &WebSocketRateLimiter{maxPerIP: maxPerIP}
}

// Allow admits one more connection from ip if it is under maxPerIP,
// atomically reserving the slot so concurrent upgrade attempts from the
// same IP can't both slip past the check.
func (wrl *WebSocketRateLimiter) Allow(ip string) bool {
	actual, _ := wrl.perIPCounts.LoadOrStore(ip, new(int32))
	counter := actual.(*int32)

	for {
		current := atomic.LoadInt32(counter)
		if int(current) >= wrl.maxPerIP {
			atomic.AddUint64(&wrl.rejectedCount, 1)
			return false
		}
		if atomic.CompareAndSwapInt32(counter, current, current+1) {
			return true
		}
	}
}

// Release frees one of ip's reserved connection slots. Called when a
// client's WebSocket disconnects.
func (wrl *WebSocketRateLimiter) Release(ip string) {
	if v, ok := wrl.perIPCounts.Load(ip); ok {
		atomic.AddInt32(v.(*int32), -1)
	}
}

// GetConnectionCount returns ip's current live connection count.
func (wrl *WebSocketRateLimiter) GetConnectionCount(ip string) int {
	if v, ok := wrl.perIPCounts.Load(ip); ok {
		return int(atomic.LoadInt32(v.(*int32)))
	}
	return 0
}

// GetStats reports the cumulative number of WebSocket upgrades rejected
// for exceeding the per-IP connection cap.
func (wrl *WebSocketRateLimiter) GetStats() map[string]uint64 {
	return map[string]uint64{
		"rejected": atomic.LoadUint64(&wrl.rejectedCount),
	}
}

// AllowedOrigins lists the exact Origin header values accepted for
// WebSocket upgrades and CORS beyond the blanket localhost allowance
// below; deployments serving the client from a real domain add it here.
var AllowedOrigins = []string{
	"http://localhost",
	"http://localhost:3000",
	"http://localhost:8080",
}

// IsAllowedOrigin reports whether origin may open a WebSocket or make a
// cross-origin request: any localhost origin (any port, for local
// development) or an exact match in AllowedOrigins.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	if origin == "http://localhost" || strings.HasPrefix(origin, "http://localhost:") {
		return true
	}

	for _, allowed := range AllowedOrigins {
		if origin == allowed {
			return true
		}
	}

	return false
}
