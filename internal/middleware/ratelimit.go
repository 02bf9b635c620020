package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter throttles credential guessing on the login form. Keys are
// remote addresses.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// NewLoginLimiter returns a Redis-backed limiter when an address is given so
// multiple app instances share counters, otherwise a per-process bucket.
func NewLoginLimiter(redisAddr string, capacity int, window time.Duration) LoginLimiter {
	if redisAddr != "" {
		return &redisLimiter{
			client:   redis.NewClient(&redis.Options{Addr: redisAddr}),
			capacity: capacity,
			window:   window,
		}
	}
	return newMemoryLimiter(capacity, window)
}

type redisLimiter struct {
	client   *redis.Client
	capacity int
	window   time.Duration
}

func (l *redisLimiter) Allow(ctx context.Context, key string) bool {
	k := "login_attempts:" + key
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		// Redis down must not lock staff out.
		return true
	}
	if n == 1 {
		l.client.Expire(ctx, k, l.window)
	}
	return n <= int64(l.capacity)
}

type clientBucket struct {
	tokens     int
	lastRefill time.Time
}

type memoryLimiter struct {
	mu       sync.Mutex
	capacity int
	window   time.Duration
	clients  map[string]*clientBucket
}

func newMemoryLimiter(capacity int, window time.Duration) *memoryLimiter {
	return &memoryLimiter{
		capacity: capacity,
		window:   window,
		clients:  make(map[string]*clientBucket),
	}
}

func (l *memoryLimiter) Allow(_ context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	bucket, exists := l.clients[key]
	if !exists {
		l.clients[key] = &clientBucket{tokens: l.capacity - 1, lastRefill: now}
		return true
	}
	if now.Sub(bucket.lastRefill) >= l.window {
		bucket.tokens = l.capacity
		bucket.lastRefill = now
	}
	if bucket.tokens <= 0 {
		return false
	}
	bucket.tokens--
	return true
}

// LimitLogin applies the limiter to POST requests only; rendering the form
// stays free.
func LimitLogin(l LoginLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			if !l.Allow(r.Context(), host) {
				w.WriteHeader(http.StatusTooManyRequests)
				if _, werr := w.Write([]byte("too many attempts")); werr != nil {
					_ = werr
				}
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
