package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"loan-engine/internal/config"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	rateLimitWindow = 1 * time.Second
	unknownClientIP = "unknown"
)

// windowCounter counts hits for key in a fixed window shared across instances.
type windowCounter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisWindowCounter struct {
	client *redis.Client
}

func (c redisWindowCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	ttlCmd := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	count, err := incrCmd.Result()
	if err != nil {
		return 0, err
	}
	// -1: key has no expiry, -2: key missing.
	if ttl, err := ttlCmd.Result(); err == nil && (ttl == -1 || ttl == -2) {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return count, fmt.Errorf("failed to set expiry on %s: %w", key, err)
		}
	}
	return count, nil
}

// RateLimiterMiddleware limits requests per client IP. It counts in Redis when a client is
// configured and falls back to in-process token buckets otherwise or when Redis errors.
type RateLimiterMiddleware struct {
	counter  windowCounter
	limiters sync.Map
	cfg      config.RateLimitConfig
	logger   *slog.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiterMiddleware(cfg config.RateLimitConfig, redisClient *redis.Client, logger *slog.Logger) *RateLimiterMiddleware {
	var counter windowCounter
	if redisClient != nil {
		counter = redisWindowCounter{client: redisClient}
	}
	return newRateLimiter(cfg, counter, logger)
}

func newRateLimiter(cfg config.RateLimitConfig, counter windowCounter, logger *slog.Logger) *RateLimiterMiddleware {
	rl := &RateLimiterMiddleware{
		counter: counter,
		cfg:     cfg,
		logger:  logger.With("component", "RateLimiter"),
		stop:    make(chan struct{}),
	}

	switch {
	case !cfg.Enabled:
		rl.logger.Info("Rate limiting is disabled via configuration.")
	case counter == nil:
		rl.logger.Info("Rate limiter using in-memory buckets", "rps", cfg.RPS, "burst", cfg.Burst)
	default:
		rl.logger.Info("Rate limiter using Redis fixed window", "rps", cfg.RPS, "window", rateLimitWindow)
	}

	if cfg.Enabled {
		go rl.cleanupLimiters(10 * time.Minute)
	}
	return rl
}

// Close stops the background bucket cleanup.
func (rl *RateLimiterMiddleware) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiterMiddleware) windowLimit() int64 {
	return int64(math.Ceil(rl.cfg.RPS * rateLimitWindow.Seconds()))
}

func (rl *RateLimiterMiddleware) getLimiter(ip string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(ip); ok {
		return limiter.(*rate.Limiter)
	}
	burst := rl.cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter, _ := rl.limiters.LoadOrStore(ip, rate.NewLimiter(rate.Limit(rl.cfg.RPS), burst))
	return limiter.(*rate.Limiter)
}

func (rl *RateLimiterMiddleware) cleanupLimiters(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.limiters.Range(func(key, value any) bool {
				limiter := value.(*rate.Limiter)
				if limiter.Tokens() >= float64(limiter.Burst()) {
					rl.limiters.Delete(key)
				}
				return true
			})
		}
	}
}

func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}
	if xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); xRealIP != "" && net.ParseIP(xRealIP) != nil {
		return xRealIP
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	if parsed := net.ParseIP(r.RemoteAddr); parsed != nil {
		return parsed.String()
	}
	return unknownClientIP
}

func (rl *RateLimiterMiddleware) allow(ctx context.Context, ip string) bool {
	if rl.counter != nil {
		key := "ratelimit:" + ip
		count, err := rl.counter.Increment(ctx, key, rateLimitWindow)
		if err == nil {
			return count <= rl.windowLimit()
		}
		rl.logger.ErrorContext(ctx, "Redis rate limit check failed; using in-memory bucket", "error", err, "ip", ip)
		if count > 0 {
			return count <= rl.windowLimit()
		}
	}
	return rl.getLimiter(ip).Allow()
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if ip == unknownClientIP {
			rl.logger.WarnContext(r.Context(), "Could not determine client IP for rate limiting", "remoteAddr", r.RemoteAddr)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		if !rl.allow(r.Context(), ip) {
			rl.logger.WarnContext(r.Context(), "Rate limit exceeded", "ip", ip, "limit", rl.cfg.RPS)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", rateLimitWindow.Seconds()))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{
					"message": fmt.Sprintf("Rate limit exceeded. Limit is %v requests per %v.", rl.cfg.RPS, rateLimitWindow),
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
