package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/iliyamo/eventos-api/internal/config"
	"github.com/iliyamo/eventos-api/internal/metrics"
)

// tokenBucketScript refills and takes one token atomically.  It returns
// {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        local until_next = interval_ms - (now_ms - last_refill)
        if until_next < 0 then until_next = 0 end
        retry_after_ms = until_next
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

// decision is the outcome of one bucket lookup.
type decision struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

// RateLimiter applies a token bucket per key.  The bucket lives in Redis
// when a client is configured so that all instances share it; when Redis
// is absent or failing, an in-process bucket with the same shape is used.
type RateLimiter struct {
	cfg   config.RateLimitConfig
	rdb   *redis.Client
	local *localBuckets
	log   zerolog.Logger
	now   func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		cfg:   cfg,
		rdb:   rdb,
		local: newLocalBuckets(cfg),
		log:   log.With().Str("component", "ratelimit").Logger(),
		now:   time.Now,
	}
}

// Middleware returns the Echo middleware.  A disabled limiter passes every
// request through.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	if !rl.cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(rl.cfg, c)
			d, backend := rl.take(c.Request().Context(), key)

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
			if rl.cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if d.allowed {
				return next(c)
			}

			secs := int(math.Ceil(d.retry.Seconds()))
			if secs < 1 {
				secs = 1
			}
			h.Set("Retry-After", strconv.Itoa(secs))
			metrics.RateLimited.WithLabelValues(c.Path(), backend).Inc()
			if rl.cfg.Debug {
				rl.log.Info().Str("key", key).Int("retry_after", secs).Str("backend", backend).Msg("request blocked")
			}
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		}
	}
}

func (rl *RateLimiter) take(ctx context.Context, key string) (decision, string) {
	if rl.rdb != nil {
		d, err := rl.takeRedis(ctx, key)
		if err == nil {
			return d, "redis"
		}
		rl.log.Warn().Err(err).Str("key", key).Msg("redis limiter failed; using local bucket")
	}
	return rl.local.take(key), "local"
}

func (rl *RateLimiter) takeRedis(ctx context.Context, key string) (decision, error) {
	args := []any{
		rl.now().UnixMilli(),
		rl.cfg.Capacity,
		rl.cfg.RefillTokens,
		rl.cfg.RefillInterval.Milliseconds(),
		int64(rl.cfg.TTL / time.Second),
	}
	vals, err := tokenBucketScript.Run(ctx, rl.rdb, []string{key}, args...).Int64Slice()
	if err != nil {
		return decision{}, err
	}
	if len(vals) != 3 {
		return decision{}, fmt.Errorf("unexpected script result %v", vals)
	}
	return decision{
		allowed:   vals[0] == 1,
		remaining: vals[1],
		retry:     time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// localBuckets keeps one x/time/rate limiter per key.
type localBuckets struct {
	limit rate.Limit
	burst int

	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	lastCleanup time.Time
}

func newLocalBuckets(cfg config.RateLimitConfig) *localBuckets {
	perSecond := float64(cfg.RefillTokens) / cfg.RefillInterval.Seconds()
	return &localBuckets{
		limit:       rate.Limit(perSecond),
		burst:       cfg.Capacity,
		limiters:    map[string]*rate.Limiter{},
		lastCleanup: time.Now(),
	}
}

func (b *localBuckets) take(key string) decision {
	b.mu.Lock()
	l, ok := b.limiters[key]
	if !ok {
		l = rate.NewLimiter(b.limit, b.burst)
		b.limiters[key] = l
	}
	b.cleanupLocked()
	b.mu.Unlock()

	if l.Allow() {
		return decision{allowed: true, remaining: int64(l.Tokens())}
	}
	r := l.Reserve()
	delay := r.Delay()
	r.Cancel()
	return decision{retry: delay}
}

// cleanupLocked drops idle limiters (full buckets) every five minutes.
func (b *localBuckets) cleanupLocked() {
	if time.Since(b.lastCleanup) < 5*time.Minute {
		return
	}
	b.lastCleanup = time.Now()
	for k, l := range b.limiters {
		if l.Tokens() >= float64(b.burst) {
			delete(b.limiters, k)
		}
	}
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	parts := []string{cfg.Prefix}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := "anon"
	if id := UserID(c); id != 0 {
		uid = strconv.FormatUint(id, 10)
	}
	route := c.Request().Method + " " + c.Path()

	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", uid)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", uid)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	case "user_route":
		parts = append(parts, "user", uid, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", uid, "route", route)
	}
	return strings.Join(parts, ":")
}
