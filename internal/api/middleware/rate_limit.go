package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"codele_backend/internal/common"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter enforces a per-IP sliding window over Redis, so the limit
// holds across replicas. Applied to the public content routes only; admin
// traffic is authenticated and exempt.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	logger *slog.Logger
}

func NewRateLimiter(rdb *redis.Client, limit, windowSeconds int, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: time.Duration(windowSeconds) * time.Second,
		logger: logger,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := clientIP(r)
		key := "rate_limit:" + ip
		now := time.Now()
		windowStart := now.Add(-rl.window)

		// Sliding window over a sorted set: trim, count, record.
		pipe := rl.rdb.TxPipeline()
		pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10))
		countCmd := pipe.ZCard(ctx, key)
		oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
		if _, err := pipe.Exec(ctx); err != nil {
			// Fail open: content reads should not break when Redis is down.
			rl.logger.Error("rate limiter unavailable, allowing request", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if countCmd.Val() >= int64(rl.limit) {
			retryAfter := 1
			if oldest := oldestCmd.Val(); len(oldest) > 0 {
				oldestAt := time.UnixMilli(int64(oldest[0].Score))
				retryAfter = int(rl.window-now.Sub(oldestAt))/int(time.Second) + 1
			}
			common.RespondWithRetryAfter(w, strconv.Itoa(retryAfter), map[string]interface{}{
				"error":               "Rate limit exceeded. Please slow down.",
				"retry_after_seconds": retryAfter,
			})
			return
		}

		member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()[:8])
		pipe = rl.rdb.TxPipeline()
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: member})
		pipe.Expire(ctx, key, rl.window)
		if _, err := pipe.Exec(ctx); err != nil {
			rl.logger.Error("rate limiter record failed", "error", err)
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP prefers X-Forwarded-For (first hop) for deployments behind a
// proxy, falling back to the connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
