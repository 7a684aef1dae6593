package ratelimiter

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// window はキーごとの固定ウィンドウの状態です。
type window struct {
	count int
	start time.Time
}

// RateLimiter は、キー（クライアントIPなど）ごとに操作の頻度を制限します。
// interval ごとに limit 回まで許可する固定ウィンドウ方式です。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // 1ウィンドウあたりの上限
	interval  time.Duration // どの単位でリセットするか
	windows   map[string]*window
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiterは新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		windows:   make(map[string]*window),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow はキーの呼び出しを1回数え、上限内なら true を返します。
// false の場合は次のウィンドウまでの待ち時間も返します。
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	w, ok := rl.windows[key]
	// interval を過ぎたらカウントリセット
	if !ok || now.Sub(w.start) >= rl.interval {
		w = &window{start: now}
		rl.windows[key] = w
	}
	if w.count >= rl.limit {
		return false, rl.interval - now.Sub(w.start)
	}
	w.count++
	return true, 0
}

// sweep は期限切れのウィンドウを interval に1回破棄します。
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.interval {
		return
	}
	for k, w := range rl.windows {
		if now.Sub(w.start) >= rl.interval {
			delete(rl.windows, k)
		}
	}
	rl.lastSweep = now
}

// Middleware はクライアントIPごとに制限するGinミドルウェアを返します。
// 上限を超えたリクエストは429とRetry-Afterヘッダーで拒否されます。
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := rl.Allow(c.ClientIP())
		if !ok {
			slog.Warn("rate limit exceeded", "path", c.FullPath(), "remote_addr", c.ClientIP())
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
