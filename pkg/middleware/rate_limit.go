package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/types"
	"github.com/yeisme/kitvault/pkg/log"
)

// 超过 visitorIdle 未出现的键在下次清扫时回收.
const visitorIdle = 10 * time.Minute

// RateLimitMiddleware 令牌桶限流.
// Key 为 global 时共享一个桶；ip 按客户端 IP；header:Name 按请求头，缺失时回退到 IP.
// 拒绝时返回 429 并在 Retry-After 中给出建议等待秒数.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	set := newLimiterSet(rate.Limit(cfg.RPS), cfg.Burst, time.Now)
	keyOf := limiterKey(strings.ToLower(strings.TrimSpace(cfg.Key)))
	logger := log.Component("ratelimit")

	return func(c *gin.Context) {
		key := keyOf(c)

		if wait, ok := set.allow(key); !ok {
			logger.Debug().Str("key", key).Str("path", c.FullPath()).Dur("wait", wait).Msg("rate limited")
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, types.ErrorResponse{Error: "rate limit exceeded"})

			return
		}

		c.Next()
	}
}

func limiterKey(mode string) func(*gin.Context) string {
	if mode == "" || mode == "global" {
		return func(*gin.Context) string { return "global" }
	}

	header, byHeader := strings.CutPrefix(mode, "header:")

	return func(c *gin.Context) string {
		if byHeader {
			if v := c.GetHeader(header); v != "" {
				return header + "=" + v
			}
		}

		if ip := c.ClientIP(); ip != "" {
			return ip
		}

		return "unknown"
	}
}

type visitor struct {
	limiter *rate.Limiter
	seen    time.Time
}

// limiterSet 按键维护令牌桶，空闲的键在 get 时顺带清扫.
type limiterSet struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newLimiterSet(limit rate.Limit, burst int, now func() time.Time) *limiterSet {
	return &limiterSet{
		limit:     limit,
		burst:     max(burst, 1),
		now:       now,
		visitors:  map[string]*visitor{},
		lastSweep: now(),
	}
}

// allow 消耗一个令牌；不足时返回需要等待的时长.
func (s *limiterSet) allow(key string) (time.Duration, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > visitorIdle {
		for k, v := range s.visitors {
			if now.Sub(v.seen) > visitorIdle {
				delete(s.visitors, k)
			}
		}

		s.lastSweep = now
	}

	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[key] = v
	}

	v.seen = now

	r := v.limiter.ReserveN(now, 1)
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return d, false
	}

	return 0, true
}

func (s *limiterSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.visitors)
}
