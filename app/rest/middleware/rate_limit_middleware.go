package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiter applies per-IP request limits. Login endpoints get a much
// tighter budget than the rest of the API.
type RateLimiter struct {
	visitors map[string]*visitor
	mutex    sync.Mutex

	apiLimit rate.Limit
	apiBurst int
}

type visitor struct {
	loginLimiter *rate.Limiter
	apiLimiter   *rate.Limiter
	lastSeen     time.Time
}

// NewRateLimiter creates a rate limiter with the given general API budget.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		apiLimit: rate.Limit(rps),
		apiBurst: burst,
	}

	go rl.cleanupVisitors()
	return rl
}

// RateLimit returns the echo middleware.
func (rl *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			isLogin := strings.Contains(c.Request().URL.Path, "/login")

			if !rl.allow(ip, isLogin) {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error": "rate limit exceeded",
					"code":  "RATE_LIMIT_EXCEEDED",
				})
			}

			return next(c)
		}
	}
}

func (rl *RateLimiter) allow(ip string, isLogin bool) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{
			// 1 login attempt per 3 seconds, short burst; enough for a
			// human retyping a password, hostile to credential stuffing.
			loginLimiter: rate.NewLimiter(rate.Every(3*time.Second), 5),
			apiLimiter:   rate.NewLimiter(rl.apiLimit, rl.apiBurst),
		}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()

	if isLogin {
		return v.loginLimiter.Allow()
	}
	return v.apiLimiter.Allow()
}

func (rl *RateLimiter) cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		rl.mutex.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(rl.visitors, ip)
			}
		}
		rl.mutex.Unlock()
	}
}
