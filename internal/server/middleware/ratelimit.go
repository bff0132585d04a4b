package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gloriamundo/gloriamundo/internal/conf"
	"github.com/gloriamundo/gloriamundo/internal/server/resp"
	"github.com/gloriamundo/gloriamundo/internal/utils/cache"
	"golang.org/x/time/rate"
)

const limiterIdle = 10 * time.Minute

// RateLimit allows perMinute requests per caller with a burst of the same
// size. It must run after Identity. perMinute <= 0 disables it.
func RateLimit(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiters := cache.NewExpiring[string, *rate.Limiter](16)
	every := rate.Every(time.Minute / time.Duration(perMinute))
	return func(c *gin.Context) {
		key := GetIdentity(c).Key()
		l := limiters.GetOrPut(key, limiterIdle, func() *rate.Limiter {
			return rate.NewLimiter(every, perMinute)
		})
		if !l.Allow() {
			resp.Error(c, http.StatusTooManyRequests, resp.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

// ChatRateLimit is RateLimit with the limit read from chat.rate_limit_per_minute
// on the first request, after the config has been loaded.
func ChatRateLimit() gin.HandlerFunc {
	var (
		once sync.Once
		h    gin.HandlerFunc
	)
	return func(c *gin.Context) {
		once.Do(func() { h = RateLimit(conf.AppConfig.Chat.RateLimitPerMinute) })
		h(c)
	}
}
