package middleware

import (
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter *rate.Limiter
	last    atomic.Int64 // unix nanos; written per request, read by eviction
}

// NewRateLimitPerIP caps requests per second per client IP, with an LRU cap
// on how many IPs are tracked at once. The returned stop function halts the
// background eviction loop.
func NewRateLimitPerIP(limit, burst, cacheSize int, ttl time.Duration) (gin.HandlerFunc, func()) {
	visitors, _ := lru.New[string, *visitor](cacheSize)
	done := make(chan struct{})

	// evict IPs that went quiet
	go func() {
		ticker := time.NewTicker(ttl)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-ttl).UnixNano()
				for _, key := range visitors.Keys() {
					if v, ok := visitors.Peek(key); ok && v.last.Load() < cutoff {
						visitors.Remove(key)
					}
				}
			}
		}
	}()

	mw := func(c *gin.Context) {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err != nil {
			host = c.Request.RemoteAddr
		}

		v, ok := visitors.Get(host)
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(limit), burst)}
			visitors.Add(host, v)
		}
		v.last.Store(time.Now().UnixNano())

		if !v.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Muitas requisições, tente novamente em instantes"})
			return
		}
		c.Next()
	}

	return mw, func() { close(done) }
}
