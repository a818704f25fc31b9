package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ThrottleConfig bounds the whole server's request rate. This is a blunt
// load-shedding guard in front of the per-source fixed-window limiter
// inside the play gate, not a replacement for it.
type ThrottleConfig struct {
	RPS   float64
	Burst int
}

// ThrottleMiddleware rejects requests once the global budget is exhausted.
func ThrottleMiddleware(cfg ThrottleConfig) gin.HandlerFunc {
	if cfg.RPS <= 0 {
		cfg.RPS = 50
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 100
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":  "Too many requests",
				"reason": ReasonRateLimited,
			})
			return
		}
		c.Next()
	}
}
