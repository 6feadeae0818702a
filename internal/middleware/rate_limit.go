package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stellarreg/api/internal/metrics"
	"stellarreg/api/internal/ratelimit"
)

const unknownClient = "unknown"

// ClientKey identifies the caller for rate limiting. Forwarding headers are
// only honored through the engine's trusted platform and proxy settings.
func ClientKey(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return unknownClient
}

func RateLimit(limiter ratelimit.Limiter, m *metrics.Manager, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ClientKey(c)

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Error().Err(err).Str("client_ip", key).Msg("rate limit check failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
			return
		}
		if !allowed {
			m.CounterRateLimited.Inc()
			log.Warn().Str("client_ip", key).Str("path", c.Request.URL.Path).Msg("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please try again later."})
			return
		}

		c.Next()
	}
}
