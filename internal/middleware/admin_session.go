package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"

	"stellarreg/api/internal/metrics"
	"stellarreg/api/internal/service"
)

type SessionValidator interface {
	Validate(ctx context.Context, adminID string, token string) error
}

// SessionCredentials travel in the JSON body of every admin request.
type SessionCredentials struct {
	AdminID string `json:"adminId"`
	Token   string `json:"token"`
}

// AdminSession re-validates the session on every request. The body is bound
// with ShouldBindBodyWith so handlers can bind it again.
func AdminSession(validator SessionValidator, m *metrics.Manager, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds SessionCredentials
		if err := c.ShouldBindBodyWith(&creds, binding.JSON); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if creds.AdminID == "" || creds.Token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		err := validator.Validate(c.Request.Context(), creds.AdminID, creds.Token)
		switch {
		case err == nil:
			m.CounterSessionChecks.WithLabelValues("valid").Inc()
		case errors.Is(err, service.ErrSessionExpired):
			m.CounterSessionChecks.WithLabelValues("expired").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			return
		case errors.Is(err, service.ErrSessionInvalid):
			m.CounterSessionChecks.WithLabelValues("invalid").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		default:
			m.CounterSessionChecks.WithLabelValues("error").Inc()
			log.Error().Err(err).Str("admin_id", creds.AdminID).Msg("session verification failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Session verification failed"})
			return
		}

		c.Set(adminIDKey, creds.AdminID)
		c.Set(sessionTokenKey, creds.Token)

		c.Next()
	}
}
