package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// quietRoutes are polled by probes and scrapers; their successes log at debug.
var quietRoutes = map[string]struct{}{
	"/api/healthz": {},
	"/metrics":     {},
}

// Logger writes one access line per request. Bodies are never logged since
// they carry passwords and session tokens.
func Logger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()

		var event *zerolog.Event
		switch _, quiet := quietRoutes[route]; {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		case quiet:
			event = log.Debug()
		default:
			event = log.Info()
		}

		if adminID, _, ok := CurrentAdmin(c); ok {
			event = event.Str("admin_id", adminID)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}

		event.
			Str("method", c.Request.Method).
			Str("route", route).
			Str("client_ip", ClientKey(c)).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", RequestIDFrom(c)).
			Msg("http request")
	}
}
