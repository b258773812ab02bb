package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// route is the registered pattern, or "unmatched" so stray paths cannot
// blow up label cardinality.
func route(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}

// RequestLogger logs each status request. Prometheus scrapes arrive every few
// seconds and are logged at trace.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := route(c)

		event := logger.Debug()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case path == "/metrics":
			event = logger.Trace()
		}
		event.
			Str("method", c.Request.Method).
			Str("route", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("status request")
	}
}

func RequestMetricsMiddleware(node string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordHTTPRequest(node, c.Request.Method, route(c), c.Writer.Status(), time.Since(start))
	}
}
