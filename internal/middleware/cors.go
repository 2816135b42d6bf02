package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loadforge/loadforge/internal/config"
)

// allowedMethods and exposedHeaders reflect the run-control API's
// actual route surface (internal/api/router): no PUT or PATCH verb is
// ever registered, and a dashboard polling or reconnecting to a run
// needs to read the request ID and API version back out of the
// response, which a browser withholds from script access unless they
// are listed in Access-Control-Expose-Headers.
const (
	allowedMethods = "GET, POST, DELETE, OPTIONS"
	exposedHeaders = "X-Request-ID, X-API-Version"
)

// CORSMiddleware adds CORS headers to responses, scoped to the
// dashboard/API origins cfg allows. The dashboard's live view opens a
// websocket to /ws/runs/:id after first fetching /api/v1/runs/:id over
// plain HTTP from the same origin, so both paths expose the request ID
// and API version headers.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		wildcard := len(cfg.AllowedOrigins) > 0 && cfg.AllowedOrigins[0] == "*"

		switch {
		case wildcard:
			// Allow all origins only if explicitly configured.
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case cfg.IsOriginAllowed(origin):
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		case c.Request.Method == http.MethodOptions:
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		// Only allow credentials when specific origins are set (not with *).
		if !wildcard && cfg.CORSAllowCredentials && origin != "" && cfg.IsOriginAllowed(origin) {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Authorization, X-API-Key, X-Request-ID, Accept, Origin")
		c.Writer.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		c.Writer.Header().Set("Access-Control-Expose-Headers", exposedHeaders)
		c.Writer.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// CORSMiddlewarePermissive allows any origin to reach the run-control
// API. Intended for running the dashboard straight off a local
// filesystem path (origin "null") during scenario development; never
// wire this into a deployment that also accepts credentials.
func CORSMiddlewarePermissive() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Authorization, X-API-Key, X-Request-ID, Accept, Origin")
		c.Writer.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		c.Writer.Header().Set("Access-Control-Expose-Headers", exposedHeaders)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
