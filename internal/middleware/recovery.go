package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware returns recovery middleware that logs a panic with
// the same request identity logging.go attaches to every other log
// line, plus the run ID when the panic happens inside a /runs/:id or
// /ws/runs/:id route, since that's the run whose worker goroutines
// were most likely involved.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered", panicFields(c, err)...)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "internal server error",
					"message":    "an unexpected error occurred, please try again later",
					"request_id": GetRequestID(c),
				})
			}
		}()
		c.Next()
	}
}

// RecoveryWithCallback behaves like RecoveryMiddleware but additionally
// invokes callback with the recovered value, e.g. so a caller can bump
// a panic counter on the metrics collector before the response is sent.
func RecoveryWithCallback(logger *zap.Logger, callback func(c *gin.Context, err interface{})) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered", panicFields(c, err)...)

				if callback != nil {
					callback(c, err)
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "internal server error",
					"request_id": GetRequestID(c),
				})
			}
		}()
		c.Next()
	}
}

func panicFields(c *gin.Context, err interface{}) []zap.Field {
	fields := []zap.Field{
		zap.Any("error", err),
		zap.String("request_id", GetRequestID(c)),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("client_ip", c.ClientIP()),
		zap.String("user_agent", c.Request.UserAgent()),
		zap.ByteString("stack", debug.Stack()),
	}
	if runID := c.Param("id"); runID != "" {
		fields = append(fields, zap.String("run_id", runID))
	}
	return fields
}

// PanicInfo holds information about a recovered panic, returned by
// GetPanicInfo for tests that assert on recovery behavior directly.
type PanicInfo struct {
	Error      string `json:"error"`
	RequestID  string `json:"request_id"`
	RunID      string `json:"run_id,omitempty"`
	Path       string `json:"path"`
	Method     string `json:"method"`
	ClientIP   string `json:"client_ip"`
	StackTrace string `json:"stack_trace,omitempty"`
}

// GetPanicInfo builds a PanicInfo from a recovered value and the
// request it occurred on.
func GetPanicInfo(err interface{}, c *gin.Context) *PanicInfo {
	return &PanicInfo{
		Error:      fmt.Sprintf("%v", err),
		RequestID:  GetRequestID(c),
		RunID:      c.Param("id"),
		Path:       c.Request.URL.Path,
		Method:     c.Request.Method,
		ClientIP:   c.ClientIP(),
		StackTrace: string(debug.Stack()),
	}
}
