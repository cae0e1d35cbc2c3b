package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"budgeting/internal/logger"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	maxRequestIDLen = 128
)

// RequestLogging tags every request with an id and logs one line per
// request once it completes. A caller supplied X-Request-ID is kept.
// Server errors log at error level, client errors at warn, and health
// probes are not logged.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()

		if strings.HasSuffix(c.Request.URL.Path, "/health") {
			return
		}

		status := c.Writer.Status()
		log := logger.With(
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if userID, ok := c.Get(userIDKey); ok {
			log = log.With("user_id", userID)
		}

		switch {
		case status >= 500:
			log.Errorw("request", "errors", c.Errors.String())
		case status >= 400:
			log.Warnw("request")
		default:
			log.Infow("request")
		}
	}
}
