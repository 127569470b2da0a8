// LoggingMiddleware logs a start and a completion line per ingest/inspection
// request. The completion line is tagged with the actor APIKeyMiddleware
// attached ("unauthenticated" when none was), which identifies the caller
// without a separate per-user identity system (there are no end users in
// this domain, only API-key-identified callers; §1 Non-goals excludes
// credential management). C11's audit log does not use this string.
package rest

import (
	"time"

	"github.com/google/uuid"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
)

const (
	RequestIDHeader     = "X-Request-ID"
	ContextKeyRequestID = "request_id"
)

type LoggingMiddleware struct {
	logger *logger.Logger
}

func NewLoggingMiddleware(log *logger.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: log,
	}
}

func (m *LoggingMiddleware) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, requestID)
		c.Header(RequestIDHeader, requestID)

		actor, ok := GetUserID(c)
		if !ok {
			actor = "unauthenticated"
		}

		path := c.Request.URL.Path
		method := c.Request.Method
		clientIP := c.ClientIP()

		m.logger.Info("request started",
			"request_id", requestID,
			"method", method,
			"path", path,
			"query", c.Request.URL.RawQuery,
			"client_ip", clientIP,
			"actor", actor,
		)

		c.Next()

		// APIKeyMiddleware runs on the route group, after this middleware.
		if a, ok := GetUserID(c); ok {
			actor = a
		}

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		logArgs := []any{
			"request_id", requestID,
			"method", method,
			"path", path,
			"status", statusCode,
			"duration_ms", duration.Milliseconds(),
			"response_size", c.Writer.Size(),
			"client_ip", clientIP,
			"actor", actor,
		}
		if len(c.Errors) > 0 {
			logArgs = append(logArgs, "errors", c.Errors.String())
		}

		switch {
		case statusCode >= 500:
			m.logger.Error("request completed", logArgs...)
		case statusCode >= 400:
			m.logger.Warn("request completed", logArgs...)
		default:
			m.logger.Info("request completed", logArgs...)
		}
	}
}

// GetRequestID returns the per-request id LoggingMiddleware attached,
// used by respondAPIErrorWithRequestID to surface it in error bodies.
func GetRequestID(c *gin.Context) string {
	requestID, exists := c.Get(ContextKeyRequestID)
	if !exists {
		return ""
	}
	return requestID.(string)
}
