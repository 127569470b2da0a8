// RecoveryMiddleware guards the coordinator's synchronous Run call (C12):
// a panic partway through a batch must still turn into a JSON error
// response and a logged stack trace, never a dropped connection that
// leaves the caller unsure whether any row in the batch committed.
package rest

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
)

type RecoveryMiddleware struct {
	logger *logger.Logger
}

func NewRecoveryMiddleware(log *logger.Logger) *RecoveryMiddleware {
	return &RecoveryMiddleware{
		logger: log,
	}
}

func (m *RecoveryMiddleware) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				stack := debug.Stack()

				requestID := GetRequestID(c)
				actor, _ := GetUserID(c)

				m.logger.Error("panic recovered",
					"request_id", requestID,
					"actor", actor,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"error", err,
					"stack", string(stack),
				)

				apiErr := NewAPIError(
					"INTERNAL_ERROR",
					fmt.Sprintf("internal server error (request_id: %s)", requestID),
					http.StatusInternalServerError,
				)

				c.AbortWithStatusJSON(apiErr.HTTPStatus, apiErr)
			}
		}()

		c.Next()
	}
}
