// BodySizeMiddleware bounds the ingest payload (§6): a batch's Rows array
// carries one whole bronze load inline in the request body, and without a
// ceiling a single caller could submit a batch large enough to exhaust
// server memory before the coordinator ever gets to split it into rows.
package rest

import (
	"net/http"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
)

type BodySizeMiddleware struct {
	logger      *logger.Logger
	maxBodySize int64
}

// NewBodySizeMiddleware builds a BodySizeMiddleware rejecting any request
// body past maxBodySize bytes; cmd/server passes a fixed 10 MiB limit.
func NewBodySizeMiddleware(log *logger.Logger, maxBodySize int64) *BodySizeMiddleware {
	return &BodySizeMiddleware{
		logger:      log,
		maxBodySize: maxBodySize,
	}
}

func (m *BodySizeMiddleware) LimitBodySize() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, m.maxBodySize)
		c.Next()
	}
}
