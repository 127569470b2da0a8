package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	APIKeyHeader      = "X-API-Key"
	ContextKeyUserID  = "user_id"
)

// APIKeyMiddleware authenticates ingest requests against a static list of
// configured API keys (config.ServerConfig.APIKeys) — the coarse-grained
// credential check the pipeline needs at its HTTP boundary. Per-user
// accounts, roles and impersonation are out of scope (§1 Non-goals).
type APIKeyMiddleware struct {
	keys map[string]bool
}

// NewAPIKeyMiddleware builds an APIKeyMiddleware from the configured key
// list. An empty list disables the check entirely — useful for local
// development and the embedded-postgres test suite.
func NewAPIKeyMiddleware(keys []string) *APIKeyMiddleware {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return &APIKeyMiddleware{keys: set}
}

// RequireAPIKey rejects requests missing a recognized X-API-Key header. A
// matched key is stored as the request's user id for request logging.
func (m *APIKeyMiddleware) RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(m.keys) == 0 {
			c.Next()
			return
		}
		key := c.GetHeader(APIKeyHeader)
		if key == "" || !m.keys[key] {
			respondAPIErrorWithRequestID(c, NewAPIError("UNAUTHORIZED", "missing or invalid API key", http.StatusUnauthorized))
			c.Abort()
			return
		}
		c.Set(ContextKeyUserID, key)
		c.Next()
	}
}

// GetUserID returns the caller identity attached by APIKeyMiddleware, if
// any — consulted by request logging to attribute requests.
func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextKeyUserID)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
