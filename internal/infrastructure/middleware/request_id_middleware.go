package middleware

import (
	"github.com/gin-gonic/gin"

	"dcprobe/pkg/utils"
)

// RequestIDKey is the gin context key carrying the request ID.
const RequestIDKey = "request_id"

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware assigns each request an ID, honoring one supplied by
// the test runner.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = utils.GenerateRequestID()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}
