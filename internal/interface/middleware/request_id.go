package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oksasatya/loan-simulator/pkg/response"
)

const HeaderRequestID = "X-Request-ID"

// RequestIDMiddleware tags every request with an id that is echoed in the
// X-Request-ID header and the response envelope. A caller-supplied id is kept
// only when it parses as a UUID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(response.RequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
