package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// RequestID 为每个请求生成唯一 ID，已有 X-Request-ID 时沿用。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)
		c.Set(requestIDKey, requestID)
		c.Next()
	}
}

// GetRequestID 返回当前请求的 ID。
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
