package middleware

import (
	"net/http"
	"runtime/debug"

	"lawguide-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// Recovery 捕获处理函数中的 panic，记录堆栈并返回 500。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Errorw("panic recovered",
					"error", err,
					"requestId", GetRequestID(c),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "服务器内部错误", "data": nil})
			}
		}()
		c.Next()
	}
}
