// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"lawguide-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// SessionIDKey 是 gin 上下文中保存会话 ID 的键。
const SessionIDKey = "sessionID"

// SessionAuth 创建一个 Gin 中间件，用于会话 token 认证。
// 它会从请求头中提取 token，验证其有效性，并将会话 ID 存入 Gin 的上下文中。
func SessionAuth(jwtManager *token.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "请求未包含授权头", "data": nil})
			return
		}

		// Token 以 "Bearer <token>" 的形式提供
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的授权头格式", "data": nil})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效或已过期的 token", "data": nil})
			return
		}

		c.Set(SessionIDKey, claims.SessionID)
		c.Next()
	}
}

// GetSessionID 返回认证后的会话 ID。
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
