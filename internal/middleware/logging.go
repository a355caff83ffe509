package middleware

import (
	"bytes"
	"io"
	"strings"
	"time"

	"lawguide-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// maxLoggedBody 是日志中记录的请求/响应体的最大长度。
const maxLoggedBody = 4096

// bodyLogWriter 用于捕获响应体
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 实现了 io.Writer 接口，将响应写入 gin.ResponseWriter 和一个内部的 buffer
func (w bodyLogWriter) Write(b []byte) (int, error) {
	if w.body.Len() < maxLoggedBody {
		w.body.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json")
}

func clip(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "...(truncated)"
	}
	return string(b)
}

// RequestLogger 是一个 Gin 中间件，用于记录请求和响应日志。
// 只记录 JSON 请求体和响应体，上传的 PDF 和下载的文档不进入日志。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		var requestBody []byte
		if c.Request.Body != nil && isJSON(c.ContentType()) {
			requestBody, _ = io.ReadAll(c.Request.Body)
			// 将读取的请求体重新设置回 c.Request.Body，以便后续处理函数可以正常读取
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		responseBody := ""
		if isJSON(blw.Header().Get("Content-Type")) {
			responseBody = clip(blw.body.Bytes())
		}
		log.Infow("HTTP Request Log",
			"requestId", GetRequestID(c),
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"requestBody", clip(requestBody),
			"responseBody", responseBody,
		)
	}
}
