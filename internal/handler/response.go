// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"io"
	"net/http"

	"lawguide-go/internal/middleware"
	"lawguide-go/internal/model"
	"lawguide-go/internal/repository"
	"lawguide-go/internal/service"
	"lawguide-go/internal/session"
	"lawguide-go/pkg/log"

	"github.com/gin-gonic/gin"
)

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": data})
}

// respondState 返回会话视图。
func respondState(c *gin.Context, state model.SessionState) {
	respondOK(c, session.NewView(state))
}

// respondError 把业务错误映射为 HTTP 状态码。state 非空时一并返回，
// 视图可以据此展示提示并恢复按钮状态。
func respondError(c *gin.Context, err error, state model.SessionState) {
	code, message := http.StatusInternalServerError, "服务器内部错误"
	switch {
	case errors.Is(err, service.ErrValidation):
		code, message = http.StatusBadRequest, state.Alert
	case errors.Is(err, session.ErrInvalidValue):
		code, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrOperationPending):
		code, message = http.StatusConflict, "操作正在进行中，请稍候"
	case errors.Is(err, repository.ErrSessionNotFound):
		code, message = http.StatusNotFound, "会话不存在或已过期"
	case errors.Is(err, service.ErrDraftNotFound):
		code, message = http.StatusNotFound, "起草文档不存在"
	case errors.Is(err, service.ErrBackend):
		code, message = http.StatusBadGateway, state.Alert
	default:
		log.Errorw("请求处理失败", "requestId", middleware.GetRequestID(c), "path", c.Request.URL.Path, "error", err)
	}

	var data interface{}
	if state.ID != "" {
		data = session.NewView(state)
	}
	c.JSON(code, gin.H{"code": code, "message": message, "data": data})
}

// bindOptionalJSON 绑定可选的 JSON 请求体，空请求体不算错误。
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": message, "data": nil})
}
