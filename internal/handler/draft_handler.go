package handler

import (
	"fmt"
	"net/http"

	"lawguide-go/internal/middleware"
	"lawguide-go/internal/model"
	"lawguide-go/internal/service"

	"github.com/gin-gonic/gin"
)

// DraftHandler 负责文书起草和起草结果的下载。
type DraftHandler struct {
	assistant service.AssistantService
}

// NewDraftHandler 创建一个新的 DraftHandler 实例。
func NewDraftHandler(assistant service.AssistantService) *DraftHandler {
	return &DraftHandler{assistant: assistant}
}

// Draft 根据起草表单生成 PDF。请求体中的字段会先写入表单，
// 省略请求体时直接使用会话里的表单。
func (h *DraftHandler) Draft(c *gin.Context) {
	var form *model.DraftForm
	if c.Request.ContentLength != 0 {
		form = &model.DraftForm{}
		if err := bindOptionalJSON(c, form); err != nil {
			badRequest(c, "无效的请求负载")
			return
		}
	}
	state, err := h.assistant.DraftDocument(c.Request.Context(), middleware.GetSessionID(c), form)
	if err != nil {
		respondError(c, err, state)
		return
	}
	respondState(c, state)
}

// Download 下载最近一次起草的 PDF：对象存储支持预签名时重定向，否则直接返回文件。
func (h *DraftHandler) Download(c *gin.Context) {
	download, err := h.assistant.OpenDraft(c.Request.Context(), middleware.GetSessionID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, model.SessionState{})
		return
	}
	if download.URL != "" {
		c.Redirect(http.StatusFound, download.URL)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.FileName))
	c.Data(http.StatusOK, download.ContentType, download.Data)
}
