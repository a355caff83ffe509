package handler

import (
	"lawguide-go/internal/middleware"
	"lawguide-go/internal/service"

	"github.com/gin-gonic/gin"
)

// DocumentHandler 负责文档分析区的摘要和上传请求。
type DocumentHandler struct {
	assistant      service.AssistantService
	maxUploadBytes int64
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(assistant service.AssistantService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{assistant: assistant, maxUploadBytes: maxUploadBytes}
}

type summarizeRequest struct {
	Text string `json:"text"`
}

// Summarize 对粘贴的文本生成摘要。请求体可省略，此时使用会话中的文本。
func (h *DocumentHandler) Summarize(c *gin.Context) {
	var req summarizeRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	state, err := h.assistant.SummarizeText(c.Request.Context(), middleware.GetSessionID(c), req.Text)
	if err != nil {
		respondError(c, err, state)
		return
	}
	respondState(c, state)
}

// Upload 上传 PDF 并生成摘要。未携带文件时使用已选择的文件。
func (h *DocumentHandler) Upload(c *gin.Context) {
	upload, err := readUpload(c, h.maxUploadBytes)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	state, err := h.assistant.UploadDocument(c.Request.Context(), middleware.GetSessionID(c), upload)
	if err != nil {
		respondError(c, err, state)
		return
	}
	respondState(c, state)
}
