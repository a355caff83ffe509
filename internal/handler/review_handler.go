package handler

import (
	"lawguide-go/internal/middleware"
	"lawguide-go/internal/service"

	"github.com/gin-gonic/gin"
)

// ReviewHandler 负责合同审阅请求。
type ReviewHandler struct {
	assistant      service.AssistantService
	maxUploadBytes int64
}

func NewReviewHandler(assistant service.AssistantService, maxUploadBytes int64) *ReviewHandler {
	return &ReviewHandler{assistant: assistant, maxUploadBytes: maxUploadBytes}
}

// Review 审阅请求中的合同，未携带文件时审阅已选择的合同。
func (h *ReviewHandler) Review(c *gin.Context) {
	upload, err := readUpload(c, h.maxUploadBytes)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	state, err := h.assistant.ReviewContract(c.Request.Context(), middleware.GetSessionID(c), upload)
	if err != nil {
		respondError(c, err, state)
		return
	}
	respondState(c, state)
}
