package handler

import (
	"lawguide-go/internal/middleware"
	"lawguide-go/internal/model"
	"lawguide-go/internal/service"
	"lawguide-go/internal/session"

	"github.com/gin-gonic/gin"
)

// ChatHandler 负责法律问答区的请求。
// 问答失败时后端错误已转成回退回答写入对话记录，因此仍返回 200。
type ChatHandler struct {
	assistant service.AssistantService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(assistant service.AssistantService) *ChatHandler {
	return &ChatHandler{assistant: assistant}
}

type askRequest struct {
	Question string         `json:"question"`
	Language model.Language `json:"language"`
}

// Ask 提出一个通用法律问题。
func (h *ChatHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	state, err := h.assistant.AskQuestion(c.Request.Context(), middleware.GetSessionID(c), req.Question, req.Language)
	if err != nil {
		respondError(c, err, state)
		return
	}
	respondState(c, state)
}

// AskDocument 针对已上传的文档提问。
func (h *ChatHandler) AskDocument(c *gin.Context) {
	var req askRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	state, err := h.assistant.AskAboutDocument(c.Request.Context(), middleware.GetSessionID(c), req.Question)
	if err != nil {
		respondError(c, err, state)
		return
	}
	respondState(c, state)
}

// Suggestions 返回示例问题和支持的语言。
func (h *ChatHandler) Suggestions(c *gin.Context) {
	respondOK(c, gin.H{
		"questions": session.SuggestedQuestions,
		"languages": model.Languages,
	})
}
