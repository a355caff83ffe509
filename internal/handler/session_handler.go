package handler

import (
	"net/http"
	"strconv"

	"lawguide-go/internal/middleware"
	"lawguide-go/internal/model"
	"lawguide-go/internal/service"
	"lawguide-go/internal/session"

	"github.com/gin-gonic/gin"
)

// SessionHandler 负责会话生命周期、表单编辑和文件选择相关的 API 请求。
type SessionHandler struct {
	sessionService service.SessionService
	auditService   service.AuditService
	maxUploadBytes int64
}

// NewSessionHandler 创建一个新的 SessionHandler 实例，auditService 可以为 nil。
func NewSessionHandler(sessionService service.SessionService, auditService service.AuditService, maxUploadBytes int64) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		auditService:   auditService,
		maxUploadBytes: maxUploadBytes,
	}
}

// Create 创建新会话，返回会话 token 和初始状态。
func (h *SessionHandler) Create(c *gin.Context) {
	state, tokenString, err := h.sessionService.Create(c.Request.Context())
	if err != nil {
		respondError(c, err, model.SessionState{})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": http.StatusCreated, "message": "success", "data": gin.H{
		"token": tokenString,
		"state": session.NewView(state),
	}})
}

// End 结束当前会话。
func (h *SessionHandler) End(c *gin.Context) {
	if err := h.sessionService.End(c.Request.Context(), middleware.GetSessionID(c)); err != nil {
		respondError(c, err, model.SessionState{})
		return
	}
	respondOK(c, nil)
}

// State 返回当前会话的完整状态。
func (h *SessionHandler) State(c *gin.Context) {
	state, err := h.sessionService.Get(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		respondError(c, err, state)
		return
	}
	respondState(c, state)
}

// UpdateForm 处理表单编辑：文本、问题、语言、导航和起草字段。
func (h *SessionHandler) UpdateForm(c *gin.Context) {
	var req service.FormUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	state, err := h.sessionService.UpdateForm(c.Request.Context(), middleware.GetSessionID(c), req)
	if err != nil {
		respondError(c, err, state)
		return
	}
	respondState(c, state)
}

// StageFile 记录文档分析或合同审阅选择框中的文件。
func (h *SessionHandler) StageFile(c *gin.Context) {
	slot, ok := model.ParseFileSlot(c.Param("slot"))
	if !ok {
		badRequest(c, "未知的文件选择框")
		return
	}
	upload, err := readUpload(c, h.maxUploadBytes)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	state, err := h.sessionService.StageFile(c.Request.Context(), middleware.GetSessionID(c), slot, upload)
	if err != nil {
		respondError(c, err, state)
		return
	}
	respondState(c, state)
}

// DismissAlert 关闭当前的阻塞提示。
func (h *SessionHandler) DismissAlert(c *gin.Context) {
	state, err := h.sessionService.DismissAlert(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		respondError(c, err, state)
		return
	}
	respondState(c, state)
}

// Actions 返回当前会话的审计记录。
func (h *SessionHandler) Actions(c *gin.Context) {
	if h.auditService == nil {
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "审计未启用", "data": nil})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		badRequest(c, "无效的 limit 参数")
		return
	}
	records, err := h.auditService.History(middleware.GetSessionID(c), limit)
	if err != nil {
		respondError(c, err, model.SessionState{})
		return
	}
	respondOK(c, records)
}
