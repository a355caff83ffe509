package handler

import (
	"context"
	"net/http"
	"time"

	"lawguide-go/pkg/lawguide"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 5 * time.Second

// HealthHandler 报告网关和法律助手后端的健康状态。
type HealthHandler struct {
	backend lawguide.Client
}

func NewHealthHandler(backend lawguide.Client) *HealthHandler {
	return &HealthHandler{backend: backend}
}

// Health 网关本身始终返回 200，后端状态放在 data.backend 中。
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	backend := gin.H{"status": "healthy"}
	health, err := h.backend.Health(ctx)
	if err != nil {
		backend["status"] = "unreachable"
		backend["error"] = err.Error()
	} else {
		backend["status"] = health.Status
		backend["service"] = health.Service
		if models, err := h.backend.ListModels(ctx); err == nil {
			backend["models"] = models
		} else {
			backend["modelsError"] = err.Error()
		}
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": gin.H{
		"status":  "ok",
		"backend": backend,
	}})
}
