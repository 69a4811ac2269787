package handler

import (
	"github.com/gin-gonic/gin"

	"homework-tracker/internal/dto"
	"homework-tracker/internal/service"
	"homework-tracker/pkg/response"
)

// SystemHandler 系统状态与演示数据 HTTP 处理器
type SystemHandler struct {
	systemSvc service.SystemService
	seedSvc   service.SeedService
}

// NewSystemHandler 创建 SystemHandler
func NewSystemHandler(systemSvc service.SystemService, seedSvc service.SeedService) *SystemHandler {
	return &SystemHandler{systemSvc: systemSvc, seedSvc: seedSvc}
}

// Status 存储连通性
// GET /api/status
func (h *SystemHandler) Status(c *gin.Context) {
	response.OK(c, h.systemSvc.Status(c.Request.Context()))
}

// InitDB 清空并写入演示数据
// POST /api/db/init（feature.db_init_enabled 打开时才注册）
func (h *SystemHandler) InitDB(c *gin.Context) {
	counts, err := h.seedSvc.Seed(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, dto.SeedResponse{Message: "Database initialized", Counts: *counts})
}
