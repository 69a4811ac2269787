package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"homework-tracker/internal/dto"
	"homework-tracker/internal/repository"
)

const statusPingTimeout = 2 * time.Second

// SystemService 系统状态
type SystemService interface {
	Status(ctx context.Context) *dto.StatusResponse
}

type systemService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSystemService 创建 SystemService 实例
func NewSystemService(repo *repository.Repository, logger *zap.Logger) SystemService {
	return &systemService{repo: repo, logger: logger}
}

// Status 存储不可达时返回 dbConnected=false，而不是报错
func (s *systemService) Status(ctx context.Context) *dto.StatusResponse {
	ctx, cancel := context.WithTimeout(ctx, statusPingTimeout)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		s.logger.Warn("存储连通性检查失败", zap.Error(err))
		return &dto.StatusResponse{DBConnected: false}
	}
	return &dto.StatusResponse{DBConnected: true}
}
