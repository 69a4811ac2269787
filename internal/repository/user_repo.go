package repository

import (
	"context"

	"homework-tracker/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	// Create 创建用户，用户名重复时返回 pkgerrors.ErrDuplicate
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, offset, limit int) ([]model.User, int64, error)
	// BatchCreate 批量创建（回填 ID），用于演示数据初始化
	BatchCreate(ctx context.Context, users []model.User) error
	DeleteAll(ctx context.Context) error
}
