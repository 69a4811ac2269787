package repository

import (
	"context"

	"homework-tracker/internal/model"
)

// AssignmentRepository 作业数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, a *model.Assignment) error
	// GetByID 不存在或 ID 格式无效时返回 pkgerrors.ErrNotFound
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	// Update 覆盖可变字段（标题 / 截止日期 / 描述 / 所有者）
	Update(ctx context.Context, a *model.Assignment) error
	// Delete 删除并返回被删除的作业
	Delete(ctx context.Context, id string) (*model.Assignment, error)
	// List 执行分页查询：搜索 → 完成状态关联 → 完成过滤 → 排序 → 计数 + 分页
	// 计数与分页数据来自同一次原子读取
	List(ctx context.Context, q *AssignmentQuery) (*AssignmentPage, error)
	BatchCreate(ctx context.Context, assignments []model.Assignment) error
	DeleteAll(ctx context.Context) error
}

// AssignmentPage List 的执行结果
type AssignmentPage struct {
	Items []model.AssignmentStatus
	Total int64 // 过滤后、分页前的总数
}
