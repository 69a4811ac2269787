package repository

import (
	"context"

	"homework-tracker/internal/model"
)

// SubmissionRepository 提交记录数据访问接口
type SubmissionRepository interface {
	// Create 创建提交记录，(assignment, user) 已存在时返回 pkgerrors.ErrDuplicate
	Create(ctx context.Context, sub *model.Submission) error
	// Upsert 确保 (assignment, user) 恰好存在一条记录，重复调用幂等
	Upsert(ctx context.Context, assignmentID, userID string) error
	// Delete 删除 (assignment, user) 的记录，不存在时不报错
	Delete(ctx context.Context, assignmentID, userID string) error
	// DeleteByAssignment 删除某作业的全部提交记录（不区分用户），返回删除条数
	DeleteByAssignment(ctx context.Context, assignmentID string) (int64, error)
	// Exists 按查看范围判断单个作业是否已完成
	Exists(ctx context.Context, assignmentID string, scope CompletionScope) (bool, error)
	BatchCreate(ctx context.Context, subs []model.Submission) error
	DeleteAll(ctx context.Context) error
}
