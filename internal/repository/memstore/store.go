// Package memstore 基于内存的存储后端
//
// 用于本地开发（db.driver=memory）与 Service / Handler 层测试。
// 三张表共用一把读写锁，List 在同一把读锁下完成关联、过滤、计数与分页。
// 不提供事务隔离：Transaction 直接执行回调，各步骤之间可能被其他请求穿插。
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"homework-tracker/internal/model"
	"homework-tracker/internal/repository"
)

// DB 内存数据库
type DB struct {
	mu          sync.RWMutex
	users       map[string]*model.User
	assignments map[string]*model.Assignment
	// submissions 以 (assignmentID, userID) 为键，天然保证唯一
	submissions map[submissionKey]*model.Submission
}

type submissionKey struct {
	assignmentID string
	userID       string
}

// Open 创建空的内存数据库
func Open() *DB {
	return &DB{
		users:       make(map[string]*model.User),
		assignments: make(map[string]*model.Assignment),
		submissions: make(map[submissionKey]*model.Submission),
	}
}

// NewRepository 基于内存数据库创建 Repository 聚合
func NewRepository(db *DB) *repository.Repository {
	return &repository.Repository{
		User:       &userRepo{db: db},
		Assignment: &assignmentRepo{db: db},
		Submission: &submissionRepo{db: db},
		Store:      &store{db: db},
	}
}

type store struct {
	db *DB
}

func (s *store) Ping(_ context.Context) error { return nil }

func (s *store) Transaction(ctx context.Context, fn func(ctx context.Context, txRepo *repository.Repository) error) error {
	return fn(ctx, NewRepository(s.db))
}

func (s *store) Close(_ context.Context) error { return nil }

// ── 辅助函数 ──

func newID() string { return uuid.NewString() }

// validID 与 PostgreSQL 后端保持一致：ID 必须是 UUID
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
