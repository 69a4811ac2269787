// Package gormstore PostgreSQL 存储后端（GORM）
//
// 表结构由 pkg/database/migrations 管理，submissions 对 assignments 设置了 ON DELETE CASCADE。
// 连接需以 gorm.Config{TranslateError: true} 打开，唯一约束冲突才能被识别为 ErrDuplicatedKey。
package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"homework-tracker/internal/repository"
	pkgerrors "homework-tracker/pkg/errors"
)

// NewRepository 基于 GORM 连接创建 Repository 聚合
func NewRepository(db *gorm.DB) *repository.Repository {
	return &repository.Repository{
		User:       &userRepo{db: db},
		Assignment: &assignmentRepo{db: db},
		Submission: &submissionRepo{db: db},
		Store:      &store{db: db},
	}
}

type store struct {
	db *gorm.DB
}

func (s *store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Transaction 回调中的 Repository 绑定到同一个 *gorm.DB 事务连接
func (s *store) Transaction(ctx context.Context, fn func(ctx context.Context, txRepo *repository.Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepository(tx))
	})
}

func (s *store) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ── 辅助函数 ──

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return pkgerrors.ErrDuplicate
	default:
		return err
	}
}
