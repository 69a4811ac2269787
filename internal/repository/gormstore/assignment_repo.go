package gormstore

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"homework-tracker/internal/model"
	"homework-tracker/internal/repository"
	pkgerrors "homework-tracker/pkg/errors"
)

type assignmentRepo struct {
	db *gorm.DB
}

func (r *assignmentRepo) Create(ctx context.Context, a *model.Assignment) error {
	return translateError(r.db.WithContext(ctx).Create(a).Error)
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	if !validID(id) {
		return nil, pkgerrors.ErrNotFound
	}
	var a model.Assignment
	if err := r.db.WithContext(ctx).Where("assignment_id = ?", id).First(&a).Error; err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

func (r *assignmentRepo) Update(ctx context.Context, a *model.Assignment) error {
	if !validID(a.AssignmentID) {
		return pkgerrors.ErrNotFound
	}
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Where("assignment_id = ?", a.AssignmentID).
		Updates(map[string]interface{}{
			"title":       a.Title,
			"due_date":    a.DueDate,
			"description": a.Description,
			"owner_id":    a.OwnerID,
			"updated_at":  now,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	a.UpdatedAt = now
	return nil
}

func (r *assignmentRepo) Delete(ctx context.Context, id string) (*model.Assignment, error) {
	if !validID(id) {
		return nil, pkgerrors.ErrNotFound
	}
	var deleted model.Assignment
	result := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("assignment_id = ?", id).
		Delete(&deleted)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.ErrNotFound
	}
	return &deleted, nil
}

// completionSQL 计算 rendu 的关联子查询
const (
	completionAnyUser = "EXISTS (SELECT 1 FROM submissions s WHERE s.assignment_id = assignments.assignment_id)"
	completionScoped  = "EXISTS (SELECT 1 FROM submissions s WHERE s.assignment_id = assignments.assignment_id AND s.user_id = ?)"
)

// List 计数与分页在同一个只读 REPEATABLE READ 事务中读取，两者看到同一份快照
func (r *assignmentRepo) List(ctx context.Context, q *repository.AssignmentQuery) (*repository.AssignmentPage, error) {
	completion, args := completionAnyUser, []interface{}{}
	if !q.Scope.AnyUser() {
		if !validID(q.Scope.ViewerID) {
			return nil, pkgerrors.ErrInvalidID
		}
		completion, args = completionScoped, []interface{}{q.Scope.ViewerID}
	}

	filtered := func(tx *gorm.DB) *gorm.DB {
		db := tx.Model(&model.Assignment{})
		// 1. 搜索（LIKE 元字符已转义）
		if q.Search != "" {
			db = db.Where("assignments.title ILIKE ?", q.LikePattern())
		}
		// 4. 隐藏已完成
		if q.HideCompleted {
			db = db.Where("NOT "+completion, args...)
		}
		return db
	}

	page := &repository.AssignmentPage{Items: []model.AssignmentStatus{}}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 6. 过滤后的总数
		if err := filtered(tx).Count(&page.Total).Error; err != nil {
			return err
		}

		// 2-3. rendu 与 5. 排序、7. 分页
		desc := q.Sort == repository.SortDesc
		return filtered(tx).
			Select("assignments.*, "+completion+" AS rendu", args...).
			Order(clause.OrderBy{Columns: []clause.OrderByColumn{
				{Column: clause.Column{Table: "assignments", Name: "due_date"}, Desc: desc},
				{Column: clause.Column{Table: "assignments", Name: "assignment_id"}, Desc: desc},
			}}).
			Offset(q.Skip()).
			Limit(q.Limit).
			Scan(&page.Items).Error
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (r *assignmentRepo) BatchCreate(ctx context.Context, assignments []model.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).CreateInBatches(assignments, 100).Error)
}

func (r *assignmentRepo) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.Assignment{}).Error
}
