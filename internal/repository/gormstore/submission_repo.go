package gormstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"homework-tracker/internal/model"
	"homework-tracker/internal/repository"
	pkgerrors "homework-tracker/pkg/errors"
)

type submissionRepo struct {
	db *gorm.DB
}

func (r *submissionRepo) Create(ctx context.Context, sub *model.Submission) error {
	if !validID(sub.AssignmentID) || !validID(sub.UserID) {
		return pkgerrors.ErrInvalidID
	}
	return translateError(r.db.WithContext(ctx).Create(sub).Error)
}

// Upsert 依赖 uq_submissions_assignment_user 唯一约束，冲突时不做任何修改
func (r *submissionRepo) Upsert(ctx context.Context, assignmentID, userID string) error {
	if !validID(assignmentID) || !validID(userID) {
		return pkgerrors.ErrInvalidID
	}
	sub := &model.Submission{AssignmentID: assignmentID, UserID: userID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "assignment_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(sub).Error
}

func (r *submissionRepo) Delete(ctx context.Context, assignmentID, userID string) error {
	if !validID(assignmentID) || !validID(userID) {
		return pkgerrors.ErrInvalidID
	}
	return r.db.WithContext(ctx).
		Where("assignment_id = ? AND user_id = ?", assignmentID, userID).
		Delete(&model.Submission{}).Error
}

func (r *submissionRepo) DeleteByAssignment(ctx context.Context, assignmentID string) (int64, error) {
	if !validID(assignmentID) {
		return 0, pkgerrors.ErrInvalidID
	}
	result := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Delete(&model.Submission{})
	return result.RowsAffected, result.Error
}

func (r *submissionRepo) Exists(ctx context.Context, assignmentID string, scope repository.CompletionScope) (bool, error) {
	if !validID(assignmentID) {
		return false, pkgerrors.ErrInvalidID
	}
	db := r.db.WithContext(ctx).Model(&model.Submission{}).Where("assignment_id = ?", assignmentID)
	if !scope.AnyUser() {
		if !validID(scope.ViewerID) {
			return false, pkgerrors.ErrInvalidID
		}
		db = db.Where("user_id = ?", scope.ViewerID)
	}

	var n int64
	if err := db.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *submissionRepo) BatchCreate(ctx context.Context, subs []model.Submission) error {
	if len(subs) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).CreateInBatches(subs, 100).Error)
}

func (r *submissionRepo) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.Submission{}).Error
}
