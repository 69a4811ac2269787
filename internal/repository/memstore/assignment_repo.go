package memstore

import (
	"context"
	"sort"
	"time"

	"homework-tracker/internal/model"
	"homework-tracker/internal/repository"
	pkgerrors "homework-tracker/pkg/errors"
)

type assignmentRepo struct {
	db *DB
}

func (r *assignmentRepo) Create(_ context.Context, a *model.Assignment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.insert(a)
	return nil
}

func (r *assignmentRepo) insert(a *model.Assignment) {
	if a.AssignmentID == "" {
		a.AssignmentID = newID()
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	r.db.assignments[a.AssignmentID] = cloneAssignment(a)
}

func (r *assignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if a, ok := r.db.assignments[id]; ok {
		return cloneAssignment(a), nil
	}
	return nil, pkgerrors.ErrNotFound
}

func (r *assignmentRepo) Update(_ context.Context, a *model.Assignment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.assignments[a.AssignmentID]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now()
	r.db.assignments[a.AssignmentID] = cloneAssignment(a)
	return nil
}

func (r *assignmentRepo) Delete(_ context.Context, id string) (*model.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.assignments[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	delete(r.db.assignments, id)
	return a, nil
}

// List 在同一把读锁下按固定顺序执行查询计划
func (r *assignmentRepo) List(_ context.Context, q *repository.AssignmentQuery) (*repository.AssignmentPage, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if !q.Scope.AnyUser() && !validID(q.Scope.ViewerID) {
		return nil, pkgerrors.ErrInvalidID
	}

	// 1. 搜索
	matched := make([]*model.Assignment, 0, len(r.db.assignments))
	for _, a := range r.db.assignments {
		if q.MatchesTitle(a.Title) {
			matched = append(matched, a)
		}
	}

	// 2-3. 关联提交记录，计算 rendu
	completed := resolveCompletion(r.db.submissions, q.Scope)
	rows := make([]model.AssignmentStatus, 0, len(matched))
	for _, a := range matched {
		row := model.AssignmentStatus{Assignment: *cloneAssignment(a), Rendu: completed[a.AssignmentID]}
		// 4. 隐藏已完成
		if q.HideCompleted && row.Rendu {
			continue
		}
		rows = append(rows, row)
	}

	// 5. 按截止日期排序，ID 作为稳定次序
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.DueDate.Equal(b.DueDate) {
			if q.Sort == repository.SortDesc {
				return a.DueDate.After(b.DueDate)
			}
			return a.DueDate.Before(b.DueDate)
		}
		if q.Sort == repository.SortDesc {
			return a.AssignmentID > b.AssignmentID
		}
		return a.AssignmentID < b.AssignmentID
	})

	// 6-7. 计数与分页来自同一个集合
	return &repository.AssignmentPage{
		Items: window(rows, q.Skip(), q.Limit),
		Total: int64(len(rows)),
	}, nil
}

func (r *assignmentRepo) BatchCreate(_ context.Context, assignments []model.Assignment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i := range assignments {
		r.insert(&assignments[i])
	}
	return nil
}

func (r *assignmentRepo) DeleteAll(_ context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.assignments = make(map[string]*model.Assignment)
	return nil
}

// resolveCompletion 返回在给定范围内已完成的作业 ID 集合
func resolveCompletion(subs map[submissionKey]*model.Submission, scope repository.CompletionScope) map[string]bool {
	done := make(map[string]bool)
	for key := range subs {
		if scope.AnyUser() || key.userID == scope.ViewerID {
			done[key.assignmentID] = true
		}
	}
	return done
}

func cloneAssignment(a *model.Assignment) *model.Assignment {
	cp := *a
	if a.OwnerID != nil {
		owner := *a.OwnerID
		cp.OwnerID = &owner
	}
	return &cp
}
