package memstore

import (
	"context"
	"sort"
	"time"

	"homework-tracker/internal/model"
	pkgerrors "homework-tracker/pkg/errors"
)

type userRepo struct {
	db *DB
}

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.insert(user)
}

// insert 调用方需持有写锁
func (r *userRepo) insert(user *model.User) error {
	for _, u := range r.db.users {
		if u.Username == user.Username {
			return pkgerrors.ErrDuplicate
		}
	}
	if user.UserID == "" {
		user.UserID = newID()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	r.db.users[user.UserID] = &cp
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if u, ok := r.db.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, pkgerrors.ErrNotFound
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pkgerrors.ErrNotFound
}

func (r *userRepo) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	users := make([]model.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	total := int64(len(users))
	return window(users, offset, limit), total, nil
}

func (r *userRepo) BatchCreate(_ context.Context, users []model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i := range users {
		if err := r.insert(&users[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *userRepo) DeleteAll(_ context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.users = make(map[string]*model.User)
	return nil
}

// window 取 [offset, offset+limit) 区间，越界返回空切片
func window[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) || end < offset {
		end = len(items)
	}
	return items[offset:end]
}
