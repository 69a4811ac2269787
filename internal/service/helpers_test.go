package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"homework-tracker/internal/dto"
	"homework-tracker/internal/model"
	"homework-tracker/internal/repository"
	"homework-tracker/internal/repository/memstore"
)

// ── 测试辅助 ──

func newTestRepo() *repository.Repository {
	return memstore.NewRepository(memstore.Open())
}

func setupTestAssignmentService() (AssignmentService, *repository.Repository) {
	repo := newTestRepo()
	return NewAssignmentService(repo, zap.NewNop()), repo
}

func mustUser(t *testing.T, repo *repository.Repository, username string) *model.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	u := &model.User{Username: username, PasswordHash: string(hash), Name: "Name " + username}
	if err := repo.User.Create(context.Background(), u); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	return u
}

func mustAssignment(t *testing.T, repo *repository.Repository, title string, due time.Time, owner *model.User) *model.Assignment {
	t.Helper()
	a := &model.Assignment{Title: title, DueDate: due, Description: "desc"}
	if owner != nil {
		id := owner.UserID
		a.OwnerID = &id
	}
	if err := repo.Assignment.Create(context.Background(), a); err != nil {
		t.Fatalf("创建作业失败: %v", err)
	}
	return a
}

func mustComplete(t *testing.T, repo *repository.Repository, a *model.Assignment, u *model.User) {
	t.Helper()
	if err := repo.Submission.Upsert(context.Background(), a.AssignmentID, u.UserID); err != nil {
		t.Fatalf("标记完成失败: %v", err)
	}
}

func isDone(t *testing.T, repo *repository.Repository, assignmentID, userID string) bool {
	t.Helper()
	done, err := repo.Submission.Exists(context.Background(), assignmentID, repository.ScopeForViewer(userID))
	if err != nil {
		t.Fatalf("Exists 失败: %v", err)
	}
	return done
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func listReq(page, limit int, f dto.AssignmentFilter) *dto.AssignmentListRequest {
	return &dto.AssignmentListRequest{
		PaginationRequest: dto.PaginationRequest{Page: page, Limit: limit},
		AssignmentFilter:  f,
	}
}

func ptr[T any](v T) *T { return &v }
