// Package repotest 存储后端一致性测试套件
//
// memstore 在单元测试中运行；mongostore 与 gormstore 在 integration 构建标签下运行。
// 各后端只需提供一个返回空库的构造函数。
package repotest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"homework-tracker/internal/model"
	"homework-tracker/internal/repository"
	pkgerrors "homework-tracker/pkg/errors"
)

// Factory 返回一个空的 Repository
type Factory func(t *testing.T) *repository.Repository

// Run 执行全部一致性用例
func Run(t *testing.T, newRepo Factory) {
	t.Run("UserUniqueUsername", func(t *testing.T) { testUserUniqueUsername(t, newRepo(t)) })
	t.Run("UserList", func(t *testing.T) { testUserList(t, newRepo(t)) })
	t.Run("AssignmentCRUD", func(t *testing.T) { testAssignmentCRUD(t, newRepo(t)) })
	t.Run("SubmissionUnique", func(t *testing.T) { testSubmissionUnique(t, newRepo(t)) })
	t.Run("SubmissionExistsScope", func(t *testing.T) { testSubmissionExistsScope(t, newRepo(t)) })
	t.Run("ListPerUserCompletion", func(t *testing.T) { testListPerUserCompletion(t, newRepo(t)) })
	t.Run("ListSearchAndHide", func(t *testing.T) { testListSearchAndHide(t, newRepo(t)) })
	t.Run("ListPaginationCoherent", func(t *testing.T) { testListPaginationCoherent(t, newRepo(t)) })
	t.Run("ListInvalidViewer", func(t *testing.T) { testListInvalidViewer(t, newRepo(t)) })
	t.Run("DeleteByAssignment", func(t *testing.T) { testDeleteByAssignment(t, newRepo(t)) })
	t.Run("TransactionCommit", func(t *testing.T) { testTransactionCommit(t, newRepo(t)) })
}

// ── 夹具 ──

// MustUser 创建用户
func MustUser(t *testing.T, repo *repository.Repository, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "x", Name: username}
	if err := repo.User.Create(context.Background(), u); err != nil {
		t.Fatalf("创建用户 %s 失败: %v", username, err)
	}
	return u
}

// MustAssignment 创建作业
func MustAssignment(t *testing.T, repo *repository.Repository, title string, due time.Time, owner *model.User) *model.Assignment {
	t.Helper()
	a := &model.Assignment{Title: title, DueDate: due, Description: "desc " + title}
	if owner != nil {
		id := owner.UserID
		a.OwnerID = &id
	}
	if err := repo.Assignment.Create(context.Background(), a); err != nil {
		t.Fatalf("创建作业 %s 失败: %v", title, err)
	}
	return a
}

// MustComplete 标记完成
func MustComplete(t *testing.T, repo *repository.Repository, a *model.Assignment, u *model.User) {
	t.Helper()
	if err := repo.Submission.Upsert(context.Background(), a.AssignmentID, u.UserID); err != nil {
		t.Fatalf("标记完成失败: %v", err)
	}
}

func day(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func list(t *testing.T, repo *repository.Repository, q repository.AssignmentQuery) *repository.AssignmentPage {
	t.Helper()
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = 10
	}
	page, err := repo.Assignment.List(context.Background(), &q)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	return page
}

func renduByTitle(page *repository.AssignmentPage) map[string]bool {
	m := make(map[string]bool, len(page.Items))
	for _, it := range page.Items {
		m[it.Title] = it.Rendu
	}
	return m
}

// ── 用例 ──

func testUserUniqueUsername(t *testing.T, repo *repository.Repository) {
	ctx := context.Background()
	MustUser(t, repo, "alice")

	err := repo.User.Create(ctx, &model.User{Username: "alice", PasswordHash: "x"})
	if !errors.Is(err, pkgerrors.ErrDuplicate) {
		t.Errorf("期望 ErrDuplicate，实际 %v", err)
	}

	got, err := repo.User.GetByUsername(ctx, "alice")
	if err != nil || got.Username != "alice" {
		t.Fatalf("GetByUsername 失败: %v", err)
	}
	if _, err := repo.User.GetByUsername(ctx, "nobody"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("期望 ErrNotFound，实际 %v", err)
	}
}

func testUserList(t *testing.T, repo *repository.Repository) {
	for _, name := range []string{"carol", "alice", "bob"} {
		MustUser(t, repo, name)
	}

	users, total, err := repo.User.List(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 3 {
		t.Errorf("期望 total=3，实际 %d", total)
	}
	if len(users) != 1 || users[0].Username != "bob" {
		t.Errorf("期望按用户名排序后第二个为 bob，实际 %+v", users)
	}
}

func testAssignmentCRUD(t *testing.T, repo *repository.Repository) {
	ctx := context.Background()
	owner := MustUser(t, repo, "owner")
	a := MustAssignment(t, repo, "Devoir", day(1), owner)

	got, err := repo.Assignment.GetByID(ctx, a.AssignmentID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	if got.Title != "Devoir" || got.OwnerID == nil || *got.OwnerID != owner.UserID {
		t.Errorf("读取结果不符: %+v", got)
	}

	got.Title = "Devoir modifié"
	got.OwnerID = nil
	if err := repo.Assignment.Update(ctx, got); err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	got, _ = repo.Assignment.GetByID(ctx, a.AssignmentID)
	if got.Title != "Devoir modifié" || got.OwnerID != nil {
		t.Errorf("更新未生效: %+v", got)
	}

	deleted, err := repo.Assignment.Delete(ctx, a.AssignmentID)
	if err != nil || deleted.AssignmentID != a.AssignmentID {
		t.Fatalf("Delete 失败: %v", err)
	}
	if _, err := repo.Assignment.GetByID(ctx, a.AssignmentID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("删除后期望 ErrNotFound，实际 %v", err)
	}
	if _, err := repo.Assignment.GetByID(ctx, "not-an-id"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("无效 ID 期望 ErrNotFound，实际 %v", err)
	}
	if _, err := repo.Assignment.Delete(ctx, a.AssignmentID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("重复删除期望 ErrNotFound，实际 %v", err)
	}
}

func testSubmissionUnique(t *testing.T, repo *repository.Repository) {
	ctx := context.Background()
	u := MustUser(t, repo, "u")
	a := MustAssignment(t, repo, "A", day(1), u)

	if err := repo.Submission.Create(ctx, &model.Submission{AssignmentID: a.AssignmentID, UserID: u.UserID}); err != nil {
		t.Fatalf("Create 失败: %v", err)
	}
	err := repo.Submission.Create(ctx, &model.Submission{AssignmentID: a.AssignmentID, UserID: u.UserID})
	if !errors.Is(err, pkgerrors.ErrDuplicate) {
		t.Errorf("期望 ErrDuplicate，实际 %v", err)
	}

	// Upsert 幂等
	for i := 0; i < 3; i++ {
		MustComplete(t, repo, a, u)
	}
	n, err := repo.Submission.DeleteByAssignment(ctx, a.AssignmentID)
	if err != nil || n != 1 {
		t.Errorf("期望恰好 1 条提交记录，实际 %d (err=%v)", n, err)
	}

	// 删除不存在的记录不报错
	if err := repo.Submission.Delete(ctx, a.AssignmentID, u.UserID); err != nil {
		t.Errorf("删除不存在的记录不应报错: %v", err)
	}
}

func testSubmissionExistsScope(t *testing.T, repo *repository.Repository) {
	ctx := context.Background()
	alice := MustUser(t, repo, "alice")
	bob := MustUser(t, repo, "bob")
	a := MustAssignment(t, repo, "A", day(1), alice)
	MustComplete(t, repo, a, alice)

	for _, tc := range []struct {
		name  string
		scope repository.CompletionScope
		want  bool
	}{
		{"alice", repository.ScopeForViewer(alice.UserID), true},
		{"bob", repository.ScopeForViewer(bob.UserID), false},
		{"any", repository.ScopeForViewer(""), true},
	} {
		got, err := repo.Submission.Exists(ctx, a.AssignmentID, tc.scope)
		if err != nil {
			t.Fatalf("%s: Exists 失败: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: 期望 %v，实际 %v", tc.name, tc.want, got)
		}
	}
}

func testListPerUserCompletion(t *testing.T, repo *repository.Repository) {
	alice := MustUser(t, repo, "alice")
	bob := MustUser(t, repo, "bob")
	maths := MustAssignment(t, repo, "Maths", day(1), alice)
	MustAssignment(t, repo, "Français", day(2), bob)
	MustComplete(t, repo, maths, alice)

	forAlice := renduByTitle(list(t, repo, repository.AssignmentQuery{Scope: repository.ScopeForViewer(alice.UserID)}))
	if !forAlice["Maths"] || forAlice["Français"] {
		t.Errorf("alice 视角不符: %v", forAlice)
	}
	forBob := renduByTitle(list(t, repo, repository.AssignmentQuery{Scope: repository.ScopeForViewer(bob.UserID)}))
	if forBob["Maths"] || forBob["Français"] {
		t.Errorf("bob 视角不应看到 alice 的完成状态: %v", forBob)
	}
	anyUser := renduByTitle(list(t, repo, repository.AssignmentQuery{}))
	if !anyUser["Maths"] || anyUser["Français"] {
		t.Errorf("any-user 视角不符: %v", anyUser)
	}
}

func testListSearchAndHide(t *testing.T, repo *repository.Repository) {
	u := MustUser(t, repo, "u")
	a1 := MustAssignment(t, repo, "Exercices de MATHS", day(1), u)
	MustAssignment(t, repo, "Maths avancées", day(2), u)
	MustAssignment(t, repo, "Histoire", day(3), u)
	MustComplete(t, repo, a1, u)
	scope := repository.ScopeForViewer(u.UserID)

	page := list(t, repo, repository.AssignmentQuery{Search: "maths", Scope: scope})
	if page.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("搜索期望 2 条，实际 total=%d items=%d", page.Total, len(page.Items))
	}

	page = list(t, repo, repository.AssignmentQuery{Search: "maths", HideCompleted: true, Scope: scope})
	if page.Total != 1 || page.Items[0].Title != "Maths avancées" {
		t.Errorf("隐藏已完成后期望仅剩 Maths avancées，实际 %+v", page.Items)
	}

	page = list(t, repo, repository.AssignmentQuery{Search: "ma(ths", Scope: scope})
	if page.Total != 0 {
		t.Errorf("正则元字符应按字面匹配，实际 total=%d", page.Total)
	}
}

func testListPaginationCoherent(t *testing.T, repo *repository.Repository) {
	u := MustUser(t, repo, "u")
	for i := 0; i < 7; i++ {
		// 两两同一天，检验同日期下的稳定次序
		MustAssignment(t, repo, fmt.Sprintf("A%d", i), day(i/2), u)
	}

	for _, order := range []repository.SortOrder{repository.SortAsc, repository.SortDesc} {
		full := list(t, repo, repository.AssignmentQuery{Sort: order, Limit: 100})
		if full.Total != 7 || len(full.Items) != 7 {
			t.Fatalf("期望 7 条，实际 total=%d items=%d", full.Total, len(full.Items))
		}
		for i := 1; i < len(full.Items); i++ {
			prev, cur := full.Items[i-1].DueDate, full.Items[i].DueDate
			if order == repository.SortAsc && cur.Before(prev) {
				t.Errorf("升序被破坏: %v 在 %v 之后", cur, prev)
			}
			if order == repository.SortDesc && cur.After(prev) {
				t.Errorf("降序被破坏: %v 在 %v 之后", cur, prev)
			}
		}

		var walked []string
		for p := 1; p <= 3; p++ {
			page := list(t, repo, repository.AssignmentQuery{Sort: order, Page: p, Limit: 3})
			if page.Total != 7 {
				t.Errorf("第 %d 页 total 期望 7，实际 %d", p, page.Total)
			}
			for _, it := range page.Items {
				walked = append(walked, it.AssignmentID)
			}
		}
		if len(walked) != 7 {
			t.Fatalf("逐页遍历期望 7 条，实际 %d", len(walked))
		}
		for i, it := range full.Items {
			if walked[i] != it.AssignmentID {
				t.Errorf("逐页遍历第 %d 条与整页结果不一致", i)
			}
		}

		beyond := list(t, repo, repository.AssignmentQuery{Sort: order, Page: 10, Limit: 3})
		if beyond.Total != 7 || len(beyond.Items) != 0 {
			t.Errorf("越界页期望空列表且 total=7，实际 total=%d items=%d", beyond.Total, len(beyond.Items))
		}
	}
}

func testListInvalidViewer(t *testing.T, repo *repository.Repository) {
	q := &repository.AssignmentQuery{Page: 1, Limit: 10, Scope: repository.ScopeForViewer("not-an-id")}
	if _, err := repo.Assignment.List(context.Background(), q); !errors.Is(err, pkgerrors.ErrInvalidID) {
		t.Errorf("期望 ErrInvalidID，实际 %v", err)
	}
}

func testDeleteByAssignment(t *testing.T, repo *repository.Repository) {
	ctx := context.Background()
	alice := MustUser(t, repo, "alice")
	bob := MustUser(t, repo, "bob")
	a := MustAssignment(t, repo, "A", day(1), alice)
	other := MustAssignment(t, repo, "B", day(2), alice)
	MustComplete(t, repo, a, alice)
	MustComplete(t, repo, a, bob)
	MustComplete(t, repo, other, bob)

	n, err := repo.Submission.DeleteByAssignment(ctx, a.AssignmentID)
	if err != nil || n != 2 {
		t.Fatalf("期望删除 2 条，实际 %d (err=%v)", n, err)
	}
	done, _ := repo.Submission.Exists(ctx, other.AssignmentID, repository.ScopeForViewer(bob.UserID))
	if !done {
		t.Error("其他作业的提交记录不应被删除")
	}
}

func testTransactionCommit(t *testing.T, repo *repository.Repository) {
	ctx := context.Background()
	u := MustUser(t, repo, "u")
	a := MustAssignment(t, repo, "A", day(1), u)

	err := repo.Transaction(ctx, func(ctx context.Context, tx *repository.Repository) error {
		if err := tx.Submission.Upsert(ctx, a.AssignmentID, u.UserID); err != nil {
			return err
		}
		a.Title = "A'"
		return tx.Assignment.Update(ctx, a)
	})
	if err != nil {
		t.Fatalf("Transaction 失败: %v", err)
	}

	got, _ := repo.Assignment.GetByID(ctx, a.AssignmentID)
	done, _ := repo.Submission.Exists(ctx, a.AssignmentID, repository.ScopeForViewer(u.UserID))
	if got.Title != "A'" || !done {
		t.Errorf("事务提交后数据不符: title=%s done=%v", got.Title, done)
	}
}
