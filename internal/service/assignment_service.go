package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"homework-tracker/internal/dto"
	"homework-tracker/internal/model"
	"homework-tracker/internal/repository"
	pkgerrors "homework-tracker/pkg/errors"
	"homework-tracker/pkg/metrics"
)

// ── 作业模块业务错误 ──

var (
	ErrAssignmentNotFound = errors.New("作业不存在")
	ErrInvalidViewer      = errors.New("userId 格式无效")
	ErrIDMismatch         = errors.New("请求体 _id 与路径参数不一致")
	ErrNoTargetUser       = errors.New("无法确定提交记录所属用户")
	ErrOwnerNotFound      = errors.New("userId 对应的用户不存在")
)

// AssignmentService 作业业务接口
type AssignmentService interface {
	List(ctx context.Context, req *dto.AssignmentListRequest) (*dto.Page[dto.AssignmentResponse], error)
	// GetByID viewerID 为空时按 any-user 模式计算 rendu
	GetByID(ctx context.Context, id, viewerID string) (*dto.AssignmentResponse, error)
	Create(ctx context.Context, req *dto.CreateAssignmentRequest) (*dto.AssignmentMutationResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateAssignmentRequest) (*dto.AssignmentMutationResponse, error)
	Delete(ctx context.Context, id string) (*dto.DeleteAssignmentResponse, error)
}

type assignmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(repo *repository.Repository, logger *zap.Logger) AssignmentService {
	return &assignmentService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *assignmentService) List(ctx context.Context, req *dto.AssignmentListRequest) (*dto.Page[dto.AssignmentResponse], error) {
	page, limit := req.GetPage(), req.GetLimit()
	q := newAssignmentQuery(&req.AssignmentFilter, page, limit)

	result, err := s.repo.Assignment.List(ctx, q)
	metrics.ObserveOperation("list", err)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidID) {
			return nil, ErrInvalidViewer
		}
		s.logger.Error("查询作业列表失败", zap.Error(err))
		return nil, err
	}

	docs := make([]dto.AssignmentResponse, 0, len(result.Items))
	for i := range result.Items {
		docs = append(docs, *toAssignmentResponse(&result.Items[i].Assignment, result.Items[i].Rendu))
	}
	return dto.NewPage(docs, result.Total, page, limit), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *assignmentService) GetByID(ctx context.Context, id, viewerID string) (*dto.AssignmentResponse, error) {
	a, err := s.repo.Assignment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询作业失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	rendu, err := s.resolveRendu(ctx, s.repo, id, viewerID)
	if err != nil {
		return nil, err
	}
	return toAssignmentResponse(a, rendu), nil
}

// ────────────────────── Create ──────────────────────

func (s *assignmentService) Create(ctx context.Context, req *dto.CreateAssignmentRequest) (*dto.AssignmentMutationResponse, error) {
	owner := trimmed(req.UserID)

	var resp *dto.AssignmentResponse
	err := s.repo.Transaction(ctx, func(ctx context.Context, tx *repository.Repository) error {
		// 1. 校验所有者
		if owner != "" {
			if err := s.ensureUser(ctx, tx, owner); err != nil {
				return err
			}
		}

		// 2. 写入作业
		a := &model.Assignment{
			Title:       strings.TrimSpace(req.Nom),
			DueDate:     req.DateDeRendu,
			Description: req.Description,
		}
		if owner != "" {
			a.OwnerID = &owner
		}
		if err := tx.Assignment.Create(ctx, a); err != nil {
			s.logger.Error("创建作业失败", zap.Error(err))
			return err
		}

		// 3. 初始完成状态
		if req.Rendu && owner != "" {
			if err := tx.Submission.Upsert(ctx, a.AssignmentID, owner); err != nil {
				s.logger.Error("创建提交记录失败", zap.String("assignment_id", a.AssignmentID), zap.Error(err))
				return err
			}
		}

		// 4. 从存储读取 rendu
		rendu, err := s.resolveRendu(ctx, tx, a.AssignmentID, owner)
		if err != nil {
			return err
		}
		resp = toAssignmentResponse(a, rendu)
		return nil
	})
	metrics.ObserveOperation("create", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("作业已创建", zap.String("id", resp.ID), zap.String("nom", resp.Nom))
	return &dto.AssignmentMutationResponse{
		Message:    fmt.Sprintf("%s saved!", resp.Nom),
		Assignment: resp,
	}, nil
}

// ────────────────────── Update ──────────────────────

// Update 路径 ID 为准；提交记录只针对目标用户（请求体 userId，否则作业所有者）增删
func (s *assignmentService) Update(ctx context.Context, id string, req *dto.UpdateAssignmentRequest) (*dto.AssignmentMutationResponse, error) {
	if bodyID := trimmed(req.ID); bodyID != "" && bodyID != id {
		return nil, ErrIDMismatch
	}
	newOwner := trimmed(req.UserID)

	var resp *dto.AssignmentResponse
	err := s.repo.Transaction(ctx, func(ctx context.Context, tx *repository.Repository) error {
		// 1. 加载
		a, err := tx.Assignment.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrNotFound) {
				return ErrAssignmentNotFound
			}
			s.logger.Error("查询作业失败", zap.String("id", id), zap.Error(err))
			return err
		}

		// 2. 应用字段；未提供 userId 时保留原所有者
		if newOwner != "" {
			if err := s.ensureUser(ctx, tx, newOwner); err != nil {
				return err
			}
			a.OwnerID = &newOwner
		}
		a.Title = strings.TrimSpace(req.Nom)
		a.DueDate = req.DateDeRendu
		a.Description = req.Description

		// 3. 确定提交记录的目标用户（写入前校验，避免只写入一半）
		target := ""
		if a.OwnerID != nil {
			target = *a.OwnerID
		}
		if req.Rendu != nil && target == "" {
			return ErrNoTargetUser
		}

		// 4. 写入作业
		if err := tx.Assignment.Update(ctx, a); err != nil {
			if errors.Is(err, pkgerrors.ErrNotFound) {
				return ErrAssignmentNotFound
			}
			s.logger.Error("更新作业失败", zap.String("id", id), zap.Error(err))
			return err
		}

		// 5. 同步提交记录
		if req.Rendu != nil {
			if err := s.reconcile(ctx, tx, id, target, *req.Rendu); err != nil {
				return err
			}
		}

		rendu, err := s.resolveRendu(ctx, tx, id, target)
		if err != nil {
			return err
		}
		resp = toAssignmentResponse(a, rendu)
		return nil
	})
	metrics.ObserveOperation("update", err)
	if err != nil {
		return nil, err
	}

	return &dto.AssignmentMutationResponse{Message: "updated", Assignment: resp}, nil
}

func (s *assignmentService) reconcile(ctx context.Context, tx *repository.Repository, assignmentID, userID string, rendu bool) error {
	var err error
	if rendu {
		err = tx.Submission.Upsert(ctx, assignmentID, userID)
	} else {
		err = tx.Submission.Delete(ctx, assignmentID, userID)
	}
	if err != nil {
		s.logger.Error("同步提交记录失败",
			zap.String("assignment_id", assignmentID),
			zap.String("user_id", userID),
			zap.Bool("rendu", rendu),
			zap.Error(err),
		)
	}
	return err
}

// ────────────────────── Delete ──────────────────────

// Delete 先删除全部提交记录再删除作业，非事务部署中途失败时不会留下孤立提交记录
func (s *assignmentService) Delete(ctx context.Context, id string) (*dto.DeleteAssignmentResponse, error) {
	var resp *dto.DeleteAssignmentResponse
	err := s.repo.Transaction(ctx, func(ctx context.Context, tx *repository.Repository) error {
		a, err := tx.Assignment.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrNotFound) {
				return ErrAssignmentNotFound
			}
			s.logger.Error("查询作业失败", zap.String("id", id), zap.Error(err))
			return err
		}

		n, err := tx.Submission.DeleteByAssignment(ctx, id)
		if err != nil {
			s.logger.Error("删除提交记录失败", zap.String("assignment_id", id), zap.Error(err))
			return err
		}

		if _, err := tx.Assignment.Delete(ctx, id); err != nil {
			if errors.Is(err, pkgerrors.ErrNotFound) {
				return ErrAssignmentNotFound
			}
			s.logger.Error("删除作业失败", zap.String("id", id), zap.Error(err))
			return err
		}

		resp = &dto.DeleteAssignmentResponse{
			Message:            fmt.Sprintf("%s deleted", a.Title),
			DeletedSubmissions: n,
		}
		return nil
	})
	metrics.ObserveOperation("delete", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("作业已删除", zap.String("id", id), zap.Int64("deleted_submissions", resp.DeletedSubmissions))
	return resp, nil
}

// ── 辅助函数 ──

func (s *assignmentService) resolveRendu(ctx context.Context, repo *repository.Repository, assignmentID, viewerID string) (bool, error) {
	done, err := repo.Submission.Exists(ctx, assignmentID, repository.ScopeForViewer(viewerID))
	if err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidID) {
			return false, ErrInvalidViewer
		}
		s.logger.Error("查询完成状态失败", zap.String("assignment_id", assignmentID), zap.Error(err))
		return false, err
	}
	return done, nil
}

func (s *assignmentService) ensureUser(ctx context.Context, repo *repository.Repository, userID string) error {
	if _, err := repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return ErrOwnerNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// newAssignmentQuery 将请求参数翻译为查询计划
func newAssignmentQuery(f *dto.AssignmentFilter, page, limit int) *repository.AssignmentQuery {
	return &repository.AssignmentQuery{
		Search:        strings.TrimSpace(f.Search),
		HideCompleted: f.HideCompleted,
		Sort:          repository.ParseSortOrder(f.Sort),
		Page:          page,
		Limit:         limit,
		Scope:         repository.ScopeForViewer(f.UserID),
	}
}

func toAssignmentResponse(a *model.Assignment, rendu bool) *dto.AssignmentResponse {
	return &dto.AssignmentResponse{
		ID:          a.AssignmentID,
		IDAlias:     a.AssignmentID,
		Nom:         a.Title,
		DateDeRendu: a.DueDate,
		Description: a.Description,
		UserID:      a.OwnerID,
		Rendu:       rendu,
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
