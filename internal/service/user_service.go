package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"homework-tracker/internal/dto"
	"homework-tracker/internal/model"
	"homework-tracker/internal/repository"
	pkgerrors "homework-tracker/pkg/errors"
)

// ── 用户模块业务错误 ──

var ErrUsernameTaken = errors.New("用户名已存在")

// UserService 用户业务接口
type UserService interface {
	// Create 注册用户；callerIsAdmin 为 false 时忽略 req.IsAdmin
	Create(ctx context.Context, req *dto.CreateUserRequest, callerIsAdmin bool) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) (*dto.Page[dto.UserResponse], error)
}

type userService struct {
	repo       *repository.Repository
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, bcryptCost int, logger *zap.Logger) UserService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{repo: repo, bcryptCost: bcryptCost, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest, callerIsAdmin bool) (*dto.UserResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = username
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Name:         name,
		IsAdmin:      req.IsAdmin && callerIsAdmin,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		s.logger.Error("创建用户失败", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户已创建", zap.String("user_id", user.UserID), zap.Bool("is_admin", user.IsAdmin))
	return toUserResponse(user), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) (*dto.Page[dto.UserResponse], error) {
	users, total, err := s.repo.User.List(ctx, req.GetOffset(), req.GetLimit())
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, err
	}

	docs := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		docs = append(docs, *toUserResponse(&users[i]))
	}
	return dto.NewPage(docs, total, req.GetPage(), req.GetLimit()), nil
}

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:       u.UserID,
		Username: u.Username,
		Name:     u.Name,
		IsAdmin:  u.IsAdmin,
		Role:     u.Role(),
	}
}
