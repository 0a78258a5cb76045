package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"jam-radar/backend/config"
	"jam-radar/backend/internal/dto"
	"jam-radar/backend/internal/model"
	"jam-radar/backend/internal/repository"
	pkgerrors "jam-radar/backend/pkg/errors"
	"jam-radar/backend/pkg/jwt"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials  = errors.New("邮箱或密码错误")
	ErrEmailExists         = errors.New("邮箱已被注册")
	ErrNotAdmin            = errors.New("需要管理员账号")
	ErrInvalidRefreshToken = errors.New("Refresh Token 无效或已过期")
	ErrUserNotFound        = errors.New("用户不存在")
)

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// AdminLogin 与 Login 相同，但仅允许管理员
	AdminLogin(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout 吊销当前 Access Token；refreshToken 非空时校验归属后一并吊销
	Logout(ctx context.Context, caller Caller, jti string, expiresAt time.Time, refreshToken string) error
	Me(ctx context.Context, caller Caller) (*dto.UserResponse, error)
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
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

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	email := normalizeEmail(req.Email)

	// 1. 邮箱查重
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !pkgerrors.IsNotFound(err) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 密码哈希 (bcrypt)
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	// 3. 创建用户（注册用户固定为普通角色）
	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		// 并发注册时由唯一索引兜底
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrEmailExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户注册", zap.Uint("user_id", user.ID))

	return s.issueTokens(user)
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

func (s *authService) AdminLogin(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	if user.Role != model.RoleAdmin {
		return nil, ErrNotAdmin
	}
	return s.issueTokens(user)
}

// ────────────────────── RefreshToken ──────────────────────

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidRefreshToken
	}
	if s.revoked(ctx, claims.ID) {
		return nil, ErrInvalidRefreshToken
	}

	// 角色以数据库为准，已删除的用户无法续期
	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrInvalidRefreshToken
		}
		s.logger.Error("查询用户失败", zap.Uint("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	// 轮换：旧 Refresh Token 只能使用一次
	s.revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
	return tokens, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, caller Caller, jti string, expiresAt time.Time, refreshToken string) error {
	var refreshClaims *jwt.Claims
	if refreshToken != "" {
		claims, err := s.jwtMgr.ParseToken(refreshToken)
		if err != nil || claims.TokenType != jwt.TokenTypeRefresh || claims.UserID != caller.UserID {
			return ErrInvalidRefreshToken
		}
		refreshClaims = claims
	}

	if s.blacklist == nil {
		return nil
	}
	if jti != "" {
		if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
			s.logger.Error("Token 加入黑名单失败", zap.String("jti", jti), zap.Error(err))
			return err
		}
	}
	if refreshClaims != nil {
		ttl := time.Until(refreshClaims.ExpiresAt.Time)
		if err := s.blacklist.BlacklistToken(ctx, refreshClaims.ID, ttl); err != nil {
			s.logger.Error("Refresh Token 加入黑名单失败", zap.String("jti", refreshClaims.ID), zap.Error(err))
			return err
		}
	}
	return nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, caller Caller) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, caller.UserID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Uint("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// ── 内部辅助方法 ──

func (s *authService) authenticate(ctx context.Context, req *dto.LoginRequest) (*model.User, error) {
	user, err := s.repo.User.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *authService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.ID, user.Role)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         toUserResponse(user),
	}, nil
}

// revoked Redis 故障时放行，与认证中间件一致
func (s *authService) revoked(ctx context.Context, jti string) bool {
	if s.blacklist == nil || jti == "" {
		return false
	}
	revoked, err := s.blacklist.IsBlacklisted(ctx, jti)
	if err != nil {
		s.logger.Warn("查询 Token 黑名单失败", zap.String("jti", jti), zap.Error(err))
		return false
	}
	return revoked
}

func (s *authService) revoke(ctx context.Context, jti string, ttl time.Duration) {
	if s.blacklist == nil || jti == "" {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Warn("Refresh Token 加入黑名单失败", zap.String("jti", jti), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
