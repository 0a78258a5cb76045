package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"jam-radar/backend/internal/dto"
	"jam-radar/backend/internal/model"
	"jam-radar/backend/internal/repository"
	pkgerrors "jam-radar/backend/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrCannotModifySelf = errors.New("不能修改或删除自己的账号")
	ErrInvalidRole      = errors.New("无效的角色")
)

// UserService 用户业务接口：管理员维护用户，普通用户维护个人资料
type UserService interface {
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	GetByID(ctx context.Context, id uint) (*dto.UserResponse, error)
	Create(ctx context.Context, caller Caller, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	Update(ctx context.Context, caller Caller, id uint, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	AssignRole(ctx context.Context, caller Caller, id uint, role string) (*dto.UserResponse, error)
	Delete(ctx context.Context, caller Caller, id uint) error

	GetProfile(ctx context.Context, caller Caller) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, caller Caller, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	// ListPublic 普通角色用户的公开列表，按注册时间倒序
	ListPublic(ctx context.Context) ([]dto.UserSummary, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, req.Search, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		list = append(list, toUserResponse(&users[i]))
	}
	return list, total, nil
}

func (s *userService) GetByID(ctx context.Context, id uint) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) Create(ctx context.Context, caller Caller, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := normalizeEmail(req.Email)
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	if !model.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrEmailExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("管理员创建用户",
		zap.Uint("user_id", user.ID),
		zap.String("role", role),
		zap.Uint("operator", caller.UserID),
	)

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, caller Caller, id uint, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if req.Role != nil {
		if !model.ValidRole(*req.Role) {
			return nil, ErrInvalidRole
		}
		if caller.UserID == id {
			return nil, ErrCannotModifySelf
		}
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.applyProfile(ctx, user, req.Name, req.Email, req.Password, req.Avatar); err != nil {
		return nil, err
	}
	if req.Role != nil {
		user.Role = *req.Role
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("管理员更新用户", zap.Uint("user_id", id), zap.Uint("operator", caller.UserID))

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) AssignRole(ctx context.Context, caller Caller, id uint, role string) (*dto.UserResponse, error) {
	if caller.UserID == id {
		return nil, ErrCannotModifySelf
	}
	if !model.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户角色失败", zap.Uint("user_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户角色变更",
		zap.Uint("user_id", id),
		zap.String("role", role),
		zap.Uint("operator", caller.UserID),
	)

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) Delete(ctx context.Context, caller Caller, id uint) error {
	if caller.UserID == id {
		return ErrCannotModifySelf
	}
	if _, err := s.getUser(ctx, id); err != nil {
		return err
	}

	if err := s.repo.User.Delete(ctx, id); err != nil {
		s.logger.Error("删除用户失败", zap.Uint("user_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("用户已删除", zap.Uint("user_id", id), zap.Uint("operator", caller.UserID))
	return nil
}

// ── 个人资料 ──

func (s *userService) GetProfile(ctx context.Context, caller Caller) (*dto.UserResponse, error) {
	return s.GetByID(ctx, caller.UserID)
}

func (s *userService) UpdateProfile(ctx context.Context, caller Caller, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.applyProfile(ctx, user, req.Name, req.Email, req.Password, req.Avatar); err != nil {
		return nil, err
	}
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) ListPublic(ctx context.Context) ([]dto.UserSummary, error) {
	users, err := s.repo.User.ListByRole(ctx, model.RoleUser)
	if err != nil {
		s.logger.Error("查询公开用户列表失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.UserSummary, 0, len(users))
	for i := range users {
		list = append(list, *toUserSummary(&users[i]))
	}
	return list, nil
}

// applyProfile 将非空字段写入 user；邮箱变更需未被他人占用，密码重新哈希
func (s *userService) applyProfile(ctx context.Context, user *model.User, name, email, password, avatar *string) error {
	if email != nil {
		normalized := normalizeEmail(*email)
		if normalized != user.Email {
			if err := s.ensureEmailFree(ctx, normalized, user.ID); err != nil {
				return err
			}
			user.Email = normalized
		}
	}
	if name != nil {
		user.Name = strings.TrimSpace(*name)
	}
	if password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error("密码哈希失败", zap.Error(err))
			return err
		}
		user.PasswordHash = string(hash)
	}
	if avatar != nil {
		user.Avatar = avatar
	}
	return nil
}

// ensureEmailFree selfID 为当前用户 ID，创建时传 0
func (s *userService) ensureEmailFree(ctx context.Context, email string, selfID uint) error {
	existing, err := s.repo.User.GetByEmail(ctx, email)
	if err == nil {
		if existing.ID != selfID {
			return ErrEmailExists
		}
		return nil
	}
	if !pkgerrors.IsNotFound(err) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *userService) save(ctx context.Context, user *model.User) error {
	if err := s.repo.User.Update(ctx, user); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return ErrEmailExists
		}
		s.logger.Error("更新用户失败", zap.Uint("user_id", user.ID), zap.Error(err))
		return err
	}
	return nil
}

func (s *userService) getUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Uint("user_id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}
