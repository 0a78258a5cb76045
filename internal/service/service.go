package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jam-radar/backend/config"
	"jam-radar/backend/internal/model"
	"jam-radar/backend/internal/repository"
	"jam-radar/backend/pkg/jwt"
)

// Caller 调用方身份，由认证中间件解析后显式传入每个业务操作
type Caller struct {
	UserID uint
	Role   string
}

// IsAdmin 是否为管理员
func (c Caller) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}

// CanModify 资源所有者或管理员
func (c Caller) CanModify(ownerID uint) bool {
	return c.IsAdmin() || c.UserID == ownerID
}

// TokenBlacklist 登出时吊销 Access / Refresh Token（Redis 实现见 pkg/redis）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	JamPost      JamPostService
	Comment      CommentService
	Reaction     ReactionService
	Notification NotificationService
	Conversation ConversationService
	Message      MessageService
	Export       ExportService
}

// NewService 创建 Service 聚合
// blacklist 可为 nil（未配置 Redis 时登出仅由客户端丢弃 Token）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		User:         NewUserService(repo, logger),
		JamPost:      NewJamPostService(repo, logger),
		Comment:      NewCommentService(repo, logger),
		Reaction:     NewReactionService(repo, logger),
		Notification: NewNotificationService(&cfg.Proximity, repo, logger),
		Conversation: NewConversationService(repo, logger),
		Message:      NewMessageService(repo, logger),
		Export:       NewExportService(repo, logger),
	}
}
