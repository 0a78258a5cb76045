package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"jam-radar/backend/config"
	"jam-radar/backend/internal/dto"
	"jam-radar/backend/internal/model"
	"jam-radar/backend/internal/repository"
	pkgerrors "jam-radar/backend/pkg/errors"
	"jam-radar/backend/pkg/geo"
	"jam-radar/backend/pkg/metrics"
)

// ── 通知模块业务错误 ──

var (
	ErrNotificationNotFound    = errors.New("通知不存在")
	ErrInvalidNotificationType = errors.New("无效的通知类型")
	ErrNotificationConflict    = errors.New("同一上报的同类型通知已存在")
	ErrInvalidRadius           = errors.New("通知半径超出允许范围")
	ErrInvalidCoordinates      = errors.New("坐标超出范围")
)

// nearbyJamMessageFormat 距离以公里保留一位小数
const nearbyJamMessageFormat = "New traffic jam detected %.1fkm away - %s severity"

// NotificationService 通知业务接口
// 所有操作都按 caller.UserID 过滤，他人的通知一律视为不存在
type NotificationService interface {
	// EvaluateProximity 判断用户是否位于拥堵点 radius 米范围内，是则创建（或返回已有的）附近拥堵通知。
	// radius 为 nil 时使用配置的默认半径
	EvaluateProximity(ctx context.Context, caller Caller, jamPostID uint, userLat, userLon float64, radius *float64) (*dto.NearbyJamResponse, error)
	// Create 通用创建，按 (user_id, jam_post_id, type) 去重；created=false 表示返回的是已有通知
	Create(ctx context.Context, caller Caller, req *dto.CreateNotificationRequest) (*dto.NotificationResponse, bool, error)
	List(ctx context.Context, caller Caller) ([]dto.NotificationResponse, error)
	ListByType(ctx context.Context, caller Caller, notificationType string) ([]dto.NotificationResponse, error)
	ListUnread(ctx context.Context, caller Caller) ([]dto.NotificationResponse, error)
	UnreadCount(ctx context.Context, caller Caller) (int64, error)
	GetByID(ctx context.Context, caller Caller, id uint) (*dto.NotificationResponse, error)
	Update(ctx context.Context, caller Caller, id uint, req *dto.UpdateNotificationRequest) (*dto.NotificationResponse, error)
	MarkRead(ctx context.Context, caller Caller, id uint) (*dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, caller Caller) (int64, error)
	Delete(ctx context.Context, caller Caller, id uint) error
}

type notificationService struct {
	cfg    *config.ProximityConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(cfg *config.ProximityConfig, repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{cfg: cfg, repo: repo, logger: logger}
}

// ────────────────────── EvaluateProximity ──────────────────────

func (s *notificationService) EvaluateProximity(
	ctx context.Context,
	caller Caller,
	jamPostID uint,
	userLat, userLon float64,
	radius *float64,
) (*dto.NearbyJamResponse, error) {
	r, err := s.resolveRadius(radius)
	if err != nil {
		metrics.IncProximityEvaluation(metrics.OutcomeInvalid)
		return nil, err
	}
	if !geo.ValidLatitude(userLat) || !geo.ValidLongitude(userLon) {
		metrics.IncProximityEvaluation(metrics.OutcomeInvalid)
		return nil, ErrInvalidCoordinates
	}

	// 1. 查询拥堵点
	jam, err := s.repo.JamPost.GetByID(ctx, jamPostID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			metrics.IncProximityEvaluation(metrics.OutcomeNotFound)
			return nil, ErrJamPostNotFound
		}
		metrics.IncProximityEvaluation(metrics.OutcomeError)
		s.logger.Error("查询上报失败", zap.Uint("jam_post_id", jamPostID), zap.Error(err))
		return nil, err
	}

	// 2. 计算距离并与半径比较（边界包含）
	raw := geo.Distance(userLat, userLon, jam.Latitude, jam.Longitude)
	distance := roundMeters(raw)
	result := &dto.NearbyJamResponse{Distance: distance, Radius: r}
	if raw > r {
		metrics.IncProximityEvaluation(metrics.OutcomeOutOfRange)
		return result, nil
	}
	result.WithinRadius = true

	// 3. 去重插入
	n := &model.Notification{
		UserID:    caller.UserID,
		JamPostID: &jam.ID,
		Message:   NearbyJamMessage(raw, jam.Level),
		Type:      model.NotificationNearbyJam,
		IsRead:    false,
		Distance:  &distance,
	}
	created, err := s.repo.Notification.CreateIfAbsent(ctx, n)
	if err != nil {
		metrics.IncProximityEvaluation(metrics.OutcomeError)
		s.logger.Error("创建附近拥堵通知失败",
			zap.Uint("user_id", caller.UserID),
			zap.Uint("jam_post_id", jamPostID),
			zap.Error(err),
		)
		return nil, err
	}

	if created {
		n.JamPost = jam
		metrics.IncProximityEvaluation(metrics.OutcomeCreated)
		metrics.IncNotificationCreated(n.Type)
		s.logger.Info("附近拥堵通知已创建",
			zap.Uint("id", n.ID),
			zap.Uint("user_id", caller.UserID),
			zap.Uint("jam_post_id", jamPostID),
			zap.Float64("distance", distance),
		)
	} else {
		metrics.IncProximityEvaluation(metrics.OutcomeDuplicate)
	}

	result.Created = created
	result.Notification = toNotificationResponse(n)
	return result, nil
}

// NearbyJamMessage 生成附近拥堵通知文案
func NearbyJamMessage(distanceMeters float64, level string) string {
	return fmt.Sprintf(nearbyJamMessageFormat, roundTenthKm(distanceMeters), level)
}

// roundTenthKm 米换算为公里并保留一位小数，恰好落在 0.05 上时向上进位
func roundTenthKm(meters float64) float64 {
	return math.Floor(meters/100+0.5) / 10
}

// ────────────────────── Create ──────────────────────

func (s *notificationService) Create(ctx context.Context, caller Caller, req *dto.CreateNotificationRequest) (*dto.NotificationResponse, bool, error) {
	if !model.ValidNotificationType(req.Type) {
		return nil, false, ErrInvalidNotificationType
	}

	var jam *model.JamPost
	if req.JamPostID != nil {
		var err error
		jam, err = s.repo.JamPost.GetByID(ctx, *req.JamPostID)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				return nil, false, ErrJamPostNotFound
			}
			s.logger.Error("查询上报失败", zap.Uint("jam_post_id", *req.JamPostID), zap.Error(err))
			return nil, false, err
		}
	}

	n := &model.Notification{
		UserID:    caller.UserID,
		JamPostID: req.JamPostID,
		Message:   req.Message,
		Type:      req.Type,
		IsRead:    false,
		Distance:  req.Distance,
	}
	created, err := s.repo.Notification.CreateIfAbsent(ctx, n)
	if err != nil {
		s.logger.Error("创建通知失败", zap.Uint("user_id", caller.UserID), zap.Error(err))
		return nil, false, err
	}

	if created {
		n.JamPost = jam
		metrics.IncNotificationCreated(n.Type)
	}
	return toNotificationResponse(n), created, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *notificationService) List(ctx context.Context, caller Caller) ([]dto.NotificationResponse, error) {
	return s.list(ctx, model.NotificationFilter{UserID: caller.UserID})
}

func (s *notificationService) ListByType(ctx context.Context, caller Caller, notificationType string) ([]dto.NotificationResponse, error) {
	if !model.ValidNotificationType(notificationType) {
		return nil, ErrInvalidNotificationType
	}
	return s.list(ctx, model.NotificationFilter{UserID: caller.UserID, Type: &notificationType})
}

func (s *notificationService) ListUnread(ctx context.Context, caller Caller) ([]dto.NotificationResponse, error) {
	unread := false
	return s.list(ctx, model.NotificationFilter{UserID: caller.UserID, IsRead: &unread})
}

func (s *notificationService) UnreadCount(ctx context.Context, caller Caller) (int64, error) {
	unread := false
	total, err := s.repo.Notification.Count(ctx, model.NotificationFilter{UserID: caller.UserID, IsRead: &unread})
	if err != nil {
		s.logger.Error("统计未读通知失败", zap.Uint("user_id", caller.UserID), zap.Error(err))
		return 0, err
	}
	return total, nil
}

func (s *notificationService) GetByID(ctx context.Context, caller Caller, id uint) (*dto.NotificationResponse, error) {
	n, err := s.findOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return toNotificationResponse(n), nil
}

// ────────────────────── 修改 ──────────────────────

func (s *notificationService) Update(ctx context.Context, caller Caller, id uint, req *dto.UpdateNotificationRequest) (*dto.NotificationResponse, error) {
	if req.Type != nil && !model.ValidNotificationType(*req.Type) {
		return nil, ErrInvalidNotificationType
	}

	n, err := s.findOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if req.Message != nil {
		n.Message = *req.Message
	}
	if req.Type != nil {
		n.Type = *req.Type
	}
	if req.IsRead != nil {
		n.IsRead = *req.IsRead
	}
	if req.Distance != nil {
		n.Distance = req.Distance
	}

	if err := s.save(ctx, n); err != nil {
		return nil, err
	}
	return toNotificationResponse(n), nil
}

func (s *notificationService) MarkRead(ctx context.Context, caller Caller, id uint) (*dto.NotificationResponse, error) {
	n, err := s.findOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return toNotificationResponse(n), nil
	}

	n.IsRead = true
	if err := s.save(ctx, n); err != nil {
		return nil, err
	}
	return toNotificationResponse(n), nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, caller Caller) (int64, error) {
	updated, err := s.repo.Notification.MarkAllRead(ctx, caller.UserID)
	if err != nil {
		s.logger.Error("批量标记已读失败", zap.Uint("user_id", caller.UserID), zap.Error(err))
		return 0, err
	}
	return updated, nil
}

func (s *notificationService) Delete(ctx context.Context, caller Caller, id uint) error {
	n, err := s.findOwned(ctx, caller, id)
	if err != nil {
		return err
	}

	if err := s.repo.Notification.Delete(ctx, n); err != nil {
		s.logger.Error("删除通知失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *notificationService) resolveRadius(radius *float64) (float64, error) {
	if radius == nil {
		return s.cfg.DefaultRadius, nil
	}
	r := *radius
	if math.IsNaN(r) || r <= 0 || (s.cfg.MaxRadius > 0 && r > s.cfg.MaxRadius) {
		return 0, ErrInvalidRadius
	}
	return r, nil
}

func (s *notificationService) list(ctx context.Context, filter model.NotificationFilter) ([]dto.NotificationResponse, error) {
	items, err := s.repo.Notification.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询通知列表失败", zap.Uint("user_id", filter.UserID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.NotificationResponse, 0, len(items))
	for i := range items {
		result = append(result, *toNotificationResponse(&items[i]))
	}
	return result, nil
}

func (s *notificationService) findOwned(ctx context.Context, caller Caller, id uint) (*model.Notification, error) {
	n, err := s.repo.Notification.FindOne(ctx, model.NotificationFilter{UserID: caller.UserID, ID: &id})
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrNotificationNotFound
		}
		s.logger.Error("查询通知失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return n, nil
}

func (s *notificationService) save(ctx context.Context, n *model.Notification) error {
	if err := s.repo.Notification.Update(ctx, n); err != nil {
		// 改 type 可能撞上 (user_id, jam_post_id, type) 唯一约束
		if pkgerrors.IsDuplicate(err) {
			return ErrNotificationConflict
		}
		s.logger.Error("更新通知失败", zap.Uint("id", n.ID), zap.Error(err))
		return err
	}
	return nil
}

// roundMeters 与 numeric(10,2) 列精度一致
func roundMeters(d float64) float64 {
	return math.Round(d*100) / 100
}
