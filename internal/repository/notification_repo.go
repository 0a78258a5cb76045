package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jam-radar/backend/internal/model"
)

// NotificationRepository 通知数据访问接口
// 所有查询均按 filter.UserID 做归属过滤
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// CreateIfAbsent 按 (user_id, jam_post_id, type) 唯一约束插入，jam_post_id 为空也参与去重；
	// 冲突时不写入，并把已有记录回填到 n，返回 created=false
	CreateIfAbsent(ctx context.Context, n *model.Notification) (bool, error)
	FindOne(ctx context.Context, filter model.NotificationFilter) (*model.Notification, error)
	List(ctx context.Context, filter model.NotificationFilter) ([]model.Notification, error)
	Count(ctx context.Context, filter model.NotificationFilter) (int64, error)
	Update(ctx context.Context, n *model.Notification) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, n *model.Notification) error
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(n).Error
}

func (r *notificationRepo) CreateIfAbsent(ctx context.Context, n *model.Notification) (bool, error) {
	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "jam_post_id"}, {Name: "type"}},
		DoNothing: true,
	}
	// NULL 在普通唯一索引中互不相等，改走部分唯一索引 uk_notifications_user_type_nojam
	if n.JamPostID == nil {
		onConflict = clause.OnConflict{
			Columns:     []clause.Column{{Name: "user_id"}, {Name: "type"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "jam_post_id IS NULL"}}},
			DoNothing:   true,
		}
	}

	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(onConflict).
		Create(n)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	notificationType := n.Type
	existing, err := r.FindOne(ctx, model.NotificationFilter{
		UserID:    n.UserID,
		JamPostID: n.JamPostID,
		NoJamPost: n.JamPostID == nil,
		Type:      &notificationType,
	})
	if err != nil {
		return false, err
	}
	*n = *existing
	return false, nil
}

func (r *notificationRepo) FindOne(ctx context.Context, filter model.NotificationFilter) (*model.Notification, error) {
	var n model.Notification
	err := r.scoped(ctx, filter).
		Preload("JamPost").
		Order("id ASC").
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepo) List(ctx context.Context, filter model.NotificationFilter) ([]model.Notification, error) {
	var list []model.Notification
	err := r.scoped(ctx, filter).
		Preload("JamPost").
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *notificationRepo) Count(ctx context.Context, filter model.NotificationFilter) (int64, error) {
	var total int64
	err := r.scoped(ctx, filter).Count(&total).Error
	return total, err
}

func (r *notificationRepo) Update(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).
		Model(n).
		Where("user_id = ?", n.UserID).
		Select("message", "type", "is_read", "distance").
		Updates(n).Error
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepo) Delete(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", n.ID, n.UserID).
		Delete(&model.Notification{}).Error
}

// scoped 构建带归属过滤的查询
func (r *notificationRepo) scoped(ctx context.Context, filter model.NotificationFilter) *gorm.DB {
	db := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ?", filter.UserID)

	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.JamPostID != nil {
		db = db.Where("jam_post_id = ?", *filter.JamPostID)
	}
	if filter.NoJamPost {
		db = db.Where("jam_post_id IS NULL")
	}
	if filter.Type != nil {
		db = db.Where("type = ?", *filter.Type)
	}
	if filter.IsRead != nil {
		db = db.Where("is_read = ?", *filter.IsRead)
	}
	return db
}
