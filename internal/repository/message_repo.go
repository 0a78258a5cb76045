package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jam-radar/backend/internal/model"
)

// MessageRepository 会话消息数据访问接口
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	GetByID(ctx context.Context, id uint) (*model.Message, error)
	// ListByConversation 按发送时间正序返回会话内全部消息
	ListByConversation(ctx context.Context, conversationID uint) ([]model.Message, error)
	Update(ctx context.Context, msg *model.Message) error
	Delete(ctx context.Context, id uint) error
}

type messageRepo struct {
	db *gorm.DB
}

// NewMessageRepo 创建 MessageRepository 实例
func NewMessageRepo(db *gorm.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Create(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error
}

func (r *messageRepo) GetByID(ctx context.Context, id uint) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("id = ?", id).
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepo) ListByConversation(ctx context.Context, conversationID uint) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *messageRepo) Update(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).
		Model(msg).
		Select("content", "image", "message_type").
		Updates(msg).Error
}

func (r *messageRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Message{}).Error
}
