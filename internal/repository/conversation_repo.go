package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jam-radar/backend/internal/model"
)

// ConversationRepository 会话数据访问接口
type ConversationRepository interface {
	Create(ctx context.Context, conv *model.Conversation) error
	// GetByID 预加载双方用户，不含消息
	GetByID(ctx context.Context, id uint) (*model.Conversation, error)
	// GetWithMessages 预加载双方用户与全部消息（按发送时间正序）
	GetWithMessages(ctx context.Context, id uint) (*model.Conversation, error)
	// List userID 为 nil 时返回全部会话，否则仅返回其参与的会话
	List(ctx context.Context, userID *uint) ([]model.Conversation, error)
	// FindBetween 查找两名用户之间的会话，不区分先后；excludeID 非 0 时跳过该会话
	FindBetween(ctx context.Context, a, b, excludeID uint) (*model.Conversation, error)
	Update(ctx context.Context, conv *model.Conversation) error
	// Delete 删除会话及其全部消息
	Delete(ctx context.Context, id uint) error
}

type conversationRepo struct {
	db *gorm.DB
}

// NewConversationRepo 创建 ConversationRepository 实例
func NewConversationRepo(db *gorm.DB) ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) Create(ctx context.Context, conv *model.Conversation) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(conv).Error
}

func (r *conversationRepo) GetByID(ctx context.Context, id uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).
		Preload("User1").
		Preload("User2").
		Where("id = ?", id).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) GetWithMessages(ctx context.Context, id uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).
		Preload("User1").
		Preload("User2").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Messages.Sender").
		Where("id = ?", id).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) List(ctx context.Context, userID *uint) ([]model.Conversation, error) {
	var convs []model.Conversation

	db := r.db.WithContext(ctx).Model(&model.Conversation{})
	if userID != nil {
		db = db.Where("user1_id = ? OR user2_id = ?", *userID, *userID)
	}

	if err := db.Preload("User1").
		Preload("User2").
		Order("created_at DESC, id DESC").
		Find(&convs).Error; err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return convs, nil
	}

	latest, err := r.latestMessages(ctx, convs)
	if err != nil {
		return nil, err
	}
	for i := range convs {
		if m, ok := latest[convs[i].ID]; ok {
			convs[i].Messages = []model.Message{m}
		}
	}
	return convs, nil
}

// latestMessages 每个会话最新的一条消息（含发送者），一次查询完成
func (r *conversationRepo) latestMessages(ctx context.Context, convs []model.Conversation) (map[uint]model.Message, error) {
	ids := make([]uint, 0, len(convs))
	for i := range convs {
		ids = append(ids, convs[i].ID)
	}

	latestIDs := r.db.Model(&model.Message{}).
		Select("MAX(id)").
		Where("conversation_id IN ?", ids).
		Group("conversation_id")

	var msgs []model.Message
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("id IN (?)", latestIDs).
		Find(&msgs).Error; err != nil {
		return nil, err
	}

	result := make(map[uint]model.Message, len(msgs))
	for _, m := range msgs {
		result[m.ConversationID] = m
	}
	return result, nil
}

func (r *conversationRepo) FindBetween(ctx context.Context, a, b, excludeID uint) (*model.Conversation, error) {
	var conv model.Conversation
	db := r.db.WithContext(ctx).
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", a, b, b, a)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) Update(ctx context.Context, conv *model.Conversation) error {
	return r.db.WithContext(ctx).
		Model(conv).
		Select("user1_id", "user2_id").
		Updates(conv).Error
}

func (r *conversationRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Conversation{}).Error
	})
}
