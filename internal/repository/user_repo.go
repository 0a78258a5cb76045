package repository

import (
	"context"

	"gorm.io/gorm"

	"jam-radar/backend/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uint) error
	// List search 为空时返回全部，非空时按 name/email 模糊匹配
	List(ctx context.Context, search string, offset, limit int) ([]model.User, int64, error)
	Count(ctx context.Context) (int64, error)
	// ListByRole 按创建时间倒序返回指定角色的全部用户
	ListByRole(ctx context.Context, role string) ([]model.User, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// Delete 删除用户及其名下的全部数据
func (r *userRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		postIDs := tx.Model(&model.JamPost{}).Select("id").Where("user_id = ?", id)
		convIDs := tx.Model(&model.Conversation{}).Select("id").Where("user1_id = ? OR user2_id = ?", id, id)

		if err := tx.Where("sender_id = ? OR conversation_id IN (?)", id, convIDs).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user1_id = ? OR user2_id = ?", id, id).Delete(&model.Conversation{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ? OR jam_post_id IN (?)", id, postIDs).Delete(&model.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR jam_post_id IN (?)", id, postIDs).Delete(&model.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR jam_post_id IN (?)", id, postIDs).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.JamPost{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.User{}).Error
	})
}

func (r *userRepo) List(ctx context.Context, search string, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})
	if search != "" {
		like := "%" + search + "%"
		db = db.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC, id DESC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepo) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at DESC, id DESC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error
	return total, err
}
