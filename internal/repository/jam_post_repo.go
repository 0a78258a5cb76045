package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jam-radar/backend/internal/model"
)

// JamPostFilter 上报列表筛选条件
type JamPostFilter struct {
	Level  string     // 为空表示不过滤
	Search string     // note 模糊匹配
	Since  *time.Time // created_at >= Since
}

// LevelCount 按等级聚合
type LevelCount struct {
	Level string `json:"level"`
	Count int64  `json:"count"`
}

// JamPostRepository 拥堵上报数据访问接口
type JamPostRepository interface {
	Create(ctx context.Context, post *model.JamPost) error
	GetByID(ctx context.Context, id uint) (*model.JamPost, error)
	List(ctx context.Context, filter JamPostFilter, offset, limit int) ([]model.JamPost, int64, error)
	Update(ctx context.Context, post *model.JamPost) error
	// Delete 在同一事务内删除上报及其评论、反应和关联通知
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context, since *time.Time) (int64, error)
	CountByLevel(ctx context.Context) ([]LevelCount, error)
}

type jamPostRepo struct {
	db *gorm.DB
}

// NewJamPostRepo 创建 JamPostRepository 实例
func NewJamPostRepo(db *gorm.DB) JamPostRepository {
	return &jamPostRepo{db: db}
}

func (r *jamPostRepo) Create(ctx context.Context, post *model.JamPost) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

func (r *jamPostRepo) GetByID(ctx context.Context, id uint) (*model.JamPost, error) {
	var post model.JamPost
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *jamPostRepo) List(ctx context.Context, filter JamPostFilter, offset, limit int) ([]model.JamPost, int64, error) {
	var posts []model.JamPost
	var total int64

	db := r.db.WithContext(ctx).Model(&model.JamPost{})
	if filter.Level != "" {
		db = db.Where("level = ?", filter.Level)
	}
	if filter.Search != "" {
		db = db.Where("note LIKE ?", "%"+filter.Search+"%")
	}
	if filter.Since != nil {
		db = db.Where("created_at >= ?", *filter.Since)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *jamPostRepo) Update(ctx context.Context, post *model.JamPost) error {
	return r.db.WithContext(ctx).
		Model(post).
		Select("user_id", "latitude", "longitude", "note", "image", "level").
		Updates(post).Error
}

func (r *jamPostRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("jam_post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("jam_post_id = ?", id).Delete(&model.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("jam_post_id = ?", id).Delete(&model.Notification{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.JamPost{}).Error
	})
}

func (r *jamPostRepo) Count(ctx context.Context, since *time.Time) (int64, error) {
	var total int64
	db := r.db.WithContext(ctx).Model(&model.JamPost{})
	if since != nil {
		db = db.Where("created_at >= ?", *since)
	}
	err := db.Count(&total).Error
	return total, err
}

func (r *jamPostRepo) CountByLevel(ctx context.Context) ([]LevelCount, error) {
	var rows []LevelCount
	err := r.db.WithContext(ctx).
		Model(&model.JamPost{}).
		Select("level, COUNT(*) AS count").
		Group("level").
		Order("level").
		Scan(&rows).Error
	return rows, err
}
