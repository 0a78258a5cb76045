package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jam-radar/backend/internal/model"
)

// CommentRepository 评论数据访问接口
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id uint) (*model.Comment, error)
	ListByJamPost(ctx context.Context, jamPostID uint, offset, limit int) ([]model.Comment, int64, error)
	Update(ctx context.Context, comment *model.Comment) error
	Delete(ctx context.Context, id uint) error
	// CountByJamPosts 批量统计评论数，避免逐条查询
	CountByJamPosts(ctx context.Context, jamPostIDs []uint) (map[uint]int64, error)
	Count(ctx context.Context, since *time.Time) (int64, error)
}

type commentRepo struct {
	db *gorm.DB
}

// NewCommentRepo 创建 CommentRepository 实例
func NewCommentRepo(db *gorm.DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

func (r *commentRepo) GetByID(ctx context.Context, id uint) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepo) ListByJamPost(ctx context.Context, jamPostID uint, offset, limit int) ([]model.Comment, int64, error) {
	var comments []model.Comment
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Comment{}).Where("jam_post_id = ?", jamPostID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

func (r *commentRepo) Update(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).
		Model(comment).
		Select("content").
		Updates(comment).Error
}

func (r *commentRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Comment{}).Error
}

func (r *commentRepo) CountByJamPosts(ctx context.Context, jamPostIDs []uint) (map[uint]int64, error) {
	result := make(map[uint]int64, len(jamPostIDs))
	if len(jamPostIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		JamPostID uint
		Count     int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Select("jam_post_id, COUNT(*) AS count").
		Where("jam_post_id IN ?", jamPostIDs).
		Group("jam_post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.JamPostID] = row.Count
	}
	return result, nil
}

func (r *commentRepo) Count(ctx context.Context, since *time.Time) (int64, error) {
	var total int64
	db := r.db.WithContext(ctx).Model(&model.Comment{})
	if since != nil {
		db = db.Where("created_at >= ?", *since)
	}
	err := db.Count(&total).Error
	return total, err
}
