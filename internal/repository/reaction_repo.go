package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jam-radar/backend/internal/model"
)

// TypeCount 按反应类型聚合
type TypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// ReactionRepository 反应数据访问接口
type ReactionRepository interface {
	// Upsert 每个用户对每条上报只保留一条反应，重复提交时覆盖类型
	Upsert(ctx context.Context, reaction *model.Reaction) error
	GetByUserAndJamPost(ctx context.Context, userID, jamPostID uint) (*model.Reaction, error)
	Delete(ctx context.Context, userID, jamPostID uint) error
	CountsByJamPosts(ctx context.Context, jamPostIDs []uint) (map[uint]map[string]int64, error)
	UserReactions(ctx context.Context, userID uint, jamPostIDs []uint) (map[uint]string, error)
	Count(ctx context.Context) (int64, error)
	CountByType(ctx context.Context) ([]TypeCount, error)
}

type reactionRepo struct {
	db *gorm.DB
}

// NewReactionRepo 创建 ReactionRepository 实例
func NewReactionRepo(db *gorm.DB) ReactionRepository {
	return &reactionRepo{db: db}
}

func (r *reactionRepo) Upsert(ctx context.Context, reaction *model.Reaction) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "jam_post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"reaction_type", "updated_at"}),
		}).
		Create(reaction).Error
}

func (r *reactionRepo) GetByUserAndJamPost(ctx context.Context, userID, jamPostID uint) (*model.Reaction, error) {
	var reaction model.Reaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND jam_post_id = ?", userID, jamPostID).
		First(&reaction).Error
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *reactionRepo) Delete(ctx context.Context, userID, jamPostID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND jam_post_id = ?", userID, jamPostID).
		Delete(&model.Reaction{}).Error
}

func (r *reactionRepo) CountsByJamPosts(ctx context.Context, jamPostIDs []uint) (map[uint]map[string]int64, error) {
	result := make(map[uint]map[string]int64, len(jamPostIDs))
	if len(jamPostIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		JamPostID    uint
		ReactionType string
		Count        int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Reaction{}).
		Select("jam_post_id, reaction_type, COUNT(*) AS count").
		Where("jam_post_id IN ?", jamPostIDs).
		Group("jam_post_id, reaction_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if result[row.JamPostID] == nil {
			result[row.JamPostID] = make(map[string]int64)
		}
		result[row.JamPostID][row.ReactionType] = row.Count
	}
	return result, nil
}

func (r *reactionRepo) UserReactions(ctx context.Context, userID uint, jamPostIDs []uint) (map[uint]string, error) {
	result := make(map[uint]string, len(jamPostIDs))
	if len(jamPostIDs) == 0 {
		return result, nil
	}

	var reactions []model.Reaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND jam_post_id IN ?", userID, jamPostIDs).
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}

	for _, re := range reactions {
		result[re.JamPostID] = re.ReactionType
	}
	return result, nil
}

func (r *reactionRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Reaction{}).Count(&total).Error
	return total, err
}

func (r *reactionRepo) CountByType(ctx context.Context) ([]TypeCount, error) {
	var rows []TypeCount
	err := r.db.WithContext(ctx).
		Model(&model.Reaction{}).
		Select("reaction_type AS type, COUNT(*) AS count").
		Group("reaction_type").
		Order("reaction_type").
		Scan(&rows).Error
	return rows, err
}
