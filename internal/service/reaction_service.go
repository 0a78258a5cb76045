package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"jam-radar/backend/internal/dto"
	"jam-radar/backend/internal/model"
	"jam-radar/backend/internal/repository"
	pkgerrors "jam-radar/backend/pkg/errors"
)

// ── 反应模块业务错误 ──

var (
	ErrInvalidReactionType = errors.New("无效的反应类型")
	ErrReactionNotFound    = errors.New("尚未对该上报做出反应")
)

// ReactionService 反应业务接口
type ReactionService interface {
	// React 每人每帖一条反应，重复提交覆盖类型
	React(ctx context.Context, caller Caller, jamPostID uint, reactionType string) (*dto.ReactionSummaryResponse, error)
	Remove(ctx context.Context, caller Caller, jamPostID uint) (*dto.ReactionSummaryResponse, error)
	Summary(ctx context.Context, caller Caller, jamPostID uint) (*dto.ReactionSummaryResponse, error)
}

type reactionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewReactionService 创建 ReactionService 实例
func NewReactionService(repo *repository.Repository, logger *zap.Logger) ReactionService {
	return &reactionService{repo: repo, logger: logger}
}

func (s *reactionService) React(ctx context.Context, caller Caller, jamPostID uint, reactionType string) (*dto.ReactionSummaryResponse, error) {
	if !model.ValidReactionType(reactionType) {
		return nil, ErrInvalidReactionType
	}
	if err := s.ensureJamPost(ctx, jamPostID); err != nil {
		return nil, err
	}

	reaction := &model.Reaction{UserID: caller.UserID, JamPostID: jamPostID, ReactionType: reactionType}
	if err := s.repo.Reaction.Upsert(ctx, reaction); err != nil {
		s.logger.Error("保存反应失败", zap.Uint("jam_post_id", jamPostID), zap.Error(err))
		return nil, err
	}

	return s.summary(ctx, caller, jamPostID)
}

func (s *reactionService) Remove(ctx context.Context, caller Caller, jamPostID uint) (*dto.ReactionSummaryResponse, error) {
	if err := s.ensureJamPost(ctx, jamPostID); err != nil {
		return nil, err
	}

	if _, err := s.repo.Reaction.GetByUserAndJamPost(ctx, caller.UserID, jamPostID); err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrReactionNotFound
		}
		s.logger.Error("查询反应失败", zap.Uint("jam_post_id", jamPostID), zap.Error(err))
		return nil, err
	}

	if err := s.repo.Reaction.Delete(ctx, caller.UserID, jamPostID); err != nil {
		s.logger.Error("删除反应失败", zap.Uint("jam_post_id", jamPostID), zap.Error(err))
		return nil, err
	}

	return s.summary(ctx, caller, jamPostID)
}

func (s *reactionService) Summary(ctx context.Context, caller Caller, jamPostID uint) (*dto.ReactionSummaryResponse, error) {
	if err := s.ensureJamPost(ctx, jamPostID); err != nil {
		return nil, err
	}
	return s.summary(ctx, caller, jamPostID)
}

func (s *reactionService) summary(ctx context.Context, caller Caller, jamPostID uint) (*dto.ReactionSummaryResponse, error) {
	ids := []uint{jamPostID}

	raw, err := s.repo.Reaction.CountsByJamPosts(ctx, ids)
	if err != nil {
		s.logger.Error("统计反应数失败", zap.Uint("jam_post_id", jamPostID), zap.Error(err))
		return nil, err
	}
	mine, err := s.repo.Reaction.UserReactions(ctx, caller.UserID, ids)
	if err != nil {
		s.logger.Error("查询用户反应失败", zap.Uint("jam_post_id", jamPostID), zap.Error(err))
		return nil, err
	}

	counts, total := reactionCounts(raw[jamPostID])
	resp := &dto.ReactionSummaryResponse{JamPostID: jamPostID, Reactions: counts, Total: total}
	if rt, ok := mine[jamPostID]; ok {
		resp.UserReaction = &rt
	}
	return resp, nil
}

func (s *reactionService) ensureJamPost(ctx context.Context, jamPostID uint) error {
	if _, err := s.repo.JamPost.GetByID(ctx, jamPostID); err != nil {
		if pkgerrors.IsNotFound(err) {
			return ErrJamPostNotFound
		}
		s.logger.Error("查询上报失败", zap.Uint("id", jamPostID), zap.Error(err))
		return err
	}
	return nil
}
