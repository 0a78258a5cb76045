package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"jam-radar/backend/internal/dto"
	"jam-radar/backend/internal/model"
	"jam-radar/backend/internal/repository"
	pkgerrors "jam-radar/backend/pkg/errors"
)

// ── 评论模块业务错误 ──

var (
	ErrCommentNotFound = errors.New("评论不存在")
	ErrCommentEmpty    = errors.New("评论内容不能为空")
)

// CommentService 评论业务接口
type CommentService interface {
	List(ctx context.Context, caller Caller, jamPostID uint, req *dto.LimitRequest) ([]dto.CommentResponse, int64, error)
	Create(ctx context.Context, caller Caller, jamPostID uint, req *dto.CommentRequest) (*dto.CommentResponse, error)
	Update(ctx context.Context, caller Caller, id uint, req *dto.CommentRequest) (*dto.CommentResponse, error)
	Delete(ctx context.Context, caller Caller, id uint) error
}

type commentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCommentService 创建 CommentService 实例
func NewCommentService(repo *repository.Repository, logger *zap.Logger) CommentService {
	return &commentService{repo: repo, logger: logger}
}

func (s *commentService) List(ctx context.Context, caller Caller, jamPostID uint, req *dto.LimitRequest) ([]dto.CommentResponse, int64, error) {
	if err := s.ensureJamPost(ctx, jamPostID); err != nil {
		return nil, 0, err
	}

	comments, total, err := s.repo.Comment.ListByJamPost(ctx, jamPostID,
		req.GetOffset(dto.DefaultCommentLimit), req.GetLimit(dto.DefaultCommentLimit))
	if err != nil {
		s.logger.Error("查询评论列表失败", zap.Uint("jam_post_id", jamPostID), zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		list = append(list, toCommentResponse(&comments[i], caller))
	}
	return list, total, nil
}

func (s *commentService) Create(ctx context.Context, caller Caller, jamPostID uint, req *dto.CommentRequest) (*dto.CommentResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrCommentEmpty
	}
	if err := s.ensureJamPost(ctx, jamPostID); err != nil {
		return nil, err
	}

	comment := &model.Comment{UserID: caller.UserID, JamPostID: jamPostID, Content: content}
	if err := s.repo.Comment.Create(ctx, comment); err != nil {
		s.logger.Error("创建评论失败", zap.Uint("jam_post_id", jamPostID), zap.Error(err))
		return nil, err
	}

	return s.reload(ctx, caller, comment.ID)
}

func (s *commentService) Update(ctx context.Context, caller Caller, id uint, req *dto.CommentRequest) (*dto.CommentResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrCommentEmpty
	}

	comment, err := s.getComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanModify(comment.UserID) {
		return nil, ErrNoPermission
	}

	comment.Content = content
	if err := s.repo.Comment.Update(ctx, comment); err != nil {
		s.logger.Error("更新评论失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	return s.reload(ctx, caller, id)
}

func (s *commentService) Delete(ctx context.Context, caller Caller, id uint) error {
	comment, err := s.getComment(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanModify(comment.UserID) {
		return ErrNoPermission
	}

	if err := s.repo.Comment.Delete(ctx, id); err != nil {
		s.logger.Error("删除评论失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *commentService) reload(ctx context.Context, caller Caller, id uint) (*dto.CommentResponse, error) {
	comment, err := s.getComment(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toCommentResponse(comment, caller)
	return &resp, nil
}

func (s *commentService) getComment(ctx context.Context, id uint) (*model.Comment, error) {
	comment, err := s.repo.Comment.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrCommentNotFound
		}
		s.logger.Error("查询评论失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return comment, nil
}

func (s *commentService) ensureJamPost(ctx context.Context, jamPostID uint) error {
	if _, err := s.repo.JamPost.GetByID(ctx, jamPostID); err != nil {
		if pkgerrors.IsNotFound(err) {
			return ErrJamPostNotFound
		}
		s.logger.Error("查询上报失败", zap.Uint("id", jamPostID), zap.Error(err))
		return err
	}
	return nil
}
