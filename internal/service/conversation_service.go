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

// ── 会话模块业务错误 ──

var (
	ErrConversationNotFound = errors.New("会话不存在")
	ErrInvalidParticipants  = errors.New("会话双方必须是两个不同的用户")
	ErrParticipantNotFound  = errors.New("会话参与用户不存在")
	ErrConversationExists   = errors.New("两名用户之间已存在会话")
)

// ConversationService 双人会话业务接口；参与者或管理员可查看与删除
type ConversationService interface {
	// List 管理员返回全部会话，普通用户仅返回自己参与的
	List(ctx context.Context, caller Caller) ([]dto.ConversationResponse, error)
	Get(ctx context.Context, caller Caller, id uint) (*dto.ConversationResponse, error)
	Create(ctx context.Context, caller Caller, req *dto.CreateConversationRequest) (*dto.ConversationResponse, error)
	// Update 仅管理员
	Update(ctx context.Context, caller Caller, id uint, req *dto.UpdateConversationRequest) (*dto.ConversationResponse, error)
	Delete(ctx context.Context, caller Caller, id uint) error
}

type conversationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewConversationService 创建 ConversationService 实例
func NewConversationService(repo *repository.Repository, logger *zap.Logger) ConversationService {
	return &conversationService{repo: repo, logger: logger}
}

func (s *conversationService) List(ctx context.Context, caller Caller) ([]dto.ConversationResponse, error) {
	var scope *uint
	if !caller.IsAdmin() {
		scope = &caller.UserID
	}

	convs, err := s.repo.Conversation.List(ctx, scope)
	if err != nil {
		s.logger.Error("查询会话列表失败", zap.Uint("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.ConversationResponse, 0, len(convs))
	for i := range convs {
		list = append(list, toConversationResponse(&convs[i], false))
	}
	return list, nil
}

func (s *conversationService) Get(ctx context.Context, caller Caller, id uint) (*dto.ConversationResponse, error) {
	conv, err := s.repo.Conversation.GetWithMessages(ctx, id)
	if err != nil {
		return nil, s.notFoundOr(err, id)
	}
	if !canAccess(caller, conv) {
		return nil, ErrNoPermission
	}

	resp := toConversationResponse(conv, true)
	return &resp, nil
}

func (s *conversationService) Create(ctx context.Context, caller Caller, req *dto.CreateConversationRequest) (*dto.ConversationResponse, error) {
	user1ID := req.User1ID
	if !caller.IsAdmin() || user1ID == 0 {
		user1ID = caller.UserID
	}

	if err := s.checkParticipants(ctx, user1ID, req.User2ID, 0); err != nil {
		return nil, err
	}

	conv := &model.Conversation{User1ID: user1ID, User2ID: req.User2ID}
	if err := s.repo.Conversation.Create(ctx, conv); err != nil {
		// 并发创建时由 (LEAST, GREATEST) 唯一索引兜底
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrConversationExists
		}
		s.logger.Error("创建会话失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("会话已创建",
		zap.Uint("id", conv.ID),
		zap.Uint("user1_id", user1ID),
		zap.Uint("user2_id", req.User2ID),
	)
	return s.reload(ctx, conv.ID)
}

func (s *conversationService) Update(ctx context.Context, caller Caller, id uint, req *dto.UpdateConversationRequest) (*dto.ConversationResponse, error) {
	if !caller.IsAdmin() {
		return nil, ErrNoPermission
	}

	conv, err := s.getConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkParticipants(ctx, req.User1ID, req.User2ID, id); err != nil {
		return nil, err
	}

	conv.User1ID, conv.User2ID = req.User1ID, req.User2ID
	if err := s.repo.Conversation.Update(ctx, conv); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrConversationExists
		}
		s.logger.Error("更新会话失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	return s.reload(ctx, id)
}

func (s *conversationService) Delete(ctx context.Context, caller Caller, id uint) error {
	conv, err := s.getConversation(ctx, id)
	if err != nil {
		return err
	}
	if !canAccess(caller, conv) {
		return ErrNoPermission
	}

	if err := s.repo.Conversation.Delete(ctx, id); err != nil {
		s.logger.Error("删除会话失败", zap.Uint("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("会话已删除", zap.Uint("id", id), zap.Uint("operator", caller.UserID))
	return nil
}

// ── 内部辅助方法 ──

// canAccess 会话参与者或管理员
func canAccess(caller Caller, conv *model.Conversation) bool {
	return caller.IsAdmin() || conv.HasParticipant(caller.UserID)
}

// checkParticipants 双方不同且均存在，且两人之间没有其他会话
func (s *conversationService) checkParticipants(ctx context.Context, user1ID, user2ID, excludeID uint) error {
	if user1ID == 0 || user2ID == 0 || user1ID == user2ID {
		return ErrInvalidParticipants
	}
	for _, id := range []uint{user1ID, user2ID} {
		if _, err := s.repo.User.GetByID(ctx, id); err != nil {
			if pkgerrors.IsNotFound(err) {
				return ErrParticipantNotFound
			}
			s.logger.Error("查询用户失败", zap.Uint("user_id", id), zap.Error(err))
			return err
		}
	}

	if _, err := s.repo.Conversation.FindBetween(ctx, user1ID, user2ID, excludeID); err == nil {
		return ErrConversationExists
	} else if !pkgerrors.IsNotFound(err) {
		s.logger.Error("查询会话失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *conversationService) reload(ctx context.Context, id uint) (*dto.ConversationResponse, error) {
	conv, err := s.getConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toConversationResponse(conv, false)
	return &resp, nil
}

func (s *conversationService) getConversation(ctx context.Context, id uint) (*model.Conversation, error) {
	conv, err := s.repo.Conversation.GetByID(ctx, id)
	if err != nil {
		return nil, s.notFoundOr(err, id)
	}
	return conv, nil
}

func (s *conversationService) notFoundOr(err error, id uint) error {
	if pkgerrors.IsNotFound(err) {
		return ErrConversationNotFound
	}
	s.logger.Error("查询会话失败", zap.Uint("id", id), zap.Error(err))
	return err
}
