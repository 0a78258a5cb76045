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

// ── 消息模块业务错误 ──

var (
	ErrMessageNotFound    = errors.New("消息不存在")
	ErrEmptyMessage       = errors.New("消息必须包含文本或图片")
	ErrInvalidSender      = errors.New("发送者必须是会话参与者")
	ErrInvalidMessageType = errors.New("无效的消息类型")
)

// MessageService 会话消息业务接口
type MessageService interface {
	// List 会话参与者或管理员可见，按发送时间正序
	List(ctx context.Context, caller Caller, conversationID uint) ([]dto.MessageResponse, error)
	Create(ctx context.Context, caller Caller, conversationID uint, req *dto.MessageRequest) (*dto.MessageResponse, error)
	// Update / Delete 仅发送者或管理员
	Update(ctx context.Context, caller Caller, id uint, req *dto.UpdateMessageRequest) (*dto.MessageResponse, error)
	Delete(ctx context.Context, caller Caller, id uint) error
}

type messageService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewMessageService 创建 MessageService 实例
func NewMessageService(repo *repository.Repository, logger *zap.Logger) MessageService {
	return &messageService{repo: repo, logger: logger}
}

func (s *messageService) List(ctx context.Context, caller Caller, conversationID uint) ([]dto.MessageResponse, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !canAccess(caller, conv) {
		return nil, ErrNoPermission
	}

	msgs, err := s.repo.Message.ListByConversation(ctx, conversationID)
	if err != nil {
		s.logger.Error("查询消息列表失败", zap.Uint("conversation_id", conversationID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		list = append(list, toMessageResponse(&msgs[i]))
	}
	return list, nil
}

func (s *messageService) Create(ctx context.Context, caller Caller, conversationID uint, req *dto.MessageRequest) (*dto.MessageResponse, error) {
	content, image := trimmed(req.Content), trimmed(req.Image)
	msgType, err := resolveMessageType(req.MessageType, content, image)
	if err != nil {
		return nil, err
	}

	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	// 管理员可代任一参与者发送，普通用户只能以本人身份发送
	senderID := caller.UserID
	if caller.IsAdmin() && req.SenderID != 0 {
		senderID = req.SenderID
	}
	if !conv.HasParticipant(senderID) {
		if caller.IsAdmin() {
			return nil, ErrInvalidSender
		}
		return nil, ErrNoPermission
	}

	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Image:          image,
		MessageType:    msgType,
	}
	if err := s.repo.Message.Create(ctx, msg); err != nil {
		s.logger.Error("发送消息失败", zap.Uint("conversation_id", conversationID), zap.Error(err))
		return nil, err
	}

	return s.reload(ctx, msg.ID)
}

func (s *messageService) Update(ctx context.Context, caller Caller, id uint, req *dto.UpdateMessageRequest) (*dto.MessageResponse, error) {
	msg, err := s.getMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanModify(msg.SenderID) {
		return nil, ErrNoPermission
	}

	content, image := msg.Content, msg.Image
	if req.Content != nil {
		content = trimmed(req.Content)
	}
	if req.Image != nil {
		image = trimmed(req.Image)
	}
	msgType, err := resolveMessageType(req.MessageType, content, image)
	if err != nil {
		return nil, err
	}

	msg.Content, msg.Image, msg.MessageType = content, image, msgType
	if err := s.repo.Message.Update(ctx, msg); err != nil {
		s.logger.Error("更新消息失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	return s.reload(ctx, id)
}

func (s *messageService) Delete(ctx context.Context, caller Caller, id uint) error {
	msg, err := s.getMessage(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanModify(msg.SenderID) {
		return ErrNoPermission
	}

	if err := s.repo.Message.Delete(ctx, id); err != nil {
		s.logger.Error("删除消息失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

// trimmed 去除首尾空白，结果为空时返回 nil
func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

// resolveMessageType 校验内容非空；未指定类型时按内容推断
func resolveMessageType(requested string, content, image *string) (string, error) {
	if content == nil && image == nil {
		return "", ErrEmptyMessage
	}
	if requested == "" {
		return model.InferMessageType(content != nil, image != nil), nil
	}
	if !model.ValidMessageType(requested) {
		return "", ErrInvalidMessageType
	}
	return requested, nil
}

func (s *messageService) reload(ctx context.Context, id uint) (*dto.MessageResponse, error) {
	msg, err := s.getMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toMessageResponse(msg)
	return &resp, nil
}

func (s *messageService) getMessage(ctx context.Context, id uint) (*model.Message, error) {
	msg, err := s.repo.Message.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrMessageNotFound
		}
		s.logger.Error("查询消息失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return msg, nil
}

func (s *messageService) getConversation(ctx context.Context, id uint) (*model.Conversation, error) {
	conv, err := s.repo.Conversation.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrConversationNotFound
		}
		s.logger.Error("查询会话失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return conv, nil
}
