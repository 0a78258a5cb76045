package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"jam-radar/backend/internal/dto"
	"jam-radar/backend/internal/service"
	"jam-radar/backend/pkg/response"
)

// ConversationHandler 会话与消息 HTTP 处理器
type ConversationHandler struct {
	convSvc service.ConversationService
	msgSvc  service.MessageService
}

// NewConversationHandler 创建 ConversationHandler
func NewConversationHandler(convSvc service.ConversationService, msgSvc service.MessageService) *ConversationHandler {
	return &ConversationHandler{convSvc: convSvc, msgSvc: msgSvc}
}

// ── 会话 ──

// ListConversations 会话列表（管理员全部，普通用户仅本人参与）
// GET /api/v1/conversations
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.convSvc.List(c.Request.Context(), caller)
	if err != nil {
		handleConversationError(c, err)
		return
	}

	response.OK(c, list)
}

// GetConversation 会话详情（含全部消息）
// GET /api/v1/conversations/:id
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	conv, err := h.convSvc.Get(c.Request.Context(), caller, id)
	if err != nil {
		handleConversationError(c, err)
		return
	}

	response.OK(c, conv)
}

// CreateConversation 创建会话
// POST /api/v1/conversations
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	var req dto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	conv, err := h.convSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		handleConversationError(c, err)
		return
	}

	response.Created(c, conv)
}

// UpdateConversation 修改会话双方（管理员）
// PUT /api/v1/conversations/:id
func (h *ConversationHandler) UpdateConversation(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	conv, err := h.convSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		handleConversationError(c, err)
		return
	}

	response.OK(c, conv)
}

// DeleteConversation 删除会话及其消息
// DELETE /api/v1/conversations/:id
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.convSvc.Delete(c.Request.Context(), caller, id); err != nil {
		handleConversationError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 消息 ──

// ListMessages 会话消息列表
// GET /api/v1/conversations/:id/messages
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	convID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.msgSvc.List(c.Request.Context(), caller, convID)
	if err != nil {
		handleConversationError(c, err)
		return
	}

	response.OK(c, list)
}

// SendMessage 发送消息
// POST /api/v1/conversations/:id/messages
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	convID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	msg, err := h.msgSvc.Create(c.Request.Context(), caller, convID, &req)
	if err != nil {
		handleConversationError(c, err)
		return
	}

	response.Created(c, msg)
}

// UpdateMessage 编辑消息（发送者或管理员）
// PUT /api/v1/messages/:id
func (h *ConversationHandler) UpdateMessage(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	msg, err := h.msgSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		handleConversationError(c, err)
		return
	}

	response.OK(c, msg)
}

// DeleteMessage 删除消息（发送者或管理员）
// DELETE /api/v1/messages/:id
func (h *ConversationHandler) DeleteMessage(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.msgSvc.Delete(c.Request.Context(), caller, id); err != nil {
		handleConversationError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleConversationError 统一处理会话与消息模块业务错误
func handleConversationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		response.NotFound(c, 16001, "会话不存在")
	case errors.Is(err, service.ErrInvalidParticipants):
		response.BadRequest(c, 16002, "会话双方必须是两个不同的用户")
	case errors.Is(err, service.ErrParticipantNotFound):
		response.NotFound(c, 16003, "会话参与用户不存在")
	case errors.Is(err, service.ErrConversationExists):
		response.BadRequest(c, 16004, "两名用户之间已存在会话")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 16005, "只有会话参与者或管理员可以操作")
	case errors.Is(err, service.ErrMessageNotFound):
		response.NotFound(c, 17001, "消息不存在")
	case errors.Is(err, service.ErrEmptyMessage):
		response.BadRequest(c, 17002, "消息必须包含文本或图片")
	case errors.Is(err, service.ErrInvalidSender):
		response.BadRequest(c, 17003, "发送者必须是会话参与者")
	case errors.Is(err, service.ErrInvalidMessageType):
		response.BadRequest(c, 17004, "无效的消息类型")
	default:
		response.InternalError(c)
	}
}
