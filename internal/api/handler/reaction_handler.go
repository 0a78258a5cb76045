package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"jam-radar/backend/internal/dto"
	"jam-radar/backend/internal/service"
	"jam-radar/backend/pkg/response"
)

// ReactionHandler 反应 HTTP 处理器
type ReactionHandler struct {
	reactionSvc service.ReactionService
}

// NewReactionHandler 创建 ReactionHandler
func NewReactionHandler(reactionSvc service.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactionSvc: reactionSvc}
}

// GetReactions 反应汇总
// GET /api/v1/jam-posts/:id/reactions
func (h *ReactionHandler) GetReactions(c *gin.Context) {
	jamPostID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	summary, err := h.reactionSvc.Summary(c.Request.Context(), caller, jamPostID)
	if err != nil {
		h.handleReactionError(c, err)
		return
	}

	response.OK(c, summary)
}

// React 提交或替换反应
// POST /api/v1/jam-posts/:id/reactions
func (h *ReactionHandler) React(c *gin.Context) {
	jamPostID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	summary, err := h.reactionSvc.React(c.Request.Context(), caller, jamPostID, req.ReactionType)
	if err != nil {
		h.handleReactionError(c, err)
		return
	}

	response.OK(c, summary)
}

// RemoveReaction 撤销反应
// DELETE /api/v1/jam-posts/:id/reactions
func (h *ReactionHandler) RemoveReaction(c *gin.Context) {
	jamPostID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	summary, err := h.reactionSvc.Remove(c.Request.Context(), caller, jamPostID)
	if err != nil {
		h.handleReactionError(c, err)
		return
	}

	response.OK(c, summary)
}

// handleReactionError 统一处理反应模块业务错误
func (h *ReactionHandler) handleReactionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidReactionType):
		response.BadRequest(c, 14101, "无效的反应类型")
	case errors.Is(err, service.ErrReactionNotFound):
		response.NotFound(c, 14102, "尚未对该上报做出反应")
	case errors.Is(err, service.ErrJamPostNotFound):
		response.NotFound(c, 13001, "拥堵上报不存在")
	default:
		response.InternalError(c)
	}
}
