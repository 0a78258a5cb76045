package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"jam-radar/backend/internal/dto"
	"jam-radar/backend/internal/service"
	"jam-radar/backend/pkg/response"
)

// CommentHandler 评论 HTTP 处理器
type CommentHandler struct {
	commentSvc service.CommentService
}

// NewCommentHandler 创建 CommentHandler
func NewCommentHandler(commentSvc service.CommentService) *CommentHandler {
	return &CommentHandler{commentSvc: commentSvc}
}

// ListComments 某条上报的评论
// GET /api/v1/jam-posts/:id/comments
func (h *CommentHandler) ListComments(c *gin.Context) {
	jamPostID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.commentSvc.List(c.Request.Context(), caller, jamPostID, &req)
	if err != nil {
		h.handleCommentError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetLimit(dto.DefaultCommentLimit))
}

// CreateComment 发表评论
// POST /api/v1/jam-posts/:id/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	jamPostID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	comment, err := h.commentSvc.Create(c.Request.Context(), caller, jamPostID, &req)
	if err != nil {
		h.handleCommentError(c, err)
		return
	}

	response.Created(c, comment)
}

// UpdateComment 修改评论
// PUT /api/v1/comments/:id
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	comment, err := h.commentSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleCommentError(c, err)
		return
	}

	response.OK(c, comment)
}

// DeleteComment 删除评论
// DELETE /api/v1/comments/:id
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.commentSvc.Delete(c.Request.Context(), caller, id); err != nil {
		h.handleCommentError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleCommentError 统一处理评论模块业务错误
func (h *CommentHandler) handleCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCommentNotFound):
		response.NotFound(c, 14001, "评论不存在")
	case errors.Is(err, service.ErrCommentEmpty):
		response.BadRequest(c, 14002, "评论内容不能为空")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 14003, "只有作者或管理员可以操作")
	case errors.Is(err, service.ErrJamPostNotFound):
		response.NotFound(c, 13001, "拥堵上报不存在")
	default:
		response.InternalError(c)
	}
}
