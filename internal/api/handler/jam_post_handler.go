package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"jam-radar/backend/internal/dto"
	"jam-radar/backend/internal/service"
	"jam-radar/backend/pkg/response"
)

// JamPostHandler 拥堵上报 HTTP 处理器
type JamPostHandler struct {
	jamPostSvc service.JamPostService
}

// NewJamPostHandler 创建 JamPostHandler
func NewJamPostHandler(jamPostSvc service.JamPostService) *JamPostHandler {
	return &JamPostHandler{jamPostSvc: jamPostSvc}
}

// ListJamPosts 上报列表
// GET /api/v1/jam-posts?page=&limit=&level=&search=&timeFilter=
func (h *JamPostHandler) ListJamPosts(c *gin.Context) {
	var req dto.JamPostListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.jamPostSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleJamPostError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetLimit(dto.DefaultJamPostLimit))
}

// AdminListJamPosts 管理端上报列表
// GET /api/v1/jam-posts/admin
func (h *JamPostHandler) AdminListJamPosts(c *gin.Context) {
	var req dto.JamPostListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.jamPostSvc.AdminList(c.Request.Context(), &req)
	if err != nil {
		h.handleJamPostError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetLimit(dto.DefaultJamPostLimit))
}

// GetStats 管理端统计
// GET /api/v1/jam-posts/admin/stats
func (h *JamPostHandler) GetStats(c *gin.Context) {
	stats, err := h.jamPostSvc.Stats(c.Request.Context())
	if err != nil {
		h.handleJamPostError(c, err)
		return
	}

	response.OK(c, stats)
}

// GetJamPost 上报详情
// GET /api/v1/jam-posts/:id
func (h *JamPostHandler) GetJamPost(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	post, err := h.jamPostSvc.GetByID(c.Request.Context(), caller, id)
	if err != nil {
		h.handleJamPostError(c, err)
		return
	}

	response.OK(c, post)
}

// CreateJamPost 新增上报
// POST /api/v1/jam-posts
func (h *JamPostHandler) CreateJamPost(c *gin.Context) {
	var req dto.CreateJamPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	post, err := h.jamPostSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleJamPostError(c, err)
		return
	}

	response.Created(c, post)
}

// UpdateJamPost 更新上报（作者或管理员）
// PUT /api/v1/jam-posts/:id
func (h *JamPostHandler) UpdateJamPost(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateJamPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	post, err := h.jamPostSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleJamPostError(c, err)
		return
	}

	response.OK(c, post)
}

// DeleteJamPost 删除上报（作者或管理员）
// DELETE /api/v1/jam-posts/:id
func (h *JamPostHandler) DeleteJamPost(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.jamPostSvc.Delete(c.Request.Context(), caller, id); err != nil {
		h.handleJamPostError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleJamPostError 统一处理拥堵上报模块业务错误
func (h *JamPostHandler) handleJamPostError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrJamPostNotFound):
		response.NotFound(c, 13001, "拥堵上报不存在")
	case errors.Is(err, service.ErrTargetUserInvalid):
		response.BadRequest(c, 13002, "指定的上报用户不存在")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 13003, "只有作者或管理员可以操作")
	case errors.Is(err, service.ErrInvalidJamLevel):
		response.BadRequest(c, 13004, "无效的拥堵等级")
	default:
		response.InternalError(c)
	}
}
