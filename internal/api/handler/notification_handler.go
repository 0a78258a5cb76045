package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"jam-radar/backend/internal/dto"
	"jam-radar/backend/internal/service"
	"jam-radar/backend/pkg/response"
)

// 非错误结果的提示文案，客户端据此区分
const (
	msgNotificationCreated = "Nearby jam notification created"
	msgNotificationExists  = "Notification already exists"
	msgOutsideRadius       = "Jam is outside notification radius"
)

// NotificationHandler 通知 HTTP 处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// ────────────────────── 创建 ──────────────────────

// CreateNearbyJam 按距离判定是否生成附近拥堵通知
// POST /api/v1/notifications/nearby-jam
//
// 201 新建；200 已通知过或超出半径；404 上报不存在
func (h *NotificationHandler) CreateNearbyJam(c *gin.Context) {
	var req dto.NearbyJamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.notificationSvc.EvaluateProximity(
		c.Request.Context(), caller, req.JamPostID,
		*req.UserLatitude, *req.UserLongitude, req.Radius,
	)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	switch {
	case result.Created:
		response.CreatedWithMessage(c, msgNotificationCreated, result)
	case result.WithinRadius:
		response.OKWithMessage(c, msgNotificationExists, result)
	default:
		response.OKWithMessage(c, msgOutsideRadius, result)
	}
}

// CreateNotification 通用创建（同样按 user/jam_post/type 去重）
// POST /api/v1/notifications
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	n, created, err := h.notificationSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	if !created {
		response.OKWithMessage(c, msgNotificationExists, n)
		return
	}
	response.Created(c, n)
}

// ────────────────────── 查询 ──────────────────────

// ListNotifications 当前用户全部通知，最新在前
// GET /api/v1/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.notificationSvc.List(c.Request.Context(), caller)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, list)
}

// ListUnread 未读通知
// GET /api/v1/notifications/unread
func (h *NotificationHandler) ListUnread(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.notificationSvc.ListUnread(c.Request.Context(), caller)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, list)
}

// ListByType 按类型查询
// GET /api/v1/notifications/type/:type
func (h *NotificationHandler) ListByType(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.notificationSvc.ListByType(c.Request.Context(), caller, c.Param("type"))
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, list)
}

// UnreadCount 未读数
// GET /api/v1/notifications/count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	count, err := h.notificationSvc.UnreadCount(c.Request.Context(), caller)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, dto.UnreadCountResponse{Count: count})
}

// GetNotification 通知详情
// GET /api/v1/notifications/:id
func (h *NotificationHandler) GetNotification(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	n, err := h.notificationSvc.GetByID(c.Request.Context(), caller, id)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, n)
}

// ────────────────────── 修改 ──────────────────────

// UpdateNotification 更新通知
// PUT /api/v1/notifications/:id
func (h *NotificationHandler) UpdateNotification(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	n, err := h.notificationSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, n)
}

// MarkRead 标记单条已读
// PATCH /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	n, err := h.notificationSvc.MarkRead(c.Request.Context(), caller, id)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, n)
}

// MarkAllRead 全部标记已读
// PATCH /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	updated, err := h.notificationSvc.MarkAllRead(c.Request.Context(), caller)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, dto.MarkAllReadResponse{Updated: updated})
}

// DeleteNotification 删除通知
// DELETE /api/v1/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.notificationSvc.Delete(c.Request.Context(), caller, id); err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleNotificationError 统一处理通知模块业务错误
func (h *NotificationHandler) handleNotificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotificationNotFound):
		response.NotFound(c, 15001, "通知不存在")
	case errors.Is(err, service.ErrInvalidNotificationType):
		response.BadRequest(c, 15002, "无效的通知类型")
	case errors.Is(err, service.ErrNotificationConflict):
		response.Conflict(c, 15003, "同一上报的同类型通知已存在")
	case errors.Is(err, service.ErrInvalidRadius):
		response.BadRequest(c, 15004, "通知半径超出允许范围")
	case errors.Is(err, service.ErrInvalidCoordinates):
		response.BadRequest(c, 15005, "坐标超出范围")
	case errors.Is(err, service.ErrJamPostNotFound):
		response.NotFound(c, 13001, "拥堵上报不存在")
	default:
		response.InternalError(c)
	}
}
