package dto

// ── 通知模块 DTO ──

// CreateNotificationRequest 通用创建通知请求
type CreateNotificationRequest struct {
	JamPostID *uint    `json:"jam_post_id"`
	Message   string   `json:"message"  binding:"required,min=1,max=1000"`
	Type      string   `json:"type"     binding:"required,oneof=nearby_jam jam_update jam_resolved general"`
	Distance  *float64 `json:"distance" binding:"omitempty,min=0"`
}

// NearbyJamRequest 距离触发通知请求
// 坐标使用指针，使 0 成为合法值
type NearbyJamRequest struct {
	JamPostID     uint     `json:"jam_post_id"    binding:"required"`
	UserLatitude  *float64 `json:"user_latitude"  binding:"required,min=-90,max=90"`
	UserLongitude *float64 `json:"user_longitude" binding:"required,min=-180,max=180"`
	Radius        *float64 `json:"radius"         binding:"omitempty,gt=0"` // 米，缺省取配置 default_radius
}

// UpdateNotificationRequest 更新通知（允许修改内容字段）
type UpdateNotificationRequest struct {
	Message  *string  `json:"message"  binding:"omitempty,min=1,max=1000"`
	Type     *string  `json:"type"     binding:"omitempty,oneof=nearby_jam jam_update jam_resolved general"`
	IsRead   *bool    `json:"is_read"`
	Distance *float64 `json:"distance" binding:"omitempty,min=0"`
}

// NotificationResponse 通知信息
type NotificationResponse struct {
	ID        uint            `json:"id"`
	UserID    uint            `json:"user_id"`
	JamPostID *uint           `json:"jam_post_id"`
	Message   string          `json:"message"`
	Type      string          `json:"type"`
	IsRead    bool            `json:"is_read"`
	Distance  *float64        `json:"distance"`
	JamPost   *JamPostSummary `json:"jam_post,omitempty"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

// NearbyJamResponse 距离判定结果
// created=false 且 notification 非空表示已通知过；notification 为空表示超出半径
type NearbyJamResponse struct {
	Created      bool                  `json:"created"`
	WithinRadius bool                  `json:"within_radius"`
	Distance     float64               `json:"distance"`
	Radius       float64               `json:"radius"`
	Notification *NotificationResponse `json:"notification,omitempty"`
}

// UnreadCountResponse 未读数
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// MarkAllReadResponse 全部已读结果
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
