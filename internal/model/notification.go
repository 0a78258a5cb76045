package model

// Notification 通知表，对应 notifications
// (user_id, jam_post_id, type) 唯一；jam_post_id 为空时由部分唯一索引 (user_id, type) 去重
type Notification struct {
	BaseModel
	UserID    uint     `gorm:"not null;uniqueIndex:uk_notifications_user_jam_type,priority:1;uniqueIndex:uk_notifications_user_type_nojam,priority:1,where:jam_post_id IS NULL" json:"user_id"`
	JamPostID *uint    `gorm:"uniqueIndex:uk_notifications_user_jam_type,priority:2"          json:"jam_post_id"`
	Message   string   `gorm:"type:text;not null"                                             json:"message"`
	Type      string   `gorm:"type:varchar(20);not null;uniqueIndex:uk_notifications_user_jam_type,priority:3;uniqueIndex:uk_notifications_user_type_nojam,priority:2,where:jam_post_id IS NULL" json:"type"`
	IsRead    bool     `gorm:"not null;default:false"                                         json:"is_read"`
	Distance  *float64 `gorm:"type:numeric(10,2)"                                             json:"distance"` // 米，仅距离触发类通知有值

	JamPost *JamPost `gorm:"foreignKey:JamPostID" json:"jam_post,omitempty"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// NotificationFilter 通知查询条件，UserID 必填（归属隔离）
type NotificationFilter struct {
	UserID    uint
	ID        *uint
	JamPostID *uint
	NoJamPost bool // 仅匹配 jam_post_id 为空的通知
	Type      *string
	IsRead    *bool
}
