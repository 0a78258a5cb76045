package model

import "time"

// BaseModel 通用主键与时间戳（所有业务模型嵌入）
type BaseModel struct {
	ID        uint      `gorm:"primaryKey"                         json:"id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ── 枚举 ──

// 用户角色
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// 拥堵等级
const (
	JamLevelLow      = "low"
	JamLevelMedium   = "medium"
	JamLevelHigh     = "high"
	JamLevelCritical = "critical"
)

// JamLevels 全部拥堵等级（展示顺序）
var JamLevels = []string{JamLevelLow, JamLevelMedium, JamLevelHigh, JamLevelCritical}

// 反应类型
const (
	ReactionLike     = "like"
	ReactionDislike  = "dislike"
	ReactionHelpful  = "helpful"
	ReactionAccurate = "accurate"
)

// ReactionTypes 全部反应类型
var ReactionTypes = []string{ReactionLike, ReactionDislike, ReactionHelpful, ReactionAccurate}

// 通知类型
const (
	NotificationNearbyJam   = "nearby_jam"
	NotificationJamUpdate   = "jam_update"
	NotificationJamResolved = "jam_resolved"
	NotificationGeneral     = "general"
)

// NotificationTypes 全部通知类型
var NotificationTypes = []string{NotificationNearbyJam, NotificationJamUpdate, NotificationJamResolved, NotificationGeneral}

// 消息类型
const (
	MessageText      = "text"
	MessageImage     = "image"
	MessageTextImage = "text_image"
)

// MessageTypes 全部消息类型
var MessageTypes = []string{MessageText, MessageImage, MessageTextImage}

// InferMessageType 按是否含文本与图片推断消息类型
func InferMessageType(hasContent, hasImage bool) string {
	switch {
	case hasContent && hasImage:
		return MessageTextImage
	case hasImage:
		return MessageImage
	default:
		return MessageText
	}
}

// ValidRole 角色是否合法
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// ValidJamLevel 拥堵等级是否合法
func ValidJamLevel(level string) bool {
	return contains(JamLevels, level)
}

// ValidReactionType 反应类型是否合法
func ValidReactionType(t string) bool {
	return contains(ReactionTypes, t)
}

// ValidNotificationType 通知类型是否合法
func ValidNotificationType(t string) bool {
	return contains(NotificationTypes, t)
}

// ValidMessageType 消息类型是否合法
func ValidMessageType(t string) bool {
	return contains(MessageTypes, t)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
