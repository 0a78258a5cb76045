package dto

// ── 拥堵上报模块 DTO ──

// 列表默认条数
const (
	DefaultJamPostLimit = 10
	DefaultCommentLimit = 50
)

// 时间筛选
const (
	TimeFilterLastHour   = "lastHour"
	TimeFilterLast5Hours = "last5Hours"
	TimeFilterToday      = "today"
	TimeFilterThisWeek   = "thisWeek"
)

// JamPostListRequest 上报列表查询参数
type JamPostListRequest struct {
	LimitRequest
	Level      string `form:"level"       binding:"omitempty,oneof=all low medium high critical"`
	Search     string `form:"search"      binding:"omitempty,max=100"`
	TimeFilter string `form:"timeFilter"  binding:"omitempty,max=20"` // 未知取值按不筛选处理
}

// CreateJamPostRequest 创建上报请求
// UserID 仅管理员可指定（代用户上报）
type CreateJamPostRequest struct {
	UserID    *uint    `json:"user_id"`
	Latitude  *float64 `json:"latitude"  binding:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"required,min=-180,max=180"`
	Note      *string  `json:"note"      binding:"omitempty,max=2000"`
	Image     *string  `json:"image"     binding:"omitempty,max=500"`
	Level     string   `json:"level"     binding:"omitempty,oneof=low medium high critical"`
}

// UpdateJamPostRequest 部分更新上报
type UpdateJamPostRequest struct {
	UserID    *uint    `json:"user_id"`
	Latitude  *float64 `json:"latitude"  binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	Note      *string  `json:"note"      binding:"omitempty,max=2000"`
	Image     *string  `json:"image"     binding:"omitempty,max=500"`
	Level     *string  `json:"level"     binding:"omitempty,oneof=low medium high critical"`
}

// JamPostResponse 上报详情
type JamPostResponse struct {
	ID            uint             `json:"id"`
	UserID        uint             `json:"user_id"`
	Latitude      float64          `json:"latitude"`
	Longitude     float64          `json:"longitude"`
	Note          *string          `json:"note"`
	Image         *string          `json:"image"`
	Level         string           `json:"level"`
	User          *UserSummary     `json:"user,omitempty"`
	CommentCount  int64            `json:"comment_count"`
	Reactions     map[string]int64 `json:"reactions"`
	ReactionTotal int64            `json:"reaction_total"`
	UserReaction  *string          `json:"user_reaction,omitempty"`
	IsOwner       *bool            `json:"is_owner,omitempty"`
	CreatedAt     string           `json:"created_at"`
	UpdatedAt     string           `json:"updated_at"`
}

// JamPostSummary 通知中附带的上报摘要
type JamPostSummary struct {
	ID        uint    `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Note      *string `json:"note"`
	Level     string  `json:"level"`
	Image     *string `json:"image"`
}

// CountByKey 聚合计数
type CountByKey struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// JamPostStatsResponse 管理端统计
type JamPostStatsResponse struct {
	TotalPosts      int64        `json:"total_posts"`
	TotalComments   int64        `json:"total_comments"`
	TotalReactions  int64        `json:"total_reactions"`
	TotalUsers      int64        `json:"total_users"`
	PostsByLevel    []CountByKey `json:"posts_by_level"`
	ReactionsByType []CountByKey `json:"reactions_by_type"`
	RecentPosts     int64        `json:"recent_posts"`    // 近 7 天
	RecentComments  int64        `json:"recent_comments"` // 近 7 天
}

// ── 评论 ──

// CommentRequest 创建 / 更新评论
type CommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=1000"`
}

// CommentResponse 评论信息
type CommentResponse struct {
	ID        uint         `json:"id"`
	JamPostID uint         `json:"jam_post_id"`
	UserID    uint         `json:"user_id"`
	Content   string       `json:"content"`
	User      *UserSummary `json:"user,omitempty"`
	IsOwner   bool         `json:"is_owner"`
	CreatedAt string       `json:"created_at"`
	UpdatedAt string       `json:"updated_at"`
}

// ── 反应 ──

// ReactionRequest 提交反应
type ReactionRequest struct {
	ReactionType string `json:"reaction_type" binding:"required,oneof=like dislike helpful accurate"`
}

// ReactionSummaryResponse 某条上报的反应汇总
type ReactionSummaryResponse struct {
	JamPostID    uint             `json:"jam_post_id"`
	Reactions    map[string]int64 `json:"reactions"`
	Total        int64            `json:"total"`
	UserReaction *string          `json:"user_reaction"`
}
