package dto

// ── 会话与消息模块 DTO ──

// CreateConversationRequest 创建会话；非管理员的 user1_id 固定为本人
type CreateConversationRequest struct {
	User1ID uint `json:"user1_id" binding:"omitempty,min=1"`
	User2ID uint `json:"user2_id" binding:"required,min=1"`
}

// UpdateConversationRequest 管理员修改会话双方
type UpdateConversationRequest struct {
	User1ID uint `json:"user1_id" binding:"required,min=1"`
	User2ID uint `json:"user2_id" binding:"required,min=1"`
}

// ConversationResponse 会话信息；列表中仅附带最新一条消息
type ConversationResponse struct {
	ID          uint              `json:"id"`
	User1ID     uint              `json:"user1_id"`
	User2ID     uint              `json:"user2_id"`
	User1       *UserSummary      `json:"user1,omitempty"`
	User2       *UserSummary      `json:"user2,omitempty"`
	LastMessage *MessageResponse  `json:"last_message,omitempty"`
	Messages    []MessageResponse `json:"messages,omitempty"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

// MessageRequest 发送消息；sender_id 仅管理员可指定，message_type 缺省时自动推断
type MessageRequest struct {
	SenderID    uint    `json:"sender_id"    binding:"omitempty,min=1"`
	Content     *string `json:"content"      binding:"omitempty,max=5000"`
	Image       *string `json:"image"        binding:"omitempty,max=500"`
	MessageType string  `json:"message_type" binding:"omitempty,oneof=text image text_image"`
}

// UpdateMessageRequest 编辑消息；省略的字段保持不变，空字符串表示清除
type UpdateMessageRequest struct {
	Content     *string `json:"content"      binding:"omitempty,max=5000"`
	Image       *string `json:"image"        binding:"omitempty,max=500"`
	MessageType string  `json:"message_type" binding:"omitempty,oneof=text image text_image"`
}

// MessageResponse 消息信息
type MessageResponse struct {
	ID             uint         `json:"id"`
	ConversationID uint         `json:"conversation_id"`
	SenderID       uint         `json:"sender_id"`
	Sender         *UserSummary `json:"sender,omitempty"`
	Content        *string      `json:"content,omitempty"`
	Image          *string      `json:"image,omitempty"`
	MessageType    string       `json:"message_type"`
	IsRead         bool         `json:"is_read"`
	CreatedAt      string       `json:"created_at"`
	UpdatedAt      string       `json:"updated_at"`
}
