package model

// Conversation 双人会话表，对应 conversations；同一对用户至多一个会话（不分先后）
type Conversation struct {
	BaseModel
	User1ID uint `gorm:"not null;index" json:"user1_id"`
	User2ID uint `gorm:"not null;index" json:"user2_id"`

	User1    *User     `gorm:"foreignKey:User1ID"        json:"user1,omitempty"`
	User2    *User     `gorm:"foreignKey:User2ID"        json:"user2,omitempty"`
	Messages []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

// TableName 指定表名
func (Conversation) TableName() string { return "conversations" }

// HasParticipant 用户是否为会话一方
func (c *Conversation) HasParticipant(userID uint) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Message 会话消息表，对应 messages；content 与 image 至少有一个
type Message struct {
	BaseModel
	ConversationID uint    `gorm:"not null;index"                          json:"conversation_id"`
	SenderID       uint    `gorm:"not null;index"                          json:"sender_id"`
	Content        *string `gorm:"type:text"                               json:"content,omitempty"`
	Image          *string `gorm:"type:varchar(500)"                       json:"image,omitempty"`
	MessageType    string  `gorm:"type:varchar(20);not null;default:'text'" json:"message_type"`
	IsRead         bool    `gorm:"not null;default:false"                  json:"is_read"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// TableName 指定表名
func (Message) TableName() string { return "messages" }
