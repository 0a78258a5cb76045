package model

// JamPost 拥堵上报表，对应 jam_posts
type JamPost struct {
	BaseModel
	UserID    uint    `gorm:"not null;index"                                json:"user_id"`
	Latitude  float64 `gorm:"type:numeric(10,8);not null"                   json:"latitude"`
	Longitude float64 `gorm:"type:numeric(11,8);not null"                   json:"longitude"`
	Note      *string `gorm:"type:text"                                     json:"note,omitempty"`
	Image     *string `gorm:"type:varchar(500)"                             json:"image,omitempty"`
	Level     string  `gorm:"type:varchar(20);not null;default:'medium'"    json:"level"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (JamPost) TableName() string { return "jam_posts" }

// Comment 评论表，对应 comments
type Comment struct {
	BaseModel
	UserID    uint   `gorm:"not null"       json:"user_id"`
	JamPostID uint   `gorm:"not null;index" json:"jam_post_id"`
	Content   string `gorm:"type:text;not null" json:"content"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Comment) TableName() string { return "comments" }

// Reaction 反应表，对应 reactions，每个用户对每条上报至多一条
type Reaction struct {
	BaseModel
	UserID       uint   `gorm:"not null;uniqueIndex:uk_reactions_user_jam_post,priority:1" json:"user_id"`
	JamPostID    uint   `gorm:"not null;uniqueIndex:uk_reactions_user_jam_post,priority:2" json:"jam_post_id"`
	ReactionType string `gorm:"type:varchar(20);not null"                                 json:"reaction_type"`
}

// TableName 指定表名
func (Reaction) TableName() string { return "reactions" }
