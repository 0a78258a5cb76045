package model

// User 用户表，对应 users
type User struct {
	BaseModel
	Name         string  `gorm:"type:varchar(255);not null"                  json:"name"`
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex:uk_users_email" json:"email"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                  json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'user'"    json:"role"`
	Avatar       *string `gorm:"type:varchar(500)"                           json:"avatar,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
