package dto

// ── 认证模块 DTO ──

// RegisterRequest 注册请求（角色固定为 user）
type RegisterRequest struct {
	Name     string `json:"name"     binding:"required,min=2,max=255"`
	Email    string `json:"email"    binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=100"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest 登出请求（请求体可省略）
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}
