package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Search string `form:"search" binding:"omitempty,max=100"`
}

// AssignRoleRequest 分配角色请求
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin user"`
}

// CreateUserRequest 管理员创建用户，角色缺省为 user
type CreateUserRequest struct {
	Name     string `json:"name"     binding:"required,min=2,max=255"`
	Email    string `json:"email"    binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=100"`
	Role     string `json:"role"     binding:"omitempty,oneof=admin user"`
}

// UpdateUserRequest 管理员更新用户（部分更新）
type UpdateUserRequest struct {
	Name     *string `json:"name"     binding:"omitempty,min=2,max=255"`
	Email    *string `json:"email"    binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,min=6,max=100"`
	Role     *string `json:"role"     binding:"omitempty,oneof=admin user"`
	Avatar   *string `json:"avatar"   binding:"omitempty,max=500"`
}

// UpdateProfileRequest 用户更新个人资料，不可修改角色
type UpdateProfileRequest struct {
	Name     *string `json:"name"     binding:"omitempty,min=2,max=255"`
	Email    *string `json:"email"    binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,min=6,max=100"`
	Avatar   *string `json:"avatar"   binding:"omitempty,max=500"`
}
