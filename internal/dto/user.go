package dto

// ── 用户模块 DTO ──

// CreateUserRequest 注册请求
// IsAdmin 仅在调用方本身是管理员时生效
type CreateUserRequest struct {
	Username string `json:"username" binding:"notblank,max=100"`
	Password string `json:"password" binding:"required,min=1,max=72"`
	Name     string `json:"name"     binding:"max=100"`
	IsAdmin  bool   `json:"isAdmin"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"isAdmin"`
	Role     string `json:"role"`
}
