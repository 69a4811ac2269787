package dto

import "time"

// ── 作业模块 DTO ──

// AssignmentFilter 列表与导出共用的过滤参数
type AssignmentFilter struct {
	Sort          string `form:"sort"          binding:"omitempty,max=10"`
	Search        string `form:"search"        binding:"omitempty,max=200"`
	HideCompleted bool   `form:"hideCompleted"`
	UserID        string `form:"userId"`
}

// AssignmentListRequest 作业列表查询参数
// GET /api/assignments?page&limit&sort&search&hideCompleted&userId
type AssignmentListRequest struct {
	PaginationRequest
	AssignmentFilter
}

// AssignmentGetRequest 单个作业查询参数
type AssignmentGetRequest struct {
	UserID string `form:"userId"`
}

// CreateAssignmentRequest 创建作业请求
type CreateAssignmentRequest struct {
	Nom         string    `json:"nom"         binding:"notblank,max=255"`
	DateDeRendu time.Time `json:"dateDeRendu" binding:"required"`
	Description string    `json:"description" binding:"max=5000"`
	UserID      *string   `json:"userId"`
	Rendu       bool      `json:"rendu"`
}

// UpdateAssignmentRequest 更新作业请求
// Rendu 为 nil 时不改动提交记录；ID 若提供必须与路径参数一致
type UpdateAssignmentRequest struct {
	ID          *string   `json:"_id"`
	Nom         string    `json:"nom"         binding:"notblank,max=255"`
	DateDeRendu time.Time `json:"dateDeRendu" binding:"required"`
	Description string    `json:"description" binding:"max=5000"`
	UserID      *string   `json:"userId"`
	Rendu       *bool     `json:"rendu"`
}

// AssignmentResponse 作业响应
// 同时输出 _id 与 id，兼容两种前端取值方式
type AssignmentResponse struct {
	ID          string    `json:"_id"`
	IDAlias     string    `json:"id"`
	Nom         string    `json:"nom"`
	DateDeRendu time.Time `json:"dateDeRendu"`
	Description string    `json:"description"`
	UserID      *string   `json:"userId"`
	Rendu       bool      `json:"rendu"`
}

// AssignmentMutationResponse 创建 / 更新结果
type AssignmentMutationResponse struct {
	Message    string              `json:"message"`
	Assignment *AssignmentResponse `json:"assignment"`
}

// DeleteAssignmentResponse 删除结果
type DeleteAssignmentResponse struct {
	Message            string `json:"message"`
	DeletedSubmissions int64  `json:"deletedSubmissions"`
}
