package repository

import (
	"math"
	"regexp"
	"strings"
)

// ── 完成状态关联 ──

// CompletionScope 完成状态（rendu）的判定范围
//
//   - ViewerID 非空：仅该用户的提交记录计为完成
//   - ViewerID 为空：任意用户的提交记录均计为完成（any-user 模式）
type CompletionScope struct {
	ViewerID string
}

// ScopeForViewer 构造查看范围，viewerID 为空即 any-user 模式
func ScopeForViewer(viewerID string) CompletionScope {
	return CompletionScope{ViewerID: strings.TrimSpace(viewerID)}
}

// AnyUser 是否为 any-user 模式
func (s CompletionScope) AnyUser() bool {
	return s.ViewerID == ""
}

// ── 作业列表查询 ──

// SortOrder 按截止日期排序方向
type SortOrder int

const (
	SortAsc SortOrder = iota
	SortDesc
)

// ParseSortOrder "desc" 为降序，其余为升序
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(s, "desc") {
		return SortDesc
	}
	return SortAsc
}

// AssignmentQuery 作业列表查询计划
// 执行顺序固定：Search → 关联 Scope 计算 rendu → HideCompleted → Sort → Total → 分页
type AssignmentQuery struct {
	Search        string
	HideCompleted bool
	Sort          SortOrder
	Page          int
	Limit         int
	Scope         CompletionScope
}

// Skip 分页偏移量，溢出时取 math.MaxInt（结果为空页）
func (q *AssignmentQuery) Skip() int {
	return Offset(q.Page, q.Limit)
}

// Offset 计算 (page-1)*limit，page 过大时饱和到 math.MaxInt
func Offset(page, limit int) int {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// SearchPattern 转义后的正则（按字面子串匹配，大小写由调用方控制）
func (q *AssignmentQuery) SearchPattern() string {
	return regexp.QuoteMeta(q.Search)
}

// LikePattern 转义后的 LIKE 模式 %search%
func (q *AssignmentQuery) LikePattern() string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q.Search) + "%"
}

// MatchesTitle 大小写不敏感的子串匹配（内存实现与测试使用）
func (q *AssignmentQuery) MatchesTitle(title string) bool {
	if q.Search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(q.Search))
}
