package model

import "time"

// Assignment 作业表：对应 assignments
// 完成状态（rendu）不落库，每次查询时由 submissions 计算
type Assignment struct {
	AssignmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"_id"`
	Title        string    `gorm:"type:varchar(255);not null"                     json:"nom"`
	DueDate      time.Time `gorm:"not null;index"                                 json:"dateDeRendu"`
	Description  string    `gorm:"type:text;not null;default:''"                  json:"description"`
	OwnerID      *string   `gorm:"type:uuid"                                      json:"userId,omitempty"`
	BaseModel
}

func (Assignment) TableName() string { return "assignments" }

// AssignmentStatus 作业 + 针对某个查看范围计算出的完成状态
type AssignmentStatus struct {
	Assignment
	Rendu bool `json:"rendu"`
}
