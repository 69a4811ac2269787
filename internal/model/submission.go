package model

import "time"

// Submission 提交记录表：对应 submissions
// 表示「某用户已完成某作业」，(assignment_id, user_id) 唯一
type Submission struct {
	SubmissionID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                  json:"_id"`
	AssignmentID string    `gorm:"type:uuid;not null;uniqueIndex:uq_submissions_assignment_user" json:"assignmentId"`
	UserID       string    `gorm:"type:uuid;not null;uniqueIndex:uq_submissions_assignment_user" json:"userId"`
	Date         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                             json:"date"`
}

func (Submission) TableName() string { return "submissions" }
