package model

import "time"

// Role 用户角色
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User GitLab 登录用户
// 首次 OAuth 登录时创建，之后每次登录刷新资料，不做删除
type User struct {
	BaseModel
	ProviderID  int64      `gorm:"not null;uniqueIndex" json:"provider_id"` // GitLab user id
	Username    string     `gorm:"size:255;not null" json:"username"`
	Name        string     `gorm:"size:255" json:"name"`
	Email       *string    `gorm:"size:255" json:"email"`
	AvatarURL   *string    `gorm:"size:512" json:"avatar_url"`
	Role        Role       `gorm:"size:20;not null;default:'USER'" json:"role"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
