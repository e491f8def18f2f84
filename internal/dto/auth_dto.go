package dto

import (
	"time"

	"pipedash/internal/model"
)

// OAuthCallbackQuery GitLab OAuth 回调参数
type OAuthCallbackQuery struct {
	Code  string `form:"code"`
	State string `form:"state"`
	Error string `form:"error"`
}

// UserResponse 用户信息
type UserResponse struct {
	ID          int64      `json:"id"`
	ProviderID  int64      `json:"provider_id"`
	Username    string     `json:"username"`
	Name        string     `json:"name"`
	Email       *string    `json:"email"`
	AvatarURL   *string    `json:"avatar_url"`
	Role        model.Role `json:"role"`
	LastLoginAt *string    `json:"last_login_at"`
}

// NewUserResponse 模型转换为响应
func NewUserResponse(u *model.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		ProviderID:  u.ProviderID,
		Username:    u.Username,
		Name:        u.Name,
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
		Role:        u.Role,
		LastLoginAt: formatTimePtr(u.LastLoginAt),
	}
}

// SessionInfo 会话元数据
type SessionInfo struct {
	ExpiresAt string `json:"expires_at"`
}

// SessionResponse 当前会话，未登录时两个字段均为 null
type SessionResponse struct {
	User    *UserResponse `json:"user"`
	Session *SessionInfo  `json:"session"`
}

// NewSessionResponse 构造会话响应，session 为 nil 时返回空会话
func NewSessionResponse(session *model.Session) *SessionResponse {
	if session == nil || session.User == nil {
		return &SessionResponse{}
	}
	return &SessionResponse{
		User:    NewUserResponse(session.User),
		Session: &SessionInfo{ExpiresAt: session.ExpiresAt.Format(time.RFC3339)},
	}
}
