package dto

import (
	"github.com/samber/lo"

	"pipedash/internal/model"
)

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name        string  `json:"name" binding:"required,max=100,project_name"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Domain      *string `json:"domain" binding:"omitempty,fqdn"`
	NamespaceID *int64  `json:"namespace_id" binding:"omitempty,min=1"` // 可选：覆盖默认 group
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Description *string             `json:"description"`
	RemoteID    int64               `json:"remote_id"`
	RemoteURL   string              `json:"remote_url"`
	Status      model.ProjectStatus `json:"status"`
	Domain      *string             `json:"domain"`
	WebhookID   *int64              `json:"webhook_id"`
	UserID      int64               `json:"user_id"`
	Owner       *UserResponse       `json:"owner,omitempty"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at"`
	Pipelines   []*PipelineResponse `json:"pipelines,omitempty"`
	Warning     string              `json:"warning,omitempty"` // 部分步骤失败时的提示
}

// NewProjectResponse 模型转换为响应
func NewProjectResponse(p *model.Project) *ProjectResponse {
	resp := &ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		RemoteID:    p.RemoteID,
		RemoteURL:   p.RemoteURL,
		Status:      p.Status,
		Domain:      p.Domain,
		WebhookID:   p.WebhookID,
		UserID:      p.UserID,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
	if p.User != nil {
		resp.Owner = NewUserResponse(p.User)
	}
	if len(p.Pipelines) > 0 {
		resp.Pipelines = NewPipelineResponses(p.Pipelines)
	}
	return resp
}

// NewProjectResponses 批量转换
func NewProjectResponses(projects []model.Project) []*ProjectResponse {
	return lo.Map(projects, func(p model.Project, _ int) *ProjectResponse {
		return NewProjectResponse(&p)
	})
}

// NamespaceQuery group 搜索参数
type NamespaceQuery struct {
	Search string `form:"search" binding:"omitempty,max=100"`
}

// NamespaceResponse GitLab group
type NamespaceResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullPath string `json:"full_path"`
	WebURL   string `json:"web_url"`
}
