package gitlab

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// CreateProjectOptions 创建项目参数
type CreateProjectOptions struct {
	Name        string
	NamespaceID int64 // 0 表示 token 所属用户的个人空间
	Description string
}

type createProjectRequest struct {
	Name                 string `json:"name"`
	NamespaceID          int64  `json:"namespace_id,omitempty"`
	Description          string `json:"description,omitempty"`
	Visibility           string `json:"visibility"`
	InitializeWithReadme bool   `json:"initialize_with_readme"`
}

// CreateProject 创建私有项目并初始化 README
func (c *Client) CreateProject(ctx context.Context, opts CreateProjectOptions) (*Project, error) {
	body := createProjectRequest{
		Name:                 opts.Name,
		NamespaceID:          opts.NamespaceID,
		Description:          opts.Description,
		Visibility:           "private",
		InitializeWithReadme: true,
	}

	var project Project
	if err := c.do(ctx, http.MethodPost, "/projects", nil, body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProject 获取项目
func (c *Client) GetProject(ctx context.Context, projectID int64) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodGet, projectPath(projectID), nil, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// SearchProjects 按名称模糊搜索 token 可见的项目，按最近活动倒序
func (c *Client) SearchProjects(ctx context.Context, search string) ([]Project, error) {
	query := url.Values{
		"search":   {search},
		"order_by": {"last_activity_at"},
		"sort":     {"desc"},
		"per_page": {"100"},
	}

	var projects []Project
	if err := c.do(ctx, http.MethodGet, "/projects", query, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// FindProjectByName 在搜索结果中精确匹配名称（忽略大小写）
func (c *Client) FindProjectByName(ctx context.Context, name string) (*Project, error) {
	projects, err := c.SearchProjects(ctx, name)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if strings.EqualFold(projects[i].Name, name) {
			return &projects[i], nil
		}
	}
	return nil, nil
}

// DeleteProject 删除项目
func (c *Client) DeleteProject(ctx context.Context, projectID int64) error {
	return c.do(ctx, http.MethodDelete, projectPath(projectID), nil, nil, nil)
}
