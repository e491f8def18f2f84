package gitlab

import (
	"context"
	"net/http"
	"strconv"
)

// HookOptions webhook 注册参数
type HookOptions struct {
	URL                   string
	Token                 string // 作为 X-Gitlab-Token 回传
	PipelineEvents        bool
	JobEvents             bool
	PushEvents            bool
	EnableSSLVerification bool
}

type createHookRequest struct {
	URL                   string `json:"url"`
	Token                 string `json:"token,omitempty"`
	PipelineEvents        bool   `json:"pipeline_events"`
	JobEvents             bool   `json:"job_events"`
	PushEvents            bool   `json:"push_events"`
	EnableSSLVerification bool   `json:"enable_ssl_verification"`
}

// CreateHook 注册项目 webhook
func (c *Client) CreateHook(ctx context.Context, projectID int64, opts HookOptions) (*Hook, error) {
	body := createHookRequest(opts)

	var hook Hook
	if err := c.do(ctx, http.MethodPost, projectPath(projectID, "hooks"), nil, body, &hook); err != nil {
		return nil, err
	}
	return &hook, nil
}

// ListHooks 列出项目 webhook
func (c *Client) ListHooks(ctx context.Context, projectID int64) ([]Hook, error) {
	var hooks []Hook
	if err := c.do(ctx, http.MethodGet, projectPath(projectID, "hooks"), nil, nil, &hooks); err != nil {
		return nil, err
	}
	return hooks, nil
}

// DeleteHook 删除项目 webhook
func (c *Client) DeleteHook(ctx context.Context, projectID, hookID int64) error {
	return c.do(ctx, http.MethodDelete, projectPath(projectID, "hooks", strconv.FormatInt(hookID, 10)), nil, nil, nil)
}
