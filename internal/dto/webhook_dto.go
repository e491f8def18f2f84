package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"pipedash/pkg/constants"
)

// GitLabWebhookEvent GitLab pipeline hook 载荷（只保留用到的字段）
type GitLabWebhookEvent struct {
	ObjectKind       string               `json:"object_kind"`
	ObjectAttributes GitLabPipelineAttrs  `json:"object_attributes"`
	Project          GitLabWebhookProject `json:"project"`
	User             *GitLabWebhookUser   `json:"user,omitempty"`
	Builds           []GitLabWebhookBuild `json:"builds,omitempty"`
}

// DecodeWebhookEvent 先只读 object_kind。其他事件的 object_attributes 结构不同，
// 不再解析，只带回 ObjectKind
func DecodeWebhookEvent(body []byte) (*GitLabWebhookEvent, error) {
	var head struct {
		ObjectKind string `json:"object_kind"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, err
	}
	if head.ObjectKind != constants.ObjectKindPipeline {
		return &GitLabWebhookEvent{ObjectKind: head.ObjectKind}, nil
	}

	var event GitLabWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// GitLabPipelineAttrs object_attributes
type GitLabPipelineAttrs struct {
	ID         int64       `json:"id"`
	IID        int64       `json:"iid"`
	Status     string      `json:"status"`
	Ref        string      `json:"ref"`
	SHA        string      `json:"sha"`
	Source     string      `json:"source"`
	Stages     []string    `json:"stages"`
	Stage      string      `json:"stage"` // 部分实例/测试载荷直接携带当前阶段
	URL        string      `json:"url"`
	CreatedAt  *GitLabTime `json:"created_at"`
	StartedAt  *GitLabTime `json:"started_at"`
	FinishedAt *GitLabTime `json:"finished_at"`
	Duration   *int        `json:"duration"`
}

// GitLabWebhookProject project
type GitLabWebhookProject struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	PathWithNamespace string `json:"path_with_namespace"`
	WebURL            string `json:"web_url"`
}

// GitLabWebhookUser user
type GitLabWebhookUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// GitLabWebhookBuild builds[]
type GitLabWebhookBuild struct {
	ID     int64  `json:"id"`
	Stage  string `json:"stage"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// CurrentStage 优先使用 stage 字段，其次 stages 的第一个
func (a *GitLabPipelineAttrs) CurrentStage() *string {
	if a.Stage != "" {
		s := a.Stage
		return &s
	}
	if len(a.Stages) > 0 && a.Stages[0] != "" {
		s := a.Stages[0]
		return &s
	}
	return nil
}

// WebhookAction webhook 处理结果
type WebhookAction string

const (
	WebhookActionUpdated  WebhookAction = "updated"  // 已写入镜像
	WebhookActionIgnored  WebhookAction = "ignored"  // 非 pipeline 事件
	WebhookActionDropped  WebhookAction = "dropped"  // 本地无对应项目
	WebhookActionRejected WebhookAction = "rejected" // 状态无法识别
)

// WebhookResult webhook 响应
type WebhookResult struct {
	Received   bool          `json:"received"`
	Action     WebhookAction `json:"action"`
	PipelineID int64         `json:"pipeline_id,omitempty"`
}

// gitLabTimeLayouts webhook 使用 "2006-01-02 15:04:05 UTC"，REST API 使用 RFC3339
var gitLabTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05.000-07:00",
}

// GitLabTime 兼容 GitLab 多种时间格式，无法识别的取值按缺失处理
type GitLabTime struct {
	time.Time
}

func (t *GitLabTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil || raw == "" {
		return nil
	}
	for _, layout := range gitLabTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

func (t GitLabTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Ptr 转为 *time.Time，零值返回 nil
func (t *GitLabTime) Ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
