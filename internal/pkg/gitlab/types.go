package gitlab

import "time"

// User GitLab 用户
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	State     string `json:"state"`
	WebURL    string `json:"web_url"`
}

// Namespace 项目所属命名空间
type Namespace struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Kind     string `json:"kind"` // user, group
	FullPath string `json:"full_path"`
}

// Project GitLab 项目
type Project struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Path              string     `json:"path"`
	PathWithNamespace string     `json:"path_with_namespace"`
	Description       string     `json:"description"`
	WebURL            string     `json:"web_url"`
	HTTPURLToRepo     string     `json:"http_url_to_repo"`
	DefaultBranch     string     `json:"default_branch"`
	Visibility        string     `json:"visibility"`
	Archived          bool       `json:"archived"`
	Namespace         Namespace  `json:"namespace"`
	CreatedAt         *time.Time `json:"created_at"`
	LastActivityAt    *time.Time `json:"last_activity_at"`
}

// Pipeline GitLab 流水线
// Stages 仅部分接口返回
type Pipeline struct {
	ID         int64      `json:"id"`
	IID        int64      `json:"iid"`
	ProjectID  int64      `json:"project_id"`
	Status     string     `json:"status"`
	Source     string     `json:"source"`
	Ref        string     `json:"ref"`
	SHA        string     `json:"sha"`
	WebURL     string     `json:"web_url"`
	Stages     []string   `json:"stages,omitempty"`
	CreatedAt  *time.Time `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Duration   *int       `json:"duration"`
	User       *User      `json:"user,omitempty"`
}

// Job 流水线中的作业
type Job struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Stage         string     `json:"stage"`
	Status        string     `json:"status"`
	Ref           string     `json:"ref"`
	WebURL        string     `json:"web_url"`
	FailureReason string     `json:"failure_reason,omitempty"`
	AllowFailure  bool       `json:"allow_failure"`
	CreatedAt     *time.Time `json:"created_at"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	Duration      *float64   `json:"duration"`
}

// Hook 项目 webhook
type Hook struct {
	ID                    int64      `json:"id"`
	URL                   string     `json:"url"`
	ProjectID             int64      `json:"project_id"`
	PushEvents            bool       `json:"push_events"`
	PipelineEvents        bool       `json:"pipeline_events"`
	JobEvents             bool       `json:"job_events"`
	EnableSSLVerification bool       `json:"enable_ssl_verification"`
	CreatedAt             *time.Time `json:"created_at"`
}

// Group GitLab 群组
type Group struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	FullPath string `json:"full_path"`
	WebURL   string `json:"web_url"`
}

// Variable 触发流水线时传入的变量
type Variable struct {
	Key          string `json:"key"`
	Value        string `json:"value"`
	VariableType string `json:"variable_type,omitempty"` // env_var, file
}
