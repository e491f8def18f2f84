package constants

import "time"

// Cookie 名称
const (
	SessionCookieName    = "session-token"
	OAuthStateCookieName = "oauth_state"
)

// 会话相关
const (
	SessionMaxAgeSeconds    = 30 * 24 * 60 * 60 // 30 天
	OAuthStateMaxAgeSeconds = 10 * 60           // 10 分钟
)

// gin.Context 中的键
const (
	ContextKeyUser      = "user"
	ContextKeyUserID    = "uid"
	ContextKeyRequestID = "X-Request-ID"
)

// HTTP Header
const (
	HeaderGitLabToken = "X-Gitlab-Token"
	HeaderGitLabEvent = "X-Gitlab-Event"
	HeaderRequestID   = "X-Request-ID"
)

// GitLab webhook object_kind
const (
	ObjectKindPipeline = "pipeline"
	ObjectKindBuild    = "build"
)

// GitLab webhook 事件类别
const (
	HookEventPipeline = "pipeline_events"
	HookEventJob      = "job_events"
	HookEventPush     = "push_events"
)

// OAuth 回调错误码
const (
	OAuthErrorAccessDenied   = "access_denied"
	OAuthErrorMissingCode    = "missing_code"
	OAuthErrorInvalidState   = "invalid_state"
	OAuthErrorCallbackFailed = "callback_failed"
)

// 默认值
const (
	DefaultTriggerRef        = "main"
	DefaultSharedTriggerRef  = "trigger" // 统一流水线项目上的触发分支
	DefaultRecentLimit       = 10
	MaxRecentLimit           = 100
	DefaultSyncPerPage       = 20
	ProjectPipelinePreview   = 5
	WebhookPath              = "/api/v1/webhooks/gitlab"
	DashboardPath            = "/dashboard"
	AuthErrorPath            = "/auth/error"
	TriggerVariableAppName   = "APP_NAME"
	OAuthScopes              = "read_user read_api api"
	DefaultProviderTimeout   = 30 // 秒
	DefaultWebhookRatePerSec = 20
	DefaultPullTimeout       = 2 * time.Minute
)
