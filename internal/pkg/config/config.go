package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Log          LogConfig          `mapstructure:"log"`
	GitLab       GitLabConfig       `mapstructure:"gitlab"`
	OAuth        OAuthConfig        `mapstructure:"oauth"`
	Session      SessionConfig      `mapstructure:"session"`
	Sync         SyncConfig         `mapstructure:"sync"`
	Notification NotificationConfig `mapstructure:"notification"`
	Webhook      WebhookConfig      `mapstructure:"webhook"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name        string   `mapstructure:"name"`
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"`     // debug, release
	BaseURL     string   `mapstructure:"base_url"` // 对外访问地址，用于 OAuth 回调与 webhook 注册
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // mysql, postgres
	URL             string `mapstructure:"url"`    // 优先于下方分项配置
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
	LogLevel        string `mapstructure:"log_level"`         // SQL日志级别: silent/error/warn/info
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, console
	Output     string `mapstructure:"output"` // stdout, file, both
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// GitLabConfig GitLab API 配置
type GitLabConfig struct {
	Host              string `mapstructure:"host"`                // 例如 https://gitlab.com
	Token             string `mapstructure:"token"`               // 服务账号 Personal Access Token
	NamespaceID       int64  `mapstructure:"namespace_id"`        // 新建项目所在的 group，0 表示个人空间
	PipelineProjectID int64  `mapstructure:"pipeline_project_id"` // 统一的流水线项目，0 表示在项目自身触发
	TriggerRef        string `mapstructure:"trigger_ref"`         // 为空时统一流水线项目用 trigger，否则 main
	Timeout           int    `mapstructure:"timeout"` // 秒
}

// OAuthConfig GitLab OAuth 应用配置
type OAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Scopes       string `mapstructure:"scopes"`

	// AdminUsernames 登录时提升为 ADMIN 的 GitLab 用户名
	AdminUsernames []string `mapstructure:"admin_usernames"`
}

// SessionConfig 会话配置
type SessionConfig struct {
	Secret       string `mapstructure:"secret"`
	MaxAge       int    `mapstructure:"max_age"` // 秒
	SecureCookie bool   `mapstructure:"secure_cookie"`
}

// SyncConfig 流水线同步配置
type SyncConfig struct {
	PerPage            int    `mapstructure:"per_page"`
	PullTimeout        int    `mapstructure:"pull_timeout"`         // 单次拉取上限，秒
	Cron               string `mapstructure:"cron"`                 // 全量同步 Cron 表达式（带秒），为空则关闭
	ReconcileCron      string `mapstructure:"reconcile_cron"`       // 补偿 webhook 注册，为空则关闭
	SessionCleanupCron string `mapstructure:"session_cleanup_cron"` // 清理过期会话，为空则关闭
}

// NotificationConfig 通知配置
type NotificationConfig struct {
	Enabled     bool   `mapstructure:"enabled"`      // 是否启用
	Provider    string `mapstructure:"provider"`     // 通知渠道: log, lark
	LarkWebhook string `mapstructure:"lark_webhook"` // Lark Webhook
	LarkSecret  string `mapstructure:"lark_secret"`  // 机器人签名密钥，可选
}

// WebhookConfig 入站 webhook 配置
type WebhookConfig struct {
	Token     string  `mapstructure:"token"`      // 与 GitLab hook 的 Secret Token 一致
	RateLimit float64 `mapstructure:"rate_limit"` // 每秒请求数
	Burst     int     `mapstructure:"burst"`
}

// envBindings 兼容部署环境中沿用的环境变量名
var envBindings = map[string]string{
	"gitlab.host":                "GITLAB_HOST",
	"gitlab.token":               "GITLAB_TOKEN",
	"gitlab.pipeline_project_id": "PIPELINE_PROJECT_ID",
	"webhook.token":              "GITLAB_WEBHOOK_TOKEN",
	"oauth.client_id":            "GITLAB_CLIENT_ID",
	"oauth.client_secret":        "GITLAB_CLIENT_SECRET",
	"session.secret":             "SESSION_SECRET",
	"database.url":               "DATABASE_URL",
	"server.base_url":            "APP_BASE_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "pipedash")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 3600)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("gitlab.host", "https://gitlab.com")
	v.SetDefault("gitlab.timeout", 30)
	v.SetDefault("oauth.scopes", "read_user read_api api")
	v.SetDefault("session.max_age", 30*24*60*60)
	v.SetDefault("sync.per_page", 20)
	v.SetDefault("sync.pull_timeout", 120)
	v.SetDefault("sync.reconcile_cron", "0 */10 * * * *")
	v.SetDefault("sync.session_cleanup_cron", "0 0 * * * *")
	v.SetDefault("notification.provider", "log")
	v.SetDefault("webhook.rate_limit", 20)
	v.SetDefault("webhook.burst", 40)
}

// Load 加载配置
// 读取顺序: .env -> 配置文件 -> 环境变量
func Load(configPath string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// 读取环境变量
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("绑定环境变量 %s 失败: %w", env, err)
		}
	}

	// 读取配置文件，未找到时完全依赖环境变量
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 解析配置
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	return config, nil
}

// Validate 校验必填配置
func (c *Config) Validate() error {
	var errs []error
	if c.GitLab.Host == "" {
		errs = append(errs, errors.New("gitlab.host (GITLAB_HOST) 未配置"))
	}
	if c.GitLab.Token == "" {
		errs = append(errs, errors.New("gitlab.token (GITLAB_TOKEN) 未配置"))
	}
	if c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "" {
		errs = append(errs, errors.New("oauth.client_id/client_secret (GITLAB_CLIENT_ID/GITLAB_CLIENT_SECRET) 未配置"))
	}
	if len(c.Session.Secret) < 32 {
		errs = append(errs, errors.New("session.secret (SESSION_SECRET) 至少 32 个字符"))
	}
	if c.Server.BaseURL == "" {
		errs = append(errs, errors.New("server.base_url (APP_BASE_URL) 未配置"))
	}
	if c.Database.URL == "" && c.Database.Host == "" {
		errs = append(errs, errors.New("database.url (DATABASE_URL) 或 database.host 未配置"))
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver))
	}
	return errors.Join(errs...)
}

// GetDSN 获取数据库DSN
func (c *DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Driver == "postgres" {
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=Local",
			c.Host, c.Port, c.Username, c.Password, c.Database, sslMode)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Addr 监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ProviderTimeout GitLab 请求超时
func (c *GitLabConfig) ProviderTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}
