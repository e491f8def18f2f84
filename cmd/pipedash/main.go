package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"pipedash/internal/adapter/notification"
	"pipedash/internal/api/router"
	"pipedash/internal/pkg/config"
	"pipedash/internal/pkg/database"
	"pipedash/internal/pkg/gitlab"
	"pipedash/internal/pkg/logger"
	"pipedash/internal/repository"
	"pipedash/internal/scheduler"
	"pipedash/internal/service"
)

// @title Pipedash API
// @version 1.0
// @description GitLab 流水线看板后端 API
// @description 提供项目创建、流水线触发与状态同步、GitLab 登录等功能

// @BasePath /

var (
	configFile = flag.String("config", "", "配置文件路径 (例如: -config=configs/config.yaml)")
	version    = flag.Bool("version", false, "显示版本信息")
)

const (
	appVersion = "1.0.0"
	appName    = "pipedash"
)

func main() {
	// 解析命令行参数
	flag.Parse()

	// 显示版本信息
	if *version {
		fmt.Printf("%s version %s\n", appName, appVersion)
		os.Exit(0)
	}

	// init config logger
	var cfg *config.Config
	{
		configPath := getConfigPath()

		c, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("加载配置失败: %v\n", err)
			fmt.Println("\n使用方式:")
			fmt.Println("  1. 命令行参数指定:")
			fmt.Println("     ./pipedash -config=configs/config.yaml")
			fmt.Println("  2. 环境变量指定:")
			fmt.Println("     export CONFIG_FILE=configs/config.yaml")
			fmt.Println("     ./pipedash")
			fmt.Println("  3. 不指定时依次查找 ./configs/config.yaml、./config.yaml，找不到则只使用环境变量")
			os.Exit(1)
		}
		if err := c.Validate(); err != nil {
			fmt.Printf("配置校验失败:\n%v\n", err)
			os.Exit(1)
		}
		cfg = c

		// 初始化日志
		if err := logger.Init(&cfg.Log, appName); err != nil {
			fmt.Printf("初始化日志失败: %v\n", err)
			os.Exit(1)
		}
		logger.Info(fmt.Sprintf("Load config file: %s of %s", configPath, getConfigSource()))

		defer func() {
			_ = logger.Close()
		}()
	}

	logger.Info(fmt.Sprintf("服务 %s 启动中...", appName), zap.String("version", appVersion))

	// 初始化数据库
	db, err := database.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer func() {
		_ = database.Close(db)
	}()
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
	}
	logger.Info("数据库连接成功", zap.String("driver", cfg.Database.Driver))

	// GitLab 客户端
	baseURL := strings.TrimSuffix(cfg.Server.BaseURL, "/")
	gitlabClient, err := gitlab.NewClient(gitlab.Config{
		BaseURL: cfg.GitLab.Host,
		Token:   cfg.GitLab.Token,
		Timeout: cfg.GitLab.ProviderTimeout(),
	})
	if err != nil {
		logger.Fatal("初始化 GitLab 客户端失败", zap.Error(err))
	}
	checkGitLab(gitlabClient, cfg.GitLab.NamespaceID, cfg.GitLab.ProviderTimeout())
	oauth := gitlab.NewOAuth(gitlab.OAuthConfig{
		BaseURL:      cfg.GitLab.Host,
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURL:  baseURL + "/api/v1/auth/callback/gitlab",
		Scopes:       cfg.OAuth.Scopes,
		Timeout:      cfg.GitLab.ProviderTimeout(),
	})

	// 初始化Repository
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	pipelineRepo := repository.NewPipelineRepository(db)

	// 初始化Service
	notifier := notification.NewNotifier(&cfg.Notification, logger.Named("notify"))
	syncService := service.NewPipelineSyncService(gitlabClient, projectRepo, pipelineRepo, notifier, service.PipelineSyncConfig{
		PerPage:           cfg.Sync.PerPage,
		PipelineProjectID: cfg.GitLab.PipelineProjectID,
		PullTimeout:       time.Duration(cfg.Sync.PullTimeout) * time.Second,
	})
	projectService := service.NewProjectService(gitlabClient, projectRepo, notifier, service.ProjectServiceConfig{
		BaseURL:      baseURL,
		WebhookToken: cfg.Webhook.Token,
		NamespaceID:  cfg.GitLab.NamespaceID,
	})
	pipelineService := service.NewPipelineService(gitlabClient, projectRepo, pipelineRepo, syncService, service.PipelineServiceConfig{
		PipelineProjectID: cfg.GitLab.PipelineProjectID,
		TriggerRef:        cfg.GitLab.TriggerRef,
	})
	authService, err := service.NewAuthService(oauth, userRepo, sessionRepo, service.AuthServiceConfig{
		SessionSecret:  cfg.Session.Secret,
		SessionMaxAge:  time.Duration(cfg.Session.MaxAge) * time.Second,
		AdminUsernames: cfg.OAuth.AdminUsernames,
	})
	if err != nil {
		logger.Fatal("初始化认证服务失败", zap.Error(err))
	}

	// 初始化并启动定时任务调度器
	taskScheduler := scheduler.NewScheduler(logger.Named("scheduler"))
	if err := taskScheduler.RegisterJobs(&cfg.Sync, scheduler.Jobs{
		SyncPipelines:  syncService.SyncAll,
		ReconcileHooks: projectService.ReconcileAll,
		CleanupSessions: func(ctx context.Context) error {
			removed, err := authService.CleanupExpiredSessions(ctx)
			if err == nil && removed > 0 {
				logger.Info("清理过期会话", zap.Int64("count", removed))
			}
			return err
		},
	}); err != nil {
		logger.Warn("定时任务注册失败", zap.Error(err))
	}
	taskScheduler.Start()

	// 设置路由
	r, err := router.Setup(cfg, router.Deps{
		Auth:     authService,
		Project:  projectService,
		Pipeline: pipelineService,
		Sync:     syncService,
	}, logger.Log)
	if err != nil {
		logger.Fatal("初始化路由失败", zap.Error(err))
	}

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Info(fmt.Sprintf("%s 服务启动成功", cfg.Server.Name),
			zap.String("address", srv.Addr),
			zap.String("mode", cfg.Server.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务正在关闭...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭定时任务调度器
	taskScheduler.Stop()

	logger.Info("服务已关闭")
}

// getConfigPath 获取配置文件路径
// 优先级: 命令行参数 > 环境变量；都未指定时返回空，由 config.Load 查找默认位置
func getConfigPath() string {
	if *configFile != "" {
		return *configFile
	}
	return os.Getenv("CONFIG_FILE")
}

// getConfigSource 获取配置来源说明
func getConfigSource() string {
	if *configFile != "" {
		return "命令行参数"
	}
	if os.Getenv("CONFIG_FILE") != "" {
		return "环境变量"
	}
	return "默认配置"
}

// checkGitLab 启动时检查 token 与目标 group，失败只告警
func checkGitLab(client *gitlab.Client, namespaceID int64, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	user, err := client.CurrentUser(ctx)
	if err != nil {
		logger.Warn("GitLab token 校验失败", zap.Error(err))
		return
	}
	logger.Info("GitLab 连接成功", zap.String("username", user.Username))

	if namespaceID == 0 {
		return
	}
	group, err := client.GetGroup(ctx, namespaceID)
	if err != nil {
		logger.Warn("GitLab group 不可用，新建项目可能失败", zap.Int64("namespace_id", namespaceID), zap.Error(err))
		return
	}
	logger.Info("新建项目所在 group", zap.String("group", group.FullPath))
}
