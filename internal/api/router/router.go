package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "pipedash/docs" // Swagger docs
	"pipedash/internal/api/handler"
	"pipedash/internal/api/middleware"
	"pipedash/internal/pkg/config"
	"pipedash/internal/service"
	"pipedash/pkg/constants"
	"pipedash/pkg/utils"
)

// Deps 路由依赖的服务
type Deps struct {
	Auth     service.AuthService
	Project  service.ProjectService
	Pipeline service.PipelineService
	Sync     service.PipelineSyncService
}

// Setup 设置路由
func Setup(cfg *config.Config, deps Deps, logger *zap.Logger) (*gin.Engine, error) {
	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := utils.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()

	// 全局中间件
	r.Use(ginzap.RecoveryWithZap(logger, true))
	r.Use(middleware.RequestID())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.Metrics())
	r.Use(cors.New(corsConfig(&cfg.Server)))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger API 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 初始化Handler
	authHandler := handler.NewAuthHandler(deps.Auth, handler.AuthHandlerConfig{
		BaseURL:       cfg.Server.BaseURL,
		SecureCookie:  cfg.Session.SecureCookie,
		SessionMaxAge: cfg.Session.MaxAge,
	})
	projectHandler := handler.NewProjectHandler(deps.Project)
	pipelineHandler := handler.NewPipelineHandler(deps.Pipeline)
	webhookHandler := handler.NewWebhookHandler(deps.Sync, cfg.Webhook.Token)

	// API v1
	v1 := r.Group("/api/v1")
	{
		// GitLab 回调（不走会话，token 校验在 handler 内）
		v1.POST("/webhooks/gitlab", middleware.RateLimit(cfg.Webhook.RateLimit, cfg.Webhook.Burst), webhookHandler.GitLab)

		// 认证相关
		authGroup := v1.Group("/auth")
		{
			authGroup.GET("/signin", authHandler.SignIn)
			authGroup.GET("/callback/gitlab", authHandler.Callback)
			authGroup.GET("/session", authHandler.Session)
			authGroup.POST("/signout", authHandler.SignOut)
		}

		// 需要登录的路由
		authed := v1.Group("")
		authed.Use(middleware.Session(deps.Auth), middleware.RequireUser())
		{
			// 项目管理
			groupProject := authed.Group("/project")
			groupProjects := authed.Group("/projects")
			{
				groupProject.POST("", projectHandler.Create)                  // 创建项目
				groupProjects.GET("", projectHandler.List)                    // 列表（附最近 5 条流水线）
				groupProject.GET("/:id", projectHandler.GetByID)              // 获取详情
				groupProject.DELETE("/:id", projectHandler.Delete)            // 删除项目
				groupProject.POST("/:id/reconcile", projectHandler.Reconcile) // 重试 webhook 注册
				authed.GET("/namespaces", projectHandler.Namespaces)          // 可选 group

				// 项目流水线
				groupProject.POST("/:id/pipelines", pipelineHandler.Trigger)           // 触发
				groupProject.GET("/:id/pipelines", pipelineHandler.ListByProject)      // 拉取同步后返回
				groupProject.GET("/:id/pipeline/:pipelineId", pipelineHandler.Details) // GitLab 详情
				groupProject.GET("/:id/job/:jobId/log", pipelineHandler.JobLog)        // 作业日志
			}

			groupPipelines := authed.Group("/pipelines")
			{
				groupPipelines.GET("/recent", pipelineHandler.ListRecent) // 最近流水线
				groupPipelines.GET("/stats", pipelineHandler.Stats)       // 状态统计
			}
		}
	}

	return r, nil
}

func corsConfig(server *config.ServerConfig) cors.Config {
	origins := server.CORSOrigins
	if len(origins) == 0 && server.BaseURL != "" {
		origins = []string{strings.TrimSuffix(server.BaseURL, "/")}
	}

	c := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", constants.HeaderRequestID},
		ExposeHeaders:    []string{constants.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	} else {
		c.AllowOrigins = origins
	}
	return c
}
