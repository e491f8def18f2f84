package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pipedash/internal/dto"
	"pipedash/internal/pkg/crypto"
	"pipedash/internal/pkg/logger"
	"pipedash/internal/pkg/metrics"
	"pipedash/internal/service"
	"pipedash/pkg/constants"
	pkgErrors "pipedash/pkg/errors"
	"pipedash/pkg/utils"
)

// WebhookHandler GitLab webhook 入口，使用真实 HTTP 状态码
type WebhookHandler struct {
	syncService service.PipelineSyncService
	token       string
}

// NewWebhookHandler token 为空时不校验 X-Gitlab-Token
func NewWebhookHandler(syncService service.PipelineSyncService, token string) *WebhookHandler {
	return &WebhookHandler{
		syncService: syncService,
		token:       token,
	}
}

// GitLab 接收 pipeline 事件
// @Summary GitLab webhook
// @Description 按 GitLab 流水线 ID upsert 本地记录；未知项目的事件会被丢弃但仍返回 received
// @Tags Webhook
// @Accept json
// @Produce json
// @Param X-Gitlab-Token header string false "webhook secret"
// @Param request body dto.GitLabWebhookEvent true "GitLab pipeline hook"
// @Success 200 {object} dto.WebhookResult
// @Failure 401 {object} utils.Response
// @Router /api/v1/webhooks/gitlab [post]
func (h *WebhookHandler) GitLab(c *gin.Context) {
	log := logger.Log.With(
		zap.String("handler", "WebhookHandler.GitLab"),
		zap.String("event", c.GetHeader(constants.HeaderGitLabEvent)),
	).Sugar()

	if h.token != "" && !crypto.Equal(c.GetHeader(constants.HeaderGitLabToken), h.token) {
		log.Warnf("webhook token 校验失败: ip=%s", c.ClientIP())
		metrics.WebhookEvents.WithLabelValues("unauthorized").Inc()
		utils.AbortWithStatus(c, http.StatusUnauthorized, pkgErrors.ErrInvalidWebhookToken)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		utils.AbortWithStatus(c, http.StatusBadRequest, pkgErrors.Wrap(pkgErrors.CodeBadRequest, "读取 webhook 载荷失败", err))
		return
	}
	event, err := dto.DecodeWebhookEvent(body)
	if err != nil {
		log.Warnf("webhook 载荷解析失败: %v", err)
		utils.AbortWithStatus(c, http.StatusBadRequest, pkgErrors.Wrap(pkgErrors.CodeBadRequest, "webhook 载荷格式错误", err))
		return
	}

	result, err := h.syncService.HandleWebhook(c.Request.Context(), event)
	if err != nil {
		if pkgErrors.CodeOf(err) == pkgErrors.CodeBadRequest {
			utils.AbortWithStatus(c, http.StatusBadRequest, pkgErrors.Wrap(pkgErrors.CodeBadRequest, "webhook 载荷缺少必要字段", err))
			return
		}
		log.Errorf("处理 webhook 失败: %v", err)
		utils.AbortWithStatus(c, http.StatusInternalServerError, pkgErrors.ErrInternalError)
		return
	}

	c.JSON(http.StatusOK, result)
}
