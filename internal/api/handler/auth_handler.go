package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pipedash/internal/dto"
	"pipedash/internal/pkg/logger"
	"pipedash/internal/service"
	"pipedash/pkg/constants"
	"pipedash/pkg/utils"
)

// AuthHandlerConfig cookie 与跳转相关配置
type AuthHandlerConfig struct {
	BaseURL       string
	SecureCookie  bool
	SessionMaxAge int // 秒
}

type AuthHandler struct {
	authService service.AuthService
	cfg         AuthHandlerConfig
}

func NewAuthHandler(authService service.AuthService, cfg AuthHandlerConfig) *AuthHandler {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.SessionMaxAge <= 0 {
		cfg.SessionMaxAge = constants.SessionMaxAgeSeconds
	}
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// SignIn 跳转到 GitLab 授权页
// @Summary GitLab 登录
// @Description 生成 state 写入 cookie，并重定向到 GitLab OAuth 授权页
// @Tags 认证
// @Success 302
// @Router /api/v1/auth/signin [get]
func (h *AuthHandler) SignIn(c *gin.Context) {
	req, err := h.authService.BeginSignIn()
	if err != nil {
		utils.Error(c, err)
		return
	}

	h.setCookie(c, constants.OAuthStateCookieName, req.StateCookie, constants.OAuthStateMaxAgeSeconds)
	c.Redirect(http.StatusFound, req.RedirectURL)
}

// Callback GitLab OAuth 回调
// @Summary GitLab OAuth 回调
// @Description 成功后写入 session-token cookie 并跳转 /dashboard，失败跳转 /auth/error?error=
// @Tags 认证
// @Param code query string false "授权码"
// @Param state query string false "state"
// @Param error query string false "GitLab 返回的错误"
// @Success 302
// @Router /api/v1/auth/callback/gitlab [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	log := logger.Log.With(zap.String("handler", "AuthHandler.Callback")).Sugar()

	var query dto.OAuthCallbackQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.redirectError(c, constants.OAuthErrorCallbackFailed)
		return
	}

	stateCookie, _ := c.Cookie(constants.OAuthStateCookieName)
	// state 一次性使用
	h.setCookie(c, constants.OAuthStateCookieName, "", -1)

	ticket, err := h.authService.CompleteSignIn(c.Request.Context(), &query, stateCookie, service.SessionMeta{
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
	})
	if err != nil {
		reason := constants.OAuthErrorCallbackFailed
		var cbErr *service.CallbackError
		if errors.As(err, &cbErr) {
			reason = cbErr.Reason
		}
		log.Warnf("登录失败: %v", err)
		h.redirectError(c, reason)
		return
	}

	h.setCookie(c, constants.SessionCookieName, ticket.Token, h.cfg.SessionMaxAge)
	c.Redirect(http.StatusFound, h.cfg.BaseURL+constants.DashboardPath)
}

// Session 当前会话
// @Summary 获取当前会话
// @Description 未登录或会话失效时 user 与 session 均为 null
// @Tags 认证
// @Produce json
// @Success 200 {object} utils.Response{data=dto.SessionResponse}
// @Router /api/v1/auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	token, _ := c.Cookie(constants.SessionCookieName)

	session, err := h.authService.Session(c.Request.Context(), token)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, dto.NewSessionResponse(session))
}

// SignOut 退出登录
// @Summary 退出登录
// @Tags 认证
// @Produce json
// @Success 200 {object} utils.Response
// @Router /api/v1/auth/signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	token, _ := c.Cookie(constants.SessionCookieName)

	if err := h.authService.SignOut(c.Request.Context(), token); err != nil {
		utils.Error(c, err)
		return
	}

	h.setCookie(c, constants.SessionCookieName, "", -1)
	utils.SuccessWithMessage(c, "已退出登录", nil)
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", h.cfg.SecureCookie, true)
}

func (h *AuthHandler) redirectError(c *gin.Context, reason string) {
	c.Redirect(http.StatusFound, h.cfg.BaseURL+constants.AuthErrorPath+"?error="+url.QueryEscape(reason))
}
