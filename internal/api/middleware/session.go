package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"pipedash/internal/model"
	"pipedash/internal/pkg/logger"
	"pipedash/pkg/constants"
	pkgErrors "pipedash/pkg/errors"
	"pipedash/pkg/utils"
)

// SessionResolver 根据 cookie 中的 token 查找用户，未知或过期返回 (nil, nil)
type SessionResolver interface {
	SessionUser(ctx context.Context, token string) (*model.User, error)
}

// Session 读取 session-token cookie，将用户写入 context；不拦截请求
func Session(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(constants.SessionCookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		user, err := resolver.SessionUser(c.Request.Context(), token)
		if err != nil {
			logger.Log.Sugar().Warnf("查询会话失败: %v", err)
		}
		if user != nil {
			c.Set(constants.ContextKeyUser, user)
			c.Set(constants.ContextKeyUserID, user.ID)
		}
		c.Next()
	}
}

// RequireUser 未登录时返回 401 业务码
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			utils.Error(c, pkgErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser 当前登录用户，未登录返回 nil
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(constants.ContextKeyUser)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}
