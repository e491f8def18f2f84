package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"pipedash/internal/dto"
	"pipedash/internal/model"
	"pipedash/internal/pkg/crypto"
	"pipedash/internal/pkg/gitlab"
	"pipedash/internal/pkg/jwt"
	"pipedash/internal/pkg/logger"
	"pipedash/internal/repository"
	"pipedash/pkg/constants"
	pkgErrors "pipedash/pkg/errors"
)

const (
	keyPurposeOAuthState = "pipedash/oauth-state"
	keyPurposeSession    = "pipedash/session-id"
	stateTokenBytes      = 32
	sessionTokenBytes    = 32
)

// OAuthProvider GitLab OAuth 授权码流程
type OAuthProvider interface {
	AuthorizeURL(state string) string
	Exchange(ctx context.Context, code string) (*gitlab.Token, error)
	UserInfo(ctx context.Context, accessToken string) (*gitlab.User, error)
}

var _ OAuthProvider = (*gitlab.OAuth)(nil)

// AuthServiceConfig 认证服务配置
type AuthServiceConfig struct {
	SessionSecret string
	SessionMaxAge time.Duration
	StateMaxAge   time.Duration

	// AdminUsernames 登录时提升为 ADMIN，只升不降
	AdminUsernames []string
}

// SignInRequest 登录跳转信息
type SignInRequest struct {
	RedirectURL string
	StateCookie string // 写入 oauth_state cookie 的签名值
}

// SessionMeta 创建会话时记录的客户端信息
type SessionMeta struct {
	UserAgent string
	IP        string
}

// SessionTicket 登录成功后签发的会话
type SessionTicket struct {
	Token     string // 原始 token，只写入 cookie
	ExpiresAt time.Time
	User      *model.User
}

// CallbackError OAuth 回调失败，Reason 作为 /auth/error?error= 的取值
type CallbackError struct {
	Reason string
	Err    error
}

func (e *CallbackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oauth callback %s: %v", e.Reason, e.Err)
	}
	return "oauth callback " + e.Reason
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// AuthService 认证服务接口
type AuthService interface {
	BeginSignIn() (*SignInRequest, error)
	// CompleteSignIn 处理回调：校验 state、换取 token、同步用户、创建会话
	CompleteSignIn(ctx context.Context, query *dto.OAuthCallbackQuery, stateCookie string, meta SessionMeta) (*SessionTicket, error)
	// Session 未知或过期的 token 返回 (nil, nil)
	Session(ctx context.Context, token string) (*model.Session, error)
	// SessionUser 未知或过期的 token 返回 (nil, nil)
	SessionUser(ctx context.Context, token string) (*model.User, error)
	SignOut(ctx context.Context, token string) error
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

type authService struct {
	oauth       OAuthProvider
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	stateKey    []byte
	sessionKey  []byte
	cfg         AuthServiceConfig
	now         func() time.Time
}

// NewAuthService 创建认证服务，state 与会话摘要的密钥均从 SessionSecret 派生
func NewAuthService(
	oauth OAuthProvider,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	cfg AuthServiceConfig,
) (AuthService, error) {
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret 不能为空")
	}
	if cfg.SessionMaxAge <= 0 {
		cfg.SessionMaxAge = constants.SessionMaxAgeSeconds * time.Second
	}
	if cfg.StateMaxAge <= 0 {
		cfg.StateMaxAge = constants.OAuthStateMaxAgeSeconds * time.Second
	}

	stateKey, err := crypto.DeriveKey([]byte(cfg.SessionSecret), keyPurposeOAuthState, 32)
	if err != nil {
		return nil, err
	}
	sessionKey, err := crypto.DeriveKey([]byte(cfg.SessionSecret), keyPurposeSession, 32)
	if err != nil {
		return nil, err
	}

	return &authService{
		oauth:       oauth,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		stateKey:    stateKey,
		sessionKey:  sessionKey,
		cfg:         cfg,
		now:         time.Now,
	}, nil
}

func (s *authService) BeginSignIn() (*SignInRequest, error) {
	state, err := crypto.RandomToken(stateTokenBytes)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成 state 失败", err)
	}
	cookie, err := jwt.GenerateStateToken(s.stateKey, state, s.cfg.StateMaxAge)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "签名 state 失败", err)
	}
	return &SignInRequest{
		RedirectURL: s.oauth.AuthorizeURL(state),
		StateCookie: cookie,
	}, nil
}

func (s *authService) CompleteSignIn(ctx context.Context, query *dto.OAuthCallbackQuery, stateCookie string, meta SessionMeta) (*SessionTicket, error) {
	log := logger.Log.With(zap.String("handler", "AuthService.CompleteSignIn")).Sugar()

	if query.Error != "" {
		return nil, &CallbackError{Reason: query.Error}
	}
	if query.Code == "" {
		return nil, &CallbackError{Reason: constants.OAuthErrorMissingCode}
	}
	if err := s.verifyState(stateCookie, query.State); err != nil {
		log.Warnf("state 校验失败: %v", err)
		return nil, &CallbackError{Reason: constants.OAuthErrorInvalidState, Err: err}
	}

	token, err := s.oauth.Exchange(ctx, query.Code)
	if err != nil {
		log.Errorf("换取 access token 失败: %v", err)
		return nil, &CallbackError{Reason: constants.OAuthErrorCallbackFailed, Err: err}
	}
	profile, err := s.oauth.UserInfo(ctx, token.AccessToken)
	if err != nil {
		log.Errorf("获取 GitLab 用户信息失败: %v", err)
		return nil, &CallbackError{Reason: constants.OAuthErrorCallbackFailed, Err: err}
	}

	now := s.now()
	user, err := s.userRepo.UpsertByProviderID(ctx, &model.User{
		ProviderID:  profile.ID,
		Username:    profile.Username,
		Name:        profile.Name,
		Email:       optionalString(profile.Email),
		AvatarURL:   optionalString(profile.AvatarURL),
		LastLoginAt: &now,
	})
	if err != nil {
		log.Errorf("保存用户失败: %v", err)
		return nil, &CallbackError{Reason: constants.OAuthErrorCallbackFailed, Err: err}
	}
	if user.Role != model.RoleAdmin && s.isAdminUsername(user.Username) {
		if err := s.userRepo.UpdateRole(ctx, user.ID, model.RoleAdmin); err != nil {
			log.Errorf("提升管理员失败: %v", err)
			return nil, &CallbackError{Reason: constants.OAuthErrorCallbackFailed, Err: err}
		}
		user.Role = model.RoleAdmin
		log.Infof("用户 %s 已提升为管理员", user.Username)
	}

	ticket, err := s.createSession(ctx, user, meta)
	if err != nil {
		log.Errorf("创建会话失败: %v", err)
		return nil, &CallbackError{Reason: constants.OAuthErrorCallbackFailed, Err: err}
	}

	log.Infof("用户登录成功: %s", user.Username)
	return ticket, nil
}

func (s *authService) isAdminUsername(username string) bool {
	return lo.ContainsBy(s.cfg.AdminUsernames, func(name string) bool {
		return strings.EqualFold(strings.TrimSpace(name), username)
	})
}

func (s *authService) verifyState(cookie, state string) error {
	if cookie == "" || state == "" {
		return errors.New("state 缺失")
	}
	expected, err := jwt.ParseStateToken(s.stateKey, cookie)
	if err != nil {
		return err
	}
	if !crypto.Equal(expected, state) {
		return errors.New("state 不匹配")
	}
	return nil
}

func (s *authService) createSession(ctx context.Context, user *model.User, meta SessionMeta) (*SessionTicket, error) {
	token, err := crypto.RandomToken(sessionTokenBytes)
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.cfg.SessionMaxAge)
	session := &model.Session{
		ID:        crypto.Digest(s.sessionKey, token),
		UserID:    user.ID,
		ExpiresAt: expiresAt,
		UserAgent: truncate(meta.UserAgent, 512),
		IP:        truncate(meta.IP, 64),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return &SessionTicket{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) Session(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, nil
	}
	session, err := s.sessionRepo.FindActive(ctx, crypto.Digest(s.sessionKey, token), s.now())
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if session.User == nil {
		return nil, nil
	}
	return session, nil
}

func (s *authService) SessionUser(ctx context.Context, token string) (*model.User, error) {
	session, err := s.Session(ctx, token)
	if err != nil || session == nil {
		return nil, err
	}
	return session.User, nil
}

func (s *authService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessionRepo.Delete(ctx, crypto.Digest(s.sessionKey, token))
}

func (s *authService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx, s.now())
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// truncate 按字节截断，不切断多字节字符
func truncate(v string, max int) string {
	if len(v) <= max {
		return v
	}
	for max > 0 && !utf8.RuneStart(v[max]) {
		max--
	}
	return v[:max]
}
