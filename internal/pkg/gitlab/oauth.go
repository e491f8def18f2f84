package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// OAuthConfig GitLab OAuth 应用配置
type OAuthConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       string // 空格分隔
	Timeout      time.Duration
}

// Token OAuth 令牌
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	CreatedAt    int64  `json:"created_at"`
}

// OAuth 授权码流程客户端
type OAuth struct {
	config     OAuthConfig
	httpClient *http.Client
}

// NewOAuth 创建 OAuth 客户端
func NewOAuth(cfg OAuthConfig) *OAuth {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OAuth{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// AuthorizeURL 生成授权跳转地址
func (o *OAuth) AuthorizeURL(state string) string {
	params := url.Values{
		"client_id":     {o.config.ClientID},
		"redirect_uri":  {o.config.RedirectURL},
		"response_type": {"code"},
		"scope":         {o.config.Scopes},
		"state":         {state},
	}
	return o.config.BaseURL + "/oauth/authorize?" + params.Encode()
}

// Exchange 用授权码换取 access token
func (o *OAuth) Exchange(ctx context.Context, code string) (*Token, error) {
	data := url.Values{
		"client_id":     {o.config.ClientID},
		"client_secret": {o.config.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {o.config.RedirectURL},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.config.BaseURL+"/oauth/token", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	body, err := o.send(req)
	if err != nil {
		return nil, err
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("gitlab: 解析 token 响应失败: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("gitlab: token 响应缺少 access_token")
	}
	return &token, nil
}

// UserInfo 用 access token 获取当前用户
func (o *OAuth) UserInfo(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.config.BaseURL+apiPrefix+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	body, err := o.send(req)
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("gitlab: 解析用户信息失败: %w", err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("gitlab: 用户信息缺少 id")
	}
	return &user, nil
}

func (o *OAuth) send(req *http.Request) ([]byte, error) {
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gitlab: 请求失败 %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gitlab: 读取响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}
