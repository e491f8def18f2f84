package gitlab

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuth_AuthorizeURL(t *testing.T) {
	o := NewOAuth(OAuthConfig{
		BaseURL:     "https://gitlab.example.com/",
		ClientID:    "cid",
		RedirectURL: "https://dash.example.com/api/v1/auth/callback/gitlab",
		Scopes:      "read_user read_api api",
	})

	u, err := url.Parse(o.AuthorizeURL("xyz"))
	require.NoError(t, err)
	assert.Equal(t, "gitlab.example.com", u.Host)
	assert.Equal(t, "/oauth/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, "read_user read_api api", q.Get("scope"))
	assert.Equal(t, "https://dash.example.com/api/v1/auth/callback/gitlab", q.Get("redirect_uri"))
}

func TestOAuth_ExchangeAndUserInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
			if r.PostForm.Get("code") != "good" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"The provided authorization grant is invalid"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer"}`))
		case "/api/v4/user":
			assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"id":42,"username":"bob","name":"Bob"}`))
		}
	}))
	defer srv.Close()

	o := NewOAuth(OAuthConfig{BaseURL: srv.URL, ClientID: "cid", ClientSecret: "sec"})
	ctx := context.Background()

	token, err := o.Exchange(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "at-1", token.AccessToken)

	user, err := o.UserInfo(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)

	_, err = o.Exchange(ctx, "bad")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "The provided authorization grant is invalid", apiErr.Message)
}
