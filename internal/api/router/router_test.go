package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pipedash/internal/pkg/config"
)

func TestSetup(t *testing.T) {
	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: "release", BaseURL: "https://dash.example.com"},
		Webhook: config.WebhookConfig{Token: "s3cret"},
	}
	r, err := Setup(cfg, Deps{}, zap.NewNop())
	require.NoError(t, err)

	tests := []struct {
		method, path string
		status       int
		body         string
	}{
		{http.MethodGet, "/health", http.StatusOK, `"ok"`},
		{http.MethodGet, "/metrics", http.StatusOK, "http_requests_total"},
		{http.MethodGet, "/api/v1/projects", http.StatusOK, `"code":401`},
		{http.MethodGet, "/api/v1/pipelines/recent", http.StatusOK, `"code":401`},
		{http.MethodPost, "/api/v1/webhooks/gitlab", http.StatusUnauthorized, `"code":401`},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}")))
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestCORSConfig(t *testing.T) {
	c := corsConfig(&config.ServerConfig{BaseURL: "https://dash.example.com/"})
	assert.Equal(t, []string{"https://dash.example.com"}, c.AllowOrigins)
	assert.True(t, c.AllowCredentials)

	c = corsConfig(&config.ServerConfig{})
	assert.True(t, c.AllowAllOrigins)
	assert.False(t, c.AllowCredentials)
}
