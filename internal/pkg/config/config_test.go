package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  base_url: http://localhost:9090
gitlab:
  token: glpat-file
oauth:
  admin_usernames: [root, ops]
database:
  driver: postgres
  host: db
  port: 5432
  database: pipedash
  username: app
  password: secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://gitlab.com", cfg.GitLab.Host)
	assert.Empty(t, cfg.GitLab.TriggerRef)
	assert.Equal(t, 20, cfg.Sync.PerPage)
	assert.Equal(t, 120, cfg.Sync.PullTimeout)
	assert.Equal(t, "read_user read_api api", cfg.OAuth.Scopes)
	assert.Equal(t, []string{"root", "ops"}, cfg.OAuth.AdminUsernames)
	assert.Contains(t, cfg.Database.GetDSN(), "dbname=pipedash")
}

func TestLoad_EnvBindings(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")
	t.Setenv("GITLAB_TOKEN", "glpat-env")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("PIPELINE_PROJECT_ID", "42")
	t.Setenv("APP_BASE_URL", "https://dash.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "glpat-env", cfg.GitLab.Token)
	assert.Equal(t, int64(42), cfg.GitLab.PipelineProjectID)
	assert.Equal(t, "https://dash.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "postgres://u:p@localhost/db", cfg.Database.GetDSN())
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITLAB_TOKEN")
	assert.Contains(t, err.Error(), "SESSION_SECRET")

	cfg = &Config{
		Server:   ServerConfig{BaseURL: "http://localhost"},
		Database: DatabaseConfig{Driver: "mysql", URL: "u:p@tcp(localhost)/db"},
		GitLab:   GitLabConfig{Host: "https://gitlab.com", Token: "t"},
		OAuth:    OAuthConfig{ClientID: "id", ClientSecret: "secret"},
		Session:  SessionConfig{Secret: "0123456789abcdef0123456789abcdef"},
	}
	assert.NoError(t, cfg.Validate())
}
