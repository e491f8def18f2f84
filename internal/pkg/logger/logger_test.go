package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pipedash/internal/pkg/config"
)

func TestInit_FileOutput(t *testing.T) {
	t.Cleanup(func() { set(zap.NewNop()) })

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, Init(&config.LogConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: path,
		MaxSize:  1,
	}, "pipedash"))

	Info("流水线已同步", zap.Int64("pipeline_id", 42))
	Debug("不会输出")
	GetWriter().Printf("[%.3fms] %s", 1.5, "SELECT 1")
	require.NoError(t, Log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"service":"pipedash"`)
	assert.Contains(t, out, `"pipeline_id":42`)
	assert.Contains(t, out, `"caller":"internal/pkg/logger/logger_test.go:`)
	assert.Contains(t, out, `"component":"gorm"`)
	assert.Contains(t, out, "SELECT 1")
	assert.NotContains(t, out, "不会输出")
}

func TestInit_BadLevelFallsBackToInfo(t *testing.T) {
	t.Cleanup(func() { set(zap.NewNop()) })

	require.NoError(t, Init(&config.LogConfig{Level: "verbose", Format: "console", Output: "stdout"}, ""))
	assert.True(t, Log.Core().Enabled(zap.InfoLevel))
	assert.False(t, Log.Core().Enabled(zap.DebugLevel))
}
