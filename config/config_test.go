package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigFile 在临时目录写入配置文件并返回目录路径
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir
}

const sampleConfig = `
app:
  name: civicpulse
upstreams:
  legiscan:
    base_url: https://api.legiscan.com
    quota_budget: 30000
cache:
  capacity: 5000
`

func TestLoad(t *testing.T) {
	dir := writeConfigFile(t, sampleConfig)

	loader, err := New(WithConfigPaths(dir))
	require.NoError(t, err)
	require.NoError(t, loader.Load(context.Background()))

	t.Run("Get 返回原始值", func(t *testing.T) {
		assert.Equal(t, "civicpulse", loader.Get("app.name"))
	})

	t.Run("UnmarshalKey 反序列化到结构体", func(t *testing.T) {
		var upstream struct {
			BaseURL     string `mapstructure:"base_url"`
			QuotaBudget int    `mapstructure:"quota_budget"`
		}
		require.NoError(t, loader.UnmarshalKey("upstreams.legiscan", &upstream))
		assert.Equal(t, "https://api.legiscan.com", upstream.BaseURL)
		assert.Equal(t, 30000, upstream.QuotaBudget)
	})

	t.Run("Validate 非空配置通过", func(t *testing.T) {
		assert.NoError(t, loader.Validate())
	})
}

func TestLoadMissingFile(t *testing.T) {
	// 配置文件缺失不算错误，允许纯环境变量运行
	loader, err := New(WithConfigPaths(t.TempDir()))
	require.NoError(t, err)
	assert.NoError(t, loader.Load(context.Background()))
}

func TestEnvOverride(t *testing.T) {
	dir := writeConfigFile(t, sampleConfig)

	t.Setenv("CIVICPULSE_APP_NAME", "from-env")

	loader, err := New(WithConfigPaths(dir), WithEnvPrefix("CIVICPULSE"))
	require.NoError(t, err)
	require.NoError(t, loader.Load(context.Background()))

	assert.Equal(t, "from-env", loader.Get("app.name"))
}

func TestWatch(t *testing.T) {
	dir := writeConfigFile(t, sampleConfig)

	loader, err := New(WithConfigPaths(dir))
	require.NoError(t, err)
	require.NoError(t, loader.Load(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := loader.Watch(ctx, "cache.capacity")
	require.NoError(t, err)

	// 修改配置文件触发变更事件
	path := filepath.Join(dir, "config.yaml")
	updated := []byte("app:\n  name: civicpulse\ncache:\n  capacity: 9000\n")
	require.NoError(t, os.WriteFile(path, updated, 0o644))

	select {
	case event := <-ch:
		assert.Equal(t, "cache.capacity", event.Key)
	case <-time.After(3 * time.Second):
		t.Skip("filesystem watch event not delivered in time")
	}
}

func TestMustLoad(t *testing.T) {
	dir := writeConfigFile(t, sampleConfig)

	assert.NotPanics(t, func() {
		loader := MustLoad(WithConfigPaths(dir))
		assert.NotNil(t, loader)
	})
}
