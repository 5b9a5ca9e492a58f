package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30000, cfg.Timeout)
	assert.True(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetKeepAlive())
	assert.True(t, cfg.GetAutoDecompress())
	assert.False(t, cfg.GetExpect100Continue())
	assert.True(t, cfg.IsDefault())
}

func TestFindAndLoadConfig_NoFile(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())
}

func TestFindAndLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	content := `{"userAgent": "bot/1.0", "timeout": 500, "followRedirects": false, "headers": {"X-Team": "core"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".easyhttp.json"), []byte(content), 0644))

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "bot/1.0", cfg.UserAgent)
	assert.Equal(t, 500, cfg.Timeout)
	assert.False(t, cfg.GetFollowRedirects())
	assert.Equal(t, "core", cfg.Headers["X-Team"])
	assert.Equal(t, 10, cfg.MaxRedirects)
}

func TestFindAndLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	content := "accept: application/json\nkeepAlive: false\nlogLevel: header\nresponseEncoding: gbk\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".easyhttp.yml"), []byte(content), 0644))

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "application/json", cfg.Accept)
	assert.False(t, cfg.GetKeepAlive())
	assert.Equal(t, "header", cfg.LogLevel)
	assert.Equal(t, "gbk", cfg.ResponseEncoding)
}

func TestFindAndLoadConfig_JSONWinsOverYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "easyhttp.json"), []byte(`{"userAgent": "json"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".easyhttp.yaml"), []byte("userAgent: yaml\n"), 0644))

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.UserAgent)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"A": "1", "B": "1"}

	merged := base.Merge(&Config{
		UserAgent:       "override",
		Timeout:         1000,
		FollowRedirects: BoolPtr(false),
		Headers:         map[string]string{"B": "2"},
	})

	assert.Equal(t, "override", merged.UserAgent)
	assert.Equal(t, 1000, merged.Timeout)
	assert.False(t, merged.GetFollowRedirects())
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, merged.Headers)
	assert.Equal(t, "1", base.Headers["B"])
	assert.True(t, base.GetFollowRedirects())

	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	for _, name := range []string{"out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := DefaultConfig()
			cfg.Referer = "https://example.com"
			cfg.KeepAlive = BoolPtr(false)
			require.NoError(t, cfg.SaveConfig(path))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, "https://example.com", loaded.Referer)
			assert.False(t, loaded.GetKeepAlive())
		})
	}
}
