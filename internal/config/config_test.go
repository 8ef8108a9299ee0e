// internal/config/config_test.go
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATA_DIR", filepath.Join(t.TempDir(), "data"))
	t.Setenv("LOG_DIR", filepath.Join(t.TempDir(), "logs"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.DebugMode)

	// 路径类配置自动建目录
	_, err = os.Stat(cfg.DataDir)
	assert.NoError(t, err)
}

func TestInitConfigDraftDefaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("LOG_DIR", filepath.Join(t.TempDir(), "logs"))

	require.NoError(t, InitConfig(dataDir))

	cfg := GetCurrentConfig()
	assert.Equal(t, 700, cfg.Draft.QuiescenceMS)
	assert.Equal(t, 700*time.Millisecond, cfg.Quiescence())
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL())
	assert.Equal(t, "forum_ask_draft_v1", cfg.Draft.LocalKey)
	assert.Equal(t, "forum_ask_backup_v1", cfg.Draft.BackupKey)

	// 初始化会把配置落盘
	_, err := os.Stat(filepath.Join(dataDir, "config.json"))
	assert.NoError(t, err)
}

func TestInitConfigMergesSavedDraftSettings(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("LOG_DIR", filepath.Join(t.TempDir(), "logs"))

	saved := AppConfig{
		Port: "ignored",
		Draft: DraftConfig{
			QuiescenceMS:  1200,
			SessionTTLMin: 10,
			LocalKey:      "forum_ask_draft_v2",
			BackupKey:     "forum_ask_backup_v2",
		},
	}
	data, err := json.Marshal(saved)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.json"), data, 0644))

	require.NoError(t, InitConfig(dataDir))

	cfg := GetCurrentConfig()
	// 草稿设置来自文件，基础配置始终取环境
	assert.Equal(t, 1200*time.Millisecond, cfg.Quiescence())
	assert.Equal(t, 10*time.Minute, cfg.SessionTTL())
	assert.Equal(t, "forum_ask_draft_v2", cfg.Draft.LocalKey)
	assert.Equal(t, "8080", cfg.Port)
}

func TestUpdateDraftConfigPersists(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("LOG_DIR", filepath.Join(t.TempDir(), "logs"))

	require.NoError(t, InitConfig(dataDir))

	draft := GetCurrentConfig().Draft
	draft.QuiescenceMS = 300
	require.NoError(t, UpdateDraftConfig(draft))

	assert.Equal(t, 300*time.Millisecond, GetCurrentConfig().Quiescence())

	// 重新初始化后设置仍然生效
	require.NoError(t, InitConfig(dataDir))
	assert.Equal(t, 300*time.Millisecond, GetCurrentConfig().Quiescence())
}

func TestGetCurrentConfigReturnsCopy(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("LOG_DIR", filepath.Join(t.TempDir(), "logs"))

	require.NoError(t, InitConfig(dataDir))

	cfg := GetCurrentConfig()
	cfg.Draft.QuiescenceMS = 1

	assert.Equal(t, 700, GetCurrentConfig().Draft.QuiescenceMS)
}
