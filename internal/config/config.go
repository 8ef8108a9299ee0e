// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// 当前配置的单例实例
var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// DraftConfig 草稿子系统配置
type DraftConfig struct {
	// QuiescenceMS 自动保存的防抖静默窗口（毫秒）
	QuiescenceMS int `json:"quiescence_ms"`
	// SessionTTLMin 页面会话（标签页）在无活动后保留的分钟数
	SessionTTLMin int `json:"session_ttl_min"`
	// LocalKey 本地草稿层的固定存储键（带版本号）
	LocalKey string `json:"local_key"`
	// BackupKey 会话备份层的固定存储键（带版本号）
	BackupKey string `json:"backup_key"`
}

// AppConfig 包含应用程序的所有配置
type AppConfig struct {
	// 基础配置
	Port      string `json:"port"`
	DataDir   string `json:"data_dir"`
	LogDir    string `json:"log_dir"`
	DebugMode bool   `json:"debug_mode"`

	// 草稿子系统配置
	Draft DraftConfig `json:"draft"`
}

// Config 存储应用配置
type Config struct {
	Port      string
	DataDir   string
	LogDir    string
	DebugMode bool
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 尝试加载.env文件（可选）
	godotenv.Load()

	config := &Config{
		Port:      getEnv("PORT", "8080"),
		DataDir:   getEnvPath("DATA_DIR", "data"),
		LogDir:    getEnvPath("LOG_DIR", "logs"),
		DebugMode: getEnvBool("DEBUG_MODE", true),
	}

	return config, nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath 获取环境变量表示的路径，如果不存在则返回默认值
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	// 确保目录存在
	if _, err := os.Stat(path); os.IsNotExist(err) {
		err = os.MkdirAll(path, 0755)
		if err != nil {
			fmt.Printf("警告: 创建目录失败 %s: %v\n", path, err)
		}
	}

	return path
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt 获取整数类型环境变量
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// defaultDraftConfig 草稿子系统的默认配置
func defaultDraftConfig() DraftConfig {
	return DraftConfig{
		QuiescenceMS:  getEnvInt("DRAFT_QUIESCENCE_MS", 700),
		SessionTTLMin: getEnvInt("DRAFT_SESSION_TTL_MIN", 30),
		LocalKey:      getEnv("DRAFT_LOCAL_KEY", "forum_ask_draft_v1"),
		BackupKey:     getEnv("DRAFT_BACKUP_KEY", "forum_ask_backup_v1"),
	}
}

// InitConfig 初始化配置管理器
func InitConfig(dataDir string) error {
	configFile = filepath.Join(dataDir, "config.json")

	// 加载基础配置
	baseConfig, err := Load()
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	currentConfig = &AppConfig{
		Port:      baseConfig.Port,
		DataDir:   baseConfig.DataDir,
		LogDir:    baseConfig.LogDir,
		DebugMode: baseConfig.DebugMode,
		Draft:     defaultDraftConfig(),
	}

	// 尝试从文件加载已保存的配置
	if _, err := os.Stat(configFile); !os.IsNotExist(err) {
		data, err := os.ReadFile(configFile)
		if err == nil {
			var savedConfig AppConfig
			if json.Unmarshal(data, &savedConfig) == nil {
				// 合并配置：保留文件中的草稿设置，基础配置始终取最新环境
				savedConfig.Port = baseConfig.Port
				savedConfig.DataDir = baseConfig.DataDir
				savedConfig.LogDir = baseConfig.LogDir
				savedConfig.DebugMode = baseConfig.DebugMode

				// 文件缺字段时回退默认值
				if savedConfig.Draft.QuiescenceMS <= 0 {
					savedConfig.Draft.QuiescenceMS = 700
				}
				if savedConfig.Draft.SessionTTLMin <= 0 {
					savedConfig.Draft.SessionTTLMin = 30
				}
				if savedConfig.Draft.LocalKey == "" {
					savedConfig.Draft.LocalKey = "forum_ask_draft_v1"
				}
				if savedConfig.Draft.BackupKey == "" {
					savedConfig.Draft.BackupKey = "forum_ask_backup_v1"
				}

				currentConfig = &savedConfig
			}
		}
	}

	// 保存初始配置到文件
	return SaveConfig()
}

// GetCurrentConfig 返回当前配置的副本
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		// 紧急情况，返回一个基本配置
		baseConfig, _ := Load()
		return &AppConfig{
			Port:      baseConfig.Port,
			DataDir:   baseConfig.DataDir,
			LogDir:    baseConfig.LogDir,
			DebugMode: baseConfig.DebugMode,
			Draft:     defaultDraftConfig(),
		}
	}

	// 返回配置的副本
	configCopy := *currentConfig
	return &configCopy
}

// Quiescence 防抖静默窗口时长
func (c *AppConfig) Quiescence() time.Duration {
	return time.Duration(c.Draft.QuiescenceMS) * time.Millisecond
}

// SessionTTL 页面会话保留时长
func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.Draft.SessionTTLMin) * time.Minute
}

// UpdateDraftConfig 更新草稿子系统配置
func UpdateDraftConfig(draft DraftConfig) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("配置系统未初始化")
	}

	currentConfig.Draft = draft

	return SaveConfig()
}

// SaveConfig 保存当前配置到文件
func SaveConfig() error {
	if currentConfig == nil {
		return fmt.Errorf("没有配置可保存")
	}

	// 确保目录存在
	dir := filepath.Dir(configFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}

	// 序列化并保存
	data, err := json.MarshalIndent(currentConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	return os.WriteFile(configFile, data, 0644)
}
