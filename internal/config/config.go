package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CloudConfig 云端数据库（Supabase 托管 Postgres）。
// URL 和 Key 都非空时启用云端存储，否则用本地 SQLite。
type CloudConfig struct {
	URL string `mapstructure:"url"`
	Key string `mapstructure:"key"`
}

// AIConfig 通义千问（DashScope）配置
type AIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// VoiceConfig 科大讯飞语音识别配置
type VoiceConfig struct {
	AppID     string `mapstructure:"app_id"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

// MapConfig 高德地图 Web 端 JS API 配置
type MapConfig struct {
	Key    string `mapstructure:"key"`
	Secret string `mapstructure:"secret"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cloud    CloudConfig    `mapstructure:"cloud"`
	AI       AIConfig       `mapstructure:"ai"`
	Voice    VoiceConfig    `mapstructure:"voice"`
	Map      MapConfig      `mapstructure:"map"`
	JWT      JWTConfig      `mapstructure:"jwt"`
}

// UseCloud 云端存储的选择策略：URL 和 Key 同时存在才启用
func (c *Config) UseCloud() bool {
	return c.Cloud.URL != "" && c.Cloud.Key != ""
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// 配置文件可以不存在，环境变量始终生效（沿用线上部署已有的变量名）。
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		v.SetDefault("server.address", "0.0.0.0")
		v.SetDefault("server.port", 5000)
		v.SetDefault("server.mode", "debug")
		v.SetDefault("database.path", "data/travel_planner.db")
		v.SetDefault("ai.model", "qwen-plus")
		v.SetDefault("ai.base_url", "https://dashscope.aliyuncs.com/compatible-mode/v1")
		v.SetDefault("jwt.secret", "dev-secret-key-change-in-production")
		v.SetDefault("jwt.expire_hours", 24)

		// environment overrides, e.g. DASHSCOPE_API_KEY=sk-xxx
		v.AutomaticEnv()
		_ = v.BindEnv("jwt.secret", "SECRET_KEY")
		_ = v.BindEnv("ai.api_key", "DASHSCOPE_API_KEY")
		_ = v.BindEnv("ai.model", "QWEN_MODEL")
		_ = v.BindEnv("voice.app_id", "XFYUN_APP_ID")
		_ = v.BindEnv("voice.api_key", "XFYUN_API_KEY")
		_ = v.BindEnv("voice.api_secret", "XFYUN_API_SECRET")
		_ = v.BindEnv("map.key", "AMAP_API_KEY")
		_ = v.BindEnv("map.secret", "AMAP_SECRET_KEY")
		_ = v.BindEnv("cloud.url", "CLOUD_DB_URL", "SUPABASE_URL")
		_ = v.BindEnv("cloud.key", "CLOUD_DB_KEY", "SUPABASE_KEY")

		if err = v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				err = nil // 没有配置文件就只用默认值 + 环境变量
			} else {
				err = fmt.Errorf("read config: %w", err)
				return
			}
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}
