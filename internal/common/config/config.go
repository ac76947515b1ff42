package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Consul   ConsulConfig   `json:"consul"`
	Jaeger   JaegerConfig   `json:"jaeger"`
	Auth     AuthConfig     `json:"auth"`
	Client   ClientConfig   `json:"client"`
	Log      LogConfig      `json:"log"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name     string `json:"name"`      // 服务名称
	Host     string `json:"host"`      // 服务地址
	HTTPPort int    `json:"http_port"` // HTTP API 端口
	GRPCPort int    `json:"grpc_port"` // gRPC 健康检查端口（供 Consul 探测）
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `json:"driver"`   // 数据库驱动
	Host     string `json:"host"`     // 数据库地址
	Port     int    `json:"port"`     // 数据库端口
	User     string `json:"user"`     // 用户名
	Password string `json:"password"` // 密码
	Database string `json:"database"` // 数据库名
	MaxIdle  int    `json:"max_idle"` // 最大空闲连接
	MaxOpen  int    `json:"max_open"` // 最大打开连接
}

// ConsulConfig Consul配置
type ConsulConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// JaegerConfig Jaeger配置
type JaegerConfig struct {
	Endpoint string  `json:"endpoint"`
	Sampler  float64 `json:"sampler"` // 采样率 0.0-1.0
}

// AuthConfig 鉴权配置
type AuthConfig struct {
	Enabled       bool     `json:"enabled"`
	JWTSecret     string   `json:"jwt_secret"`
	Issuer        string   `json:"issuer"`
	Audience      string   `json:"audience"`
	TokenTTLHours int      `json:"token_ttl_hours"` // access token 有效期（小时）
	PublicPaths   []string `json:"public_paths"`    // 免鉴权路径前缀
}

// ClientConfig 租车客户端（orchestrator）配置
type ClientConfig struct {
	BaseURL             string `json:"base_url"`              // 远端服务地址
	TimeoutSeconds      int    `json:"timeout_seconds"`       // 单次请求超时
	BreakerMaxFailures  int    `json:"breaker_max_failures"`  // 熔断阈值
	BreakerResetSeconds int    `json:"breaker_reset_seconds"` // 熔断恢复窗口
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, file
	Path   string `json:"path"`   // 日志文件路径
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// LoadConfig 加载配置
func LoadConfig(configPath string) (*Config, error) {
	var err error
	configOnce.Do(func() {
		globalConfig = &Config{}
		// 如果配置文件不存在，使用默认配置
		if _, err = os.Stat(configPath); os.IsNotExist(err) {
			logrus.Warnf("Config file not found: %s, using default config", configPath)
			globalConfig = defaultConfig()
			err = nil
			return
		}

		data, readErr := os.ReadFile(configPath)
		if readErr != nil {
			err = fmt.Errorf("failed to read config file: %w", readErr)
			return
		}

		if unmarshalErr := json.Unmarshal(data, globalConfig); unmarshalErr != nil {
			err = fmt.Errorf("failed to parse config file: %w", unmarshalErr)
			return
		}
	})

	if err != nil {
		return nil, err
	}

	return globalConfig, nil
}

// defaultConfig 默认配置（开发环境）
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:     "rental-service",
			Host:     "0.0.0.0",
			HTTPPort: 8080,
			GRPCPort: 50051,
		},
		Database: DatabaseConfig{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Password: "root",
			Database: "carrenthub",
			MaxIdle:  10,
			MaxOpen:  100,
		},
		Consul: ConsulConfig{
			Host: "localhost",
			Port: 8500,
		},
		Jaeger: JaegerConfig{
			Endpoint: "localhost:6831",
			Sampler:  1.0,
		},
		Auth: AuthConfig{
			Enabled:       true,
			JWTSecret:     "dev-secret-change-me",
			Issuer:        "carrenthub",
			Audience:      "carrenthub",
			TokenTTLHours: 24,
			PublicPaths:   []string{"/healthz", "/api/auth/"},
		},
		Client: ClientConfig{
			BaseURL:             "http://localhost:8080",
			TimeoutSeconds:      10,
			BreakerMaxFailures:  5,
			BreakerResetSeconds: 30,
		},
		Log: LogConfig{
			Level:  "debug",
			Format: "text",
			Output: "stdout",
			Path:   "logs/app.log",
		},
	}
}
