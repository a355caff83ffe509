// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Session  SessionConfig  `mapstructure:"session"`
	Files    FilesConfig    `mapstructure:"files"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// BackendConfig 描述远端法律助手后端（摘要、问答、起草、审阅）的地址与超时。
type BackendConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout 返回单次后端调用的超时时间。
func (c BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SessionConfig 存储会话状态存储相关的配置。
type SessionConfig struct {
	Store           string `mapstructure:"store"` // "memory" 或 "redis"
	TTLMinutes      int    `mapstructure:"ttl_minutes"`
	MaxSessions     int    `mapstructure:"max_sessions"`
	JanitorSchedule string `mapstructure:"janitor_schedule"`
}

// TTL 返回会话的空闲过期时间。
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// FilesConfig 存储上传文件与起草文档的配置。
type FilesConfig struct {
	Storage               string `mapstructure:"storage"` // "memory" 或 "minio"
	MaxUploadBytes        int64  `mapstructure:"max_upload_bytes"`
	DownloadExpiryMinutes int    `mapstructure:"download_expiry_minutes"`
}

// DownloadExpiry 返回预签名下载链接的有效期。
func (c FilesConfig) DownloadExpiry() time.Duration {
	return time.Duration(c.DownloadExpiryMinutes) * time.Minute
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储会话 token 相关的配置。
type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	TokenExpireHours int    `mapstructure:"token_expire_hours"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// AuditConfig 控制是否消费会话事件并写入 MySQL 审计表。
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout_seconds", 120)
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.ttl_minutes", 120)
	v.SetDefault("session.max_sessions", 1000)
	v.SetDefault("session.janitor_schedule", "@every 5m")
	v.SetDefault("files.storage", "memory")
	v.SetDefault("files.max_upload_bytes", 10*1024*1024)
	v.SetDefault("files.download_expiry_minutes", 15)
	v.SetDefault("database.mysql.dsn", "")
	v.SetDefault("database.redis.addr", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	// 空默认值让 viper 认识这些键，环境变量才能覆盖
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.token_expire_hours", 12)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "lawguide-session-events")
	v.SetDefault("kafka.group_id", "lawguide-audit-consumer")
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key_id", "")
	v.SetDefault("minio.secret_access_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket_name", "lawguide")
	v.SetDefault("audit.enabled", false)
}

// Load 从指定路径读取 YAML 配置并叠加 LAWGUIDE_* 环境变量。
// 配置文件不存在时仅使用默认值与环境变量。
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("LAWGUIDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 检查互相依赖的配置项。
func (c Config) Validate() error {
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported session.store %q", c.Session.Store)
	}
	switch c.Files.Storage {
	case "memory", "minio":
	default:
		return fmt.Errorf("unsupported files.storage %q", c.Files.Storage)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret must be set")
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return errors.New("backend.timeout_seconds must be positive")
	}
	if c.Files.MaxUploadBytes <= 0 {
		return errors.New("files.max_upload_bytes must be positive")
	}
	if c.Audit.Enabled && (!c.Kafka.Enabled || c.Database.MySQL.DSN == "") {
		return errors.New("audit requires kafka.enabled and database.mysql.dsn")
	}
	return nil
}

// Init 初始化配置加载，解析失败时直接 panic。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}
