package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabaseDriver    string
	DatabasePath      string
	DatabaseURL       string
	SessionSecret     string
	GinMode           string
	LogMode           string
	AdminUserName     string
	AdminPassword     string
	AdminAuthDisabled bool
	CORSOrigins       []string
	Image             ImageConfig
}

// ImageConfig 描述上传图片的压缩参数。
type ImageConfig struct {
	MaxBytes  int64
	MaxPixels int64
	MaxWidth  int
	MaxHeight int
	Quality   int
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// DefaultSessionSecret 仅用于本地开发，生产环境必须通过 SESSION_SECRET 覆盖。
	DefaultSessionSecret = "lilian-dev-secret"
)

// Load 先尝试加载 .env，再从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	// .env 不存在时忽略，环境变量优先
	_ = godotenv.Load()

	port := envOrDefault("PORT", "8080")

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	driver := strings.ToLower(envOrDefault("DATABASE_DRIVER", DriverSQLite))
	if driver != DriverPostgres {
		driver = DriverSQLite
	}

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabaseDriver:    driver,
		DatabasePath:      envOrDefault("DATABASE_PATH", "lilian.db"),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SessionSecret:     envOrDefault("SESSION_SECRET", DefaultSessionSecret),
		GinMode:           envOrDefault("GIN_MODE", "release"),
		LogMode:           envOrDefault("LOG_MODE", "production"),
		AdminUserName:     strings.TrimSpace(os.Getenv("ADMIN_USERNAME")),
		AdminPassword:     strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
		AdminAuthDisabled: envBool("ADMIN_AUTH_DISABLED", false),
		CORSOrigins:       splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		Image: ImageConfig{
			MaxBytes:  int64(envInt("IMAGE_MAX_BYTES", 5*1024*1024)),
			MaxPixels: int64(envInt("IMAGE_MAX_PIXELS", 40_000_000)),
			MaxWidth:  envInt("IMAGE_MAX_WIDTH", 800),
			MaxHeight: envInt("IMAGE_MAX_HEIGHT", 600),
			Quality:   envInt("IMAGE_QUALITY", 85),
		},
	}
}

// UsesDefaultSessionSecret 表示会话密钥仍是开发默认值。
func (c AppConfig) UsesDefaultSessionSecret() bool {
	return c.SessionSecret == DefaultSessionSecret
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

// splitList 解析逗号分隔的列表，忽略空项。
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
