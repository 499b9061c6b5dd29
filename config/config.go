package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Admin    AdminConfig
	Discord  DiscordConfig
	AWS      AWSConfig
	Sync     SyncConfig
}

// ServerConfig holds admin HTTP API settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings (sweep queue and reports).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AdminConfig holds the operator accounts of the admin API. The viewer account is optional
// and read-only.
type AdminConfig struct {
	Username           string
	PasswordHash       string // bcrypt
	ViewerUsername     string
	ViewerPasswordHash string // bcrypt
}

// DiscordConfig holds bot credentials.
type DiscordConfig struct {
	BotToken      string
	InviteBaseURL string
}

// AWSConfig holds credentials and the bucket for embed images. Empty region disables uploads.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ImagesBucket    string
}

// SyncConfig holds reconciliation scheduling settings.
type SyncConfig struct {
	RoleSweepInterval time.Duration
	ReportTTL         time.Duration
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	sweepInterval, err := getEnvDuration("ROLE_SWEEP_INTERVAL", 6*time.Hour)
	if err != nil {
		return nil, err
	}
	reportTTL, err := getEnvDuration("SWEEP_REPORT_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 120),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "partnerbot"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		Admin: AdminConfig{
			Username:           getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash:       getEnv("ADMIN_PASSWORD_HASH", ""),
			ViewerUsername:     getEnv("VIEWER_USERNAME", ""),
			ViewerPasswordHash: getEnv("VIEWER_PASSWORD_HASH", ""),
		},
		Discord: DiscordConfig{
			BotToken:      os.Getenv("DISCORD_BOT_TOKEN"),
			InviteBaseURL: getEnv("INVITE_BASE_URL", "https://discord.gg/"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ImagesBucket:    getEnv("AWS_S3_IMAGES_BUCKET", "partnerbot-embed-images"),
		},
		Sync: SyncConfig{
			RoleSweepInterval: sweepInterval,
			ReportTTL:         reportTTL,
		},
	}
	if strings.TrimSpace(cfg.Discord.BotToken) == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
