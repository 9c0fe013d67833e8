package config

import (
	"log"
	"os"
	"strconv"
)

type BitrixConfig struct {
	WebhookURL string
	Timeout    int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c PostgresConfig) Enabled() bool {
	return c.Host != ""
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout int
	Timeout     int
	Prefix      string
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
}

func (c S3Config) Enabled() bool {
	return c.Endpoint != ""
}

type AppConfig struct {
	Port              string
	Env               string
	Bitrix            BitrixConfig
	Postgres          PostgresConfig
	Redis             RedisConfig
	S3                S3Config
	ExportDir         string
	FilesPublicPrefix string
	ExternalURL       string
	WorkflowFile      string
	RunTTLHours       int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int value %q: %v", s, err)
	}
	return i
}

func mustBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Fatalf("invalid bool value %q: %v", s, err)
	}
	return b
}

// Load reads the process environment. Empty PG_HOST, REDIS_ADDR or
// S3_ENDPOINT switch the matching sink off.
func Load() AppConfig {
	return AppConfig{
		Port: getenv("APP_PORT", "8010"),
		Env:  getenv("APP_ENV", "production"),
		Bitrix: BitrixConfig{
			WebhookURL: getenv("BITRIX_WEBHOOK_URL", ""),
			Timeout:    mustAtoi(getenv("BITRIX_TIMEOUT", "15")),
		},
		Postgres: PostgresConfig{
			Host:     getenv("PG_HOST", ""),
			Port:     mustAtoi(getenv("PG_PORT", "5432")),
			User:     getenv("PG_USER", "root"),
			Password: getenv("PG_PASSWORD", ""),
			DBName:   getenv("PG_DB", "negativacao"),
			SSLMode:  getenv("PG_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:        getenv("REDIS_ADDR", ""),
			Password:    getenv("REDIS_PASSWORD", ""),
			DB:          mustAtoi(getenv("REDIS_DB", "0")),
			MaxRetries:  mustAtoi(getenv("REDIS_MAX_RETRIES", "5")),
			DialTimeout: mustAtoi(getenv("REDIS_DIAL_TIMEOUT", "10")),
			Timeout:     mustAtoi(getenv("REDIS_TIMEOUT", "5")),
			Prefix:      getenv("REDIS_PREFIX", "negativacao_"),
		},
		S3: S3Config{
			Endpoint:        getenv("S3_ENDPOINT", ""),
			AccessKeyID:     getenv("S3_ACCESS_KEY", ""),
			SecretAccessKey: getenv("S3_SECRET_KEY", ""),
			Bucket:          getenv("S3_BUCKET", "reports"),
			Region:          getenv("S3_REGION", "us-east-1"),
			UseSSL:          mustBool(getenv("S3_USE_SSL", "false")),
			Prefix:          getenv("S3_PREFIX", ""),
		},
		ExportDir:         getenv("EXPORT_DIR", "./exports"),
		FilesPublicPrefix: getenv("FILES_PUBLIC_PREFIX", "/files"),
		ExternalURL:       getenv("EXTERNAL_URL", ""),
		WorkflowFile:      getenv("WORKFLOW_CONFIG", ""),
		RunTTLHours:       mustAtoi(getenv("RUN_TTL_HOURS", "24")),
	}
}
