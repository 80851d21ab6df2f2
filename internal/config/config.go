package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr        string
	RedisURL    string
	PostgresURL string
	CORSOrigin  string

	MeiliURL       string
	MeiliMasterKey string

	// Object storage - empty endpoint means file content is kept inline
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Audit archive - empty dir disables it
	ArchiveDir string

	// Automation service - empty URL disables the proxy endpoints
	AutomationURL string

	// Notification scheduler
	PollInterval       time.Duration
	NotificationWindow time.Duration

	// Urgency thresholds in calendar days
	CriticalDays int
	HighDays     int
	MediumDays   int

	// SMTP - empty host means notifications go to the log
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPTo       string
	SMTPFromName string
}

func Load() Config {
	return Config{
		Addr:        getenv("API_ADDR", ":8686"),
		RedisURL:    getenv("REDIS_URL", "redis://localhost:6379/0"),
		PostgresURL: getenv("DATABASE_URL", ""),
		CORSOrigin:  getenv("BIDTRACK_CORS_ORIGIN", "*"),

		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "bidtrack-files"),
		MinioUseSSL:    getenvBool("MINIO_USE_SSL", false),

		ArchiveDir: getenv("BIDTRACK_ARCHIVE_DIR", ""),

		AutomationURL: getenv("AUTOMATION_URL", ""),

		PollInterval:       time.Duration(getenvInt("BIDTRACK_POLL_INTERVAL_SECONDS", 30)) * time.Second,
		NotificationWindow: time.Duration(getenvInt("BIDTRACK_NOTIFICATION_WINDOW_SECONDS", 60)) * time.Second,

		CriticalDays: getenvInt("BIDTRACK_URGENCY_CRITICAL_DAYS", 2),
		HighDays:     getenvInt("BIDTRACK_URGENCY_HIGH_DAYS", 7),
		MediumDays:   getenvInt("BIDTRACK_URGENCY_MEDIUM_DAYS", 14),

		// SMTP - empty by default, notifications fall back to the log
		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", "587"),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),
		SMTPTo:       getenv("SMTP_TO", ""),
		SMTPFromName: getenv("SMTP_FROM_NAME", "Bidtrack"),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
