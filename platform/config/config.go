// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// DispatchConfig provides settings for the due-touch dispatcher and its
// asynq worker.
type DispatchConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetDueScanInterval() time.Duration
	GetDueScanLookahead() time.Duration
	GetDueScanBatchSize() int
}

// RankingConfig provides the tunable scoring parameters for the priority
// ranking engine. The defaults reproduce the historically observed behavior;
// all constants are deliberately configuration, not law.
type RankingConfig interface {
	GetRankingBaseScore() int
	GetRankingDueTodayScore() int
	GetRankingOverdueBase() int
	GetRankingOverduePerDay() int
	GetRankingOverdueCap() int
	GetRankingUpcomingFloor() int
	GetRankingFollowUpBonus() int
	GetRankingDefaultLimit() int
}

// TurboConfig provides settings for the turbo batch runner.
type TurboConfig interface {
	GetTurboAutoAdvanceWindow() time.Duration
}

// WhatsAppConfig provides settings for the WhatsApp gateway probe.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
}

// SMTPConfig provides settings for the email channel probe.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	IsSMTPEnabled() bool
}

// Config is the concrete application configuration.
type Config struct {
	Env         string
	HTTPAddr    string
	DatabaseURL string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	DueScanInterval  time.Duration
	DueScanLookahead time.Duration
	DueScanBatchSize int

	RankingBaseScore     int
	RankingDueTodayScore int
	RankingOverdueBase   int
	RankingOverduePerDay int
	RankingOverdueCap    int
	RankingUpcomingFloor int
	RankingFollowUpBonus int
	RankingDefaultLimit  int

	TurboAutoAdvanceWindow time.Duration

	WhatsAppURL      string
	WhatsAppKey      string
	WhatsAppDeviceID string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	PhoneDefaultRegion string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// DispatchConfig implementation
func (c *Config) GetRedisURL() string                { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool          { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string          { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int           { return c.AsynqConcurrency }
func (c *Config) GetDueScanInterval() time.Duration  { return c.DueScanInterval }
func (c *Config) GetDueScanLookahead() time.Duration { return c.DueScanLookahead }
func (c *Config) GetDueScanBatchSize() int           { return c.DueScanBatchSize }

// RankingConfig implementation
func (c *Config) GetRankingBaseScore() int     { return c.RankingBaseScore }
func (c *Config) GetRankingDueTodayScore() int { return c.RankingDueTodayScore }
func (c *Config) GetRankingOverdueBase() int   { return c.RankingOverdueBase }
func (c *Config) GetRankingOverduePerDay() int { return c.RankingOverduePerDay }
func (c *Config) GetRankingOverdueCap() int    { return c.RankingOverdueCap }
func (c *Config) GetRankingUpcomingFloor() int { return c.RankingUpcomingFloor }
func (c *Config) GetRankingFollowUpBonus() int { return c.RankingFollowUpBonus }
func (c *Config) GetRankingDefaultLimit() int  { return c.RankingDefaultLimit }

// TurboConfig implementation
func (c *Config) GetTurboAutoAdvanceWindow() time.Duration { return c.TurboAutoAdvanceWindow }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppURL() string      { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string      { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string { return c.WhatsAppDeviceID }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string     { return c.SMTPHost }
func (c *Config) GetSMTPPort() int        { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string { return c.SMTPPassword }
func (c *Config) IsSMTPEnabled() bool     { return c.SMTPHost != "" }

// GetPhoneDefaultRegion returns the default region for phone parsing.
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "followups"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		DueScanInterval:  mustDuration(getEnv("DUE_SCAN_INTERVAL", "5m")),
		DueScanLookahead: mustDuration(getEnv("DUE_SCAN_LOOKAHEAD", "0s")),
		DueScanBatchSize: mustInt(getEnv("DUE_SCAN_BATCH_SIZE", "200")),

		RankingBaseScore:     mustInt(getEnv("RANKING_BASE_SCORE", "50")),
		RankingDueTodayScore: mustInt(getEnv("RANKING_DUE_TODAY_SCORE", "65")),
		RankingOverdueBase:   mustInt(getEnv("RANKING_OVERDUE_BASE", "70")),
		RankingOverduePerDay: mustInt(getEnv("RANKING_OVERDUE_PER_DAY", "2")),
		RankingOverdueCap:    mustInt(getEnv("RANKING_OVERDUE_CAP", "90")),
		RankingUpcomingFloor: mustInt(getEnv("RANKING_UPCOMING_FLOOR", "30")),
		RankingFollowUpBonus: mustInt(getEnv("RANKING_FOLLOWUP_BONUS", "10")),
		RankingDefaultLimit:  mustInt(getEnv("RANKING_DEFAULT_LIMIT", "10")),

		TurboAutoAdvanceWindow: mustDuration(getEnv("TURBO_AUTO_ADVANCE_WINDOW", "20s")),

		WhatsAppURL:      getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:      getEnv("WHATSAPP_KEY", ""),
		WhatsAppDeviceID: getEnv("WHATSAPP_DEVICE_ID", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		PhoneDefaultRegion: getEnv("PHONE_DEFAULT_REGION", "DE"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func mustDuration(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
