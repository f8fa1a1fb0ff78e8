package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// BusinessProfile holds the issuer identity stamped on every rendered
// document. It is read-only configuration, not an owned entity.
type BusinessProfile struct {
	Name    string
	Email   string
	Address string
}

// SMTP holds the outbound mail transport settings. Mail is disabled when
// Host is empty (see dispatch.NewSMTPMailer).
type SMTP struct {
	Host       string // host:port
	User       string
	Password   string
	From       string // sender email address
	FromName   string
	SkipVerify bool
	CertPath   string
}

type Config struct {
	Port        string
	DatabaseDSN string
	Env         string
	LogDir      string

	// PDFOutputDir is where generated invoice documents are persisted.
	PDFOutputDir string
	// RenderTimeout bounds the headless-engine content load per PDF call.
	RenderTimeout time.Duration

	// OverdueSchedule is a cron spec for the overdue sweeper; empty
	// disables it.
	OverdueSchedule string

	Business BusinessProfile
	SMTP     SMTP
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by caller) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", "file:billing.db")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.LogDir = getEnv("LOG_DIR", "logs")
	cfg.PDFOutputDir = getEnv("PDF_OUTPUT_DIR", "documents")
	cfg.RenderTimeout = getDuration("PDF_RENDER_TIMEOUT", 30*time.Second)
	cfg.OverdueSchedule = getEnv("OVERDUE_SCHEDULE", "@hourly")

	cfg.Business = BusinessProfile{
		Name:    getEnv("BUSINESS_NAME", "My Business"),
		Email:   getEnv("BUSINESS_EMAIL", ""),
		Address: getEnv("BUSINESS_ADDRESS", ""),
	}
	cfg.SMTP = SMTP{
		Host:       getEnv("SMTP_HOST", ""),
		User:       getEnv("SMTP_USER", ""),
		Password:   getEnv("SMTP_PASSWORD", ""),
		From:       getEnv("SMTP_FROM", ""),
		FromName:   getEnv("SMTP_FROM_NAME", cfg.Business.Name),
		SkipVerify: ParseBool("SMTP_SKIP_VERIFY", false),
		CertPath:   getEnv("SMTP_CERT", ""),
	}
	return cfg
}

// IsDevelopment reports whether the app runs in development mode, which
// enables stack detail in logs.
func (c Config) IsDevelopment() bool { return c.Env == "development" }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid duration for %s: %s", key, v)
			return def
		}
		return d
	}
	return def
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}
