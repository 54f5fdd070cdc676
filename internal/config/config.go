package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Environment names accepted in APP_ENV.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// Email delivery modes.
const (
	EmailModeLog  = "log"
	EmailModeSMTP = "smtp"
)

// RequiredVars must be present for the dashboard to start.
var RequiredVars = []string{
	"DATABASE_URL",
	"ADMIN_PASSWORD",
	"CRON_SECRET",
	"LMS_API_KEY",
}

// Config is built once at startup and handed to every component.
// Treat it as read-only after Load returns.
type Config struct {
	Env  string
	Port int

	DatabaseURL string

	AdminPassword string
	CronSecret    string
	APIKey        string

	Session SessionConfig
	Email   EmailConfig
	Storage StorageConfig
	Server  ServerConfig

	DashboardURL   string
	AllowedOrigins []string
	StaticDir      string
	MetricsEnabled bool
}

// SessionConfig controls the admin session cookie.
type SessionConfig struct {
	CookieName    string
	Duration      time.Duration
	SweepInterval time.Duration
	Secure        bool
}

// EmailConfig holds email configuration
type EmailConfig struct {
	Mode      string // "log" or "smtp"
	Host      string
	Port      int
	User      string
	Password  string
	FromEmail string
	FromName  string
}

// StorageConfig describes the S3-compatible bucket used for lead exports.
// It is optional; Enabled reports whether enough of it is set.
type StorageConfig struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	UseSSL         bool
}

// Enabled reports whether lead exports can be stored.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != "" && s.Bucket != ""
}

// ServerConfig holds HTTP server timeouts
type ServerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	if err := ValidateEnv(RequiredVars); err != nil {
		return nil, err
	}

	env := strings.ToLower(GetEnvOrDefault("APP_ENV", EnvDevelopment))
	switch env {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return nil, fmt.Errorf("APP_ENV must be one of development, test, production, got %q", env)
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	port, err := getEnvInt("PORT", 8080)
	collect(err)
	sessionDays, err := getEnvInt("SESSION_DURATION_DAYS", 30)
	collect(err)
	sweepInterval, err := getEnvDuration("SESSION_SWEEP_INTERVAL", 0)
	collect(err)
	smtpPort, err := getEnvInt("SMTP_PORT", 587)
	collect(err)
	readTimeout, err := getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	collect(err)
	writeTimeout, err := getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second)
	collect(err)
	idleTimeout, err := getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second)
	collect(err)

	if sessionDays <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_DURATION_DAYS must be positive, got %d", sessionDays))
	}

	cfg := &Config{
		Env:           env,
		Port:          port,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		CronSecret:    os.Getenv("CRON_SECRET"),
		APIKey:        os.Getenv("LMS_API_KEY"),
		Session: SessionConfig{
			CookieName:    GetEnvOrDefault("SESSION_COOKIE_NAME", "lms_session"),
			Duration:      time.Duration(sessionDays) * 24 * time.Hour,
			SweepInterval: sweepInterval,
		},
		Email: EmailConfig{
			Mode:      strings.ToLower(GetEnvOrDefault("EMAIL_MODE", EmailModeLog)),
			Host:      os.Getenv("SMTP_HOST"),
			Port:      smtpPort,
			User:      os.Getenv("SMTP_USER"),
			Password:  os.Getenv("SMTP_PASSWORD"),
			FromEmail: GetEnvOrDefault("SMTP_FROM_EMAIL", "noreply@example.com"),
			FromName:  GetEnvOrDefault("SMTP_FROM_NAME", "Lead Dashboard"),
		},
		Storage: StorageConfig{
			Endpoint:       os.Getenv("S3_ENDPOINT"),
			PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			SecretKey:      os.Getenv("S3_SECRET_KEY"),
			Bucket:         os.Getenv("S3_BUCKET_NAME"),
			Region:         GetEnvOrDefault("S3_REGION", "us-east-1"),
			UseSSL:         os.Getenv("S3_USE_SSL") == "true",
		},
		Server: ServerConfig{
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		StaticDir:      os.Getenv("STATIC_DIR"),
		MetricsEnabled: GetEnvOrDefault("METRICS_ENABLED", "true") == "true",
	}
	cfg.Session.Secure = cfg.IsProduction()
	cfg.DashboardURL = GetEnvOrDefault("DASHBOARD_URL", fmt.Sprintf("http://localhost:%d", port))

	switch cfg.Email.Mode {
	case EmailModeLog:
	case EmailModeSMTP:
		if err := ValidateEnv([]string{"SMTP_HOST", "SMTP_USER", "SMTP_PASSWORD", "SMTP_FROM_EMAIL"}); err != nil {
			errs = append(errs, fmt.Errorf("EMAIL_MODE=smtp: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("EMAIL_MODE must be log or smtp, got %q", cfg.Email.Mode))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return cfg, nil
}
