package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"rentaldesk-backend/internal/pricing"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Alert     AlertConfig     `yaml:"alert"`
	Log       LogConfig       `yaml:"log"`
	Billing   BillingConfig   `yaml:"billing"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// AuthConfig contains staff token and admin key settings. Tokens are issued
// by an external auth service; this backend only validates them.
type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret"`
	AdminKeyBcrypt string `yaml:"admin_key_bcrypt"` // bcrypt hash of the X-Admin-Key header value
}

// AlertConfig contains ops alert email settings (SendGrid)
type AlertConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	OpsEmail       string `yaml:"ops_email"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// RateScheduleConfig is the default rate schedule, used to seed the provider
// fallback and as the schedule of last resort when the store is unreachable.
type RateScheduleConfig struct {
	HourlyRatePaise int64  `yaml:"hourly_rate_paise"`
	GraceMinutes    int    `yaml:"grace_minutes"`
	BlockMinutes    int    `yaml:"block_minutes"`
	NightChargeTime string `yaml:"night_charge_time"`
	NightMultiplier string `yaml:"night_multiplier"`
}

// BillingConfig contains rental billing and lifecycle settings
type BillingConfig struct {
	BookingPrefix             string             `yaml:"booking_prefix"`
	CancellationWindowMinutes int                `yaml:"cancellation_window_minutes"`
	SubstitutionWindowMinutes int                `yaml:"substitution_window_minutes"`
	StartRoundingMinutes      int                `yaml:"start_rounding_minutes"` // 0 disables rounding
	Timezone                  string             `yaml:"timezone"`               // business-local tz, defines the ledger day
	DefaultSchedule           RateScheduleConfig `yaml:"default_schedule"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	AutoEndLedgers     string `yaml:"auto_end_ledgers"`
	RecomputeSummaries string `yaml:"recompute_summaries"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Auth
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.Auth.JWTSecret = val
	}
	if val := os.Getenv("ADMIN_KEY_BCRYPT"); val != "" {
		c.Auth.AdminKeyBcrypt = val
	}

	// Alerts
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Alert.SendGridAPIKey = val
	}
	if val := os.Getenv("OPS_EMAIL"); val != "" {
		c.Alert.OpsEmail = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Billing
	if val := os.Getenv("BUSINESS_TIMEZONE"); val != "" {
		c.Billing.Timezone = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and applies defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	// Auth validation
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	// Billing defaults
	if c.Billing.BookingPrefix == "" {
		c.Billing.BookingPrefix = "RNT"
	}
	if c.Billing.CancellationWindowMinutes == 0 {
		c.Billing.CancellationWindowMinutes = 120
	}
	if c.Billing.SubstitutionWindowMinutes == 0 {
		c.Billing.SubstitutionWindowMinutes = 15
	}
	if c.Billing.Timezone == "" {
		c.Billing.Timezone = "Asia/Kolkata"
	}
	if _, err := time.LoadLocation(c.Billing.Timezone); err != nil {
		return fmt.Errorf("invalid business timezone %q: %w", c.Billing.Timezone, err)
	}

	// Default schedule
	ds := &c.Billing.DefaultSchedule
	if ds.HourlyRatePaise == 0 {
		ds.HourlyRatePaise = 8000 // Rs 80/hour
	}
	if ds.GraceMinutes == 0 {
		ds.GraceMinutes = 15
	}
	if ds.BlockMinutes == 0 {
		ds.BlockMinutes = 30
	}
	if ds.NightChargeTime == "" {
		ds.NightChargeTime = "22:30"
	}
	if ds.NightMultiplier == "" {
		ds.NightMultiplier = "2"
	}
	if _, err := c.DefaultRateSchedule(); err != nil {
		return fmt.Errorf("invalid default rate schedule: %w", err)
	}

	// Scheduler defaults (cron specs with seconds, business-local time)
	if c.Scheduler.AutoEndLedgers == "" {
		c.Scheduler.AutoEndLedgers = "0 5 0 * * *" // 00:05 local
	}
	if c.Scheduler.RecomputeSummaries == "" {
		c.Scheduler.RecomputeSummaries = "0 30 0 * * *" // 00:30 local
	}

	return nil
}

// DefaultRateSchedule builds the validated default pricing schedule
func (c *Config) DefaultRateSchedule() (pricing.Schedule, error) {
	ds := c.Billing.DefaultSchedule
	mult, err := decimal.NewFromString(ds.NightMultiplier)
	if err != nil {
		return pricing.Schedule{}, fmt.Errorf("invalid night multiplier %q: %w", ds.NightMultiplier, err)
	}
	sched := pricing.Schedule{
		HourlyRatePaise: ds.HourlyRatePaise,
		GraceMinutes:    ds.GraceMinutes,
		BlockMinutes:    ds.BlockMinutes,
		NightChargeTime: ds.NightChargeTime,
		NightMultiplier: mult,
	}
	if err := sched.Validate(); err != nil {
		return pricing.Schedule{}, err
	}
	return sched, nil
}

// BusinessLocation returns the business-local timezone. Validate guarantees
// the name loads.
func (c *Config) BusinessLocation() *time.Location {
	loc, err := time.LoadLocation(c.Billing.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
