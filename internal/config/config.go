package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	TransportSMTP = "smtp"
	TransportAMQP = "amqp"
	TransportLog  = "log"
	TransportNone = "none"
)

type MailConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	User     string   `yaml:"user"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

type Config struct {
	Addr     string `yaml:"addr"`
	DataFile string `yaml:"data_file"`

	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`

	PDFURL string `yaml:"pdf_url"`

	Mail              MailConfig    `yaml:"mail"`
	AMQPURL           string        `yaml:"amqp_url"`
	NotifyTransport   string        `yaml:"notify_transport"`
	NotifyTimeout     time.Duration `yaml:"notify_timeout"`
	NotifyMaxInFlight int           `yaml:"notify_max_in_flight"`

	DedupEnabled        bool `yaml:"dedup_enabled"`
	ChallengeEnabled    bool `yaml:"challenge_enabled"`
	ValidateEmailFormat bool `yaml:"validate_email_format"`

	SessionTTL      time.Duration `yaml:"session_ttl"`
	CookieSecure    bool          `yaml:"cookie_secure"`
	RateLimit       int           `yaml:"rate_limit"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	TrustProxy      bool          `yaml:"trust_proxy"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func defaults() *Config {
	return &Config{
		Addr:              ":8080",
		DataFile:          "leads.csv",
		Mail:              MailConfig{Port: 587},
		NotifyTimeout:     10 * time.Second,
		NotifyMaxInFlight: 32,
		DedupEnabled:      true,
		ChallengeEnabled:  true,
		SessionTTL:        30 * time.Minute,
		RateLimit:         10, // 10 req/min por IP
		RateLimitWindow:   time.Minute,
		CORSOrigins:       []string{"*"},
		LogLevel:          "info",
		ShutdownTimeout:   15 * time.Second,
	}
}

// Load reads .env (if present), then the YAML file at path (or CONFIG_FILE), then
// lets environment variables override both.
func Load(path string) (*Config, error) {
	// .env é opcional
	_ = godotenv.Load()

	cfg := defaults()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.NotifyTransport == "" {
		cfg.NotifyTransport = cfg.defaultTransport()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Addr = getEnv("HTTP_ADDR", c.Addr)
	c.DataFile = getEnv("LEADS_FILE", c.DataFile)

	c.AdminUsername = getEnv("ADMIN_USERNAME", c.AdminUsername)
	c.AdminPassword = getEnv("ADMIN_PASSWORD", c.AdminPassword)
	c.PDFURL = getEnv("PDF_URL", c.PDFURL)

	c.Mail.Host = getEnv("MAIL_HOST", c.Mail.Host)
	c.Mail.Port = getEnvInt("MAIL_PORT", c.Mail.Port)
	c.Mail.User = getEnv("MAIL_USER", c.Mail.User)
	c.Mail.Password = getEnv("MAIL_PASS", c.Mail.Password)
	c.Mail.From = getEnv("MAIL_FROM", c.Mail.From)
	c.Mail.To = getEnvList("MAIL_TO", c.Mail.To)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.NotifyTransport = strings.ToLower(getEnv("NOTIFY_TRANSPORT", c.NotifyTransport))
	c.NotifyTimeout = getEnvDuration("NOTIFY_TIMEOUT", c.NotifyTimeout)
	c.NotifyMaxInFlight = getEnvInt("NOTIFY_MAX_IN_FLIGHT", c.NotifyMaxInFlight)

	c.DedupEnabled = getEnvBool("DEDUP_ENABLED", c.DedupEnabled)
	c.ChallengeEnabled = getEnvBool("CHALLENGE_ENABLED", c.ChallengeEnabled)
	c.ValidateEmailFormat = getEnvBool("VALIDATE_EMAIL_FORMAT", c.ValidateEmailFormat)

	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)
	c.CookieSecure = getEnvBool("COOKIE_SECURE", c.CookieSecure)
	c.RateLimit = getEnvInt("RATE_LIMIT", c.RateLimit)
	c.RateLimitWindow = getEnvDuration("RATE_LIMIT_WINDOW", c.RateLimitWindow)
	c.CORSOrigins = getEnvList("CORS_ORIGINS", c.CORSOrigins)
	c.TrustProxy = getEnvBool("TRUST_PROXY", c.TrustProxy)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
}

func (c *Config) defaultTransport() string {
	switch {
	case c.AMQPURL != "":
		return TransportAMQP
	case c.Mail.Host != "":
		return TransportSMTP
	default:
		return TransportLog
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.AdminUsername == "" || c.AdminPassword == "" {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set"))
	}
	if c.DataFile == "" {
		errs = append(errs, errors.New("LEADS_FILE must not be empty"))
	}

	switch c.NotifyTransport {
	case TransportSMTP:
		if c.Mail.Host == "" || c.Mail.From == "" || len(c.Mail.To) == 0 {
			errs = append(errs, errors.New("smtp transport needs MAIL_HOST, MAIL_FROM and MAIL_TO"))
		}
	case TransportAMQP:
		if c.AMQPURL == "" {
			errs = append(errs, errors.New("amqp transport needs AMQP_URL"))
		}
		if c.Mail.Host == "" || c.Mail.From == "" || len(c.Mail.To) == 0 {
			errs = append(errs, errors.New("amqp transport needs MAIL_HOST, MAIL_FROM and MAIL_TO for the worker"))
		}
	case TransportLog, TransportNone:
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFY_TRANSPORT %q", c.NotifyTransport))
	}

	if c.NotifyTimeout <= 0 {
		errs = append(errs, errors.New("NOTIFY_TIMEOUT must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration aceita "10s", "1m" ou um número de segundos.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
