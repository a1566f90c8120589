package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	NewRelic  NewRelicConfig  `yaml:"newrelic"`
	Auth      AuthConfig      `yaml:"auth"`
	Rooms     RoomsConfig     `yaml:"rooms"`
	Maps      MapsConfig      `yaml:"maps"`
	Assistant AssistantConfig `yaml:"assistant"`
	Push      PushConfig      `yaml:"push"`
	Mail      MailConfig      `yaml:"mail"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	AllowOrigin  string        `yaml:"allow_origin"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	DBName       string `yaml:"dbname"`
	SSLMode      string `yaml:"sslmode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	TLS          bool          `yaml:"tls"`
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string `yaml:"app_name"`
	LicenseKey string `yaml:"license_key"`
	Enabled    bool   `yaml:"enabled"`
}

// AuthConfig holds sign-up and session token configuration.
type AuthConfig struct {
	JWTSecret           string        `yaml:"jwt_secret"`
	TokenTTL            time.Duration `yaml:"token_ttl"`
	VerificationTTL     time.Duration `yaml:"verification_ttl"`
	AllowedEmailDomain  string        `yaml:"allowed_email_domain"`
	RequireVerification bool          `yaml:"require_verification"`
	VerifyURL           string        `yaml:"verify_url"`
	// ExposeVerificationToken returns the verification token in the sign-up
	// response. Development only.
	ExposeVerificationToken bool `yaml:"expose_verification_token"`
}

// RoomsConfig holds room lifecycle configuration.
type RoomsConfig struct {
	DefaultExpiry  time.Duration `yaml:"default_expiry"`
	MaxExpiry      time.Duration `yaml:"max_expiry"`
	ReapInterval   time.Duration `yaml:"reap_interval"`
	SearchRadiusKm float64       `yaml:"search_radius_km"`
}

// MapsConfig holds geocoding and routing configuration.
type MapsConfig struct {
	NominatimURL string        `yaml:"nominatim_url"`
	OSRMURL      string        `yaml:"osrm_url"`
	Region       string        `yaml:"region"`
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
	Enabled      bool          `yaml:"enabled"`
}

// AssistantConfig holds hosted language model configuration.
type AssistantConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
	Workers    int    `yaml:"workers"`
}

// MailConfig holds the SMTP relay used for verification email.
type MailConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	From     string        `yaml:"from"`
	Timeout  time.Duration `yaml:"timeout"`
}

// RateLimitConfig holds per-IP rate limits for expensive routes.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			AllowOrigin:  "*",
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         "5432",
			User:         "postgres",
			Password:     "postgres",
			DBName:       "rideshare",
			SSLMode:      "disable",
			MaxOpenConns: 25,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			PoolSize:     20,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		NewRelic: NewRelicConfig{
			AppName: "rideshare-service",
		},
		Auth: AuthConfig{
			JWTSecret:           "change-me",
			TokenTTL:            24 * time.Hour,
			VerificationTTL:     48 * time.Hour,
			AllowedEmailDomain:  "ves.ac.in",
			RequireVerification: true,
			VerifyURL:           "http://localhost:3000/verify",
		},
		Rooms: RoomsConfig{
			DefaultExpiry:  60 * time.Minute,
			MaxExpiry:      24 * time.Hour,
			ReapInterval:   time.Minute,
			SearchRadiusKm: 5,
		},
		Maps: MapsConfig{
			NominatimURL: "https://nominatim.openstreetmap.org",
			OSRMURL:      "https://router.project-osrm.org",
			Region:       "Mumbai, India",
			UserAgent:    "rideshare-service/1.0",
			Timeout:      5 * time.Second,
			Enabled:      true,
		},
		Assistant: AssistantConfig{
			Model:   "gemini-2.5-flash",
			Timeout: 20 * time.Second,
		},
		Push: PushConfig{
			TTL:     3600,
			Workers: 2,
		},
		Mail: MailConfig{
			Port:    587,
			Timeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			PerSecond: 1,
			Burst:     5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config %s: %w", path, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.AllowOrigin = getEnv("SERVER_ALLOW_ORIGIN", cfg.Server.AllowOrigin)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MaxOpenConns = getIntEnv("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getIntEnv("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.PoolSize = getIntEnv("REDIS_POOL_SIZE", cfg.Redis.PoolSize)
	cfg.Redis.DialTimeout = getDurationEnv("REDIS_DIAL_TIMEOUT", cfg.Redis.DialTimeout)
	cfg.Redis.ReadTimeout = getDurationEnv("REDIS_READ_TIMEOUT", cfg.Redis.ReadTimeout)
	cfg.Redis.WriteTimeout = getDurationEnv("REDIS_WRITE_TIMEOUT", cfg.Redis.WriteTimeout)
	cfg.Redis.TLS = getBoolEnv("REDIS_TLS", cfg.Redis.TLS)

	cfg.NewRelic.AppName = getEnv("NEW_RELIC_APP_NAME", cfg.NewRelic.AppName)
	cfg.NewRelic.LicenseKey = getEnv("NEW_RELIC_LICENSE_KEY", cfg.NewRelic.LicenseKey)
	cfg.NewRelic.Enabled = getBoolEnv("NEW_RELIC_ENABLED", cfg.NewRelic.Enabled)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenTTL = getDurationEnv("AUTH_TOKEN_TTL", cfg.Auth.TokenTTL)
	cfg.Auth.VerificationTTL = getDurationEnv("AUTH_VERIFICATION_TTL", cfg.Auth.VerificationTTL)
	cfg.Auth.AllowedEmailDomain = getEnv("AUTH_ALLOWED_EMAIL_DOMAIN", cfg.Auth.AllowedEmailDomain)
	cfg.Auth.RequireVerification = getBoolEnv("AUTH_REQUIRE_VERIFICATION", cfg.Auth.RequireVerification)
	cfg.Auth.VerifyURL = getEnv("AUTH_VERIFY_URL", cfg.Auth.VerifyURL)
	cfg.Auth.ExposeVerificationToken = getBoolEnv("AUTH_EXPOSE_VERIFICATION_TOKEN", cfg.Auth.ExposeVerificationToken)

	cfg.Rooms.DefaultExpiry = getDurationEnv("ROOMS_DEFAULT_EXPIRY", cfg.Rooms.DefaultExpiry)
	cfg.Rooms.MaxExpiry = getDurationEnv("ROOMS_MAX_EXPIRY", cfg.Rooms.MaxExpiry)
	cfg.Rooms.ReapInterval = getDurationEnv("ROOMS_REAP_INTERVAL", cfg.Rooms.ReapInterval)
	cfg.Rooms.SearchRadiusKm = getFloatEnv("ROOMS_SEARCH_RADIUS_KM", cfg.Rooms.SearchRadiusKm)

	cfg.Maps.NominatimURL = getEnv("MAPS_NOMINATIM_URL", cfg.Maps.NominatimURL)
	cfg.Maps.OSRMURL = getEnv("MAPS_OSRM_URL", cfg.Maps.OSRMURL)
	cfg.Maps.Region = getEnv("MAPS_REGION", cfg.Maps.Region)
	cfg.Maps.UserAgent = getEnv("MAPS_USER_AGENT", cfg.Maps.UserAgent)
	cfg.Maps.Timeout = getDurationEnv("MAPS_TIMEOUT", cfg.Maps.Timeout)
	cfg.Maps.Enabled = getBoolEnv("MAPS_ENABLED", cfg.Maps.Enabled)

	cfg.Assistant.APIKey = getEnv("GEMINI_API_KEY", cfg.Assistant.APIKey)
	cfg.Assistant.Model = getEnv("ASSISTANT_MODEL", cfg.Assistant.Model)
	cfg.Assistant.Timeout = getDurationEnv("ASSISTANT_TIMEOUT", cfg.Assistant.Timeout)

	cfg.Push.PublicKey = getEnv("VAPID_PUBLIC_KEY", cfg.Push.PublicKey)
	cfg.Push.PrivateKey = getEnv("VAPID_PRIVATE_KEY", cfg.Push.PrivateKey)
	cfg.Push.Subject = getEnv("VAPID_SUBJECT", cfg.Push.Subject)
	cfg.Push.TTL = getIntEnv("PUSH_TTL", cfg.Push.TTL)
	cfg.Push.Workers = getIntEnv("PUSH_WORKERS", cfg.Push.Workers)

	cfg.Mail.Host = getEnv("MAIL_HOST", cfg.Mail.Host)
	cfg.Mail.Port = getIntEnv("MAIL_PORT", cfg.Mail.Port)
	cfg.Mail.Username = getEnv("MAIL_USERNAME", cfg.Mail.Username)
	cfg.Mail.Password = getEnv("MAIL_PASSWORD", cfg.Mail.Password)
	cfg.Mail.From = getEnv("MAIL_FROM", cfg.Mail.From)
	cfg.Mail.Timeout = getDurationEnv("MAIL_TIMEOUT", cfg.Mail.Timeout)

	cfg.RateLimit.PerSecond = getFloatEnv("RATE_LIMIT_PER_SECOND", cfg.RateLimit.PerSecond)
	cfg.RateLimit.Burst = getIntEnv("RATE_LIMIT_BURST", cfg.RateLimit.Burst)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
}

func (c *Config) validate() error {
	if c.Rooms.DefaultExpiry < 0 || c.Rooms.MaxExpiry <= 0 || c.Rooms.DefaultExpiry > c.Rooms.MaxExpiry {
		return fmt.Errorf("invalid room expiry bounds: default=%s max=%s", c.Rooms.DefaultExpiry, c.Rooms.MaxExpiry)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Push.Workers <= 0 {
		c.Push.Workers = 1
	}
	if c.Rooms.ReapInterval <= 0 {
		c.Rooms.ReapInterval = time.Minute
	}
	return nil
}

// DSN returns the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// PushEnabled reports whether VAPID keys are configured.
func (c PushConfig) PushEnabled() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}

// Enabled reports whether an SMTP relay is configured.
func (c MailConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
