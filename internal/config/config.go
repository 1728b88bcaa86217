package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port          string `yaml:"port" env:"SERVER_PORT"`
		Mode          string `yaml:"mode" env:"SERVER_MODE"`
		PublicBaseURL string `yaml:"public_base_url" env:"SERVER_PUBLIC_BASE_URL"`
		AllowOrigin   string `yaml:"allow_origin" env:"SERVER_ALLOW_ORIGIN"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Storage struct {
		Driver         string `yaml:"driver" env:"STORAGE_DRIVER"` // local | s3
		Bucket         string `yaml:"bucket" env:"STORAGE_BUCKET"`
		Region         string `yaml:"region" env:"STORAGE_REGION"`
		Endpoint       string `yaml:"endpoint" env:"STORAGE_ENDPOINT"`
		LocalPath      string `yaml:"local_path" env:"STORAGE_LOCAL_PATH"`
		SignedURLTTL   string `yaml:"signed_url_ttl" env:"STORAGE_SIGNED_URL_TTL"`
		MaxUploadBytes int64  `yaml:"max_upload_bytes" env:"STORAGE_MAX_UPLOAD_BYTES"`
	} `yaml:"storage"`

	Redis struct {
		URL      string `yaml:"url" env:"REDIS_URL"`
		StatsTTL string `yaml:"stats_ttl" env:"REDIS_STATS_TTL"`
	} `yaml:"redis"`

	Kafka struct {
		Broker   string `yaml:"broker" env:"KAFKA_BROKER"`
		Topic    string `yaml:"topic" env:"KAFKA_TOPIC"`
		GroupID  string `yaml:"group_id" env:"KAFKA_GROUP_ID"`
		Username string `yaml:"username" env:"KAFKA_USERNAME"`
		Password string `yaml:"password" env:"KAFKA_PASSWORD"`
	} `yaml:"kafka"`

	SMTP struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		UseTLS    bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
		PortalURL string `yaml:"portal_url" env:"SMTP_PORTAL_URL"`
	} `yaml:"smtp"`

	Cron struct {
		Enabled         bool   `yaml:"enabled" env:"CRON_ENABLED"`
		CleanupSchedule string `yaml:"cleanup_schedule" env:"CRON_CLEANUP_SCHEDULE"`
		StatsSchedule   string `yaml:"stats_schedule" env:"CRON_STATS_SCHEDULE"`
		TokenSchedule   string `yaml:"token_schedule" env:"CRON_TOKEN_SCHEDULE"`
	} `yaml:"cron"`

	Authorization struct {
		// AllowUnassignedFaculty lets faculty without a department review any certificate.
		AllowUnassignedFaculty bool `yaml:"allow_unassigned_faculty" env:"AUTHZ_ALLOW_UNASSIGNED_FACULTY"`
	} `yaml:"authorization"`

	RateLimit struct {
		RPS   int `yaml:"rps" env:"RATE_LIMIT_RPS"`
		Burst int `yaml:"burst" env:"RATE_LIMIT_BURST"`
	} `yaml:"rate_limit"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.AllowOrigin = "*"

	// Database defaults
	config.Database.Driver = "postgres"
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "internportal"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	// JWT defaults
	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "internportal.app"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"

	// Storage defaults
	config.Storage.Driver = "local"
	config.Storage.Bucket = "certificates"
	config.Storage.Region = "us-east-1"
	config.Storage.LocalPath = "./uploads"
	config.Storage.SignedURLTTL = "1h"
	config.Storage.MaxUploadBytes = 10 << 20

	config.Redis.StatsTTL = "60s"

	config.Kafka.Topic = "portal-notifications"
	config.Kafka.GroupID = "internportal-notifier"

	config.SMTP.Host = "smtp.gmail.com"
	config.SMTP.Port = 465
	config.SMTP.FromName = "Intern Portal"
	config.SMTP.UseTLS = true

	config.Cron.Enabled = true
	config.Cron.CleanupSchedule = "0 */30 * * * *"
	config.Cron.StatsSchedule = "0 */5 * * * *"
	config.Cron.TokenSchedule = "0 0 3 * * *"

	config.RateLimit.RPS = 5
	config.RateLimit.Burst = 10
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return applyEnv(reflect.ValueOf(config))
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.JWT.RefreshTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT refresh token expiration format: %w", err)
	}

	switch strings.ToLower(config.Storage.Driver) {
	case "local":
	case "s3":
		if config.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}

	if _, err := time.ParseDuration(config.Storage.SignedURLTTL); err != nil {
		return fmt.Errorf("invalid signed URL TTL: %w", err)
	}

	if config.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("storage max upload bytes must be positive")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// BaseURL returns the externally reachable URL of this server
func (c *Config) BaseURL() string {
	if c.Server.PublicBaseURL != "" {
		return strings.TrimRight(c.Server.PublicBaseURL, "/")
	}
	return "http://localhost:" + c.Server.Port
}
