package config

import (
	"errors"
	"fmt"
	"os"

	"radiantbloom/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Backup        BackupConfig        `yaml:"backup"`
	Redis         RedisConfig         `yaml:"redis"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Logging       LoggingConfig       `yaml:"logging"`
	API           APIConfig           `yaml:"api"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Google        GoogleConfig        `yaml:"google"`
	Worker        WorkerConfig        `yaml:"worker"`
	Exports       ExportConfig        `yaml:"exports"`
	Services      []models.Service    `yaml:"services"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
	HealthCheckPort   int  `yaml:"health_check_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP            APIHTTPConfig      `yaml:"http"`
	Auth            APIAuthConfig      `yaml:"auth"`
	RateLimit       APIRateLimitConfig `yaml:"rate_limit"`
	PublicRateLimit PublicRateConfig   `yaml:"public_rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	// Enabled is a pointer so a config that omits the flag gets
	// auth on, while an explicit enabled:false can still turn it off.
	Enabled      *bool          `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

func (a APIAuthConfig) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

// APIRateLimitConfig throttles authenticated admin clients.
type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// PublicRateConfig throttles anonymous booking traffic per client IP.
type PublicRateConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

type NotificationsConfig struct {
	SMTP       SMTPConfig     `yaml:"smtp"`
	AdminEmail string         `yaml:"admin_email"`
	Telegram   TelegramConfig `yaml:"telegram"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	Debug    bool   `yaml:"debug"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
}

type WorkerConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds"`
	BatchSize       int  `yaml:"batch_size"`
	MaxRetries      int  `yaml:"max_retries"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Backup.Enabled && c.Backup.StoragePath == "" {
		return errors.New("backup storage path is required when backups are enabled")
	}

	if c.API.Auth.IsEnabled() && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api auth enabled but no api keys configured")
	}

	if c.Google.BookingSpreadSheetID != "" && c.Google.GoogleCredentialsFile == "" {
		return errors.New("google credentials file is required when spreadsheet sync is configured")
	}

	return ValidateServices(c.Services)
}

// ValidateServices checks the seeded catalog for duplicate slugs and
// unusable durations.
func ValidateServices(services []models.Service) error {
	slugs := make(map[string]bool)
	for _, svc := range services {
		if svc.Slug == "" {
			return fmt.Errorf("service '%s' has empty slug", svc.Name)
		}
		if slugs[svc.Slug] {
			return fmt.Errorf("duplicate service slug found: %s", svc.Slug)
		}
		slugs[svc.Slug] = true
		if svc.DurationMinutes <= 0 {
			return fmt.Errorf("service '%s' has non-positive duration", svc.Slug)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}
	if c.API.PublicRateLimit.Requests == 0 {
		c.API.PublicRateLimit.Requests = 30
	}
	if c.API.PublicRateLimit.WindowSeconds == 0 {
		c.API.PublicRateLimit.WindowSeconds = 60
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Notifications.SMTP.Port == 0 {
		c.Notifications.SMTP.Port = 587
	}
	if c.Worker.IntervalSeconds == 0 {
		c.Worker.IntervalSeconds = 30
	}
	if c.Worker.BatchSize == 0 {
		c.Worker.BatchSize = 10
	}
	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 5
	}
}
