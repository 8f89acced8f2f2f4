package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"labportal/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Backup        BackupConfig        `yaml:"backup"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Logging       LoggingConfig       `yaml:"logging"`
	API           APIConfig           `yaml:"api"`
	Booking       BookingConfig       `yaml:"booking"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Items         []models.Item       `yaml:"items"`
	Exports       ExportConfig        `yaml:"exports"`
	Google        GoogleConfig        `yaml:"google"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// APIGRPCConfig configures the gRPC health endpoint.
type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIAuthConfig struct {
	Enabled     bool           `yaml:"enabled"`
	HeaderToken string         `yaml:"header_token"`
	Tokens      []APIClientKey `yaml:"tokens"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// BookingConfig holds the business rules applied to booking requests.
type BookingConfig struct {
	OpenTime          string          `yaml:"open_time"`
	CloseTime         string          `yaml:"close_time"`
	MinLabDuration    time.Duration   `yaml:"min_lab_duration"`
	MaxLabDayDuration time.Duration   `yaml:"max_lab_day_duration"`
	Timezone          string          `yaml:"timezone"`
	RateLimit         RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig bounds booking attempts per requester email.
type RateLimitConfig struct {
	Attempts int           `yaml:"attempts"`
	Window   time.Duration `yaml:"window"`
}

type NotificationsConfig struct {
	AdminEmails []string       `yaml:"admin_emails"`
	Telegram    TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	BotToken     string  `yaml:"bot_token"`
	AdminChatIDs []int64 `yaml:"admin_chat_ids"`
	Debug        bool    `yaml:"debug"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; variables may come from the environment directly.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

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
	if c.Booking.Timezone != "" {
		if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
			return fmt.Errorf("booking timezone %q: %w", c.Booking.Timezone, err)
		}
	}
	if c.Booking.RateLimit.Attempts < 0 {
		return errors.New("booking rate limit attempts must not be negative")
	}
	if c.API.Auth.Enabled && len(c.API.Auth.Tokens) == 0 {
		return errors.New("api auth is enabled but no tokens are configured")
	}

	return ValidateItems(c.Items)
}

func ValidateItems(items []models.Item) error {
	ids := make(map[string]bool)
	for _, item := range items {
		if item.ID == "" {
			return fmt.Errorf("item '%s' has empty ID", item.Title)
		}
		if ids[item.ID] {
			return fmt.Errorf("duplicate item ID found: %s", item.ID)
		}
		if !item.Type.Valid() {
			return fmt.Errorf("item %s has unknown type %q", item.ID, item.Type)
		}
		if item.PriceRate < 0 {
			return fmt.Errorf("item %s has negative price rate", item.ID)
		}
		ids[item.ID] = true
	}
	return nil
}

// Location resolves the booking timezone, falling back to local time.
func (b BookingConfig) Location() *time.Location {
	if b.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "labportal"
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderToken == "" {
		c.API.Auth.HeaderToken = "x-admin-token"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Booking.OpenTime == "" {
		c.Booking.OpenTime = "09:00"
	}
	if c.Booking.CloseTime == "" {
		c.Booking.CloseTime = "18:00"
	}
	if c.Booking.MinLabDuration == 0 {
		c.Booking.MinLabDuration = time.Hour
	}
	if c.Booking.MaxLabDayDuration == 0 {
		c.Booking.MaxLabDayDuration = 9 * time.Hour
	}
	if c.Booking.RateLimit.Attempts == 0 {
		c.Booking.RateLimit.Attempts = 5
	}
	if c.Booking.RateLimit.Window == 0 {
		c.Booking.RateLimit.Window = 15 * time.Minute
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
