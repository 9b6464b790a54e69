package config

import (
	"errors"
	"fmt"
	"os"

	"studiocrm/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Security   SecurityConfig   `yaml:"security"`
	Session    SessionConfig    `yaml:"session"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path   string       `yaml:"path"`
	Backup BackupConfig `yaml:"backup"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type SecurityConfig struct {
	BcryptCost        int             `yaml:"bcrypt_cost"`
	MinPasswordLength int             `yaml:"min_password_length"`
	AllowMakeAdmin    bool            `yaml:"allow_make_admin"`
	LoginRateLimit    RateLimitConfig `yaml:"login_rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type SessionConfig struct {
	TTLSeconds int         `yaml:"ttl_seconds"`
	Redis      RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env не обязателен, переменные могут прийти из окружения процесса
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

	if c.Security.MinPasswordLength < 1 {
		return errors.New("security.min_password_length must be positive")
	}

	if c.Session.Redis.Enabled && c.Session.Redis.Address == "" {
		return errors.New("session.redis.address is required when redis is enabled")
	}

	return nil
}

// MakeAdminAllowed решает, доступна ли привилегированная команда make_admin.
// В development она открыта всегда, иначе нужен явный opt-in через конфиг
// или переменную окружения ALLOW_MAKE_ADMIN=1.
func (c *Config) MakeAdminAllowed() bool {
	if c.App.Environment == "development" {
		return true
	}
	if c.Security.AllowMakeAdmin {
		return true
	}
	return os.Getenv("ALLOW_MAKE_ADMIN") == "1"
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "studiocrm"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}

	if c.Security.MinPasswordLength == 0 {
		c.Security.MinPasswordLength = models.DefaultMinPasswordLength
	}
	if c.Security.LoginRateLimit.RPS == 0 {
		c.Security.LoginRateLimit.RPS = models.DefaultLoginRPS
	}
	if c.Security.LoginRateLimit.Burst == 0 {
		c.Security.LoginRateLimit.Burst = models.DefaultLoginBurst
	}

	if c.Session.TTLSeconds == 0 {
		c.Session.TTLSeconds = models.DefaultSessionTTL
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
