package internal

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env           string              `mapstructure:"env" validate:"omitempty,oneof=development staging production test"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Messaging     MessagingConfig     `mapstructure:"messaging"`
	Leave         LeaveConfig         `mapstructure:"leave"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	OpenAPIPath       string        `mapstructure:"openapi_path"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	Source          string        `mapstructure:"source" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type SecurityConfig struct {
	JWTPrivateKey       string        `mapstructure:"jwt_private_key" validate:"required"`
	JWTPublicKey        string        `mapstructure:"jwt_public_key" validate:"required"`
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration" validate:"required"`
}

type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" validate:"min=0"`
	CalendarTTL   time.Duration `mapstructure:"calendar_ttl"`
}

type MessagingConfig struct {
	KafkaBrokers string        `mapstructure:"kafka_brokers"`
	Topic        string        `mapstructure:"topic" validate:"required_with=KafkaBrokers"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size" validate:"min=0"`
}

type LeaveConfig struct {
	FiscalYearStartMonth int  `mapstructure:"fiscal_year_start_month" validate:"min=1,max=12"`
	EnforceBalance       bool `mapstructure:"enforce_balance"`
	AccrualWorkers       int  `mapstructure:"accrual_workers" validate:"min=0"`
	AccrualQueueSize     int  `mapstructure:"accrual_queue_size" validate:"min=0"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := validator.New().Struct(c); err != nil {
		errs = append(errs, err.Error())
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if _, err := c.GetPrivateKey(); err != nil {
		return fmt.Errorf("invalid JWT private key: %w", err)
	}
	if _, err := c.GetPublicKey(); err != nil {
		return fmt.Errorf("invalid JWT public key: %w", err)
	}
	return nil
}

func (c *SecurityConfig) GetPrivateKey() (*rsa.PrivateKey, error) {
	keyData, err := base64.StdEncoding.DecodeString(c.JWTPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, errors.New("failed to parse PEM block")
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

func (c *SecurityConfig) GetPublicKey() (*rsa.PublicKey, error) {
	keyData, err := base64.StdEncoding.DecodeString(c.JWTPublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}
	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, errors.New("failed to parse PEM block")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return rsaPub, nil
}

// Brokers splits the comma separated kafka broker list.
func (c *MessagingConfig) Brokers() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// ApplyDefaults fills the optional knobs left empty in config.yml.
func (c *Config) ApplyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Server.OpenAPIPath == "" {
		c.Server.OpenAPIPath = "./api/openapi.yml"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Cache.CalendarTTL <= 0 {
		c.Cache.CalendarTTL = 30 * time.Minute
	}
	if c.Messaging.PollInterval <= 0 {
		c.Messaging.PollInterval = 3 * time.Second
	}
	if c.Messaging.BatchSize <= 0 {
		c.Messaging.BatchSize = 50
	}
	if c.Leave.FiscalYearStartMonth == 0 {
		c.Leave.FiscalYearStartMonth = 1
	}
	if c.Observability.Metrics.Enabled && c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}
