package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Environment  string             `mapstructure:"environment"`
	Server       ServerConfig       `mapstructure:"http_server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Security     SecurityConfig     `mapstructure:"security" validate:"required"`
	VNPay        VNPayConfig        `mapstructure:"vnpay" validate:"required"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret" validate:"required,min=32"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret" validate:"required,min=32"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" validate:"required,min=1m,max=1h"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" validate:"required,min=1h"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" validate:"required,min=10,max=15"`
}

// VNPayConfig carries the merchant credentials and endpoints issued by the
// gateway. TimeoutMinutes bounds how long a generated payment URL stays valid.
type VNPayConfig struct {
	TmnCode        string        `mapstructure:"tmn_code" validate:"required"`
	HashSecret     string        `mapstructure:"hash_secret" validate:"required"`
	PayURL         string        `mapstructure:"pay_url" validate:"required,url"`
	APIURL         string        `mapstructure:"api_url" validate:"required,url"`
	ReturnURL      string        `mapstructure:"return_url" validate:"required,url"`
	Version        string        `mapstructure:"version"`
	TimeoutMinutes int           `mapstructure:"timeout_minutes"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

type NotificationConfig struct {
	WebhookURL   string        `mapstructure:"webhook_url"`
	MaxWorkers   int           `mapstructure:"max_workers"`
	JobQueueSize int           `mapstructure:"job_queue_size"`
	SendTimeout  time.Duration `mapstructure:"send_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds the full configuration from environment variables.
// Used in production and docker environments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Environment: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:              getEnvAsInt("APP_PORT", 8080),
			BaseURL:           getEnv("APP_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("APP_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("APP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("APP_READ_TIMEOUT", 10*time.Second),
			IdleTimeout:       getEnvAsDuration("APP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("APP_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			AccessTokenSecret:    getEnv("JWT_ACCESS_SECRET", ""),
			RefreshTokenSecret:   getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenDuration:  getEnvAsDuration("JWT_ACCESS_DURATION", 15*time.Minute),
			RefreshTokenDuration: getEnvAsDuration("JWT_REFRESH_DURATION", 168*time.Hour),
			BCryptCost:           getEnvAsInt("BCRYPT_COST", 12),
		},
		VNPay: VNPayConfig{
			TmnCode:        getEnv("VNPAY_TMN_CODE", ""),
			HashSecret:     getEnv("VNPAY_HASH_SECRET", ""),
			PayURL:         getEnv("VNPAY_PAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			APIURL:         getEnv("VNPAY_API_URL", "https://sandbox.vnpayment.vn/merchant_webapi/api/transaction"),
			ReturnURL:      getEnv("VNPAY_RETURN_URL", ""),
			Version:        getEnv("VNPAY_VERSION", "2.1.0"),
			TimeoutMinutes: getEnvAsInt("VNPAY_TIMEOUT_MINUTES", 15),
			HTTPTimeout:    getEnvAsDuration("VNPAY_HTTP_TIMEOUT", 30*time.Second),
			MaxRetries:     getEnvAsInt("VNPAY_MAX_RETRIES", 3),
		},
		Notification: NotificationConfig{
			WebhookURL:   getEnv("NOTIFICATION_WEBHOOK_URL", ""),
			MaxWorkers:   getEnvAsInt("NOTIFICATION_MAX_WORKERS", 10),
			JobQueueSize: getEnvAsInt("NOTIFICATION_JOB_QUEUE_SIZE", 100),
			SendTimeout:  getEnvAsDuration("NOTIFICATION_SEND_TIMEOUT", 10*time.Second),
			MaxRetries:   getEnvAsInt("NOTIFICATION_MAX_RETRIES", 3),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.VNPay.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("vnpay config: %v", err))
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
	if len(c.AccessTokenSecret) < 32 {
		return errors.New("access token secret must be at least 32 characters")
	}
	if len(c.RefreshTokenSecret) < 32 {
		return errors.New("refresh token secret must be at least 32 characters")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	return nil
}

func (c *VNPayConfig) Validate() error {
	if c.TmnCode == "" {
		return errors.New("tmn_code is required")
	}
	if c.HashSecret == "" {
		return errors.New("hash_secret is required")
	}
	if c.PayURL == "" {
		return errors.New("pay_url is required")
	}
	if c.ReturnURL == "" {
		return errors.New("return_url is required")
	}
	if c.TimeoutMinutes <= 0 {
		return errors.New("timeout_minutes must be positive")
	}
	return nil
}
