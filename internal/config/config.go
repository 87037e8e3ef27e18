package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/calicode24/calicode/internal/logger"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Logger    logger.Config   `mapstructure:"logger" yaml:"logger"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	AI        AIConfig        `mapstructure:"ai" yaml:"ai"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Stripe    StripeConfig    `mapstructure:"stripe" yaml:"stripe"`
	Email     EmailConfig     `mapstructure:"email" yaml:"email"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" yaml:"ratelimit"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port" yaml:"port"`
	AppURL       string        `mapstructure:"app_url" yaml:"app_url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	CookieSecure bool          `mapstructure:"cookie_secure" yaml:"cookie_secure"`
	Location     string        `mapstructure:"location" yaml:"location"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"`
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	User            string        `mapstructure:"user" yaml:"user"`
	Password        string        `mapstructure:"password" yaml:"password"`
	Name            string        `mapstructure:"name" yaml:"name"`
	SSLMode         string        `mapstructure:"sslmode" yaml:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate" yaml:"auto_migrate"`
}

type StorageConfig struct {
	Endpoint      string `mapstructure:"endpoint" yaml:"endpoint"`
	Region        string `mapstructure:"region" yaml:"region"`
	Bucket        string `mapstructure:"bucket" yaml:"bucket"`
	AccessKey     string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey     string `mapstructure:"secret_key" yaml:"secret_key"`
	UseSSL        bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
	PublicBaseURL string `mapstructure:"public_base_url" yaml:"public_base_url"`
}

type AIConfig struct {
	Provider      string        `mapstructure:"provider" yaml:"provider"`
	GeminiAPIKey  string        `mapstructure:"gemini_api_key" yaml:"gemini_api_key"`
	GeminiModel   string        `mapstructure:"gemini_model" yaml:"gemini_model"`
	GeminiBaseURL string        `mapstructure:"gemini_base_url" yaml:"gemini_base_url"`
	OpenAIAPIKey  string        `mapstructure:"openai_api_key" yaml:"openai_api_key"`
	OpenAIModel   string        `mapstructure:"openai_model" yaml:"openai_model"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type AuthConfig struct {
	Provider               string        `mapstructure:"provider" yaml:"provider"`
	SupabaseURL            string        `mapstructure:"supabase_url" yaml:"supabase_url"`
	SupabaseAnonKey        string        `mapstructure:"supabase_anon_key" yaml:"supabase_anon_key"`
	SupabaseServiceRoleKey string        `mapstructure:"supabase_service_role_key" yaml:"supabase_service_role_key"`
	JWTSecret              string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	SessionTTL             time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	BcryptCost             int           `mapstructure:"bcrypt_cost" yaml:"bcrypt_cost"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key" yaml:"secret_key"`
	ProPriceID    string `mapstructure:"pro_price_id" yaml:"pro_price_id"`
	WebhookSecret string `mapstructure:"webhook_secret" yaml:"webhook_secret"`
}

type EmailConfig struct {
	Enabled          bool   `mapstructure:"enabled" yaml:"enabled"`
	SMTPHost         string `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort         int    `mapstructure:"smtp_port" yaml:"smtp_port"`
	SMTPUser         string `mapstructure:"smtp_user" yaml:"smtp_user"`
	SMTPPassword     string `mapstructure:"smtp_password" yaml:"smtp_password"`
	FromAddress      string `mapstructure:"from_address" yaml:"from_address"`
	FromName         string `mapstructure:"from_name" yaml:"from_name"`
	SendVerification bool   `mapstructure:"send_verification" yaml:"send_verification"`
}

type RateLimitConfig struct {
	Capacity   int `mapstructure:"capacity" yaml:"capacity"`
	RefillRate int `mapstructure:"refill_rate" yaml:"refill_rate"`
}

// env vars the product has always used, without the CALICODE_ prefix
var legacyEnv = map[string][]string{
	"ai.gemini_api_key":              {"GEMINI_API_KEY"},
	"ai.openai_api_key":              {"OPENAI_API_KEY"},
	"stripe.secret_key":              {"STRIPE_SECRET_KEY"},
	"stripe.pro_price_id":            {"STRIPE_PRO_PRICE_ID"},
	"stripe.webhook_secret":          {"STRIPE_WEBHOOK_SECRET"},
	"server.app_url":                 {"APP_URL", "NEXT_PUBLIC_APP_URL"},
	"email.smtp_host":                {"SMTP_HOST"},
	"email.smtp_port":                {"SMTP_PORT"},
	"email.smtp_user":                {"SMTP_USER"},
	"email.smtp_password":            {"SMTP_PASS"},
	"email.from_address":             {"SMTP_FROM"},
	"auth.supabase_url":              {"SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"},
	"auth.supabase_anon_key":         {"SUPABASE_ANON_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY"},
	"auth.supabase_service_role_key": {"SUPABASE_SERVICE_ROLE_KEY"},
	"auth.jwt_secret":                {"SUPABASE_JWT_SECRET"},
	"database.dsn":                   {"DATABASE_URL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.app_url", "http://localhost:3000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.max_upload_mb", 100)
	v.SetDefault("server.cookie_secure", false)
	v.SetDefault("server.location", "UTC")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "calicode")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "project-files")

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini_model", "gemini-1.5-pro")
	v.SetDefault("ai.gemini_base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("ai.openai_model", "gpt-4o")
	v.SetDefault("ai.timeout", "60s")

	v.SetDefault("auth.provider", "supabase")
	v.SetDefault("auth.session_ttl", "1h")
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "in-v3.mailjet.com")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.from_address", "calicode24.mail@gmail.com")
	v.SetDefault("email.from_name", "CaliCode 24")
	v.SetDefault("email.send_verification", false)

	v.SetDefault("ratelimit.capacity", 10)
	v.SetDefault("ratelimit.refill_rate", 1)
}

// Load reads config.yaml (from path, or ./ and ./configs when path is empty),
// then applies CALICODE_* and the legacy unprefixed environment variables.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("CALICODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range legacyEnv {
		args := append([]string{key, "CALICODE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Server.AppURL = strings.TrimRight(cfg.Server.AppURL, "/")
	return &cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres, mysql or sqlite, got %q", c.Database.Driver)
	}
	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("ai.provider must be gemini or openai, got %q", c.AI.Provider)
	}
	switch c.Auth.Provider {
	case "supabase", "local":
	default:
		return fmt.Errorf("auth.provider must be supabase or local, got %q", c.Auth.Provider)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Stripe.SecretKey != "" && c.Stripe.WebhookSecret == "" {
		return errors.New("stripe.webhook_secret is required when stripe.secret_key is set")
	}
	if _, err := url.Parse(c.Server.AppURL); err != nil {
		return fmt.Errorf("server.app_url: %w", err)
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("server.max_upload_mb must be positive")
	}
	return nil
}

// MaxUploadBytes is the upload ceiling in bytes
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB * 1024 * 1024
}

// DatabaseDSN returns database.dsn when set, otherwise a DSN built for the driver.
func (c *Config) DatabaseDSN() string {
	d := c.Database
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case "mysql":
		return c.MySQLDSN()
	case "sqlite":
		return d.Name
	default:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.User, d.Password),
			Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
			Path:     d.Name,
			RawQuery: "sslmode=" + d.SSLMode,
		}
		return u.String()
	}
}

// MySQLDSN builds a go-sql-driver DSN
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC&multiStatements=true&clientFoundRows=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Redacted returns a copy with secrets masked
func (c Config) Redacted() Config {
	mask := func(s *string) {
		if *s != "" {
			*s = "****"
		}
	}
	mask(&c.Database.Password)
	mask(&c.Database.DSN)
	mask(&c.Storage.SecretKey)
	mask(&c.AI.GeminiAPIKey)
	mask(&c.AI.OpenAIAPIKey)
	mask(&c.Auth.SupabaseServiceRoleKey)
	mask(&c.Auth.JWTSecret)
	mask(&c.Stripe.SecretKey)
	mask(&c.Stripe.WebhookSecret)
	mask(&c.Email.SMTPPassword)
	return c
}

// YAML renders the redacted config
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}
