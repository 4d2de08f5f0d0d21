// Package config loads server configuration from YAML, .env and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Log           LogConfig           `yaml:"log"`
	Auth          AuthConfig          `yaml:"auth"`
	CSRF          CSRFConfig          `yaml:"csrf"`
	CORS          CORSConfig          `yaml:"cors"`
	OAuth         OAuthConfig         `yaml:"oauth"`
	Redis         RedisConfig         `yaml:"redis"`
	Search        SearchConfig        `yaml:"search"`
	Registrations RegistrationsConfig `yaml:"registrations"`
	Fields        FieldsConfig        `yaml:"fields"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds the SQLite file location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	CookieName      string `yaml:"cookie_name"`
}

// CSRFConfig holds form token settings.
type CSRFConfig struct {
	Key            string   `yaml:"key"` // 32 bytes
	Secure         bool     `yaml:"secure"`
	TrustedOrigins []string `yaml:"trusted_origins"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// OAuthConfig holds the external login provider.
type OAuthConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	AuthURL      string `yaml:"auth_url"`
	TokenURL     string `yaml:"token_url"`
	UserInfoURL  string `yaml:"userinfo_url"`
	RedirectURL  string `yaml:"redirect_url"`
}

// RedisConfig holds the optional activity stream mirror.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"`
	MaxLen   int64  `yaml:"max_len"`
}

// SearchConfig holds profile search settings.
type SearchConfig struct {
	ReindexSchedule string `yaml:"reindex_schedule"` // cron spec, empty disables
	MaxResults      int    `yaml:"max_results"`
}

// RegistrationsConfig holds registration behavior shared by fields.
type RegistrationsConfig struct {
	EmailAsUsername bool `yaml:"email_as_username"`
}

// FieldsConfig holds per-field parameters.
type FieldsConfig struct {
	Email    EmailFieldConfig    `yaml:"email"`
	Username UsernameFieldConfig `yaml:"username"`
}

// EmailFieldConfig holds the email field's validation rules.
type EmailFieldConfig struct {
	Searchable        bool     `yaml:"searchable"`
	AllowedDomains    []string `yaml:"allowed_domains"`
	DisallowedDomains []string `yaml:"disallowed_domains"`
	ForbiddenWords    []string `yaml:"forbidden_words"`
}

// UsernameFieldConfig holds the username field's rules.
type UsernameFieldConfig struct {
	MinLength int `yaml:"min_length"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path and applies defaults. An empty path
// yields the defaults alone.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads .env when present, reads the YAML file and then applies
// environment overrides.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/social.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Auth.TokenTTLMinutes == 0 {
		c.Auth.TokenTTLMinutes = 60 * 24
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "social_session"
	}
	if c.Redis.Stream == "" {
		c.Redis.Stream = "social:stream"
	}
	if c.Redis.MaxLen == 0 {
		c.Redis.MaxLen = 10000
	}
	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = 50
	}
	if c.Fields.Username.MinLength == 0 {
		c.Fields.Username.MinLength = 4
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SOCIAL_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SOCIAL_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("SOCIAL_CSRF_KEY"); v != "" {
		c.CSRF.Key = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("OAUTH_CLIENT_ID"); v != "" {
		c.OAuth.ClientID = v
	}
	if v := os.Getenv("OAUTH_CLIENT_SECRET"); v != "" {
		c.OAuth.ClientSecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
