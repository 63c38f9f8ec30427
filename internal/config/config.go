// Package config loads runtime settings from an optional YAML file, a .env
// file and the environment, and watches the file for changes.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"stressless/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. STRESSLESS_LOG_LEVEL.
const EnvPrefix = "STRESSLESS"

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Log            LogConfig            `mapstructure:"log"`
	Admin          AdminConfig          `mapstructure:"admin"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Session        SessionConfig        `mapstructure:"session"`
	Lock           LockConfig           `mapstructure:"lock"`
	OIDC           OIDCConfig           `mapstructure:"oidc"`
}

type ServerConfig struct {
	Addr   string `mapstructure:"addr"`
	WebDir string `mapstructure:"web_dir"`
	Mode   string `mapstructure:"mode"`

	// SecureCookies marks session cookies Secure; enable behind TLS.
	SecureCookies bool `mapstructure:"secure_cookies"`
}

// DatabaseConfig selects the store. An empty URL runs on the in-memory store.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig enables the shared lock and event fan-out when URL is set.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type RecommendationConfig struct {
	FallbackLevel int `mapstructure:"fallback_level"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type LockConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// OIDCConfig enables single sign-on when Issuer is set.
type OIDCConfig struct {
	Issuer       string `mapstructure:"issuer"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// Enabled reports whether single sign-on is configured.
func (c OIDCConfig) Enabled() bool {
	return c.Issuer != "" && c.ClientID != ""
}

// Debug reports whether the server runs in debug mode.
func (c *Config) Debug() bool {
	return c.Server.Mode == "debug"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.web_dir", "web")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("database.url", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("admin.username", "manager")
	v.SetDefault("admin.password", "")
	v.SetDefault("recommendation.fallback_level", domain.DefaultFallbackLevel)
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("lock.ttl", 10*time.Second)
	v.SetDefault("oidc.issuer", "")
	v.SetDefault("oidc.client_id", "")
	v.SetDefault("oidc.client_secret", "")
	v.SetDefault("oidc.redirect_url", "")
}

// Load reads file (optional, YAML) and overlays .env and environment
// variables. Plain DATABASE_URL, REDIS_URL, ADDR and WEB_DIR are honoured
// alongside the prefixed names.
func Load(file string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("redis.url", EnvPrefix+"_REDIS_URL", "REDIS_URL")
	_ = v.BindEnv("server.addr", EnvPrefix+"_SERVER_ADDR", "ADDR")
	_ = v.BindEnv("server.web_dir", EnvPrefix+"_SERVER_WEB_DIR", "WEB_DIR")

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if err := domain.ValidateStressLevel(c.Recommendation.FallbackLevel); err != nil {
		errs = append(errs, fmt.Errorf("recommendation.fallback_level: %w", err))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Lock.TTL <= 0 {
		errs = append(errs, errors.New("lock.ttl must be positive"))
	}
	if c.OIDC.Issuer != "" && c.OIDC.RedirectURL == "" {
		errs = append(errs, errors.New("oidc.redirect_url is required when oidc.issuer is set"))
	}
	return errors.Join(errs...)
}
