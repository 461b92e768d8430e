package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

const (
	DefaultPort            = "3000"
	DefaultStoreDriver     = "file"
	DefaultStorePath       = "data.json"
	DefaultCooldownSeconds = 60
	DefaultAuthMode        = AuthModeStatic
	DefaultRateLimitMax    = 10
	DefaultRateLimitWindow = 60
	DefaultTimeoutSeconds  = 10
	DefaultShutdownSeconds = 10
	DefaultEnvironment     = "development"
)

const (
	AuthModeStatic = "static"
	AuthModeBcrypt = "bcrypt"
	AuthModeJWT    = "jwt"
)

const configFileEnv = "CONFIG_FILE"

type Config struct {
	Env        string `toml:"env"`
	SentryDSN  string `toml:"sentry_dsn"`
	CronSecret string `toml:"cron_secret"`
	TrustProxy bool   `toml:"trust_proxy"`

	Server   ServerConfig   `toml:"server"`
	Store    StoreConfig    `toml:"store"`
	Cooldown CooldownConfig `toml:"cooldown"`
	Admin    AdminConfig    `toml:"admin"`
}

type ServerConfig struct {
	Port                   string `toml:"port"`
	ReadTimeoutSeconds     int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `toml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
}

type StoreConfig struct {
	Driver         string `toml:"driver"` // "file"(default), "memory", "bolt", "sqlite", "postgres", "mysql"
	Path           string `toml:"path"`
	DatabaseURL    string `toml:"database_url"`
	SkipMigrations bool   `toml:"skip_migrations"`
}

type CooldownConfig struct {
	FreeSeconds int `toml:"free_seconds"`
	PaidSeconds int `toml:"paid_seconds"`
}

type AdminConfig struct {
	AuthMode               string `toml:"auth_mode"` // "static"(default), "bcrypt", "jwt"
	Password               string `toml:"password"`
	PasswordHash           string `toml:"password_hash"`
	JWTSecret              string `toml:"jwt_secret"`
	RateLimitMax           int    `toml:"rate_limit_max"`
	RateLimitWindowSeconds int    `toml:"rate_limit_window_seconds"`
}

type Options struct {
	LoadDotEnv bool
	// File overrides CONFIG_FILE.
	File string
}

// Load builds the configuration from an optional TOML file, then environment
// variables, then defaults for whatever is still unset.
func Load(options Options) (*Config, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	cfg := &Config{}

	path := options.File
	if path == "" {
		path = strings.TrimSpace(os.Getenv(configFileEnv))
	}
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	fp, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open config file")
	}
	defer fp.Close()

	if err := toml.NewDecoder(fp).Decode(cfg); err != nil {
		return errors.Wrapf(err, "decode config file %s", path)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envOrDefault("APP_ENV", cfg.Env)
	cfg.SentryDSN = envOrDefault("SENTRY_DSN", cfg.SentryDSN)
	cfg.CronSecret = envOrDefault("CRON_SECRET", cfg.CronSecret)
	cfg.TrustProxy = EnvBoolOrDefault("TRUST_PROXY", cfg.TrustProxy)

	cfg.Server.Port = envOrDefault("PORT", cfg.Server.Port)
	cfg.Server.ReadTimeoutSeconds = envIntOrDefault("HTTP_READ_TIMEOUT_SECONDS", cfg.Server.ReadTimeoutSeconds)
	cfg.Server.WriteTimeoutSeconds = envIntOrDefault("HTTP_WRITE_TIMEOUT_SECONDS", cfg.Server.WriteTimeoutSeconds)
	cfg.Server.ShutdownTimeoutSeconds = envIntOrDefault("SHUTDOWN_TIMEOUT_SECONDS", cfg.Server.ShutdownTimeoutSeconds)

	cfg.Store.Driver = strings.ToLower(envOrDefault("STORE_DRIVER", cfg.Store.Driver))
	cfg.Store.Path = envOrDefault("STORE_PATH", cfg.Store.Path)
	cfg.Store.DatabaseURL = envOrDefault("DATABASE_URL", cfg.Store.DatabaseURL)
	cfg.Store.SkipMigrations = !EnvBoolOrDefault("RUN_MIGRATIONS_ON_STARTUP", !cfg.Store.SkipMigrations)

	cfg.Cooldown.FreeSeconds = envIntOrDefault("FREE_COOLDOWN_SECONDS", cfg.Cooldown.FreeSeconds)
	cfg.Cooldown.PaidSeconds = envIntOrDefault("PAID_COOLDOWN_SECONDS", cfg.Cooldown.PaidSeconds)

	cfg.Admin.AuthMode = strings.ToLower(envOrDefault("ADMIN_AUTH_MODE", cfg.Admin.AuthMode))
	cfg.Admin.Password = envOrDefault("ADMIN_PASSWORD", cfg.Admin.Password)
	cfg.Admin.PasswordHash = envOrDefault("ADMIN_PASSWORD_HASH", cfg.Admin.PasswordHash)
	cfg.Admin.JWTSecret = envOrDefault("ADMIN_JWT_SECRET", cfg.Admin.JWTSecret)
	cfg.Admin.RateLimitMax = envIntOrDefault("ADMIN_RATE_LIMIT_MAX", cfg.Admin.RateLimitMax)
	cfg.Admin.RateLimitWindowSeconds = envIntOrDefault("ADMIN_RATE_LIMIT_WINDOW_SECONDS", cfg.Admin.RateLimitWindowSeconds)
}

func applyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = DefaultEnvironment
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.Server.WriteTimeoutSeconds <= 0 {
		cfg.Server.WriteTimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.Server.ShutdownTimeoutSeconds <= 0 {
		cfg.Server.ShutdownTimeoutSeconds = DefaultShutdownSeconds
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DefaultStoreDriver
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath(cfg.Store.Driver)
	}
	if cfg.Cooldown.FreeSeconds <= 0 {
		cfg.Cooldown.FreeSeconds = DefaultCooldownSeconds
	}
	if cfg.Cooldown.PaidSeconds <= 0 {
		cfg.Cooldown.PaidSeconds = DefaultCooldownSeconds
	}
	if cfg.Admin.AuthMode == "" {
		cfg.Admin.AuthMode = DefaultAuthMode
	}
	if cfg.Admin.RateLimitMax <= 0 {
		cfg.Admin.RateLimitMax = DefaultRateLimitMax
	}
	if cfg.Admin.RateLimitWindowSeconds <= 0 {
		cfg.Admin.RateLimitWindowSeconds = DefaultRateLimitWindow
	}
}

func defaultStorePath(driver string) string {
	switch driver {
	case "bolt":
		return "data.db"
	case "sqlite":
		return "data.sqlite"
	default:
		return DefaultStorePath
	}
}

func validate(cfg *Config) error {
	switch cfg.Store.Driver {
	case "memory", "file", "bolt", "sqlite":
	case "postgres", "mysql":
		if cfg.Store.DatabaseURL == "" {
			return errors.Errorf("invalid config.store.database_url: required for driver %q", cfg.Store.Driver)
		}
	default:
		return errors.Errorf("invalid config.store.driver: %q", cfg.Store.Driver)
	}

	switch cfg.Admin.AuthMode {
	case AuthModeStatic:
		if cfg.Admin.Password == "" {
			return errors.New("missing required config: ADMIN_PASSWORD")
		}
	case AuthModeBcrypt:
		if cfg.Admin.PasswordHash == "" {
			return errors.New("missing required config: ADMIN_PASSWORD_HASH")
		}
	case AuthModeJWT:
		if cfg.Admin.JWTSecret == "" {
			return errors.New("missing required config: ADMIN_JWT_SECRET")
		}
	default:
		return errors.Errorf("invalid config.admin.auth_mode: %q", cfg.Admin.AuthMode)
	}

	return nil
}

func (c ServerConfig) Addr() string {
	return ":" + c.Port
}

func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func (c CooldownConfig) Free() time.Duration {
	return time.Duration(c.FreeSeconds) * time.Second
}

func (c CooldownConfig) Paid() time.Duration {
	return time.Duration(c.PaidSeconds) * time.Second
}

func (c AdminConfig) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
