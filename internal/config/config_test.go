package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedEnv = []string{
	"CONFIG_FILE", "APP_ENV", "SENTRY_DSN", "CRON_SECRET", "TRUST_PROXY", "PORT",
	"HTTP_READ_TIMEOUT_SECONDS", "HTTP_WRITE_TIMEOUT_SECONDS", "SHUTDOWN_TIMEOUT_SECONDS",
	"STORE_DRIVER", "STORE_PATH", "DATABASE_URL", "RUN_MIGRATIONS_ON_STARTUP",
	"FREE_COOLDOWN_SECONDS", "PAID_COOLDOWN_SECONDS",
	"ADMIN_AUTH_MODE", "ADMIN_PASSWORD", "ADMIN_PASSWORD_HASH", "ADMIN_JWT_SECRET",
	"ADMIN_RATE_LIMIT_MAX", "ADMIN_RATE_LIMIT_WINDOW_SECONDS",
}

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range managedEnv {
		t.Setenv(name, "")
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ADMIN_PASSWORD", "secret")

		cfg, err := Load(Options{})
		require.NoError(t, err)

		assert.Equal(t, DefaultEnvironment, cfg.Env)
		assert.Equal(t, ":3000", cfg.Server.Addr())
		assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout())
		assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout())
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout())
		assert.Equal(t, "file", cfg.Store.Driver)
		assert.Equal(t, "data.json", cfg.Store.Path)
		assert.False(t, cfg.Store.SkipMigrations)
		assert.Equal(t, time.Minute, cfg.Cooldown.Free())
		assert.Equal(t, time.Minute, cfg.Cooldown.Paid())
		assert.Equal(t, AuthModeStatic, cfg.Admin.AuthMode)
		assert.Equal(t, 10, cfg.Admin.RateLimitMax)
		assert.Equal(t, time.Minute, cfg.Admin.RateLimitWindow())
		assert.False(t, cfg.TrustProxy)
	})

	t.Run("reads environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "8080")
		t.Setenv("TRUST_PROXY", "yes")
		t.Setenv("STORE_DRIVER", "BOLT")
		t.Setenv("FREE_COOLDOWN_SECONDS", "30")
		t.Setenv("PAID_COOLDOWN_SECONDS", "300")
		t.Setenv("RUN_MIGRATIONS_ON_STARTUP", "false")
		t.Setenv("ADMIN_AUTH_MODE", "jwt")
		t.Setenv("ADMIN_JWT_SECRET", "signing")

		cfg, err := Load(Options{})
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Server.Addr())
		assert.True(t, cfg.TrustProxy)
		assert.Equal(t, "bolt", cfg.Store.Driver)
		assert.Equal(t, "data.db", cfg.Store.Path)
		assert.True(t, cfg.Store.SkipMigrations)
		assert.Equal(t, 30*time.Second, cfg.Cooldown.Free())
		assert.Equal(t, 5*time.Minute, cfg.Cooldown.Paid())
		assert.Equal(t, AuthModeJWT, cfg.Admin.AuthMode)
	})

	t.Run("invalid numbers fall back to defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ADMIN_PASSWORD", "secret")
		t.Setenv("FREE_COOLDOWN_SECONDS", "soon")
		t.Setenv("ADMIN_RATE_LIMIT_MAX", "-4")

		cfg, err := Load(Options{})
		require.NoError(t, err)

		assert.Equal(t, DefaultCooldownSeconds, cfg.Cooldown.FreeSeconds)
		assert.Equal(t, DefaultRateLimitMax, cfg.Admin.RateLimitMax)
	})

	t.Run("reads toml file and lets env override it", func(t *testing.T) {
		clearEnv(t)
		path := writeConfigFile(t, `
env = "production"
cron_secret = "cron"

[server]
port = "9000"

[store]
driver = "sqlite"
path = "/var/lib/dispenser/data.sqlite"

[cooldown]
free_seconds = 15
paid_seconds = 45

[admin]
auth_mode = "static"
password = "from-file"
rate_limit_max = 3
`)
		t.Setenv("PAID_COOLDOWN_SECONDS", "90")

		cfg, err := Load(Options{File: path})
		require.NoError(t, err)

		assert.Equal(t, "production", cfg.Env)
		assert.Equal(t, "cron", cfg.CronSecret)
		assert.Equal(t, ":9000", cfg.Server.Addr())
		assert.Equal(t, "sqlite", cfg.Store.Driver)
		assert.Equal(t, "/var/lib/dispenser/data.sqlite", cfg.Store.Path)
		assert.Equal(t, 15*time.Second, cfg.Cooldown.Free())
		assert.Equal(t, 90*time.Second, cfg.Cooldown.Paid())
		assert.Equal(t, "from-file", cfg.Admin.Password)
		assert.Equal(t, 3, cfg.Admin.RateLimitMax)
	})

	t.Run("reads CONFIG_FILE", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", writeConfigFile(t, "[admin]\npassword = \"x\"\n"))

		cfg, err := Load(Options{})
		require.NoError(t, err)
		assert.Equal(t, "x", cfg.Admin.Password)
	})

	t.Run("missing config file", func(t *testing.T) {
		clearEnv(t)

		_, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.toml")})
		assert.ErrorContains(t, err, "open config file")
	})

	t.Run("malformed config file", func(t *testing.T) {
		clearEnv(t)

		_, err := Load(Options{File: writeConfigFile(t, "[admin\npassword=")})
		assert.ErrorContains(t, err, "decode config file")
	})
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "static mode requires password",
			env:     map[string]string{},
			wantErr: "missing required config: ADMIN_PASSWORD",
		},
		{
			name:    "bcrypt mode requires hash",
			env:     map[string]string{"ADMIN_AUTH_MODE": "bcrypt"},
			wantErr: "missing required config: ADMIN_PASSWORD_HASH",
		},
		{
			name:    "jwt mode requires secret",
			env:     map[string]string{"ADMIN_AUTH_MODE": "jwt"},
			wantErr: "missing required config: ADMIN_JWT_SECRET",
		},
		{
			name:    "unknown auth mode",
			env:     map[string]string{"ADMIN_AUTH_MODE": "ldap"},
			wantErr: "invalid config.admin.auth_mode",
		},
		{
			name:    "unknown store driver",
			env:     map[string]string{"ADMIN_PASSWORD": "x", "STORE_DRIVER": "redis"},
			wantErr: "invalid config.store.driver",
		},
		{
			name:    "postgres requires database url",
			env:     map[string]string{"ADMIN_PASSWORD": "x", "STORE_DRIVER": "postgres"},
			wantErr: "invalid config.store.database_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for name, value := range tt.env {
				t.Setenv(name, value)
			}

			_, err := Load(Options{})
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEnvBoolOrDefault(t *testing.T) {
	tests := []struct {
		value    string
		fallback bool
		want     bool
	}{
		{"", true, true},
		{"1", false, true},
		{"ON", false, true},
		{"no", true, false},
		{"maybe", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("DISPENSER_TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, EnvBoolOrDefault("DISPENSER_TEST_BOOL", tt.fallback))
		})
	}
}
