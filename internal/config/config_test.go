package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/some/path"},
		Invite: InviteConfig{TTL: 24 * time.Hour},
		Jobs: JobsConfig{
			SessionGCSchedule: "@every 30m",
			ReindexSchedule:   "0 3 * * *",
		},
	}
}

// unsetEnv removes keys for the duration of the test so .env values can apply.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if prev, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, prev) }) //nolint:errcheck // Test cleanup
		} else {
			t.Cleanup(func() { os.Unsetenv(key) }) //nolint:errcheck // Test cleanup
		}
		os.Unsetenv(key) //nolint:errcheck // Test setup
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"INFO", true},
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Data.BasePath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data base path cannot be empty")
}

func TestValidate_InviteTTLMustBePositive(t *testing.T) {
	cfg := validConfig()
	cfg.Invite.TTL = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invite ttl")
}

func TestValidate_BadCronSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Jobs.ReindexSchedule = "every tuesday"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reindex")
}

func TestExpandDataPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty uses default", input: "", want: filepath.Join(homeDir, "BuddyRead", "data")},
		{name: "tilde expansion", input: "~/clubs", want: filepath.Join(homeDir, "clubs")},
		{name: "absolute path", input: "/srv/buddyread", want: "/srv/buddyread"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Data: DataConfig{BasePath: tt.input}}
			require.NoError(t, cfg.expandDataPath())
			assert.Equal(t, tt.want, cfg.Data.BasePath)
		})
	}
}

func TestExpandDataPath_RelativeBecomesAbsolute(t *testing.T) {
	cfg := &Config{Data: DataConfig{BasePath: "relative/path"}}
	require.NoError(t, cfg.expandDataPath())

	assert.True(t, filepath.IsAbs(cfg.Data.BasePath))
	assert.Contains(t, cfg.Data.BasePath, "relative/path")
}

func TestDataConfig_Paths(t *testing.T) {
	d := DataConfig{BasePath: "/data"}

	assert.Equal(t, "/data/buddyread.db", d.DatabasePath())
	assert.Equal(t, "/data/sessions", d.SessionsPath())
	assert.Equal(t, "/data/search", d.SearchPath())
}

func TestGetConfigValue_Precedence(t *testing.T) {
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "BUDDYREAD_TEST_KEY", "default"))

	t.Setenv("BUDDYREAD_TEST_KEY", "env-value")
	assert.Equal(t, "env-value", getConfigValue("", "BUDDYREAD_TEST_KEY", "default"))

	assert.Equal(t, "default", getConfigValue("", "BUDDYREAD_MISSING_KEY", "default"))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, splitList(" https://a.example, ,https://b.example "))
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ENV", "staging")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("INVITE_TTL", "12h")

	cfg, err := LoadConfig([]string{
		"--env-file", filepath.Join(dir, "missing.env"),
		"--data-path", dir,
		"--log-level", "debug",
		"--base-url", "https://books.example.com/",
	})
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Environment)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, dir, cfg.Data.BasePath)
	assert.Equal(t, 12*time.Hour, cfg.Invite.TTL)
	assert.Equal(t, "https://books.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
}

func TestLoadConfig_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := `# local overrides
ENV=production
INVITE_TTL=48h
SERVER_PORT=9090
CORS_ORIGINS="http://localhost:5173"
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))
	unsetEnv(t, "ENV", "INVITE_TTL", "SERVER_PORT", "CORS_ORIGINS", "SERVER_BASE_URL")

	cfg, err := LoadConfig([]string{"--env-file", envFile, "--data-path", dir})
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, 48*time.Hour, cfg.Invite.TTL)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://localhost:9090", cfg.Server.BaseURL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig([]string{"--env-file", filepath.Join(dir, "none"), "--data-path", dir, "--invite-ttl", "soon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invite_ttl")
}
