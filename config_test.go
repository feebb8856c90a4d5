package ghchk

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/yasuyuky/gh-chk/internal/logger"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, 10.0, cfg.RequestsPerSecond)
	require.Equal(t, 10, cfg.Burst)
	require.Equal(t, 30*time.Second, cfg.RequestTimeout)
	require.Equal(t, 0, cfg.MaxRetries)
	require.Equal(t, 500*time.Millisecond, cfg.RetryBaseDelay)
	require.Equal(t, 30*time.Second, cfg.RetryMaxDelay)
	require.Equal(t, 100, cfg.PageSize)
	require.Equal(t, "https://api.github.com/graphql", cfg.Endpoint)
	require.Empty(t, cfg.Store)
	require.False(t, cfg.DryRun)
	require.False(t, cfg.IncludeHistory)
	require.NoError(t, cfg.Validate())
}

func TestSetDefaults(t *testing.T) {
	t.Run("applies defaults to empty config", func(t *testing.T) {
		cfg := Config{}
		SetDefaults(&cfg)

		require.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("preserves custom values", func(t *testing.T) {
		cfg := Config{
			Workers:           8,
			RequestsPerSecond: 2.5,
			Burst:             3,
			RequestTimeout:    5 * time.Second,
			MaxRetries:        2,
			RetryBaseDelay:    time.Second,
			RetryMaxDelay:     time.Minute,
			PageSize:          50,
			Endpoint:          "https://ghe.example.com/api/graphql",
			Store:             "sqlite:///tmp/s.db",
			DryRun:            true,
			IncludeHistory:    true,
		}
		want := cfg
		SetDefaults(&cfg)

		require.Equal(t, want, cfg)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: "Workers"},
		{name: "too many workers", mutate: func(c *Config) { c.Workers = 65 }, wantErr: "Workers"},
		{name: "negative rps", mutate: func(c *Config) { c.RequestsPerSecond = -1 }, wantErr: "RequestsPerSecond"},
		{name: "zero burst", mutate: func(c *Config) { c.Burst = 0 }, wantErr: "Burst"},
		{name: "page too large", mutate: func(c *Config) { c.PageSize = 101 }, wantErr: "PageSize"},
		{name: "negative retries", mutate: func(c *Config) { c.MaxRetries = -1 }, wantErr: "MaxRetries"},
		{name: "negative timeout", mutate: func(c *Config) { c.RequestTimeout = -time.Second }, wantErr: "RequestTimeout"},
		{name: "inverted retry delays", mutate: func(c *Config) { c.RetryMaxDelay = time.Millisecond }, wantErr: "RetryMaxDelay"},
		{name: "relative endpoint", mutate: func(c *Config) { c.Endpoint = "/graphql" }, wantErr: "Endpoint"},
		{name: "non http endpoint", mutate: func(c *Config) { c.Endpoint = "ftp://example.com" }, wantErr: "Endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateWithWarnings(t *testing.T) {
	t.Run("defaults are quiet", func(t *testing.T) {
		log := logger.NewTest(t)
		cfg := DefaultConfig()
		cfg.ValidateWithWarnings(log)

		require.False(t, log.Contains("WARN"))
	})

	t.Run("warns on aggressive settings", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Workers = 32
		cfg.RequestsPerSecond = 100
		cfg.MaxRetries = 10

		log := logger.NewTest(t)
		cfg.ValidateWithWarnings(log)

		require.True(t, log.Contains("exceeds limiter burst"))
		require.True(t, log.Contains("RequestsPerSecond is high"))
		require.True(t, log.Contains("MaxRetries is high"))
	})
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	require.NoError(t, cfg.Validate())
	require.Less(t, cfg.RetryMaxDelay, DefaultConfig().RetryMaxDelay)
}

func TestConfig_YAML(t *testing.T) {
	input := `
workers: 2
requestsPerSecond: 1.5
requestTimeout: 10s
retryBaseDelay: 250ms
store: nats://127.0.0.1:4222/snapshots
dryRun: true
`
	cfg := Config{}
	require.NoError(t, yaml.Unmarshal([]byte(input), &cfg))

	require.Equal(t, 2, cfg.Workers)
	require.Equal(t, 1.5, cfg.RequestsPerSecond)
	require.Equal(t, 10*time.Second, cfg.RequestTimeout)
	require.Equal(t, 250*time.Millisecond, cfg.RetryBaseDelay)
	require.Equal(t, "nats://127.0.0.1:4222/snapshots", cfg.Store)
	require.True(t, cfg.DryRun)
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("overlays defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("workers: 6\nincludeHistory: true\n"), 0o600))

		cfg, err := LoadConfigFile(path)
		require.NoError(t, err)
		require.Equal(t, 6, cfg.Workers)
		require.True(t, cfg.IncludeHistory)
		require.Equal(t, DefaultConfig().Burst, cfg.Burst)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
		require.True(t, IsConfigNotExist(err))
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("workers: [\n"), 0o600))

		_, err := LoadConfigFile(path)
		require.ErrorIs(t, err, ErrInvalidConfig)
		require.False(t, IsConfigNotExist(err))
	})
}
