package ghchk

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yasuyuky/gh-chk/timeline"
)

const maxWorkers = 64

// Config controls a tracking run.
//
// The zero value is not usable directly; pass it through SetDefaults (done by
// NewTracker) or start from DefaultConfig.
type Config struct {
	// Workers is the number of items processed concurrently.
	Workers int `yaml:"workers"`

	// RequestsPerSecond is the shared request budget across all workers.
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`

	// Burst is the limiter bucket size.
	Burst int `yaml:"burst"`

	// RequestTimeout bounds a single page request. Zero means no per-request limit.
	RequestTimeout time.Duration `yaml:"requestTimeout"`

	// MaxRetries is the number of retries for transient (network, rate limited)
	// page failures. Zero disables retries.
	MaxRetries int `yaml:"maxRetries"`

	RetryBaseDelay time.Duration `yaml:"retryBaseDelay"`
	RetryMaxDelay  time.Duration `yaml:"retryMaxDelay"`

	// PageSize is the number of timeline items requested per page (1..100).
	PageSize int `yaml:"pageSize"`

	// Endpoint is the GraphQL API URL.
	Endpoint string `yaml:"endpoint"`

	// Store is the snapshot store URI (see store.Open). Empty selects the
	// default file store under the configuration directory. In YAML, write
	// the in-memory store as memory or quote "memory:".
	Store string `yaml:"store"`

	// DryRun computes diffs without persisting snapshots.
	DryRun bool `yaml:"dryRun"`

	// IncludeHistory records the replayed assignee history in each result.
	IncludeHistory bool `yaml:"includeHistory"`
}

// DefaultConfig returns the production defaults.
//
// Returns:
//   - Config: Default configuration
func DefaultConfig() Config {
	return Config{
		Workers:           4,
		RequestsPerSecond: 10,
		Burst:             10,
		RequestTimeout:    30 * time.Second,
		MaxRetries:        0,
		RetryBaseDelay:    500 * time.Millisecond,
		RetryMaxDelay:     30 * time.Second,
		PageSize:          timeline.MaxPageSize,
		Endpoint:          timeline.DefaultEndpoint,
	}
}

// SetDefaults fills zero-valued fields of cfg with values from DefaultConfig.
//
// MaxRetries, DryRun and IncludeHistory are left alone since their zero
// values are meaningful.
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Workers == 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if cfg.Burst == 0 {
		cfg.Burst = defaults.Burst
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = defaults.RetryBaseDelay
	}
	if cfg.RetryMaxDelay == 0 {
		cfg.RetryMaxDelay = defaults.RetryMaxDelay
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = defaults.PageSize
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaults.Endpoint
	}
}

// Validate checks configuration constraints and returns error for invalid values.
//
// Hard Validation Rules:
//   - 1 <= Workers <= 64
//   - RequestsPerSecond > 0 and Burst >= 1
//   - 1 <= PageSize <= 100
//   - MaxRetries >= 0, RequestTimeout >= 0
//   - 0 < RetryBaseDelay <= RetryMaxDelay
//   - Endpoint is an absolute http(s) URL
//
// Returns:
//   - error: Validation error with clear explanation, nil if valid
func (cfg *Config) Validate() error {
	if cfg.Workers < 1 || cfg.Workers > maxWorkers {
		return fmt.Errorf("Workers must be between 1 and %d, got %d", maxWorkers, cfg.Workers)
	}

	if cfg.RequestsPerSecond <= 0 {
		return fmt.Errorf("RequestsPerSecond must be > 0, got %v", cfg.RequestsPerSecond)
	}
	if cfg.Burst < 1 {
		return fmt.Errorf("Burst must be >= 1, got %d", cfg.Burst)
	}

	if cfg.PageSize < 1 || cfg.PageSize > timeline.MaxPageSize {
		return fmt.Errorf("PageSize must be between 1 and %d, got %d", timeline.MaxPageSize, cfg.PageSize)
	}

	if cfg.MaxRetries < 0 {
		return fmt.Errorf("MaxRetries must be >= 0, got %d", cfg.MaxRetries)
	}
	if cfg.RequestTimeout < 0 {
		return fmt.Errorf("RequestTimeout must be >= 0, got %v", cfg.RequestTimeout)
	}

	if cfg.RetryBaseDelay <= 0 {
		return fmt.Errorf("RetryBaseDelay must be > 0, got %v", cfg.RetryBaseDelay)
	}
	if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		return fmt.Errorf(
			"RetryMaxDelay (%v) must be >= RetryBaseDelay (%v)",
			cfg.RetryMaxDelay, cfg.RetryBaseDelay,
		)
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("Endpoint %q: %w", cfg.Endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("Endpoint must be an absolute http(s) URL, got %q", cfg.Endpoint)
	}

	return nil
}

// ValidateWithWarnings checks configuration and logs warnings for non-recommended values.
//
// This is called after Validate() in NewTracker() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.Workers > cfg.Burst {
		logger.Warn(
			"Workers exceeds limiter burst, workers will queue on the shared budget",
			"workers", cfg.Workers,
			"burst", cfg.Burst,
		)
	}

	if cfg.RequestsPerSecond > 50 {
		logger.Warn(
			"RequestsPerSecond is high, secondary rate limits are likely",
			"rps", cfg.RequestsPerSecond,
			"recommended", "10 or lower",
		)
	}

	if cfg.MaxRetries > 5 {
		logger.Warn(
			"MaxRetries is high, failing items may take minutes to report",
			"maxRetries", cfg.MaxRetries,
			"retryMaxDelay", cfg.RetryMaxDelay,
		)
	}
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Example:
//
//	cfg := ghchk.TestConfig()
//	cfg.Workers = 2
//	tracker, err := ghchk.NewTracker(&cfg, src, store.NewMemory())
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.RequestsPerSecond = 1000
	cfg.Burst = 1000
	cfg.RequestTimeout = 2 * time.Second
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RetryMaxDelay = 10 * time.Millisecond

	return cfg
}

// LoadConfigFile reads a YAML configuration file.
//
// Fields absent from the file keep their DefaultConfig values.
//
// Parameters:
//   - path: File path
//
// Returns:
//   - Config: Defaults overlaid with the file
//   - error: Read or parse error (fs.ErrNotExist is preserved for callers
//     that treat a missing file as optional)
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
	}

	return cfg, nil
}

// IsConfigNotExist reports whether err came from a missing config file.
func IsConfigNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
