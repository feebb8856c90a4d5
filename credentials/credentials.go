// Package credentials resolves the GitHub token used by the timeline client.
//
// Resolution happens once at startup and walks an ordered chain:
//
//  1. the gh CLI hosts file ($XDG_CONFIG_HOME/gh/hosts.yml), entry github.com
//  2. the legacy gh-chk config ($XDG_CONFIG_HOME/gh-chk/config.toml), key token
//  3. the GITHUB_TOKEN environment variable
//
// The first non-empty token wins. Missing or unparseable files are skipped.
// The package never writes credentials.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/yasuyuky/gh-chk/internal/logger"
	"github.com/yasuyuky/gh-chk/types"
)

// Environment variables consulted during resolution.
const (
	EnvGitHubToken   = "GITHUB_TOKEN"
	EnvXDGConfigHome = "XDG_CONFIG_HOME"
	EnvHome          = "HOME"
)

// GitHubHost is the hosts.yml entry used for the token.
const GitHubHost = "github.com"

// Sources reported in types.Credentials.Source.
const (
	SourceGHHosts      = "gh hosts.yml"
	SourceLegacyConfig = "gh-chk config.toml"
	SourceEnv          = "env " + EnvGitHubToken
)

// ErrNoCredentials is returned when no source provides a token.
var ErrNoCredentials = errors.New("no GitHub token found (run `gh auth login` or set GITHUB_TOKEN)")

// Option configures Resolve.
type Option func(*resolver)

type resolver struct {
	getenv func(string) string
	logger types.Logger
}

// WithLogger sets a logger for skipped sources.
func WithLogger(l types.Logger) Option {
	return func(r *resolver) {
		r.logger = l
	}
}

// ConfigDir returns the base configuration directory: $XDG_CONFIG_HOME, else
// $HOME/.config, else ".config" relative to the working directory.
func ConfigDir(getenv func(string) string) string {
	if dir := getenv(EnvXDGConfigHome); dir != "" {
		return dir
	}
	if home := getenv(EnvHome); home != "" {
		return filepath.Join(home, ".config")
	}

	return ".config"
}

// GHHostsPath returns the path of the gh CLI hosts file.
func GHHostsPath(getenv func(string) string) string {
	return filepath.Join(ConfigDir(getenv), "gh", "hosts.yml")
}

// LegacyConfigPath returns the path of the legacy gh-chk TOML config.
func LegacyConfigPath(getenv func(string) string) string {
	return filepath.Join(ConfigDir(getenv), "gh-chk", "config.toml")
}

// Resolve walks the credential chain.
//
// Parameters:
//   - getenv: Environment lookup, usually os.Getenv
//   - opts: Optional configuration
//
// Returns:
//   - types.Credentials: Token and the name of the source it came from
//   - error: ErrNoCredentials when every source is empty
//
// Example:
//
//	creds, err := credentials.Resolve(os.Getenv)
//	if err != nil {
//	    return err
//	}
//	client, err := timeline.New(creds)
func Resolve(getenv func(string) string, opts ...Option) (types.Credentials, error) {
	r := &resolver{getenv: getenv}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.NewNop()
	}

	chain := []struct {
		source string
		lookup func() (string, error)
	}{
		{SourceGHHosts, r.fromGHHosts},
		{SourceLegacyConfig, r.fromLegacyConfig},
		{SourceEnv, func() (string, error) { return getenv(EnvGitHubToken), nil }},
	}

	for _, link := range chain {
		token, err := link.lookup()
		if err != nil {
			r.logger.Debug("skipping credential source", "source", link.source, "error", err)
			continue
		}
		if token = strings.TrimSpace(token); token != "" {
			r.logger.Debug("using credentials", "source", link.source)
			return types.Credentials{Token: token, Source: link.source}, nil
		}
	}

	return types.Credentials{}, ErrNoCredentials
}

type ghHost struct {
	User        string `yaml:"user"`
	OAuthToken  string `yaml:"oauth_token"`
	GitProtocol string `yaml:"git_protocol"`
}

func (r *resolver) fromGHHosts() (string, error) {
	path := GHHostsPath(r.getenv)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var hosts map[string]ghHost
	if err := yaml.Unmarshal(data, &hosts); err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}

	return hosts[GitHubHost].OAuthToken, nil
}

type legacyConfig struct {
	Token string `toml:"token"`
}

func (r *resolver) fromLegacyConfig() (string, error) {
	path := LegacyConfigPath(r.getenv)

	var cfg legacyConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg.Token, nil
}
