package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yasuyuky/gh-chk/internal/logger"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

const hostsYAML = `github.com:
    user: octocat
    oauth_token: gho_hosts
    git_protocol: https
ghe.example.com:
    user: octocat
    oauth_token: gho_enterprise
    git_protocol: ssh
`

func TestConfigDir(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "xdg wins", env: map[string]string{EnvXDGConfigHome: "/xdg", EnvHome: "/home/u"}, want: "/xdg"},
		{name: "home fallback", env: map[string]string{EnvHome: "/home/u"}, want: filepath.Join("/home/u", ".config")},
		{name: "relative fallback", env: map[string]string{}, want: ".config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ConfigDir(envMap(tt.env)))
		})
	}

	t.Run("paths resolve without home", func(t *testing.T) {
		getenv := envMap(nil)
		require.Equal(t, filepath.Join(".config", "gh", "hosts.yml"), GHHostsPath(getenv))
		require.Equal(t, filepath.Join(".config", "gh-chk", "config.toml"), LegacyConfigPath(getenv))
	})
}

func TestResolve(t *testing.T) {
	t.Run("gh hosts file first", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "gh", "hosts.yml"), hostsYAML)
		writeFile(t, filepath.Join(dir, "gh-chk", "config.toml"), `token = "legacy"`)

		creds, err := Resolve(envMap(map[string]string{EnvXDGConfigHome: dir, EnvGitHubToken: "env"}))
		require.NoError(t, err)
		require.Equal(t, "gho_hosts", creds.Token)
		require.Equal(t, SourceGHHosts, creds.Source)
	})

	t.Run("legacy config when hosts has no github.com entry", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "gh", "hosts.yml"), "ghe.example.com:\n    oauth_token: other\n")
		writeFile(t, filepath.Join(dir, "gh-chk", "config.toml"), `token = "legacy"`)

		creds, err := Resolve(envMap(map[string]string{EnvXDGConfigHome: dir, EnvGitHubToken: "env"}))
		require.NoError(t, err)
		require.Equal(t, "legacy", creds.Token)
		require.Equal(t, SourceLegacyConfig, creds.Source)
	})

	t.Run("hosts entry without token falls through", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "gh", "hosts.yml"), "github.com:\n    user: octocat\n    git_protocol: https\n")

		creds, err := Resolve(envMap(map[string]string{EnvXDGConfigHome: dir, EnvGitHubToken: "env"}))
		require.NoError(t, err)
		require.Equal(t, SourceEnv, creds.Source)
	})

	t.Run("unparseable files are skipped", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "gh", "hosts.yml"), "github.com: [unclosed\n")
		writeFile(t, filepath.Join(dir, "gh-chk", "config.toml"), "token = \n")

		log := logger.NewTest(t)
		creds, err := Resolve(envMap(map[string]string{EnvXDGConfigHome: dir, EnvGitHubToken: " env \n"}), WithLogger(log))
		require.NoError(t, err)
		require.Equal(t, "env", creds.Token)
		require.True(t, log.Contains("skipping credential source"))
	})

	t.Run("no token anywhere", func(t *testing.T) {
		_, err := Resolve(envMap(map[string]string{EnvXDGConfigHome: t.TempDir()}))
		require.ErrorIs(t, err, ErrNoCredentials)
	})
}
