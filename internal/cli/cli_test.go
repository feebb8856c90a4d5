package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	ghchk "github.com/yasuyuky/gh-chk"
)

type node struct {
	kind, login, at string
}

func response(title string, nodes ...node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, fmt.Sprintf(
			`{"__typename":%q,"createdAt":%q,"assignee":{"__typename":"User","login":%q,"name":""}}`,
			n.kind, n.at, n.login))
	}

	return fmt.Sprintf(`{"data":{"repository":{"issueOrPullRequest":{"__typename":"Issue","title":%q,`+
		`"timelineItems":{"pageInfo":{"hasNextPage":false,"endCursor":null},"nodes":[%s]}}}}}`,
		title, strings.Join(parts, ","))
}

type harness struct {
	t      *testing.T
	dir    string
	mock   string
	env    map[string]string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	h := &harness{
		t:    t,
		dir:  dir,
		mock: filepath.Join(dir, "response.json"),
		env:  map[string]string{"XDG_CONFIG_HOME": filepath.Join(dir, "config")},
	}

	return h
}

func (h *harness) serve(body string) {
	h.t.Helper()
	require.NoError(h.t, os.WriteFile(h.mock, []byte(body), 0o600))
}

func (h *harness) run(args ...string) int {
	h.stdout.Reset()
	h.stderr.Reset()

	app := &App{
		Out:    &h.stdout,
		Err:    &h.stderr,
		Getenv: func(k string) string { return h.env[k] },
	}

	return app.Run(context.Background(), args)
}

func TestTrack_TextAcrossRuns(t *testing.T) {
	h := newHarness(t)
	h.env["GH_CHK_MOCK_FILE"] = h.mock

	h.serve(response("Fix login", node{"AssignedEvent", "alice", "2024-01-01T00:00:00Z"}))
	require.Equal(t, 0, h.run("track-assignees", "octo/hello#42"), h.stderr.String())
	require.Contains(t, h.stdout.String(), "octo/hello#42 Fix login")
	require.Contains(t, h.stdout.String(), "baseline: alice")

	snapshot := filepath.Join(h.dir, "config", "gh-chk", "assignees", "octo", "hello", "42.yaml")
	require.FileExists(t, snapshot)

	h.serve(response("Fix login",
		node{"AssignedEvent", "alice", "2024-01-01T00:00:00Z"},
		node{"AssignedEvent", "bob", "2024-01-02T00:00:00Z"},
		node{"UnassignedEvent", "alice", "2024-01-03T00:00:00Z"},
	))
	require.Equal(t, 0, h.run("track", "octo/hello", "42"))
	require.Contains(t, h.stdout.String(), "  +bob\n")
	require.Contains(t, h.stdout.String(), "  -alice\n")
	require.Contains(t, h.stdout.String(), "1 items: 1 changed, 0 baseline, 0 failed")

	require.Equal(t, 0, h.run("track", "octo/hello#42"))
	require.Contains(t, h.stdout.String(), "no change")
}

func TestTrack_History(t *testing.T) {
	h := newHarness(t)
	h.serve(response("Fix login",
		node{"AssignedEvent", "alice", "2024-01-01T00:00:00Z"},
		node{"AssignedEvent", "bob", "2024-01-02T00:00:00Z"},
		node{"UnassignedEvent", "alice", "2024-01-03T00:00:00Z"},
	))

	code := h.run("track", "octo/hello#1", "--mock-file", h.mock, "--history", "--store", "memory:")
	require.Equal(t, 0, code, h.stderr.String())
	require.Contains(t, h.stdout.String(), "assigned bob -> [alice, bob]")
	require.Contains(t, h.stdout.String(), "max concurrent assignees: 2")
}

func TestTrack_JSON(t *testing.T) {
	h := newHarness(t)
	h.serve(response("Fix login", node{"AssignedEvent", "alice", "2024-01-01T00:00:00Z"}))

	code := h.run("track", "octo/hello#1", "octo/hello#1", "--mock-file", h.mock, "-f", "json", "--store", "memory:")
	require.Equal(t, 0, code, h.stderr.String())

	var out struct {
		RunID string `json:"run_id"`
		Items []struct {
			Item      string   `json:"item"`
			State     string   `json:"state"`
			Assignees []string `json:"assignees"`
			Baseline  bool     `json:"baseline"`
			Added     []string `json:"added"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &out))
	require.NotEmpty(t, out.RunID)
	require.Len(t, out.Items, 1)
	require.Equal(t, "octo/hello#1", out.Items[0].Item)
	require.Equal(t, "Succeeded", out.Items[0].State)
	require.Equal(t, []string{"alice"}, out.Items[0].Assignees)
	require.True(t, out.Items[0].Baseline)
	require.Empty(t, out.Items[0].Added)
}

func TestTrack_FailuresExitNonZero(t *testing.T) {
	h := newHarness(t)

	code := h.run("track", "octo/hello#1", "--mock-file", filepath.Join(h.dir, "absent.json"), "--store", "memory:")
	require.Equal(t, 1, code)
	require.Contains(t, h.stdout.String(), "error[not_found]:")
	require.NotContains(t, h.stderr.String(), "error: one or more items failed")
}

func TestTrack_DryRun(t *testing.T) {
	h := newHarness(t)
	h.serve(response("Fix login", node{"AssignedEvent", "alice", "2024-01-01T00:00:00Z"}))
	storeDir := filepath.Join(h.dir, "snapshots")

	code := h.run("track", "octo/hello#1", "--mock-file", h.mock, "--store", storeDir, "--dry-run")
	require.Equal(t, 0, code, h.stderr.String())
	require.Contains(t, h.stdout.String(), "dry run, nothing stored")
	require.NoFileExists(t, filepath.Join(storeDir, "octo", "hello", "1.yaml"))
}

func TestTrack_SQLiteStoreAndMetrics(t *testing.T) {
	h := newHarness(t)
	h.serve(response("Fix login", node{"AssignedEvent", "alice", "2024-01-01T00:00:00Z"}))
	metricsPath := filepath.Join(h.dir, "ghchk.prom")
	dsn := "sqlite://" + filepath.Join(h.dir, "snapshots.db")

	code := h.run("track", "octo/hello#1", "--mock-file", h.mock, "--store", dsn, "--metrics-file", metricsPath)
	require.Equal(t, 0, code, h.stderr.String())

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "ghchk_tracker_items_total")
	require.Contains(t, string(data), "ghchk_tracker_baselines_total 1")

	require.Equal(t, 0, h.run("track", "octo/hello#1", "--mock-file", h.mock, "--store", dsn))
	require.Contains(t, h.stdout.String(), "no change")
}

func TestTrack_ConfigFile(t *testing.T) {
	tests := []struct {
		name  string
		store string
	}{
		{name: "bare memory", store: "memory"},
		{name: "quoted memory scheme", store: `"memory:"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.serve(response("Fix login", node{"AssignedEvent", "alice", "2024-01-01T00:00:00Z"}))

			cfgPath := filepath.Join(h.dir, "config", "gh-chk", "config.yml")
			require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o755))
			content := "store: " + tt.store + "\nincludeHistory: true\n"
			require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

			require.Equal(t, 0, h.run("track", "octo/hello#1", "--mock-file", h.mock), h.stderr.String())
			require.Contains(t, h.stdout.String(), "max concurrent assignees: 1")
			require.NoDirExists(t, filepath.Join(h.dir, "config", "gh-chk", "assignees"))
		})
	}

	t.Run("missing explicit file", func(t *testing.T) {
		h := newHarness(t)
		require.Equal(t, 1, h.run("track", "octo/hello#1", "--config", filepath.Join(h.dir, "missing.yml")))
		require.Contains(t, h.stderr.String(), "missing.yml")
	})
}

func TestTrack_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no items", args: []string{"track"}, want: "requires at least 1 arg"},
		{name: "bad ref", args: []string{"track", "not-a-ref"}, want: "invalid item reference"},
		{name: "bad format", args: []string{"track", "octo/hello#1", "-f", "xml"}, want: "unknown output format"},
		{name: "bad log level", args: []string{"track", "octo/hello#1", "--log-level", "loud"}, want: "unknown log level"},
		{name: "no credentials", args: []string{"track", "octo/hello#1"}, want: "no GitHub token found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			require.Equal(t, 1, h.run(tt.args...))
			require.Contains(t, h.stderr.String(), tt.want)
		})
	}
}

func TestParseRefs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []ghchk.ItemRef
		wantErr bool
	}{
		{name: "positional form", args: []string{"octo/hello", "42"}, want: []ghchk.ItemRef{{Owner: "octo", Repo: "hello", Number: 42}}},
		{name: "hash refs", args: []string{"octo/hello#1", "octo/world#2"}, want: []ghchk.ItemRef{
			{Owner: "octo", Repo: "hello", Number: 1},
			{Owner: "octo", Repo: "world", Number: 2},
		}},
		{name: "slash ref", args: []string{"octo/hello/7"}, want: []ghchk.ItemRef{{Owner: "octo", Repo: "hello", Number: 7}}},
		{name: "two slugs", args: []string{"octo/hello", "octo/world"}, wantErr: true},
		{name: "garbage", args: []string{"hello"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRefs(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
