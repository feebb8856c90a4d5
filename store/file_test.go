package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yasuyuky/gh-chk/types"
)

func TestFile_Layout(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFile(dir)
	require.NoError(t, err)

	ref := types.ItemRef{Owner: "octo", Repo: "hello", Number: 7}
	require.NoError(t, st.Save(context.Background(), snapshot(ref, t0, "bob", "alice")))

	path := filepath.Join(dir, "octo", "hello", "7.yaml")
	require.Equal(t, path, st.Path(ref))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `version: 1
repo_owner: octo
repo_name: hello
item_number: 7
assignees:
    - alice
    - bob
observed_at: 2024-03-01T09:00:00Z
`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files left behind")
}

func TestFile_UnreadableSnapshotsAreAbsent(t *testing.T) {
	ref := types.ItemRef{Owner: "octo", Repo: "hello", Number: 7}

	tests := []struct {
		name    string
		content string
	}{
		{name: "not yaml", content: "assignees: [unterminated"},
		{name: "wrong key", content: "repo_owner: octo\nrepo_name: other\nitem_number: 7\nassignees: []\nobserved_at: 2024-03-01T09:00:00Z\n"},
		{name: "missing observed_at", content: "repo_owner: octo\nrepo_name: hello\nitem_number: 7\nassignees: [alice]\n"},
		{name: "empty login", content: "repo_owner: octo\nrepo_name: hello\nitem_number: 7\nassignees: ['']\nobserved_at: 2024-03-01T09:00:00Z\n"},
		{name: "future version", content: "version: 9\nrepo_owner: octo\nrepo_name: hello\nitem_number: 7\nassignees: []\nobserved_at: 2024-03-01T09:00:00Z\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := NewFile(t.TempDir())
			require.NoError(t, err)

			path := st.Path(ref)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			var warnings []types.Warning
			ctx := types.ContextWithWarningHandler(context.Background(), func(w types.Warning) {
				warnings = append(warnings, w)
			})

			snap, err := st.Load(ctx, ref)
			require.NoError(t, err)
			require.Nil(t, snap)
			require.Len(t, warnings, 1)
			require.Equal(t, "store", warnings[0].Source)
			require.Equal(t, ref, warnings[0].Item)
			require.Error(t, warnings[0].Err)

			// A corrupted snapshot is overwritten by the next save.
			want := snapshot(ref, t0.Add(time.Hour), "alice")
			require.NoError(t, st.Save(context.Background(), want))
			got, err := st.Load(context.Background(), ref)
			require.NoError(t, err)
			requireSnapshot(t, want, got)
		})
	}
}

func TestFile_HandWrittenDocumentWithoutVersion(t *testing.T) {
	st, err := NewFile(t.TempDir())
	require.NoError(t, err)

	ref := types.ItemRef{Owner: "octo", Repo: "hello", Number: 1}
	path := st.Path(ref)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("repo_owner: octo\nrepo_name: hello\nitem_number: 1\nassignees: [zed, amy]\nobserved_at: 2024-03-01T09:00:00Z\n"), 0o644))

	snap, err := st.Load(context.Background(), ref)
	require.NoError(t, err)
	require.Equal(t, []string{"amy", "zed"}, snap.Assignees.Sorted())
}

func TestNewFile_EmptyDir(t *testing.T) {
	_, err := NewFile("")
	require.Error(t, err)
}
