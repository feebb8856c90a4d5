package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yasuyuky/gh-chk/types"
)

// File stores one YAML document per item at <dir>/<owner>/<repo>/<number>.yaml.
//
// Writes go to a temporary file in the target directory which is synced and
// renamed over the document, then the directory is synced. A crash leaves
// either the old or the new document, never a torn one.
type File struct {
	dir    string
	locks  keyLocks
	logger types.Logger
}

var _ types.SnapshotStore = (*File)(nil)

// NewFile creates a file store rooted at dir, creating dir if needed.
//
// Parameters:
//   - dir: Root directory of the snapshot tree
//   - opts: Optional configuration
//
// Returns:
//   - *File: Ready store
//   - error: Non-nil when dir cannot be created
func NewFile(dir string, opts ...Option) (*File, error) {
	if dir == "" {
		return nil, errors.New("file store: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: create %s: %w", dir, err)
	}

	o := applyOptions(opts)

	return &File{dir: dir, locks: newKeyLocks(), logger: o.logger}, nil
}

// Dir returns the root directory.
func (f *File) Dir() string {
	return f.dir
}

// Path returns the document path of ref.
func (f *File) Path(ref types.ItemRef) string {
	return filepath.Join(f.dir, ref.Owner, ref.Repo, strconv.Itoa(ref.Number)+".yaml")
}

// Load returns the snapshot of ref, or nil when absent or unreadable.
func (f *File) Load(ctx context.Context, ref types.ItemRef) (*types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ref.Validate(); err != nil {
		return treatAsAbsent(ctx, f.logger, "file", ref, err)
	}

	snap, err := f.read(ref)
	if err != nil {
		return treatAsAbsent(ctx, f.logger, "file", ref, err)
	}

	return snap, nil
}

// read returns (nil, nil) for a missing document.
func (f *File) read(ref types.ItemRef) (*types.Snapshot, error) {
	data, err := os.ReadFile(f.Path(ref))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return decodeYAML(data, ref)
}

// Save atomically replaces the document of snap's item.
func (f *File) Save(ctx context.Context, snap types.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ref := snap.Ref()
	unlock := f.locks.lock(ref.Path())
	defer unlock()

	if current, err := f.read(ref); err == nil && current != nil && current.ObservedAt.After(snap.ObservedAt) {
		return fmt.Errorf("%w: %s stored at %s, saving %s", ErrStaleSnapshot, ref,
			current.ObservedAt.Format(time.RFC3339Nano), snap.ObservedAt.UTC().Format(time.RFC3339Nano))
	}

	data, err := encodeYAML(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", ref, err)
	}

	path := f.Path(ref)
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("save snapshot %s: %w", ref, err)
	}
	f.logger.Debug("snapshot saved", "item", ref.String(), "path", path)

	return nil
}

// Close releases nothing; it exists so File satisfies Backend.
func (f *File) Close() error {
	return nil
}

func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Sync()
}
