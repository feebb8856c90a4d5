package timeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/yasuyuky/gh-chk/internal/metrics"
	"github.com/yasuyuky/gh-chk/types"
)

// MockFileEnv names the environment variable that points the CLI at a
// canned response file instead of the network.
const MockFileEnv = "GH_CHK_MOCK_FILE"

const opReadFile = "read response file"

// FileSource serves a canned GraphQL response file for every item.
//
// The file holds a single response body in the shape the API returns. It is
// read and decoded once, on first use; every item sees the same single page.
type FileSource struct {
	path string

	once sync.Once
	page *page
	err  error
}

var (
	_ types.EventSource = (*FileSource)(nil)
	_ pager             = (*FileSource)(nil)
)

// NewFileSource creates a source backed by the response file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Events returns an iterator over the events of the canned response.
func (s *FileSource) Events(ref types.ItemRef) types.EventIterator {
	return newIterator(s, ref, metrics.NewNop())
}

func (s *FileSource) fetchPage(ctx context.Context, ref types.ItemRef, _ string) (*page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.once.Do(s.load)
	if s.err != nil {
		var apiErr *types.APIError
		if errors.As(s.err, &apiErr) {
			e := *apiErr
			e.Item = ref

			return nil, &e
		}

		return nil, s.err
	}

	p := *s.page
	p.events = append([]types.TimelineEvent(nil), s.page.events...)
	p.hasNext = false

	return &p, nil
}

func (s *FileSource) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		kind := types.ErrKindMalformed
		if errors.Is(err, fs.ErrNotExist) {
			kind = types.ErrKindNotFound
		}
		s.err = &types.APIError{Kind: kind, Op: opReadFile, Err: err}

		return
	}

	p, err := decodePage(data)
	if err != nil {
		var apiErr *types.APIError
		if errors.As(err, &apiErr) {
			apiErr.Op = opReadFile
			apiErr.Err = fmt.Errorf("%s: %w", s.path, apiErr.Err)
		}
		s.err = err

		return
	}
	s.page = p
}
