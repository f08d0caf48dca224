package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/assetsync/internal/domain/model"
	"github.com/ericfisherdev/assetsync/internal/domain/port/driven"
)

// --- Mock implementations ---

// fakeSource serves raw content from memory, keyed by repository path.
type fakeSource struct {
	mu        sync.Mutex
	files     map[string]string
	fail      map[string]error
	midStream map[string]bool
	calls     []string
	branches  []string
}

func newFakeSource(files map[string]string) *fakeSource {
	return &fakeSource{
		files:     files,
		fail:      map[string]error{},
		midStream: map[string]bool{},
	}
}

func (f *fakeSource) OpenRaw(_ context.Context, _ string, branch, path string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, path)
	f.branches = append(f.branches, branch)

	if err, ok := f.fail[path]; ok {
		return nil, err
	}
	content, ok := f.files[path]
	if !ok {
		return nil, driven.ErrContentNotFound
	}
	if f.midStream[path] {
		half := content[:len(content)/2]
		return io.NopCloser(io.MultiReader(strings.NewReader(half), errReader{})), nil
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// errReader fails every read, simulating a connection drop mid-body.
type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("connection reset by peer") }

// fakeGitHub answers tag and compare lookups from maps.
type fakeGitHub struct {
	tags       map[string]string
	tagErr     map[string]error
	compare    map[string]*model.CompareResult
	compareErr map[string]error

	mu       sync.Mutex
	compared []string
}

func (f *fakeGitHub) LatestTag(_ context.Context, repo string) (string, error) {
	if err, ok := f.tagErr[repo]; ok {
		return "", err
	}
	tag, ok := f.tags[repo]
	if !ok {
		return "", driven.ErrNoTags
	}
	return tag, nil
}

func (f *fakeGitHub) CompareRefs(_ context.Context, repo, base, head string) (*model.CompareResult, error) {
	f.mu.Lock()
	f.compared = append(f.compared, repo+"@"+base+"..."+head)
	f.mu.Unlock()

	if err, ok := f.compareErr[repo]; ok {
		return nil, err
	}
	return f.compare[repo], nil
}

// memRunStore records runs in memory.
type memRunStore struct {
	mu   sync.Mutex
	runs []model.SyncRun
	err  error
}

func (m *memRunStore) Record(_ context.Context, run model.SyncRun) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	run.ID = int64(len(m.runs) + 1)
	m.runs = append(m.runs, run)
	return run.ID, nil
}

func (m *memRunStore) ListRecent(_ context.Context, limit int) ([]model.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.SyncRun, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

// countingMetrics tallies metric calls.
type countingMetrics struct {
	mu    sync.Mutex
	files map[string]int
	runs  map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{files: map[string]int{}, runs: map[string]int{}}
}

func (c *countingMetrics) FileProcessed(stage model.FileStage, result model.FileResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[string(stage)+"/"+string(result)]++
}

func (c *countingMetrics) RunFinished(trigger model.Trigger, status model.RunStatus, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[string(trigger)+"/"+string(status)]++
}

// --- Test helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// writeFile creates root/rel with content, creating parents.
func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

// readFile returns the content of root/rel and whether it exists.
func readFile(t *testing.T, root, rel string) (string, bool) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if errors.Is(err, os.ErrNotExist) {
		return "", false
	}
	require.NoError(t, err)
	return string(data), true
}

// snapshot returns every regular file under root keyed by slash path.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

var siteCatalog = model.NewCatalog(
	map[string]string{"org/repo": "static/", "org/blog": "public/", "org/nodest": "web/"},
	map[string]string{"org/repo": "site", "org/blog": "blog"},
)
