package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codebundle/pkg/bundle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

type result struct {
	summary *bundle.Summary
	err     error
}

func startWatcher(t *testing.T, root string) (<-chan result, context.CancelFunc, <-chan error) {
	t.Helper()
	b, err := bundle.New(bundle.Options{
		Root:        root,
		Output:      filepath.Join(root, "bundle.txt"),
		Inclusion:   bundle.InclusionPolicy{Extensions: []string{".dart"}},
		Exclusion:   bundle.ExclusionPolicy{Dirs: []string{"build"}},
		MaxFileSize: bundle.DefaultMaxFileSize,
		Sort:        true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	results := make(chan result, 16)
	w := New(b, 50*time.Millisecond, zaptest.NewLogger(t))
	w.OnBuild = func(s *bundle.Summary, err error) { results <- result{s, err} }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return results, cancel, done
}

func waitFor(t *testing.T, results <-chan result, files int) result {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-results:
			if r.err == nil && r.summary.Files == files {
				return r
			}
		case <-deadline:
			t.Fatalf("timed out waiting for a build with %d files", files)
		}
	}
}

func stop(t *testing.T, cancel context.CancelFunc, done <-chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.dart"), []byte("void main() {}\n"), 0644))

	results, cancel, done := startWatcher(t, root)
	waitFor(t, results, 1)

	require.NoError(t, os.WriteFile(filepath.Join(root, "app.dart"), []byte("class App {}\n"), 0644))
	r := waitFor(t, results, 2)
	assert.Equal(t, []string{"app.dart", "main.dart"}, r.summary.Added)

	stop(t, cancel, done)

	data, err := os.ReadFile(filepath.Join(root, "bundle.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "FILE: app.dart")
}

func TestWatcher_PicksUpNewDirectories(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	results, cancel, done := startWatcher(t, root)
	waitFor(t, results, 0)

	dir := filepath.Join(root, "lib")
	require.NoError(t, os.Mkdir(dir, 0755))
	waitFor(t, results, 0)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "widget.dart"), []byte("class W {}\n"), 0644))
	r := waitFor(t, results, 1)
	assert.Equal(t, []string{"lib/widget.dart"}, r.summary.Added)

	stop(t, cancel, done)
}

type fakeBundler struct {
	dirs   []string
	builds chan struct{}
}

func (f *fakeBundler) Build() (*bundle.Summary, error) {
	f.builds <- struct{}{}
	return nil, errors.New("boom")
}

func (f *fakeBundler) Dirs() ([]string, error) {
	if f.dirs == nil {
		return nil, bundle.ErrRootInvalid
	}
	return f.dirs, nil
}

func (f *fakeBundler) Affects(string) bool { return true }

func TestWatcher_RootInvalidStopsImmediately(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := New(&fakeBundler{builds: make(chan struct{}, 1)}, 0, nil)
	err := w.Run(context.Background())
	assert.ErrorIs(t, err, bundle.ErrRootInvalid)
}

func TestWatcher_BuildErrorsAreReported(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeBundler{dirs: []string{t.TempDir()}, builds: make(chan struct{}, 4)}
	w := New(f, 0, zaptest.NewLogger(t))
	errs := make(chan error, 4)
	w.OnBuild = func(_ *bundle.Summary, err error) { errs <- err }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case err := <-errs:
		assert.EqualError(t, err, "boom")
	case <-time.After(5 * time.Second):
		t.Fatal("no build reported")
	}
	stop(t, cancel, done)
}
