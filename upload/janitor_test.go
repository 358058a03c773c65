package upload_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadgate/upload"
)

type stubCleaner struct {
	n   int64
	err error
}

func (s stubCleaner) CleanupExpired(context.Context) (int64, error) { return s.n, s.err }

func TestJanitor_Sweep(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	old := time.Now().Add(-48 * time.Hour)
	stale := filepath.Join(root, "a", "x.png.part")
	fresh := filepath.Join(root, "a", "y.png.part")
	final := filepath.Join(root, "a", "z.png")
	for _, p := range []string{stale, fresh, final} {
		writeFile(t, p, []byte("x"))
	}
	require.NoError(t, os.Chtimes(stale, old, old))
	require.NoError(t, os.Chtimes(final, old, old))

	j := upload.NewJanitor([]string{root}, stubCleaner{n: 2}, upload.JanitorConfig{PartMaxAge: 24 * time.Hour}, nil)
	report, err := j.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Parts)
	assert.Equal(t, int64(2), report.Sessions)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, final)
}

func TestJanitor_SweepsAllowedRoots(t *testing.T) {
	t.Parallel()

	storageRoot := t.TempDir()
	extraRoot := t.TempDir()
	cfg := upload.Config{
		StorageRoot:  storageRoot,
		AllowedRoots: []string{extraRoot, storageRoot, filepath.Join(t.TempDir(), "missing")},
	}

	old := time.Now().Add(-48 * time.Hour)
	inStorage := filepath.Join(storageRoot, "a.txt.part")
	inExtra := filepath.Join(extraRoot, "abs", "b.txt.part")
	for _, p := range []string{inStorage, inExtra} {
		writeFile(t, p, []byte("x"))
		require.NoError(t, os.Chtimes(p, old, old))
	}

	roots := cfg.Roots()
	assert.Len(t, roots, 3)

	j := upload.NewJanitor(roots, nil, upload.JanitorConfig{PartMaxAge: time.Hour}, nil)
	report, err := j.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Parts)
	assert.NoFileExists(t, inStorage)
	assert.NoFileExists(t, inExtra)
}

func TestJanitor_SessionFailureStillSweeps(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	stale := filepath.Join(root, "x.txt.part")
	writeFile(t, stale, []byte("x"))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	boom := errors.New("store down")
	j := upload.NewJanitor([]string{root}, stubCleaner{err: boom}, upload.DefaultJanitorConfig(), nil)
	report, err := j.Sweep(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, report.Parts)
}

func TestJanitor_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	roots := []string{t.TempDir()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- upload.NewJanitor(roots, nil, upload.JanitorConfig{Interval: 5 * time.Millisecond}, nil).Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}

	assert.NoError(t, upload.NewJanitor(roots, nil, upload.JanitorConfig{}, nil).Run(context.Background()))
}
