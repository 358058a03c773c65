package upload_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadgate/upload"
	"github.com/dmitrymomot/uploadgate/upload/configstore"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// newReceiver builds a receiver over a fresh storage root holding records.
func newReceiver(t *testing.T, records []upload.ConfigRecord, opts ...upload.Option) (*upload.Receiver, string) {
	t.Helper()

	root := t.TempDir()
	cfg := upload.DefaultConfig()
	cfg.StorageRoot = root

	rc, err := upload.NewFromConfig(cfg, configstore.NewMemory(records...), opts...)
	require.NoError(t, err)
	return rc, root
}

func source(b []byte) upload.Source {
	return upload.ReaderSource(bytes.NewReader(b))
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, b, 0o644))
}
