package upload_test

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadgate/upload"
)

var obscurePattern = regexp.MustCompile(`^[a-zA-IK-NP-Z0-9]{20}$`)

func TestRandomDirName(t *testing.T) {
	t.Parallel()

	assert.Len(t, upload.ObscureAlphabet, 60)
	assert.NotContains(t, upload.ObscureAlphabet, "J")
	assert.NotContains(t, upload.ObscureAlphabet, "O")

	seen := make(map[string]bool)
	for range 200 {
		name, err := upload.RandomDirName(upload.ObscureLength)
		require.NoError(t, err)
		assert.Regexp(t, obscurePattern, name)
		assert.False(t, seen[name], "duplicate %s", name)
		seen[name] = true
	}
}

func TestPathResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("strips trailing separators and creates directory", func(t *testing.T) {
		t.Parallel()

		base := filepath.Join(t.TempDir(), "uploads")
		dir, err := upload.NewPathResolver("UTC").Resolve(upload.Policy{DestinationPath: base + "//"}, nil)
		require.NoError(t, err)
		assert.Equal(t, base, dir)
		assert.DirExists(t, dir)
	})

	t.Run("user subdirectory then obscure segment", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		p := upload.Policy{DestinationPath: base, Subdirectory: upload.SubdirUsername, ObscureDirectory: true}

		dir, err := upload.NewPathResolver("UTC").Resolve(p, &upload.UserRecord{Username: "jane doe"})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(base, "jane_doe"), filepath.Dir(dir))
		assert.Regexp(t, obscurePattern, filepath.Base(dir))
		assert.DirExists(t, dir)

		other, err := upload.NewPathResolver("UTC").Resolve(p, &upload.UserRecord{Username: "jane doe"})
		require.NoError(t, err)
		assert.NotEqual(t, dir, other)
	})

	t.Run("unknown timezone falls back to placeholder", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		p := upload.Policy{DestinationPath: base, Subdirectory: upload.SubdirLastLoginHour}
		dir, err := upload.NewPathResolver("Mars/Olympus").Resolve(p, &upload.UserRecord{Username: "u", LastLogin: 1})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(base, upload.TimezonePlaceholder), dir)
	})

	t.Run("creation failure is a path error", func(t *testing.T) {
		t.Parallel()

		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		_, err := upload.NewPathResolver("UTC").Resolve(upload.Policy{DestinationPath: filepath.Join(blocker, "sub")}, nil)
		assert.ErrorIs(t, err, upload.ErrPath)
		_, msg := upload.ErrorCode(err)
		assert.Equal(t, upload.MsgCreateDirectory, msg)
	})
}

func TestPathResolver_Reusable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := upload.NewPathResolver("UTC")
	cs := upload.ChunkSession{Directory: dir, Filename: "a.png"}

	assert.False(t, r.Reusable(cs, "a.png"))

	writeFile(t, upload.PartPath(dir, "a.png"), []byte("x"))
	assert.True(t, r.Reusable(cs, "a.png"))
	assert.False(t, r.Reusable(cs, "b.png"))
	assert.False(t, r.Reusable(upload.ChunkSession{Filename: "a.png"}, "a.png"))
}
