package upload_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadgate/upload"
	"github.com/dmitrymomot/uploadgate/upload/configstore"
)

type failingSource struct{ err error }

func (s failingSource) Get(context.Context, int64) (upload.ConfigRecord, error) {
	return upload.ConfigRecord{}, s.err
}

func TestPolicyResolver_Resolve(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	other := t.TempDir()
	user := &upload.UserRecord{UID: 3, Username: "jane"}

	source := configstore.NewMemory(
		upload.ConfigRecord{UID: 1, UploadPath: "photos/", Extensions: " PNG, .jpg ,,png", ObscureDir: true, CheckMime: true, SaveSession: true},
		upload.ConfigRecord{UID: 2, UploadPath: "photos", Extensions: ""},
		upload.ConfigRecord{UID: 3, UploadPath: "../escape", Extensions: "png"},
		upload.ConfigRecord{UID: 4, UploadPath: "/definitely/not/allowed", Extensions: "png"},
		upload.ConfigRecord{UID: 5, UploadPath: other, Extensions: "png"},
		upload.ConfigRecord{UID: 6, UploadPath: "members", Extensions: "png", SessionRequired: true, SubdirectoryField: "username"},
		upload.ConfigRecord{UID: 7, UploadPath: "shared", Extensions: "png", SubdirectoryField: "username"},
		upload.ConfigRecord{UID: 8, UploadPath: "x", Extensions: "png", SessionRequired: true, SubdirectoryField: "shoe_size"},
		upload.ConfigRecord{UID: 9, UploadPath: "", Extensions: "png"},
		upload.ConfigRecord{UID: 10, UploadPath: "x", Extensions: "png", Hidden: true},
	)
	resolver := upload.NewPolicyResolver(source, root, other)

	t.Run("normalizes record", func(t *testing.T) {
		t.Parallel()

		p, err := resolver.Resolve(context.Background(), 1, nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "photos"), p.DestinationPath)
		assert.Equal(t, []string{"png", "jpg"}, p.AllowedExtensions)
		assert.True(t, p.ObscureDirectory)
		assert.True(t, p.CheckMimeType)
		assert.True(t, p.PersistPathsInSession)
		assert.Equal(t, upload.SubdirNone, p.Subdirectory)
	})

	t.Run("absolute path inside a second root", func(t *testing.T) {
		t.Parallel()

		p, err := resolver.Resolve(context.Background(), 5, nil)
		require.NoError(t, err)
		assert.Equal(t, other, p.DestinationPath)
	})

	t.Run("subdirectory needs a required session", func(t *testing.T) {
		t.Parallel()

		p, err := resolver.Resolve(context.Background(), 7, user)
		require.NoError(t, err)
		assert.Equal(t, upload.SubdirNone, p.Subdirectory)

		p, err = resolver.Resolve(context.Background(), 6, user)
		require.NoError(t, err)
		assert.Equal(t, upload.SubdirUsername, p.Subdirectory)
	})

	tests := []struct {
		name string
		uid  int64
		user *upload.UserRecord
		kind error
		msg  string
	}{
		{"missing id", 0, nil, upload.ErrConfiguration, upload.MsgNoConfigID},
		{"negative id", -4, nil, upload.ErrConfiguration, upload.MsgNoConfigID},
		{"unknown record", 404, nil, upload.ErrConfiguration, upload.MsgConfigNotFound},
		{"inactive record", 10, nil, upload.ErrConfiguration, upload.MsgConfigNotFound},
		{"empty extensions", 2, nil, upload.ErrConfiguration, upload.MsgMissingExtensions},
		{"relative escape", 3, nil, upload.ErrConfiguration, upload.MsgInvalidDirectory},
		{"absolute outside roots", 4, nil, upload.ErrConfiguration, upload.MsgInvalidDirectory},
		{"empty path", 9, nil, upload.ErrConfiguration, upload.MsgInvalidDirectory},
		{"unknown subdirectory field", 8, user, upload.ErrConfiguration, upload.MsgConfigNotFound},
		{"anonymous on required session", 6, nil, upload.ErrAuthorization, upload.MsgSessionExpired},
		{"user without username", 6, &upload.UserRecord{UID: 1}, upload.ErrAuthorization, upload.MsgSessionExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := resolver.Resolve(context.Background(), tt.uid, tt.user)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			code, msg := upload.ErrorCode(err)
			assert.Equal(t, upload.CodeDefault, code)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestPolicyResolver_SourceFailure(t *testing.T) {
	t.Parallel()

	resolver := upload.NewPolicyResolver(failingSource{err: errors.New("db down")}, t.TempDir())
	_, err := resolver.Resolve(context.Background(), 1, nil)
	assert.ErrorIs(t, err, upload.ErrConfiguration)
	_, msg := upload.ErrorCode(err)
	assert.Equal(t, upload.MsgInternal, msg)
}

func TestParseExtensions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"png", "jpg", "gif"}, upload.ParseExtensions("png, JPG,.gif,,png"))
	assert.Empty(t, upload.ParseExtensions(" , "))
}
