package upload_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadgate/upload"
)

func multipartRequest(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile(upload.FileField, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func readSource(t *testing.T, src upload.Source) string {
	t.Helper()
	rc, err := src.Open()
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestParseRequest_Multipart(t *testing.T) {
	t.Parallel()

	t.Run("name param wins over transport filename", func(t *testing.T) {
		t.Parallel()

		r := multipartRequest(t, map[string]string{
			"configUid": "7", "name": "my photo.png", "chunk": "1", "chunks": "3",
		}, "blob", []byte("data"))

		req, err := upload.ParseRequest(r, 1<<20)
		require.NoError(t, err)
		assert.Equal(t, int64(7), req.ConfigUID)
		assert.Equal(t, "my_photo.png", req.Filename)
		assert.Equal(t, 1, req.Chunk)
		assert.Equal(t, 3, req.Chunks)
		assert.True(t, req.Chunked())
		assert.False(t, req.Final())
		assert.Equal(t, "my_photo.png", req.UploadKey())
		assert.Equal(t, "data", readSource(t, req.Source))
	})

	t.Run("transport filename and token", func(t *testing.T) {
		t.Parallel()

		r := multipartRequest(t, map[string]string{"configUid": "2", "token": "o_1abc/def"}, "report.pdf", []byte("x"))

		req, err := upload.ParseRequest(r, 1<<20)
		require.NoError(t, err)
		assert.Equal(t, "report.pdf", req.Filename)
		assert.Equal(t, "o_1abc_def", req.UploadKey())
		assert.True(t, req.Final())
	})

	t.Run("missing file slot is a transport error", func(t *testing.T) {
		t.Parallel()

		r := multipartRequest(t, map[string]string{"configUid": "2", "name": "a.png"}, "", nil)

		req, err := upload.ParseRequest(r, 1<<20)
		require.NoError(t, err)
		_, err = req.Source.Open()
		assert.ErrorIs(t, err, upload.ErrTransport)
		code, _ := upload.ErrorCode(err)
		assert.Equal(t, upload.CodeTransport, code)
	})

	t.Run("broken multipart body", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("--nope"))
		r.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")

		_, err := upload.ParseRequest(r, 1<<20)
		assert.ErrorIs(t, err, upload.ErrTransport)
	})
}

func TestParseRequest_RawBody(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/upload?configUid=5&name=a.txt&chunk=0&chunks=2", strings.NewReader("raw bytes"))
	r.Header.Set("Content-Type", "application/octet-stream")

	req, err := upload.ParseRequest(r, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, int64(5), req.ConfigUID)
	assert.Equal(t, "a.txt", req.Filename)
	assert.Equal(t, 2, req.Chunks)
	assert.Equal(t, "raw bytes", readSource(t, req.Source))
}

func TestParseRequest_BadNumbers(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/upload?configUid=abc&chunk=x&chunks=", nil)
	req, err := upload.ParseRequest(r, 1<<20)
	require.NoError(t, err)
	assert.Zero(t, req.ConfigUID)
	assert.Zero(t, req.Chunk)
	assert.Zero(t, req.Chunks)
	assert.True(t, req.Final())
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	generated := regexp.MustCompile(`^file_[0-9a-f]{14}$`)
	tests := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo.png"},
		{"my photo (1).png", "my_photo_1_.png"},
		{"../../etc/passwd", ".._.._etc_passwd"},
		{"über.jpg", "_ber.jpg"},
		{"a__b.txt", "a__b.txt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, upload.SanitizeFilename(tt.in), tt.in)
	}

	for _, in := range []string{"", ".", "..", "..."} {
		assert.Regexp(t, generated, upload.SanitizeFilename(in), "input %q", in)
	}
}
