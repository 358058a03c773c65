package upload

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// FileField is the multipart field that carries the upload.
const FileField = "file"

const maxTokenLength = 128

var unsafeFilenameChars = regexp.MustCompile(`[^\w._]+`)

// Source yields the bytes of one request: a multipart file slot or the raw
// request body.
type Source interface {
	Open() (io.ReadCloser, error)
}

// Request is one upload request: a whole file or one chunk of it.
type Request struct {
	ConfigUID int64
	// Filename is the sanitized client filename.
	Filename string
	Chunk    int
	Chunks   int
	// Token identifies the logical upload across chunks. Defaults to
	// Filename.
	Token  string
	Source Source
}

// Chunked reports whether the upload spans several requests.
func (r Request) Chunked() bool { return r.Chunks > 1 }

// Final reports whether this request completes the file.
func (r Request) Final() bool { return r.Chunks <= 0 || r.Chunk == r.Chunks-1 }

// UploadKey identifies the logical upload within a session.
func (r Request) UploadKey() string {
	if r.Token != "" {
		return r.Token
	}
	return r.Filename
}

// ParseRequest extracts upload parameters from form or query values and
// picks the byte source. Multipart bodies are parsed with maxMemory bytes
// kept in memory; parse failures are TransportErrors.
func ParseRequest(r *http.Request, maxMemory int64) (Request, error) {
	var (
		values url.Values
		src    Source
		header *multipart.FileHeader
	)

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return Request{}, newError(ErrTransport, CodeTransport, MsgTransport, err)
		}
		values = r.Form
		if files := r.MultipartForm.File[FileField]; len(files) > 0 {
			header = files[0]
			src = fileSource{header: header}
		} else {
			src = missingSource{}
		}
	} else {
		values = r.URL.Query()
		src = ReaderSource(r.Body)
	}

	req := Request{
		ConfigUID: parseInt64(values.Get("configUid")),
		Chunk:     parseInt(values.Get("chunk")),
		Chunks:    parseInt(values.Get("chunks")),
		Source:    src,
	}

	name := values.Get("name")
	if !values.Has("name") && header != nil {
		name = header.Filename
	}
	req.Filename = SanitizeFilename(name)
	if raw := values.Get("token"); raw != "" {
		req.Token = truncate(SanitizeFilename(raw), maxTokenLength)
	}

	return req, nil
}

// SanitizeFilename replaces every run of characters outside [A-Za-z0-9_.]
// with an underscore. Empty or dot-only names get a generated "file_" name.
func SanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if strings.Trim(name, ".") == "" {
		return generateFilename()
	}
	return name
}

// ReaderSource wraps a plain reader, typically the raw request body.
func ReaderSource(r io.Reader) Source {
	return readerSource{r: r}
}

type readerSource struct {
	r io.Reader
}

func (s readerSource) Open() (io.ReadCloser, error) {
	if s.r == nil {
		return nil, newError(ErrStream, CodeInputStream, MsgInputStream, errors.New("no request body"))
	}
	return io.NopCloser(s.r), nil
}

type fileSource struct {
	header *multipart.FileHeader
}

func (s fileSource) Open() (io.ReadCloser, error) {
	f, err := s.header.Open()
	if err != nil {
		return nil, newError(ErrStream, CodeInputStream, MsgInputStream, err)
	}
	return f, nil
}

// missingSource stands for a multipart request without a file slot.
type missingSource struct{}

func (missingSource) Open() (io.ReadCloser, error) {
	return nil, newError(ErrTransport, CodeTransport, MsgTransport, http.ErrMissingFile)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

func generateFilename() string {
	b := make([]byte, 7)
	_, _ = rand.Read(b)
	return "file_" + hex.EncodeToString(b)
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
