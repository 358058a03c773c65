package upload

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultDenyPattern rejects server-side executable names whatever the
// policy allows.
const DefaultDenyPattern = `(?i)\.(php[3-8]?|phpsh|phtml|pht|phar|shtml|cgi)(\..*)?$|\.pl$|^\.htaccess$`

// extensionTypes lists extra MIME types accepted for extensions that the
// detector reports under another name.
var extensionTypes = map[string][]string{
	"jpeg": {"image/jpeg"},
	"jpe":  {"image/jpeg"},
	"tif":  {"image/tiff"},
	"htm":  {"text/html"},
	"csv":  {"text/plain"},
	"tsv":  {"text/plain"},
	"md":   {"text/plain"},
	"log":  {"text/plain"},
	"yml":  {"text/plain"},
	"yaml": {"text/plain"},
	"svg":  {"text/xml"},
}

// FileValidator enforces extension and content rules.
type FileValidator struct {
	deny *regexp.Regexp
}

// NewFileValidator compiles denyPattern; empty means DefaultDenyPattern.
func NewFileValidator(denyPattern string) (*FileValidator, error) {
	if denyPattern == "" {
		denyPattern = DefaultDenyPattern
	}
	re, err := regexp.Compile(denyPattern)
	if err != nil {
		return nil, fmt.Errorf("compile deny pattern: %w", err)
	}
	return &FileValidator{deny: re}, nil
}

// Extension returns the lowercase extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// CheckExtension runs before any byte is written: the extension must be in
// the policy allow-list and the name must not match the deny pattern.
func (v *FileValidator) CheckExtension(filename string, p Policy) error {
	if !p.Allows(Extension(filename)) {
		return newError(ErrExtensionRejected, CodeDefault, MsgExtensionNotAllowed, nil)
	}
	if v.deny.MatchString(filename) {
		return newError(ErrExtensionRejected, CodeDefault, MsgExtensionDenied, nil)
	}
	return nil
}

// VerifyContent sniffs the finished file at path. When the type cannot be
// detected or does not belong to the file's extension, the file is removed
// and a ValidationError returned.
func (v *FileValidator) VerifyContent(path string) error {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return reject(path, err)
	}

	ext := Extension(path)
	if contentMatches(m, ext) {
		return nil
	}
	return reject(path, fmt.Errorf("detected %s for .%s", m.String(), ext))
}

func reject(path string, cause error) error {
	if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
		cause = errors.Join(cause, rmErr)
	}
	return newError(ErrValidation, CodeDefault, MsgMimeNotAllowed, cause)
}

func contentMatches(m *mimetype.MIME, ext string) bool {
	if ext == "" {
		return false
	}
	for ; m != nil; m = m.Parent() {
		if strings.TrimPrefix(m.Extension(), ".") == ext {
			return true
		}
		for _, t := range extensionTypes[ext] {
			if m.Is(t) {
				return true
			}
		}
	}
	return false
}
