package upload

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrymomot/uploadgate/core/storage"
)

// PartSuffix marks a partial file.
const PartSuffix = ".part"

// ObscureAlphabet has 60 symbols; uppercase J and O are left out.
const ObscureAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIKLMNPQRSTUVWXYZ0123456789"

// ObscureLength is the length of a random directory name.
const ObscureLength = 20

// PathResolver computes and creates destination directories.
type PathResolver struct {
	loc *time.Location
}

// NewPathResolver creates a resolver deriving last-login hours in timezone.
// An unknown zone is not an error: those directories get
// TimezonePlaceholder.
func NewPathResolver(timezone string) *PathResolver {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = nil
	}
	return &PathResolver{loc: loc}
}

// Reusable reports whether cs still points at an existing partial file for
// filename.
func (r *PathResolver) Reusable(cs ChunkSession, filename string) bool {
	if cs.Directory == "" || cs.Filename != filename {
		return false
	}
	info, err := os.Stat(PartPath(cs.Directory, filename))
	return err == nil && info.Mode().IsRegular()
}

// Resolve builds a fresh directory for p: base path, optional user
// subdirectory, optional random segment. The directory is created.
func (r *PathResolver) Resolve(p Policy, user *UserRecord) (string, error) {
	dir := strings.TrimRight(p.DestinationPath, string(filepath.Separator))
	if dir == "" {
		dir = string(filepath.Separator)
	}

	if sub := p.Subdirectory.Derive(user, r.loc); sub != "" {
		dir = filepath.Join(dir, sub)
	}

	if p.ObscureDirectory {
		name, err := RandomDirName(ObscureLength)
		if err != nil {
			return "", pathError(MsgCreateDirectory, err)
		}
		dir = filepath.Join(dir, name)
	}

	if err := storage.EnsureDir(dir); err != nil {
		return "", pathError(MsgCreateDirectory, err)
	}
	return dir, nil
}

// RandomDirName returns n symbols drawn uniformly from ObscureAlphabet.
func RandomDirName(n int) (string, error) {
	const (
		size  = len(ObscureAlphabet)
		limit = 256 - 256%size
	)
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, ObscureAlphabet[int(b)%size])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// FinalPath is the path of the finished file.
func FinalPath(dir, filename string) string {
	return filepath.Join(dir, filename)
}

// PartPath is the path of the partial file.
func PartPath(dir, filename string) string {
	return FinalPath(dir, filename) + PartSuffix
}
