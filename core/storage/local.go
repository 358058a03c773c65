package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DirPerm is applied to every directory created under the root.
	DirPerm fs.FileMode = 0o755
	// FilePerm is applied to finished files.
	FilePerm fs.FileMode = 0o644
)

// Local is a directory tree rooted at a fixed absolute path.
type Local struct {
	root string
}

// NewLocal returns a Local rooted at root. The directory must exist.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidConfig, abs)
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute root directory.
func (l *Local) Root() string { return l.root }

// Join resolves rel under the root. Paths that escape the root are rejected.
func (l *Local) Join(rel string) (string, error) {
	p := filepath.Join(l.root, filepath.FromSlash(rel))
	if p != l.root && !strings.HasPrefix(p, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, rel)
	}
	return p, nil
}

// Key returns the slash separated path of abs relative to the root.
func (l *Local) Key(abs string) (string, error) {
	rel, err := filepath.Rel(l.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, abs)
	}
	return filepath.ToSlash(rel), nil
}

// EnsureDir creates dir and its parents with DirPerm, then sets DirPerm on
// dir itself regardless of the process umask.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return err
	}
	return os.Chmod(dir, DirPerm)
}

// FixPermissions sets FilePerm on a finished file.
func FixPermissions(path string) error {
	return os.Chmod(path, FilePerm)
}

// Sweep removes regular files under the root whose name ends with suffix and
// whose modification time is older than maxAge. It returns the number of
// files removed. Per-file errors are joined and do not stop the walk.
func (l *Local) Sweep(ctx context.Context, suffix string, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	var (
		removed int
		errs    []error
	)

	walkErr := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if !info.Mode().IsRegular() || info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			return nil
		}
		removed++
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}

	return removed, errors.Join(errs...)
}
