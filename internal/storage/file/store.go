// Package file implements storage.Backend with one file per key.
//
// Keys of the form guardflow:{session}:{workflow}:{kind} are laid out as
// {dir}/{session}/{workflow}.{kind}.yaml, with each part escaped. Writes go to
// a private temp file that is then renamed over the target, so a reader never
// observes a half-written value.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"guardflow/internal/storage"
)

// DirEnv overrides the configured directory when set.
const DirEnv = "GUARDFLOW_STORAGE_DIR"

// DefaultDir is used when neither the environment nor the caller provides a directory.
const DefaultDir = ".guardflow"

var _ storage.Backend = (*Store)(nil)

// Store keeps values as files under a root directory.
type Store struct {
	dir string
}

// ResolveDir picks the storage directory.
//
// Resolution order:
//  1. GUARDFLOW_STORAGE_DIR environment variable
//  2. Explicit dir parameter (if non-empty)
//  3. [DefaultDir] relative to the working directory
func ResolveDir(dir string) string {
	if env := os.Getenv(DirEnv); env != "" {
		return env
	}
	if dir != "" {
		return dir
	}
	return DefaultDir
}

// New creates a file store rooted at [ResolveDir](dir).
//
// The directory is created lazily on the first write.
func New(dir string) *Store {
	return &Store{dir: ResolveDir(dir)}
}

// Dir returns the resolved root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path a key maps to.
func (s *Store) Path(key string) string {
	parts := strings.Split(key, ":")
	for i, p := range parts {
		parts[i] = safeName(p)
	}
	if len(parts) > 0 && parts[0] == storage.KeyPrefix {
		parts = parts[1:]
	}

	switch len(parts) {
	case 0:
		return filepath.Join(s.dir, "_.yaml")
	case 1:
		return filepath.Join(s.dir, parts[0]+".yaml")
	}
	dirs := parts[:len(parts)-2]
	name := parts[len(parts)-2] + "." + parts[len(parts)-1] + ".yaml"
	return filepath.Join(append([]string{s.dir}, append(dirs, name)...)...)
}

// Get reads the file for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Put writes value atomically (write to temp, then rename).
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	// Each writer gets its own temp file so concurrent writers never share one.
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), filepath.Base(fullPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(value)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpPath, 0644)
	}
	if err == nil {
		err = os.Rename(tmpPath, fullPath)
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	return nil
}

// Delete removes the file for key. A missing file is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// safeName keeps a key part inside its directory. The mapping is one-to-one:
// separators are query-escaped, a leading dot becomes %2E and an empty part
// becomes a lone %, which escaping never produces.
func safeName(part string) string {
	if part == "" {
		return "%"
	}
	part = url.QueryEscape(part)
	if strings.HasPrefix(part, ".") {
		part = "%2E" + part[1:]
	}
	return part
}
