// Package blob stores attachment contents on local disk.
//
// Keys are "<partition>/<uuid>" so a partition's files share one directory
// and a key never names a file outside the root.
package blob

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrTooLarge is returned by Put when the content exceeds the limit.
var ErrTooLarge = errors.New("blob: content exceeds size limit")

// ErrNotFound is returned by Open for an unknown key.
var ErrNotFound = errors.New("blob: not found")

// Store is the attachment content store used by the attachment service.
type Store interface {
	// Put copies at most limit bytes from r under a new key of partition.
	Put(partition int64, r io.Reader, limit int64) (key string, size int64, err error)
	Open(key string) (io.ReadCloser, error)
	// Delete removes key. Missing keys are not an error.
	Delete(key string) error
}

// Local keeps blobs under Root.
type Local struct {
	Root string
}

// NewLocal returns a Local rooted at root, creating the directory.
func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("blob: root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create root: %w", err)
	}
	return &Local{Root: root}, nil
}

func (s *Local) path(key string) (string, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 2 {
		return "", fmt.Errorf("blob: malformed key %q", key)
	}
	if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
		return "", fmt.Errorf("blob: malformed key %q", key)
	}
	if _, err := uuid.Parse(parts[1]); err != nil {
		return "", fmt.Errorf("blob: malformed key %q", key)
	}
	return filepath.Join(s.Root, parts[0], parts[1]), nil
}

// Put implements Store.
func (s *Local) Put(partition int64, r io.Reader, limit int64) (string, int64, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", 0, fmt.Errorf("blob: new key: %w", err)
	}
	key := strconv.FormatInt(partition, 10) + "/" + id.String()
	full, err := s.path(key)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("blob: create dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", 0, fmt.Errorf("blob: create: %w", err)
	}
	// One byte past the limit tells an exact fit from an overflow.
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > limit {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		if errors.Is(err, ErrTooLarge) {
			return "", 0, err
		}
		return "", 0, fmt.Errorf("blob: write: %w", err)
	}
	return key, n, nil
}

// Open implements Store.
func (s *Local) Open(key string) (io.ReadCloser, error) {
	full, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("blob: open: %w", err)
	}
	return f, nil
}

// Delete implements Store.
func (s *Local) Delete(key string) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("blob: delete: %w", err)
	}
	return nil
}
