package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalDisk stores objects as files in a single directory.
type LocalDisk struct {
	root string
}

// NewLocalDisk constructs a LocalDisk rooted at dir.
func NewLocalDisk(dir string) (*LocalDisk, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("local storage directory is required")
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &LocalDisk{root: filepath.Clean(root)}, nil
}

// EnsureBucket creates the storage directory.
func (l *LocalDisk) EnsureBucket(ctx context.Context) error {
	return os.MkdirAll(l.root, 0o750)
}

// Put writes r to a temporary file, syncs it and links it under key. The
// link fails when key exists, so an object is never replaced and never
// visible half written.
func (l *LocalDisk) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	target, err := l.path(key)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(target); err == nil {
		return ErrObjectExists
	}

	tmp, err := os.CreateTemp(l.root, ".partial-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, readerWithContext(ctx, r)); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Link(tmp.Name(), target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrObjectExists
		}
		return err
	}
	return nil
}

// Get opens the file stored under key.
func (l *LocalDisk) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	target, err := l.path(key)
	if err != nil {
		return nil, err
	}
	info, err := os.Lstat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, ErrObjectNotFound
	}
	return os.Open(target)
}

// Delete removes the file stored under key.
func (l *LocalDisk) Delete(ctx context.Context, key string) error {
	target, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrObjectNotFound
		}
		return err
	}
	return nil
}

// Bucket returns the storage directory.
func (l *LocalDisk) Bucket() string {
	return l.root
}

// path resolves key inside the root, rejecting anything that would land
// elsewhere.
func (l *LocalDisk) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	target := filepath.Join(l.root, key)
	rel, err := filepath.Rel(l.root, target)
	if err != nil || rel != filepath.Base(target) || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return target, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
