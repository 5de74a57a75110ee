package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// File keeps entries as files under a directory. Every file starts with
// 8 bytes header: expiration time in unix nanoseconds (big endian), zero for
// entries which never expire.
type File struct {
	dir string
	now func() time.Time
}

const fileHeaderSize = 8

// NewFile creates file cache in dir, creating directory if necessary.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create cache directory: %w", err)
	}
	return &File{dir: dir, now: time.Now}, nil
}

// Dir returns cache location.
func (c *File) Dir() string {
	return c.dir
}

func (c *File) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	path := c.path(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("unable to read cache entry: %w", err)
	}
	if len(data) < fileHeaderSize {
		// broken entry - treat as miss
		_ = os.Remove(path)
		return nil, false, nil
	}
	if exp := int64(binary.BigEndian.Uint64(data)); exp != 0 && c.now().UnixNano() > exp {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return data[fileHeaderSize:], true, nil
}

func (c *File) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	buf := make([]byte, fileHeaderSize, fileHeaderSize+len(data))
	if ttl > 0 {
		binary.BigEndian.PutUint64(buf, uint64(c.now().Add(ttl).UnixNano()))
	}
	buf = append(buf, data...)

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create cache directory: %w", err)
	}

	// write and rename, so concurrent readers never see partial entry
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return fmt.Errorf("unable to create cache entry: %w", err)
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to write cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to store cache entry: %w", err)
	}
	return nil
}

func (c *File) Delete(_ context.Context, key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (c *File) Close() error {
	return nil
}

// path spreads entries over subdirectories named after first two characters
// of the hashed key.
func (c *File) path(key string) string {
	h := Key(key)
	return filepath.Join(c.dir, h[:2], h[2:])
}

var _ Cache = (*File)(nil)
