// Package store persists the cache projection between deploy passes. The
// file is read whole at the start of a pass and replaced atomically at the
// end; concurrent invocations against one workspace are not supported.
package store

import (
	"fmt"
	"os"

	"dotagents/internal/config"
	"dotagents/internal/fsutil"
)

// IOError reports a cache file that could not be read or written.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("IO_CACHE: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// EnsureLayout creates the cache root.
func EnsureLayout(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return &IOError{Op: "create", Path: root, Err: err}
	}
	return nil
}

// LoadCache reads the cache projection. A missing file is an empty cache.
func LoadCache(root string) (config.CacheConfig, error) {
	path := CachePath(root)
	blob, ok, err := fsutil.ReadIfExists(path)
	if err != nil {
		return config.CacheConfig{}, &IOError{Op: "read", Path: path, Err: err}
	}
	if !ok {
		return config.DefaultCacheConfig(), nil
	}
	return config.ParseCache(path, blob)
}

// SaveCache replaces the cache projection atomically.
func SaveCache(root string, cache config.CacheConfig) error {
	if err := EnsureLayout(root); err != nil {
		return err
	}
	if cache.Schema == "" {
		cache.Schema = config.SchemaURL
	}
	blob, err := config.Marshal(cache)
	if err != nil {
		return err
	}
	path := CachePath(root)
	if err := fsutil.AtomicWrite(path, blob, 0o644); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
