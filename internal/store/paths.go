package store

import (
	"path/filepath"

	"dotagents/internal/config"
)

// CachePath returns the cache projection file inside a cache root.
func CachePath(root string) string {
	return filepath.Join(root, config.CacheFile)
}

// AuditPath returns the audit log inside a cache root.
func AuditPath(root string) string {
	return filepath.Join(root, config.AuditFile)
}
