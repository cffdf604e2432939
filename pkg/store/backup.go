package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// BackupCache mirrors the last-known-good copy of each remote document on
// local disk. It is strictly best-effort: Save never returns an error and
// Load never fails, so the cache can never make a bad day worse. It is used
// only as a read fallback when the remote store is unreachable.
type BackupCache struct {
	dir    string
	logger *zap.Logger
}

// NewBackupCache creates a cache rooted at dir. The directory is created
// lazily on first Save.
func NewBackupCache(dir string, logger *zap.Logger) *BackupCache {
	return &BackupCache{dir: dir, logger: logger}
}

// Save writes data for key. Failures are logged and swallowed.
func (c *BackupCache) Save(key string, data []byte) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.logger.Warn("Backup cache unavailable", zap.String("dir", c.dir), zap.Error(err))
		return
	}

	path := c.path(key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.logger.Warn("Failed to write backup", zap.String("path", path), zap.Error(err))
		return
	}

	c.logger.Debug("Backup refreshed", zap.String("key", key), zap.String("path", path))
}

// Load returns the cached payload for key, or nil if it is absent or not
// valid JSON.
func (c *BackupCache) Load(key string) []byte {
	path := c.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("Failed to read backup", zap.String("path", path), zap.Error(err))
		}
		return nil
	}

	if !json.Valid(data) {
		c.logger.Warn("Discarding corrupt backup", zap.String("path", path))
		return nil
	}

	return data
}

// path maps a document key to a flat file name inside the cache directory.
func (c *BackupCache) path(key string) string {
	name := strings.NewReplacer("/", "__", "\\", "__").Replace(key)
	return filepath.Join(c.dir, name)
}
