package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBackupCache_RoundTrip(t *testing.T) {
	cache := NewBackupCache(t.TempDir(), zap.NewNop())

	payload := []byte(`["Bianchi Luca","Rossi Mario"]`)
	cache.Save("medici.json", payload)

	got := cache.Load("medici.json")
	assert.Equal(t, payload, got)
}

func TestBackupCache_LoadMissingReturnsNil(t *testing.T) {
	cache := NewBackupCache(t.TempDir(), zap.NewNop())
	assert.Nil(t, cache.Load("medici.json"))
}

func TestBackupCache_LoadCorruptReturnsNil(t *testing.T) {
	dir := t.TempDir()
	cache := NewBackupCache(dir, zap.NewNop())

	err := os.WriteFile(filepath.Join(dir, "medici.json"), []byte("{not json"), 0o644)
	require.NoError(t, err)

	assert.Nil(t, cache.Load("medici.json"))
}

func TestBackupCache_KeyWithPathSeparators(t *testing.T) {
	dir := t.TempDir()
	cache := NewBackupCache(dir, zap.NewNop())

	cache.Save("turni/2025-03.json", []byte(`{"year":2025}`))

	// Stored flat, not as a nested directory.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].IsDir())
	assert.Equal(t, "turni__2025-03.json", entries[0].Name())

	assert.Equal(t, []byte(`{"year":2025}`), cache.Load("turni/2025-03.json"))
}

func TestBackupCache_SaveToUnwritableDirIsSwallowed(t *testing.T) {
	// A file where the cache directory should be makes MkdirAll fail.
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	cache := NewBackupCache(blocked, zap.NewNop())
	assert.NotPanics(t, func() {
		cache.Save("medici.json", []byte("[]"))
	})
	assert.Nil(t, cache.Load("medici.json"))
}
