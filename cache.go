package main

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileCache caches raw API responses on disk, one JSON file per key. Keys are
// hashed so arbitrary URLs and chemical names make safe filenames.
type FileCache struct {
	dir string
	ttl time.Duration
}

type cacheEnvelope struct {
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewFileCache creates a file cache rooted at dir with the given TTL.
func NewFileCache(dir string, ttl time.Duration) *FileCache {
	if dir == "" {
		dir = ".chemsafe_cache"
	}

	os.MkdirAll(dir, 0755)

	return &FileCache{dir: dir, ttl: ttl}
}

func (c *FileCache) path(key string) string {
	sum := md5.Sum([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}

// Get returns the cached payload for key, or an error when missing, corrupt,
// or expired.
func (c *FileCache) Get(key string) (json.RawMessage, error) {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, err
	}

	var envelope cacheEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}

	if time.Since(envelope.Timestamp) > c.ttl {
		return nil, fmt.Errorf("cache expired")
	}

	return envelope.Data, nil
}

// Set stores a payload for key.
func (c *FileCache) Set(key string, data json.RawMessage) error {
	envelope := cacheEnvelope{Timestamp: time.Now(), Data: data}

	raw, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return os.WriteFile(c.path(key), raw, 0644)
}

// ClearExpired deletes every cache file whose timestamp is past the TTL and
// returns how many were removed. Unreadable files count as expired.
func (c *FileCache) ClearExpired() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(c.dir, entry.Name())
		expired := true
		if raw, err := os.ReadFile(path); err == nil {
			var envelope cacheEnvelope
			if err := json.Unmarshal(raw, &envelope); err == nil {
				expired = time.Since(envelope.Timestamp) > c.ttl
			}
		}

		if expired {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
	}

	return removed, nil
}

// Clear deletes every cache file.
func (c *FileCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		os.Remove(filepath.Join(c.dir, entry.Name()))
	}

	return nil
}
