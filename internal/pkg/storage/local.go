package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStorage implements ObjectStore on the local file system. Keys map to paths under basePath.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Ensure base directory exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// GetObject reads a stored file
func (s *LocalStorage) GetObject(ctx context.Context, key string) ([]byte, error) {
	fullPath, ok := s.path(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return readLimited(file)
}

// PutObject writes a file, replacing it atomically
func (s *LocalStorage) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	fullPath, ok := s.path(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		os.Remove(tmp) // Cleanup on error
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// ListKeys walks basePath and returns matching keys in lexical order
func (s *LocalStorage) ListKeys(ctx context.Context, prefix string, limit int) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

// path maps key under basePath. Keys that are absolute or climb out of basePath are rejected.
func (s *LocalStorage) path(key string) (string, bool) {
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", false
	}
	return filepath.Join(s.basePath, rel), true
}
