package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxObjectSize bounds how much of a stored object is read into memory.
const MaxObjectSize int64 = 1 << 20

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrObjectTooLarge = errors.New("object exceeds maximum size")
	ErrInvalidKey     = errors.New("invalid object key")
)

// ObjectStore is the small key/value surface the S3-backed user provider needs.
type ObjectStore interface {
	// GetObject returns the object body. Missing keys yield ErrObjectNotFound.
	GetObject(ctx context.Context, key string) ([]byte, error)

	// PutObject creates or replaces an object.
	PutObject(ctx context.Context, key string, data []byte, contentType string) error

	// ListKeys returns up to limit keys under prefix in lexical order. limit <= 0 means no cap.
	ListKeys(ctx context.Context, prefix string, limit int) ([]string, error)
}

// Config holds object storage connection settings.
type Config struct {
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
}

// New returns a local store for file:// endpoints and an S3 store otherwise.
func New(ctx context.Context, cfg Config) (ObjectStore, error) {
	if path, ok := strings.CutPrefix(cfg.S3Endpoint, "file://"); ok {
		return NewLocalStorage(path)
	}
	return NewS3Storage(ctx, cfg)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	if int64(len(data)) > MaxObjectSize {
		return nil, ErrObjectTooLarge
	}
	return data, nil
}
