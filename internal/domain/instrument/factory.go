package instrument

import (
	"context"
	"fmt"

	"github.com/safepay/wallet-api/internal/config"
	"github.com/safepay/wallet-api/internal/pkg/database"
	"github.com/safepay/wallet-api/internal/pkg/logger"
	"github.com/safepay/wallet-api/internal/pkg/storage"
)

// Seeder writes a user document into a backing store.
type Seeder interface {
	SeedUser(ctx context.Context, doc UserDocument) error
}

// NewProvider builds the provider named by cfg.Provider. The returned cleanup closes any
// connections it opened and is never nil.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, func(), error) {
	switch cfg.Provider {
	case ProviderMemory, "":
		p, err := newMemoryFromConfig(cfg)
		if err != nil {
			return nil, func() {}, err
		}
		logger.LogInfo(ctx, "User provider ready", "provider", ProviderMemory, "users", len(p.ids))
		return p, func() {}, nil
	case ProviderPostgres, ProviderRedis, ProviderS3:
		b, err := openBackend(ctx, cfg, cfg.Provider)
		if err != nil {
			return nil, func() {}, err
		}
		logger.LogInfo(ctx, "User provider ready", "provider", cfg.Provider)
		return b.provider, b.cleanup, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// NewSeeder opens the named backing store for writing.
func NewSeeder(ctx context.Context, cfg *config.Config, target string) (Seeder, func(), error) {
	b, err := openBackend(ctx, cfg, target)
	if err != nil {
		return nil, func() {}, err
	}
	return b.seeder, b.cleanup, nil
}

type backend struct {
	provider Provider
	seeder   Seeder
	cleanup  func()
}

func openBackend(ctx context.Context, cfg *config.Config, name string) (*backend, error) {
	switch name {
	case ProviderPostgres:
		db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		p := NewPostgresProvider(db)
		return &backend{provider: p, seeder: p, cleanup: func() { database.ClosePostgres(db) }}, nil
	case ProviderRedis:
		client, err := database.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		p := NewRedisProvider(client, cfg.RedisKeyPrefix)
		return &backend{provider: p, seeder: p, cleanup: func() { database.CloseRedis(client) }}, nil
	case ProviderS3:
		store, err := storage.New(ctx, storage.Config{
			S3Endpoint:  cfg.S3Endpoint,
			S3Region:    cfg.S3Region,
			S3AccessKey: cfg.S3AccessKey,
			S3SecretKey: cfg.S3SecretKey,
			S3Bucket:    cfg.S3Bucket,
		})
		if err != nil {
			return nil, err
		}
		p := NewS3Provider(store, cfg.S3Prefix)
		return &backend{provider: p, seeder: p, cleanup: func() {}}, nil
	default:
		return nil, fmt.Errorf("provider %q has no writable backend", name)
	}
}

func newMemoryFromConfig(cfg *config.Config) (*MemoryProvider, error) {
	ds, err := LoadDatasetOrDefault(cfg.DatasetFile)
	if err != nil {
		return nil, err
	}
	return NewMemoryProvider(ds)
}

// LoadDatasetOrDefault reads path, or the built-in dataset when path is empty.
func LoadDatasetOrDefault(path string) (*Dataset, error) {
	if path == "" {
		return DefaultDataset()
	}
	return LoadDataset(path)
}
