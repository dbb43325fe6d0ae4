package instrument

import (
	"context"
)

// Provider resolves a user id to that user's instruments, in provider order.
//
// Implementations return a *NotFoundError when the id is unknown and an empty, non-nil slice
// for a known user without instruments. They never mutate the records they serve, and the
// returned slice is owned by the caller.
type Provider interface {
	Lookup(ctx context.Context, userID string) ([]Record, error)
}

// LookupFunc adapts a plain function to Provider.
type LookupFunc func(ctx context.Context, userID string) ([]Record, error)

func (f LookupFunc) Lookup(ctx context.Context, userID string) ([]Record, error) {
	return f(ctx, userID)
}

// Provider names accepted by NewProvider.
const (
	ProviderMemory   = "memory"
	ProviderPostgres = "postgres"
	ProviderRedis    = "redis"
	ProviderS3       = "s3"
)

func cloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	copy(out, in)
	return out
}
