package instrument

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/safepay/wallet-api/internal/pkg/storage"
)

const documentSuffix = ".json"

// S3Provider reads one JSON UserDocument per user from <prefix><id>.json.
type S3Provider struct {
	store  storage.ObjectStore
	prefix string
}

func NewS3Provider(store storage.ObjectStore, prefix string) *S3Provider {
	return &S3Provider{store: store, prefix: prefix}
}

func (p *S3Provider) key(userID string) string {
	return p.prefix + userID + documentSuffix
}

// Lookup reads <prefix><userID>.json. Ids that cannot name a single object under prefix, and
// objects whose user_id differs from userID, are reported as not found.
func (p *S3Provider) Lookup(ctx context.Context, userID string) ([]Record, error) {
	if !validObjectID(userID) {
		return nil, p.notFound(ctx, userID)
	}

	raw, err := p.store.GetObject(ctx, p.key(userID))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, p.notFound(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("s3: get user: %w", err)
	}

	var doc UserDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("s3: decode user %s: %w", userID, err)
	}
	if doc.UserID != userID {
		return nil, p.notFound(ctx, userID)
	}
	return doc.Records()
}

func (p *S3Provider) notFound(ctx context.Context, userID string) error {
	known, err := p.knownUserIDs(ctx)
	if err != nil {
		return err
	}
	return NewNotFoundError(userID, known)
}

// validObjectID matches the ids knownUserIDs can list back.
func validObjectID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, "/\\")
}

func (p *S3Provider) knownUserIDs(ctx context.Context) ([]string, error) {
	keys, err := p.store.ListKeys(ctx, p.prefix, MaxKnownUserIDs)
	if err != nil {
		return nil, fmt.Errorf("s3: list users: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		id, ok := strings.CutSuffix(strings.TrimPrefix(k, p.prefix), documentSuffix)
		if ok && validObjectID(id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// SeedUser uploads doc as a JSON object.
func (p *S3Provider) SeedUser(ctx context.Context, doc UserDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if !validObjectID(doc.UserID) {
		return fmt.Errorf("%w: user id %q cannot be stored as an object key", ErrInvalidDataset, doc.UserID)
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return p.store.PutObject(ctx, p.key(doc.UserID), payload, "application/json")
}
