package instrument

import (
	"context"
)

// MemoryProvider serves an immutable in-process dataset.
type MemoryProvider struct {
	users map[string][]Record
	ids   []string
}

// NewMemoryProvider snapshots ds. Later changes to ds are not observed.
func NewMemoryProvider(ds *Dataset) (*MemoryProvider, error) {
	p := &MemoryProvider{users: make(map[string][]Record, len(ds.Users))}
	for i := range ds.Users {
		doc := &ds.Users[i]
		records, err := doc.Records()
		if err != nil {
			return nil, err
		}
		p.users[doc.UserID] = records
		p.ids = append(p.ids, doc.UserID)
	}
	return p, nil
}

// NewDefaultMemoryProvider serves the built-in dataset.
func NewDefaultMemoryProvider() (*MemoryProvider, error) {
	ds, err := DefaultDataset()
	if err != nil {
		return nil, err
	}
	return NewMemoryProvider(ds)
}

func (p *MemoryProvider) Lookup(ctx context.Context, userID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, ok := p.users[userID]
	if !ok {
		return nil, NewNotFoundError(userID, p.ids)
	}
	return cloneRecords(records), nil
}
