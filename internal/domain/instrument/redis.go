package instrument

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// spentCounterTTL keeps a day's counters alive past midnight in every timezone.
const spentCounterTTL = 48 * time.Hour

// RedisProvider keeps one JSON UserDocument per user under <prefix>user:<id> and the set of
// known ids under <prefix>users. Spent-today counters are fields of the hash
// <prefix>spent:<YYYY-MM-DD>:<user>, one field per instrument id, and override the document's
// value when set. The date has a fixed width, so the user id is always the whole key suffix.
type RedisProvider struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisProvider(client *redis.Client, prefix string) *RedisProvider {
	return &RedisProvider{client: client, prefix: prefix, now: time.Now}
}

func (p *RedisProvider) userKey(userID string) string {
	return p.prefix + "user:" + userID
}

func (p *RedisProvider) usersKey() string {
	return p.prefix + "users"
}

func (p *RedisProvider) spentKey(userID string) string {
	return p.prefix + "spent:" + p.now().UTC().Format("2006-01-02") + ":" + userID
}

func (p *RedisProvider) Lookup(ctx context.Context, userID string) ([]Record, error) {
	raw, err := p.client.Get(ctx, p.userKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		known, err := p.client.SMembers(ctx, p.usersKey()).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: known users: %w", err)
		}
		return nil, NewNotFoundError(userID, known)
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get user: %w", err)
	}

	var doc UserDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("redis: decode user %s: %w", userID, err)
	}
	records, err := doc.Records()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return records, nil
	}

	fields := make([]string, len(records))
	for i, r := range records {
		fields[i] = r.InstrumentID
	}
	key := p.spentKey(userID)
	vals, err := p.client.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: spent counters: %w", err)
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		spent, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("redis: spent counter %s[%s]: %w", key, fields[i], err)
		}
		records[i].SpentToday = spent
	}
	return records, nil
}

// SeedUser writes doc and registers its id atomically.
func (p *RedisProvider) SeedUser(ctx context.Context, doc UserDocument) error {
	records, err := doc.Records()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	spentKey := p.spentKey(doc.UserID)
	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.userKey(doc.UserID), payload, 0)
		pipe.SAdd(ctx, p.usersKey(), doc.UserID)
		pipe.Del(ctx, spentKey)
		if len(records) > 0 {
			spent := make(map[string]interface{}, len(records))
			for _, r := range records {
				spent[r.InstrumentID] = r.SpentToday.String()
			}
			pipe.HSet(ctx, spentKey, spent)
			pipe.Expire(ctx, spentKey, spentCounterTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: seed user %s: %w", doc.UserID, err)
	}
	return nil
}
