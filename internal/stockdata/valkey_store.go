package stockdata

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/spacesedan/tickerflow/internal/models"
)

// ValkeyStore keeps the record as a JSON string under a single key.
type ValkeyStore struct {
	client valkey.Client
	key    string
}

func NewValkeyStore(client valkey.Client, key string) *ValkeyStore {
	return &ValkeyStore{client: client, key: key}
}

func (s *ValkeyStore) Load(ctx context.Context) (*models.CacheEntry, error) {
	raw, err := s.client.Do(ctx, s.client.B().Get().Key(s.key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("[ValkeyStore] get %s: %w", s.key, err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("[ValkeyStore] decode %s: %w", s.key, err)
	}
	return &entry, nil
}

func (s *ValkeyStore) Save(ctx context.Context, entry models.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("[ValkeyStore] encode: %w", err)
	}

	err = s.client.Do(ctx, s.client.B().Set().Key(s.key).Value(string(raw)).Build()).Error()
	if err != nil {
		return fmt.Errorf("[ValkeyStore] set %s: %w", s.key, err)
	}
	return nil
}

func (s *ValkeyStore) Clear(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(s.key).Build()).Error(); err != nil {
		return fmt.Errorf("[ValkeyStore] del %s: %w", s.key, err)
	}
	return nil
}
