package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/VictoriaMetrics/fastcache"
)

type InMemory struct {
	DB *fastcache.Cache
}

// inMemEntry wraps the stored value with its deadline, fastcache itself
// has no per key TTL.
type inMemEntry struct {
	ExpireAt int64           `json:"expire_at"` // unix micro, 0 means no expiry
	Value    json.RawMessage `json:"value"`
}

var _ Cache = (*InMemory)(nil)

func NewInMemory() (*InMemory, error) {
	db := fastcache.New(32 * 1048576) // 32MB
	return &InMemory{
		DB: db,
	}, nil
}

func (i *InMemory) GetAs(_ context.Context, key string, out interface{}) error {
	result := i.DB.Get(nil, []byte(key))
	if result == nil {
		return ErrKeyNotExist
	}

	entry := inMemEntry{}
	err := json.Unmarshal(result, &entry)
	if err != nil {
		return fmt.Errorf("cannot unmarshal cache entry: %w", err)
	}

	if entry.ExpireAt > 0 && time.Now().UTC().UnixMicro() > entry.ExpireAt {
		i.DB.Del([]byte(key))
		return ErrKeyNotExist
	}

	return json.Unmarshal(entry.Value, out)
}

func (i *InMemory) SetExp(_ context.Context, key string, inValue interface{}, exp time.Duration) error {
	val, err := json.Marshal(inValue)
	if err != nil {
		err = fmt.Errorf("cannot marshal json value: %w", err)
		return err
	}

	entry := inMemEntry{
		Value: val,
	}
	if exp > 0 {
		entry.ExpireAt = time.Now().UTC().Add(exp).UnixMicro()
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		err = fmt.Errorf("cannot marshal cache entry: %w", err)
		return err
	}

	i.DB.Set([]byte(key), raw)
	return nil
}

func (i *InMemory) Delete(ctx context.Context, key string) error {
	i.DB.Del([]byte(key))
	return nil
}
