package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore keeps one JSON value per session and lets redis expire it.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", rec.ID)
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, keyPrefix+rec.ID, raw, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, keyPrefix+id).Err()
}
