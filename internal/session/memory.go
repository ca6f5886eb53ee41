package session

import (
	"context"
	"time"

	"github.com/geocoder89/projecthub/internal/cache"
)

type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: cache.New(24 * time.Hour)}
}

func (s *MemoryStore) Save(ctx context.Context, rec Record) error {
	s.c.SetTTL(rec.ID, rec, time.Until(rec.ExpiresAt))
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	v, ok := s.c.Get(id)
	if !ok {
		return Record{}, ErrNotFound
	}
	return v.(Record), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.c.Delete(id)
	return nil
}
