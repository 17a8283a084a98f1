// Package memory provides the default in-process quota store. Capacity is
// bounded with an LRU so an open endpoint cannot grow the identity map
// without limit; evicted identities simply start a fresh window on their
// next request.
package memory

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pysensei/ai-gateway/internal/quota"
)

// DefaultCapacity bounds the number of tracked identities.
const DefaultCapacity = 10000

// Store is an LRU-capped in-memory implementation of quota.Store.
type Store struct {
	records *lru.Cache[string, quota.Record]
}

var _ quota.Store = (*Store)(nil)

// New creates a store holding at most capacity identities. A capacity of
// zero or less uses DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	// lru.New only fails for a non-positive size, which is guarded above.
	cache, err := lru.New[string, quota.Record](capacity)
	if err != nil {
		panic(err)
	}
	return &Store{records: cache}
}

func (s *Store) Get(ctx context.Context, identity string) (quota.Record, bool, error) {
	rec, ok := s.records.Get(identity)
	return rec, ok, nil
}

func (s *Store) Set(ctx context.Context, identity string, rec quota.Record) error {
	s.records.Add(identity, rec)
	return nil
}

// Len reports the number of tracked identities.
func (s *Store) Len() int {
	return s.records.Len()
}
