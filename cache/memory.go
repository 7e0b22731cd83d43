package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUStore is a bounded in-memory Store.
type LRUStore struct {
	entries *lru.Cache[string, Entry]
}

// NewLRUStore creates a store holding at most size entries.
func NewLRUStore(size int) (*LRUStore, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	c, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, err
	}
	return &LRUStore{entries: c}, nil
}

// Get returns the entry for key and marks it recently used.
func (s *LRUStore) Get(key string) (Entry, bool) {
	return s.entries.Get(key)
}

// Set stores e, evicting the least recently used entry when full.
func (s *LRUStore) Set(key string, e Entry) {
	s.entries.Add(key, e)
}

// Delete removes key.
func (s *LRUStore) Delete(key string) {
	s.entries.Remove(key)
}

// Len returns the number of stored entries.
func (s *LRUStore) Len() int {
	return s.entries.Len()
}

var _ Store = (*LRUStore)(nil)
