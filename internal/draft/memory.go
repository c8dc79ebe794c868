package draft

import (
	"fmt"
	"sync"
)

// MemoryStore keeps drafts in process memory. Drafts do not survive a
// restart; it backs tests and the drafts-disabled-but-still-caching case.
type MemoryStore struct {
	drafts sync.Map
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(key string) (string, error) {
	if body, ok := m.drafts.Load(key); ok {
		return body.(string), nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoDraft, key)
}

func (m *MemoryStore) Set(key, value string) error {
	m.drafts.Store(key, value)
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	m.drafts.Delete(key)
	return nil
}
