package store

import (
	"sync"
)

var _ Store = (*memStore)(nil)

// memStore keeps values in process memory. Used when persistence is disabled
// and in tests; every run starts from a clean slate.
type memStore struct {
	lk     sync.RWMutex
	values map[string]string
}

func NewMemStore() Store {
	return &memStore{values: make(map[string]string)}
}

func (s *memStore) Save(key string, value interface{}) {
	encoded, err := encode(value)
	if err != nil {
		log.Warnf("save %s: encode failed: %v", key, err)
		return
	}
	s.lk.Lock()
	defer s.lk.Unlock()
	s.values[Prefix+key] = encoded
}

func (s *memStore) LoadString(key string, def string) string {
	s.lk.RLock()
	defer s.lk.RUnlock()
	raw, ok := s.values[Prefix+key]
	if !ok {
		return def
	}
	return decodeString(raw)
}

func (s *memStore) LoadBool(key string, def bool) bool {
	s.lk.RLock()
	defer s.lk.RUnlock()
	raw, ok := s.values[Prefix+key]
	if !ok {
		return def
	}
	return decodeBool(raw, def)
}

func (s *memStore) Remove(key string) {
	s.lk.Lock()
	defer s.lk.Unlock()
	delete(s.values, Prefix+key)
}

func (s *memStore) Close() error {
	return nil
}
