package store

import (
	"fmt"

	"github.com/dgraph-io/badger/v3"
)

var _ Store = (*badgerStore)(nil)

type badgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) the badger store at dir.
func NewBadgerStore(dir string) (Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening wallet store: %w", err)
	}
	return &badgerStore{db: db}, nil
}

func (s *badgerStore) Save(key string, value interface{}) {
	encoded, err := encode(value)
	if err != nil {
		log.Warnf("save %s: encode failed: %v", key, err)
		return
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(Prefix+key), []byte(encoded))
	})
	if err != nil {
		log.Warnf("save %s: %v", key, err)
	}
}

func (s *badgerStore) load(key string) (string, bool) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Prefix + key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err != badger.ErrKeyNotFound {
			log.Warnf("load %s: %v", key, err)
		}
		return "", false
	}
	return string(raw), true
}

func (s *badgerStore) LoadString(key string, def string) string {
	raw, ok := s.load(key)
	if !ok {
		return def
	}
	return decodeString(raw)
}

func (s *badgerStore) LoadBool(key string, def bool) bool {
	raw, ok := s.load(key)
	if !ok {
		return def
	}
	return decodeBool(raw, def)
}

func (s *badgerStore) Remove(key string) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(Prefix + key))
	})
	if err != nil {
		log.Warnf("remove %s: %v", key, err)
	}
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}
