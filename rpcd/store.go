package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/fiatjaf/rpcpipe/common"
	"go.etcd.io/bbolt"
)

var ErrNotFound = errors.New("not found")

// Store is the key/value backend behind the get and set methods.
type Store interface {
	Get(key string) (string, error)
	Put(key, value string) error
	Close() error
}

var (
	DB_BOLT   = "rpcd.bolt"
	DB_BADGER = "rpcd.badger"

	BUCKET_KV = []byte("kv")
)

func openStore(config *common.Config) (Store, error) {
	switch config.Store {
	case "bolt":
		store, err := openBolt(filepath.Join(config.DataDir, DB_BOLT))
		if err != nil {
			return nil, err
		}
		return store, nil
	case "badger":
		store, err := openBadger(filepath.Join(config.DataDir, DB_BADGER))
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown store %q", config.Store)
}

type boltStore struct {
	db *bbolt.DB
}

func openBolt(path string) (*boltStore, error) {
	db, err := bbolt.Open(path, 0644, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database at %s: %w", path, err)
	}

	if err := db.Update(func(txn *bbolt.Tx) error {
		_, err := txn.CreateBucketIfNotExists(BUCKET_KV)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &boltStore{db: db}, nil
}

func (s *boltStore) Get(key string) (value string, err error) {
	err = s.db.View(func(txn *bbolt.Tx) error {
		v := txn.Bucket(BUCKET_KV).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction, string() copies it
		value = string(v)
		return nil
	})
	return value, err
}

func (s *boltStore) Put(key, value string) error {
	return s.db.Update(func(txn *bbolt.Tx) error {
		return txn.Bucket(BUCKET_KV).Put([]byte(key), []byte(value))
	})
}

func (s *boltStore) Close() error { return s.db.Close() }

type badgerStore struct {
	db *badger.DB
}

func openBadger(dir string) (*badgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", dir, err)
	}
	return &badgerStore{db: db}, nil
}

func (s *badgerStore) Get(key string) (value string, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		v, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		value = string(v)
		return nil
	})
	return value, err
}

func (s *badgerStore) Put(key, value string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

func (s *badgerStore) Close() error { return s.db.Close() }
