// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"fmt"
	"sync"
	"time"

	"github.com/absmach/coapattr/pkg/errors"
	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "discovery/"

// Snapshot is a stored discovery result of one endpoint.
type Snapshot struct {
	Endpoint  string
	Taken     time.Time
	Resources []*Resource
}

type snapshotRecord struct {
	Taken   int64            `cbor:"1,keyasint"`
	Records []map[string]any `cbor:"2,keyasint"`
}

// Store persists the latest discovery result per endpoint. Saves are
// serialized so each one returns the snapshot it replaced.
type Store struct {
	mu sync.Mutex
	db *badger.DB
}

// OpenStore opens a store in dir. An empty dir keeps the store in memory.
func OpenStore(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores rs as the latest snapshot of endpoint and returns the previous
// one, if any.
func (s *Store) Save(endpoint string, taken time.Time, rs []*Resource) (prev *Snapshot, err error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: empty endpoint", errors.ErrInvalidInput)
	}
	value, err := cborEnc.Marshal(snapshotRecord{Taken: taken.UnixNano(), Records: toRecords(rs)})
	if err != nil {
		return nil, err
	}
	key := []byte(keyPrefix + endpoint)

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.db.Update(func(txn *badger.Txn) error {
		prev, err = get(txn, endpoint, key)
		if err != nil {
			return err
		}
		return txn.Set(key, value)
	})
	if err != nil {
		return nil, err
	}
	return prev, nil
}

// Load returns the latest snapshot of endpoint, or nil if none is stored.
func (s *Store) Load(endpoint string) (snap *Snapshot, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		snap, err = get(txn, endpoint, []byte(keyPrefix+endpoint))
		return err
	})
	return snap, err
}

// Remove deletes the snapshot of endpoint.
func (s *Store) Remove(endpoint string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + endpoint))
	})
}

// Endpoints lists the endpoints with a stored snapshot, in key order.
func (s *Store) Endpoints() ([]string, error) {
	var endpoints []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			endpoints = append(endpoints, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return endpoints, err
}

func get(txn *badger.Txn, endpoint string, key []byte) (*Snapshot, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	var rec snapshotRecord
	if err := cborDec.Unmarshal(value, &rec); err != nil {
		return nil, errors.Wrap(err, "decode snapshot of "+endpoint)
	}
	rs, err := fromRecords(rec.Records)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Endpoint:  endpoint,
		Taken:     time.Unix(0, rec.Taken),
		Resources: rs,
	}, nil
}
