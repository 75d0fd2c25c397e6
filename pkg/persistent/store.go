/*
 * Copyright 2025 Hewlett Packard Enterprise Development LP
 * Other additional copyright holders may be indicated within.
 *
 * The entirety of this work is licensed under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 *
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package persistent

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrRegistryNotFound = errors.New("registry not found")

// Registry owns every key starting with its prefix
type Registry interface {
	Prefix() string
	NewReplay(id string) ReplayHandler
}

// ReplayHandler receives the records of one ledger in the order they were
// logged. Done returns true if the ledger should be deleted.
type ReplayHandler interface {
	Metadata(data []byte) error
	Entry(t uint32, data []byte) error
	Done() (bool, error)
}

type Store struct {
	path       string
	storage    StorageApi
	registries []Registry

	// Serializes ledger updates; each ledger rewrites its whole value
	lock sync.Mutex
}

// Open opens the store at path. An empty path opens an in-memory store.
func Open(path string, readOnly bool) (*Store, error) {
	s, err := StorageProvider.NewStorage(path, readOnly)
	if err != nil {
		return nil, fmt.Errorf("opening store '%s': %w", path, err)
	}

	packageLogger.V(1).Info("Store opened", "path", path, "readOnly", readOnly)

	return &Store{path: path, storage: s}, nil
}

func (s *Store) Close() error { return s.storage.Close() }

func (s *Store) Path() string { return s.path }

// Register adds registries to the store. Prefixes may not overlap.
func (s *Store) Register(registries ...Registry) error {
	for _, registry := range registries {
		for _, r := range s.registries {
			if strings.HasPrefix(r.Prefix(), registry.Prefix()) || strings.HasPrefix(registry.Prefix(), r.Prefix()) {
				return fmt.Errorf("registry prefix '%s' conflicts with existing registry '%s'", registry.Prefix(), r.Prefix())
			}
		}

		s.registries = append(s.registries, registry)
	}

	return nil
}

func (s *Store) registry(key string) (Registry, error) {
	for _, r := range s.registries {
		if strings.HasPrefix(key, r.Prefix()) {
			return r, nil
		}
	}

	return nil, fmt.Errorf("key '%s': %w", key, ErrRegistryNotFound)
}

func (s *Store) MakeKey(registry Registry, id string) string {
	return registry.Prefix() + id
}

// Keys returns the keys of the registry in key order
func (s *Store) Keys(registry Registry) ([]string, error) {
	keys := make([]string, 0)

	err := s.storage.View(func(txn TransactionApi) error {
		itr := txn.NewIterator(registry.Prefix())
		defer itr.Close()

		for itr.Rewind(); itr.Valid(); itr.Next() {
			keys = append(keys, itr.Key())
		}

		return nil
	})

	return keys, err
}

// Replay runs every ledger of every registry through its replay handler
func (s *Store) Replay() error {
	for _, r := range s.registries {
		keys, err := s.Keys(r)
		if err != nil {
			return err
		}

		for _, key := range keys {
			if err := s.ReplayKey(key); err != nil {
				return err
			}
		}
	}

	return nil
}

// ReplayKey runs one ledger through its registry's replay handler. The ledger
// is deleted if the handler asks for it.
func (s *Store) ReplayKey(key string) error {
	r, err := s.registry(key)
	if err != nil {
		return err
	}

	ledger, err := s.OpenKey(key)
	if err != nil {
		return err
	}

	replay := r.NewReplay(key[len(r.Prefix()):])

	it := newIterator(ledger.bytes)
	for {
		tlv, done, err := it.Next()
		if err != nil {
			return fmt.Errorf("replaying key '%s': %w", key, err)
		}
		if done {
			break
		}

		if tlv.t == metadataTlvType {
			err = replay.Metadata(tlv.v)
		} else {
			err = replay.Entry(tlv.t, tlv.v)
		}

		if err != nil {
			return fmt.Errorf("replaying key '%s': %w", key, err)
		}
	}

	delete, err := replay.Done()
	if err != nil {
		return err
	}

	if delete {
		packageLogger.V(2).Info("Deleting replayed key", "key", key)
		return ledger.Close(true)
	}

	return nil
}

// NewKey creates the key, replacing any existing ledger, with the metadata as
// its first record.
func (s *Store) NewKey(key string, metadata []byte) (*Ledger, error) {
	if _, err := s.registry(key); err != nil {
		return nil, err
	}

	bytes := newTlv(metadataTlvType, metadata).bytes()

	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.storage.Update(func(txn TransactionApi) error {
		return txn.Set(key, bytes)
	}); err != nil {
		return nil, err
	}

	return &Ledger{s: s, key: key, bytes: bytes}, nil
}

func (s *Store) OpenKey(key string) (*Ledger, error) {
	if _, err := s.registry(key); err != nil {
		return nil, err
	}

	ledger := &Ledger{s: s, key: key}
	err := s.storage.View(func(txn TransactionApi) error {
		value, err := txn.Get(key)
		ledger.bytes = value
		return err
	})

	if err != nil {
		return nil, err
	}

	return ledger, nil
}

func (s *Store) DeleteKey(key string) error {
	ledger, err := s.OpenKey(key)
	if err != nil {
		return err
	}

	return ledger.Close(true)
}

// Ledger is the record log held under one key
type Ledger struct {
	s     *Store
	key   string
	bytes []byte
}

func (l *Ledger) Key() string { return l.key }

// Log appends a record to the ledger
func (l *Ledger) Log(t uint32, v []byte) error {
	if t == metadataTlvType {
		return fmt.Errorf("record type %#x reserved for metadata", t)
	}

	l.s.lock.Lock()
	defer l.s.lock.Unlock()

	bytes := append(append([]byte{}, l.bytes...), newTlv(t, v).bytes()...)

	if err := l.s.storage.Update(func(txn TransactionApi) error {
		return txn.Set(l.key, bytes)
	}); err != nil {
		return err
	}

	l.bytes = bytes
	return nil
}

// Records returns the metadata and entries of the ledger
func (l *Ledger) Records() (metadata []byte, entries []Record, err error) {
	it := newIterator(l.bytes)
	for {
		tlv, done, err := it.Next()
		if err != nil {
			return nil, nil, err
		}
		if done {
			break
		}

		if tlv.t == metadataTlvType {
			metadata = tlv.v
			continue
		}

		entries = append(entries, Record{Type: tlv.t, Value: tlv.v})
	}

	return metadata, entries, nil
}

// Rewrite replaces the ledger's entries, keeping its metadata
func (l *Ledger) Rewrite(entries []Record) error {
	metadata, _, err := l.Records()
	if err != nil {
		return err
	}

	bytes := newTlv(metadataTlvType, metadata).bytes()
	for _, e := range entries {
		bytes = append(bytes, newTlv(e.Type, e.Value).bytes()...)
	}

	l.s.lock.Lock()
	defer l.s.lock.Unlock()

	if err := l.s.storage.Update(func(txn TransactionApi) error {
		return txn.Set(l.key, bytes)
	}); err != nil {
		return err
	}

	l.bytes = bytes
	return nil
}

// Close releases the ledger, deleting its key if requested
func (l *Ledger) Close(delete bool) error {
	if delete {
		return l.s.storage.Delete(l.key)
	}
	return nil
}

// Record is one typed entry of a ledger
type Record struct {
	Type  uint32
	Value []byte
}
