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

// Package persistent keeps append-only ledgers of typed records in a key/value
// database, one ledger per key, grouped into registries by key prefix.
package persistent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v3"
	"github.com/go-logr/logr"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/ec"
)

var packageLogger ec.Logger = logr.Discard()

func SetLogger(log ec.Logger) {
	packageLogger = log.WithName("persistent")
}

// ErrKeyNotFound is returned for a key with no ledger
var ErrKeyNotFound = errors.New("key not found")

// StorageProvider creates the database behind every Store
var StorageProvider StorageProviderApi = NewBadgerStorageProvider()

type StorageProviderApi interface {
	NewStorage(path string, readOnly bool) (StorageApi, error)
}

type StorageApi interface {
	View(func(txn TransactionApi) error) error
	Update(func(txn TransactionApi) error) error
	Delete(key string) error

	Close() error
}

type TransactionApi interface {
	NewIterator(prefix string) IteratorApi
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
}

type IteratorApi interface {
	Rewind()
	Valid() bool
	Next()

	Key() string
	Value() ([]byte, error)

	Close()
}

// NewBadgerStorageProvider returns the badger backed provider. An empty path
// opens an in-memory database.
func NewBadgerStorageProvider() StorageProviderApi {
	return &badgerStorageProvider{}
}

type badgerStorageProvider struct{}

func (*badgerStorageProvider) NewStorage(path string, readOnly bool) (StorageApi, error) {
	opts := badger.DefaultOptions(path)
	if len(path) == 0 {
		opts = opts.WithInMemory(true)
	}

	// Ledgers are small; the default table and cache sizes are far beyond
	// what a switch's settings need.
	opts.SyncWrites = true
	opts.BypassLockGuard = readOnly
	opts.MemTableSize = 8 << 20
	opts.BlockCacheSize = 16 << 20
	opts.Logger = badgerLogger{packageLogger.WithName("badger")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &badgerStorage{db}, nil
}

type badgerStorage struct {
	*badger.DB
}

func (s *badgerStorage) View(fn func(TransactionApi) error) error {
	return s.DB.View(func(txn *badger.Txn) error {
		return fn(&badgerTransaction{txn})
	})
}

func (s *badgerStorage) Update(fn func(TransactionApi) error) error {
	return s.DB.Update(func(txn *badger.Txn) error {
		return fn(&badgerTransaction{txn})
	})
}

func (s *badgerStorage) Delete(key string) error {
	return s.DB.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

type badgerTransaction struct {
	*badger.Txn
}

func (txn *badgerTransaction) NewIterator(prefix string) IteratorApi {
	opts := badger.DefaultIteratorOptions
	if len(prefix) != 0 {
		opts.Prefix = []byte(prefix)
	}

	return &badgerIterator{txn.Txn.NewIterator(opts)}
}

func (txn *badgerTransaction) Set(key string, value []byte) error {
	return txn.Txn.Set([]byte(key), value)
}

func (txn *badgerTransaction) Get(key string) ([]byte, error) {
	item, err := txn.Txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	return item.ValueCopy(nil)
}

type badgerIterator struct {
	*badger.Iterator
}

func (itr *badgerIterator) Key() string {
	return string(itr.Iterator.Item().Key())
}

func (itr *badgerIterator) Value() ([]byte, error) {
	return itr.Iterator.Item().ValueCopy(nil)
}

// badgerLogger routes badger's own messages into the package logger
type badgerLogger struct {
	log logr.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(nil, "badger", "message", strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Info("badger", "message", strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.V(2).Info("badger", "message", strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.V(4).Info("badger", "message", strings.TrimSpace(fmt.Sprintf(format, args...)))
}
