// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package content

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	cid "github.com/ipfs/go-cid"
	cache "github.com/patrickmn/go-cache"
	"github.com/syndtr/goleveldb/leveldb"
	ldb_storage "github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/bitmark-inc/paratii/fault"
)

// Store - local content store operations
type Store interface {
	Put(data []byte) (cid.Cid, error)
	PutBlock(id cid.Cid, data []byte) error
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
	PutJSON(v interface{}) (cid.Cid, error)
	GetJSON(id cid.Cid, v interface{}) error
	Close() error
}

// key prefix for blocks
const blockPrefix = 'B'

const (
	defaultExpiration = 2 * time.Minute
	cleanupInterval   = 5 * time.Minute
)

// BlockStore - leveldb backed block store with a small read cache
type BlockStore struct {
	sync.RWMutex
	log    *logger.L
	db     *leveldb.DB
	cache  *cache.Cache
	closed bool
}

// Open - open or create a block store in a directory
func Open(directory string, log *logger.L) (*BlockStore, error) {
	db, err := leveldb.OpenFile(directory, nil)
	if nil != err {
		return nil, err
	}
	log.Infof("opened block store: %q", directory)
	return newBlockStore(db, log), nil
}

// NewMemory - an in-memory block store for ephemeral nodes
func NewMemory(log *logger.L) (*BlockStore, error) {
	db, err := leveldb.Open(ldb_storage.NewMemStorage(), nil)
	if nil != err {
		return nil, err
	}
	return newBlockStore(db, log), nil
}

func newBlockStore(db *leveldb.DB, log *logger.L) *BlockStore {
	return &BlockStore{
		log:   log,
		db:    db,
		cache: cache.New(defaultExpiration, cleanupInterval),
	}
}

func blockKey(id cid.Cid) []byte {
	b := id.Bytes()
	key := make([]byte, 1, len(b)+1)
	key[0] = blockPrefix
	return append(key, b...)
}

// Put - store bytes and return their identifier
func (s *BlockStore) Put(data []byte) (cid.Cid, error) {
	id, err := Identify(data)
	if nil != err {
		return cid.Undef, err
	}
	return id, s.store(id, data)
}

// PutBlock - store a block received from elsewhere after checking
// that it matches its identifier
func (s *BlockStore) PutBlock(id cid.Cid, data []byte) error {
	if err := Verify(id, data); nil != err {
		return err
	}
	return s.store(id, data)
}

func (s *BlockStore) store(id cid.Cid, data []byte) error {
	s.RLock()
	defer s.RUnlock()
	if s.closed {
		return fault.ErrNotInitialised
	}

	key := blockKey(id)
	found, err := s.db.Has(key, nil)
	if nil != err {
		return err
	}
	if found {
		s.log.Debugf("block: %s already present", id)
		return nil
	}

	if err := s.db.Put(key, data, nil); nil != err {
		return err
	}
	s.cache.SetDefault(string(key), clone(data))
	s.log.Debugf("stored block: %s  length: %d", id, len(data))
	return nil
}

// Get - fetch the bytes for an identifier
func (s *BlockStore) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, fault.ErrInvalidCID
	}

	s.RLock()
	defer s.RUnlock()
	if s.closed {
		return nil, fault.ErrNotInitialised
	}

	key := blockKey(id)
	if cached, found := s.cache.Get(string(key)); found {
		return clone(cached.([]byte)), nil
	}

	data, err := s.db.Get(key, nil)
	if leveldb.ErrNotFound == err {
		return nil, fault.ErrContentNotFound
	}
	if nil != err {
		return nil, err
	}

	// disk corruption must not be handed out as valid content
	if err := Verify(id, data); nil != err {
		s.log.Errorf("block: %s fails verification: %s", id, err)
		return nil, err
	}
	s.cache.SetDefault(string(key), clone(data))
	return data, nil
}

// cached blocks are never shared with callers
func clone(data []byte) []byte {
	return append(make([]byte, 0, len(data)), data...)
}

// Has - check if a block is present
func (s *BlockStore) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}

	s.RLock()
	defer s.RUnlock()
	if s.closed {
		return false
	}

	key := blockKey(id)
	if _, found := s.cache.Get(string(key)); found {
		return true
	}
	found, err := s.db.Has(key, nil)
	return nil == err && found
}

// PutJSON - store the JSON encoding of a value
func (s *BlockStore) PutJSON(v interface{}) (cid.Cid, error) {
	data, err := json.Marshal(v)
	if nil != err {
		return cid.Undef, err
	}
	return s.Put(data)
}

// GetJSON - fetch and decode a JSON value
func (s *BlockStore) GetJSON(id cid.Cid, v interface{}) error {
	data, err := s.Get(id)
	if nil != err {
		return err
	}
	return json.Unmarshal(data, v)
}

// Close - release the database
func (s *BlockStore) Close() error {
	s.Lock()
	defer s.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.cache.Flush()
	return s.db.Close()
}
