// Copyright 2015 by the Authors
// This file is part of the go-core library.
//
// The go-core library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-core library. If not, see <http://www.gnu.org/licenses/>.

// Package cache backs selector-resolution lookups with a two-tier store:
// an in-memory LRU in front of an on-disk LevelDB, so repeated analysis
// runs over the same contract never re-hit the network for a selector
// already seen.
package cache

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/syndtr/goleveldb/leveldb"
)

// Store is the minimal key/value capability the rest of the module needs.
// Keys are always of the form "selector.<hex>", "error.<hex>" or
// "event.<hex>" (see selectors.cacheKey).
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte)
	Close() error
}

// tieredStore is an LRU in front of a LevelDB handle. Reads check the LRU
// first; misses fall through to disk and populate the LRU on the way out.
// Writes go to both tiers eagerly since the disk tier is what survives
// across process runs.
type tieredStore struct {
	lru *lru.Cache
	db  *leveldb.DB
}

// Open opens (creating if necessary) a LevelDB database at dir, fronted by
// an in-memory LRU of the given capacity.
func Open(dir string, lruSize int) (Store, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	l, err := lru.New(lruSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &tieredStore{lru: l, db: db}, nil
}

func (s *tieredStore) Get(key string) ([]byte, bool) {
	if v, ok := s.lru.Get(key); ok {
		return v.([]byte), true
	}
	v, err := s.db.Get([]byte(key), nil)
	if err != nil {
		return nil, false
	}
	s.lru.Add(key, v)
	return v, true
}

func (s *tieredStore) Put(key string, value []byte) {
	s.lru.Add(key, value)
	_ = s.db.Put([]byte(key), value, nil)
}

func (s *tieredStore) Close() error {
	return s.db.Close()
}

// memStore is a pure in-memory Store, used where no on-disk persistence
// is wanted (tests, cache_dir unset in the config, or an on-disk cache
// that could not be opened).
type memStore struct {
	data map[string][]byte
}

// NewMemStore returns a Store with no disk backing.
func NewMemStore() Store {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(key string) ([]byte, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s *memStore) Put(key string, value []byte) {
	s.data[key] = value
}

func (s *memStore) Close() error { return nil }
