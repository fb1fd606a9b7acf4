// Copyright 2017 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package ethash

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"

	"github.com/ethereum/ethash-core/consensus/ethash/internal/glog"
)

// CacheCacheSizeLimit is the default number of epoch verification caches
// kept resident at once.
const CacheCacheSizeLimit = 6

var caclog = glog.New("ethash/cache")

// epochCache is an immutable, shared-ownership handle to a verification
// cache for one epoch. Once generateCache has returned, data is never
// mutated again, so concurrent Hashimoto calls may read it freely without
// additional locking; its lifetime is governed by ordinary Go garbage
// collection; holding a *epochCache reference keeps the bytes alive even
// after the LRU evicts the map entry pointing at it.
type epochCache struct {
	epoch uint64
	size  uint64
	seed  []byte
	data  []byte
}

func (c *epochCache) lookup(index uint32) []byte {
	return generateDatasetItem(c.data, index)
}

// epochCacheLRU is the bounded, concurrency-safe epoch -> cache map backing
// an Ethash engine's verifier side. It's a real least-recently-used policy
// (github.com/hashicorp/golang-lru) rather than random eviction, and adds an
// explicit build-once guarantee via singleflight so that two validators
// racing into the same brand-new epoch share a single cache build instead
// of each building (and briefly holding) their own copy.
type epochCacheLRU struct {
	cache    *lru.Cache
	group    singleflight.Group
	testMode bool
}

// newEpochCacheLRU creates an LRU bounded to limit entries. limit is clamped
// to at least 1: a PoW verifier with zero resident caches isn't a supported
// configuration. In testMode, caches are generated at the small ModeTest
// size (testModeCacheBytes) instead of the real epoch-derived size, so unit
// tests don't pay for multi-MiB Keccak-512 chains.
func newEpochCacheLRU(limit int, testMode bool) *epochCacheLRU {
	if limit < 1 {
		limit = 1
	}
	c, err := lru.New(limit)
	if err != nil {
		// lru.New only fails for a non-positive size, which we just clamped.
		panic(err)
	}
	return &epochCacheLRU{cache: c, testMode: testMode}
}

// get returns the verification cache covering block, building and caching
// it on first use. Concurrent callers for a never-before-seen epoch block
// on the single in-flight build and then share its result.
func (l *epochCacheLRU) get(block uint64) (*epochCache, error) {
	if err := checkEpochBounds(block); err != nil {
		return nil, err
	}
	e := epoch(block)
	if v, ok := l.cache.Get(e); ok {
		return v.(*epochCache), nil
	}

	v, err, _ := l.group.Do(strconv.FormatUint(e, 10), func() (interface{}, error) {
		if v, ok := l.cache.Get(e); ok {
			return v.(*epochCache), nil
		}
		size := calcCacheSize(e)
		if l.testMode {
			size = testModeCacheBytes
		}
		seed := seedHashEpoch(e)
		caclog.Debug("generating verification cache", "epoch", e, "size", size)
		ec := &epochCache{epoch: e, size: size, seed: seed, data: generateCache(size, seed)}
		l.cache.Add(e, ec)
		return ec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*epochCache), nil
}

// prefetch eagerly builds (and caches) the verification cache for the
// epoch following block, in the background, so that the common case of
// sequential header validation never blocks on a cache miss at an epoch
// boundary.
func (l *epochCacheLRU) prefetch(block uint64) {
	next := (epoch(block) + 1) * epochLength
	go func() {
		if _, err := l.get(next); err != nil {
			caclog.Debug("future cache prefetch skipped", "err", err)
		}
	}()
}

// len reports how many epoch caches are currently resident; used by tests
// to check the LRU's bound.
func (l *epochCacheLRU) len() int {
	return l.cache.Len()
}
