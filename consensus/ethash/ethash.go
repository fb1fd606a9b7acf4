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

// Package ethash implements the Ethash proof-of-work verifier and miner:
// epoch-sized cache/dataset parameter derivation, cache-based "light"
// dataset element synthesis, the Hashimoto mixing loop, and a verifier/
// miner wrapper with a bounded epoch-cache LRU. Block header RLP encoding,
// the Keccak hash primitives themselves, transaction processing, chain
// state and RPC are all external collaborators consumed through the
// Header interface and the golang.org/x/crypto/sha3 dependency, not
// reimplemented here.
package ethash

import (
	"math/rand"
	"time"

	"github.com/holiman/uint256"

	"github.com/ethereum/ethash-core/consensus/ethash/internal/glog"
	"github.com/ethereum/ethash-core/consensus/ethash/internal/gmetrics"
)

var enginelog = glog.New("ethash")

// Test-mode cache/dataset sizes (ModeTest): small fixed sizes that keep
// unit tests fast without touching the production size-derivation formulas
// in algorithm.go.
const (
	testModeCacheBytes   = 1024
	testModeDatasetBytes = 32 * 1024
)

// Mode defines the type and amount of PoW verification an Ethash engine
// makes. ModeNormal does full work; the Fake* variants exist so that tests
// and private networks can exercise the surrounding consensus plumbing
// without paying for real hashing.
type Mode uint

const (
	ModeNormal Mode = iota
	ModeTest
	ModeFake
	ModeFakeFail
	ModeFakeDelay
	ModeFullFake
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeTest:
		return "test"
	case ModeFake:
		return "fake"
	case ModeFakeFail:
		return "fake-fail"
	case ModeFakeDelay:
		return "fake-delay"
	case ModeFullFake:
		return "full-fake"
	default:
		return "unknown"
	}
}

// Config configures an Ethash engine instance.
type Config struct {
	// CachesInMem bounds the number of verification caches kept resident.
	// Non-positive values are replaced with CacheCacheSizeLimit, the
	// reference default.
	CachesInMem int

	// DatasetsInMem is accepted and sanitized to at least 1, but no code
	// path reads it: the local miner always synthesizes dataset elements
	// from the verification cache, trading CPU for memory, and never
	// materializes a full dataset, in memory or on disk.
	DatasetsInMem int

	PowMode Mode

	// FakeFail is the single block number which fails PoW checks in
	// ModeFakeFail, for exercising failure handling in tests.
	FakeFail uint64
	// FakeDelay sleeps before returning from Validate in ModeFakeDelay.
	FakeDelay time.Duration
}

func (c *Config) sanitize() {
	if c.CachesInMem <= 0 {
		enginelog.Warn("sanitizing ethash cache count", "requested", c.CachesInMem, "using", CacheCacheSizeLimit)
		c.CachesInMem = CacheCacheSizeLimit
	}
	if c.DatasetsInMem <= 0 {
		c.DatasetsInMem = 1
	}
}

// Ethash is a consensus engine implementing the Ethash proof-of-work
// algorithm: verifier and miner, backed by a bounded epoch-cache LRU.
type Ethash struct {
	config Config

	caches *epochCacheLRU

	rand     *rand.Rand
	hashrate *gmetrics.Meter

	// shared lets multiple Ethash handles reuse one cache LRU instead of
	// each keeping its own, for processes that run several verifiers
	// side by side.
	shared *Ethash
}

// New creates a full-sized Ethash engine.
func New(config Config) *Ethash {
	config.sanitize()
	return &Ethash{
		config:   config,
		caches:   newEpochCacheLRU(config.CachesInMem, config.PowMode == ModeTest),
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		hashrate: gmetrics.NewMeter(),
	}
}

// NewTester creates a small-dataset Ethash engine for fast tests: ModeTest
// swaps in 1 KiB caches / 32 KiB datasets instead of the real multi-MiB
// sizes.
func NewTester() *Ethash {
	return New(Config{CachesInMem: 1, PowMode: ModeTest})
}

// NewFaker creates an Ethash engine that accepts any seal as valid. Useful
// for assembling test chains where consensus rules other than PoW still
// need to be exercised.
func NewFaker() *Ethash {
	return &Ethash{config: Config{PowMode: ModeFake}}
}

// NewFakeFailer is NewFaker, except the one named block number always
// fails verification.
func NewFakeFailer(fail uint64) *Ethash {
	return &Ethash{config: Config{PowMode: ModeFakeFail, FakeFail: fail}}
}

// NewFakeDelayer is NewFaker, except verification sleeps for delay first.
func NewFakeDelayer(delay time.Duration) *Ethash {
	return &Ethash{config: Config{PowMode: ModeFakeDelay, FakeDelay: delay}}
}

// NewFullFaker creates an Ethash engine that accepts everything as valid,
// without even running the surrounding consensus rules.
func NewFullFaker() *Ethash {
	return &Ethash{config: Config{PowMode: ModeFullFake}}
}

// NewShared creates an Ethash handle that reuses another engine's cache
// LRU, so multiple verifiers in one process don't duplicate cache memory.
func NewShared(shared *Ethash) *Ethash {
	return &Ethash{shared: shared}
}

// datasetSizeFor returns the dataset size to use for block, honoring
// ModeTest's small override the same way cacheFor's underlying LRU does.
func (e *Ethash) datasetSizeFor(block uint64) uint64 {
	if e.config.PowMode == ModeTest {
		return testModeDatasetBytes
	}
	return datasetSize(block)
}

func (e *Ethash) cacheFor(block uint64) (*epochCache, error) {
	if e.shared != nil {
		return e.shared.cacheFor(block)
	}
	c, err := e.caches.get(block)
	if err != nil {
		return nil, err
	}
	e.caches.prefetch(block)
	return c, nil
}

// Hashrate returns the measured rate of local mining search invocations
// per second over roughly the last minute.
func (e *Ethash) Hashrate() float64 {
	if e.shared != nil {
		return e.shared.Hashrate()
	}
	return e.hashrate.Rate1()
}

// CachesLen reports the number of epoch caches currently resident; exposed
// for diagnostics and tests of the LRU's bound.
func (e *Ethash) CachesLen() int {
	if e.shared != nil {
		return e.shared.CachesLen()
	}
	return e.caches.len()
}

// CacheSize reports the verification cache size, in bytes, for block's
// epoch. Exported for tools and diagnostics (cmd/ethash-diag).
func CacheSize(block uint64) uint64 { return cacheSize(block) }

// DatasetSize reports the full mining dataset size, in bytes, for block's
// epoch. Exported for tools and diagnostics.
func DatasetSize(block uint64) uint64 { return datasetSize(block) }

// SeedHash reports the Keccak-256 seed chain value for block's epoch.
// Exported for tools and diagnostics.
func SeedHash(block uint64) []byte { return seedHash(block) }

// VerifySolution runs the full PoW check for a bare header-hash/nonce/
// mix-digest/difficulty tuple, building its own one-off verification cache
// rather than going through an Ethash engine's LRU. Exported for
// cmd/ethash-diag's verify command and other stateless callers that
// only need to check one solution and don't want to carry an engine
// around.
func VerifySolution(block uint64, headerHash [32]byte, nonce uint64, mixDigest [32]byte, difficulty *uint256.Int) (bool, error) {
	if err := checkEpochBounds(block); err != nil {
		return false, err
	}
	seed := seedHashEpoch(epoch(block))
	cache := generateCache(calcCacheSize(epoch(block)), seed)
	size := datasetSize(block)

	mix, result := hashimotoLight(size, cache, headerHash[:], nonce)
	if mixDigest != zeroDigest && mixDigest != toArray32(mix) {
		return false, nil
	}

	resultInt := new(uint256.Int).SetBytes(result)
	threshold := calcThreshold(difficulty)
	return resultInt.Lt(threshold), nil
}
