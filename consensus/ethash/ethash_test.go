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
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// testHeader is the smallest Header implementation that exercises this
// package without pulling in RLP encoding, block trees or any other chain
// machinery.
type testHeader struct {
	number uint64
	nonce  uint64
	mix    [32]byte
	diff   *uint256.Int
	hash   [32]byte
}

func newTestHeader(number, nonce uint64, diff *uint256.Int) *testHeader {
	return &testHeader{
		number: number,
		nonce:  nonce,
		diff:   diff,
		hash:   toArray32(keccak256([]byte(fmt.Sprintf("test-header-%d", number)))),
	}
}

func (h *testHeader) NumberU64() uint64          { return h.number }
func (h *testHeader) Nonce() uint64              { return h.nonce }
func (h *testHeader) MixDigest() [32]byte        { return h.mix }
func (h *testHeader) Difficulty() *uint256.Int   { return h.diff }
func (h *testHeader) HashNoNonce() [32]byte      { return h.hash }
func (h *testHeader) withMix(m [32]byte) *testHeader {
	h2 := *h
	h2.mix = m
	return &h2
}
func (h *testHeader) withNonce(n uint64) *testHeader {
	h2 := *h
	h2.nonce = n
	return &h2
}

func mustUint256(x uint64) *uint256.Int { return uint256.NewInt(x) }

func mustUint256FromHex(hex string) *uint256.Int {
	v, err := uint256.FromHex("0x" + hex)
	if err != nil {
		panic(err)
	}
	return v
}

// Mine a block at ModeTest's tiny size and confirm Validate accepts the
// resulting nonce/mix pair.
func TestMineThenValidateRoundTrip(t *testing.T) {
	e := NewTester()
	header := newTestHeader(1, 0, mustUint256(1))

	result, err := e.Mine(header, header.Difficulty(), nil)
	require.NoError(t, err)

	sealed := header.withNonce(result.Nonce).withMix(result.MixDigest)
	ok, err := e.Validate(sealed)
	require.NoError(t, err)
	require.True(t, ok)
}

// The epoch cache LRU never exceeds its configured bound, even under
// concurrent validation load spanning many epochs.
func TestCacheLRUStaysBounded(t *testing.T) {
	const limit = 3
	e := New(Config{CachesInMem: limit, PowMode: ModeTest})

	const workers, epochsPerWorker = 8, 40
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < epochsPerWorker; i++ {
				block := uint64(r.Intn(100)) * epochLength
				h := newTestHeader(block, 0, mustUint256(1))
				_, _ = e.Validate(h)
			}
		}(int64(w))
	}
	wg.Wait()

	require.LessOrEqual(t, e.CachesLen(), limit)
}

// Concurrent validators racing into the very same brand-new epoch must
// share one cache build rather than building (and retaining) separate
// copies.
func TestCacheBuildOnce(t *testing.T) {
	e := New(Config{CachesInMem: 6, PowMode: ModeTest})

	const workers = 16
	results := make(chan *epochCache, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			c, err := e.caches.get(5 * epochLength)
			require.NoError(t, err)
			results <- c
		}()
	}
	wg.Wait()
	close(results)

	var first *epochCache
	for c := range results {
		if first == nil {
			first = c
			continue
		}
		require.Same(t, first, c, "all callers must observe the same cache handle")
	}
}

// Hashrate tracks local mining attempts, independent of any RPC surface;
// a short mining run must not make it drop.
func TestHashrateDoesNotDecreaseWhileMining(t *testing.T) {
	e := NewTester()
	before := e.Hashrate()

	header := newTestHeader(1, 0, mustUint256(1))
	cancel := make(chan struct{})
	done := make(chan struct{})
	go func() {
		// A threshold of 1 (difficulty = 2^256-1) so Mine keeps running
		// until we cancel it.
		hard := new(uint256.Int).SetAllOne()
		_, _ = e.Mine(header, hard, cancel)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	close(cancel)
	<-done

	// Rate1 is an exponentially weighted moving average seeded at zero; it
	// only asserts monotonic non-negativity here since a 50ms window is too
	// short for go-metrics's EWMA to have converged to a precise value.
	require.GreaterOrEqual(t, e.Hashrate(), before)
}
