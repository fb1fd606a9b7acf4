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
	"runtime"
	"sync"

	"github.com/holiman/uint256"

	"github.com/ethereum/ethash-core/consensus/ethash/internal/glog"
)

var seallog = glog.New("ethash/seal")

// Mine searches for a nonce that makes header's PoW result satisfy
// difficulty. It fans the search out across runtime.GOMAXPROCS(0)
// goroutines, each scanning a disjoint residue class of the nonce space
// from one random starting nonce offset by the worker's index, and returns
// as soon as any worker
// finds a solution. cancel, if non-nil, is polled at least once per
// Hashimoto iteration per worker; closing it is the only way to interrupt
// a call that outlives its usefulness.
func (e *Ethash) Mine(h Header, difficulty *uint256.Int, cancel <-chan struct{}) (SealResult, error) {
	switch e.config.PowMode {
	case ModeFullFake, ModeFake, ModeFakeFail, ModeFakeDelay:
		return SealResult{Nonce: 0, MixDigest: zeroDigest}, nil
	}

	cache, err := e.cacheFor(h.NumberU64())
	if err != nil {
		return SealResult{}, err
	}
	size := e.datasetSizeFor(h.NumberU64())
	headerHash := h.HashNoNonce()
	threshold := calcThreshold(difficulty)

	threads := runtime.GOMAXPROCS(0)
	if threads <= 0 {
		threads = 1
	}
	seallog.Debug("starting local mining", "threads", threads, "number", h.NumberU64())

	abort := make(chan struct{})
	found := make(chan SealResult, 1)
	var closeOnce sync.Once
	stop := func() { closeOnce.Do(func() { close(abort) }) }

	start := e.nextNonce()
	var wg sync.WaitGroup
	wg.Add(threads)
	for id := 0; id < threads; id++ {
		go func(id uint64) {
			defer wg.Done()
			e.mineWorker(headerHash, size, cache, threshold, start+id, uint64(threads), abort, cancel, found)
		}(uint64(id))
	}

	select {
	case result := <-found:
		stop()
		wg.Wait()
		return result, nil
	case <-cancel:
		stop()
		wg.Wait()
		return SealResult{}, ErrMiningCanceled
	}
}

// nextNonce draws a fresh random starting nonce for a mining attempt. Not
// safe to call concurrently with itself; Mine only calls it once per
// invocation, from the calling goroutine.
func (e *Ethash) nextNonce() uint64 {
	return uint64(e.rand.Int63())<<1 | uint64(e.rand.Int63()&1)
}

// mineWorker scans the nonce space start, start+stride, start+2*stride, ...
// until it finds a solution, is told to abort, or observes cancel.
func (e *Ethash) mineWorker(headerHash [32]byte, size uint64, cache *epochCache, threshold *uint256.Int, start, stride uint64, abort chan struct{}, cancel <-chan struct{}, found chan<- SealResult) {
	lookup := func(index uint32) []byte { return cache.lookup(index) }

	const reportEvery = 1 << 12
	nonce, attempts := start, int64(0)
	for {
		select {
		case <-abort:
			return
		case <-cancel:
			return
		default:
		}

		mix, result := hashimoto(headerHash[:], nonce, size, lookup)
		attempts++
		if attempts%reportEvery == 0 {
			e.hashrate.Mark(reportEvery)
		}

		if new(uint256.Int).SetBytes(result).Lt(threshold) {
			select {
			case found <- SealResult{Nonce: nonce, MixDigest: toArray32(mix)}:
			default:
			}
			return
		}
		nonce += stride // wraps modulo 2^64 on overflow; that's fine, it just revisits low nonces
	}
}
