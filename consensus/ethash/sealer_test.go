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
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// Mine must return a nonce/mix pair that Validate subsequently accepts -
// the miner and verifier have to agree with each other.
func TestMineFindsValidNonce(t *testing.T) {
	e := NewTester()
	header := newTestHeader(1, 0, mustUint256(1))

	result, err := e.Mine(header, header.Difficulty(), nil)
	require.NoError(t, err)

	sealed := header.withNonce(result.Nonce).withMix(result.MixDigest)
	ok, err := e.Validate(sealed)
	require.NoError(t, err)
	require.True(t, ok)
}

// Closing cancel before a solution is found must stop every worker and
// return ErrMiningCanceled rather than hanging.
func TestMineRespectsCancellation(t *testing.T) {
	e := NewTester()
	// Difficulty 2^256-1 gives a threshold of 1, virtually unreachable, so
	// Mine keeps running until cancel fires instead of finishing early.
	hard := new(uint256.Int).SetAllOne()
	header := newTestHeader(1, 0, hard)

	cancel := make(chan struct{})
	done := make(chan struct{})
	var err error
	go func() {
		_, err = e.Mine(header, hard, cancel)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	close(cancel)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Mine did not return after cancellation")
	}
	require.ErrorIs(t, err, ErrMiningCanceled)
}

// The Fake* modes never touch the hashing path at all: Mine returns
// immediately with a zero seal, regardless of difficulty.
func TestMineFakeModesShortCircuit(t *testing.T) {
	header := newTestHeader(1, 0, mustUint256(1))

	for _, e := range []*Ethash{NewFaker(), NewFakeFailer(99), NewFakeDelayer(0), NewFullFaker()} {
		result, err := e.Mine(header, header.Difficulty(), nil)
		require.NoError(t, err)
		require.Equal(t, uint64(0), result.Nonce)
		require.Equal(t, zeroDigest, result.MixDigest)
	}
}

// Concurrent Mine calls against distinct engines must not interfere with
// one another's random nonce sequencing or cache state.
func TestConcurrentMiningIsIndependent(t *testing.T) {
	const n = 4
	results := make(chan uint64, n)
	for i := 0; i < n; i++ {
		go func() {
			e := NewTester()
			h := newTestHeader(1, 0, mustUint256(1))
			r, err := e.Mine(h, h.Difficulty(), nil)
			require.NoError(t, err)
			results <- r.Nonce
		}()
	}
	for i := 0; i < n; i++ {
		<-results
	}
}
