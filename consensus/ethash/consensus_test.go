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

// calcThreshold is exercised directly here (rather than only indirectly
// through Validate) since it's a property of the threshold derivation
// itself: threshold == floor(2^256/difficulty).
func TestCalcThreshold(t *testing.T) {
	// difficulty 2 halves the space: threshold should be 2^255.
	half := calcThreshold(uint256.NewInt(2))
	want := new(uint256.Int).Lsh(uint256.NewInt(1), 255)
	require.Equal(t, want, half)

	// difficulty 1 is the one input whose exact mathematical result (2^256)
	// doesn't fit a uint256; it saturates to the maximum representable
	// value instead of overflowing or panicking.
	max := calcThreshold(uint256.NewInt(1))
	require.Equal(t, new(uint256.Int).SetAllOne(), max)

	// difficulty 0 is clamped to 1 rather than dividing by zero.
	require.Equal(t, max, calcThreshold(uint256.NewInt(0)))
}

// Validate's real (ModeTest) path: a header sealed by Mine against a
// lenient difficulty must validate true, and corrupting its mix digest
// afterwards must flip that to false without touching anything else.
func TestValidateRealMode(t *testing.T) {
	e := NewTester()
	header := newTestHeader(1, 0, mustUint256(1))

	result, err := e.Mine(header, header.Difficulty(), nil)
	require.NoError(t, err)

	sealed := header.withNonce(result.Nonce).withMix(result.MixDigest)
	ok, err := e.Validate(sealed)
	require.NoError(t, err)
	require.True(t, ok)

	corrupted := result.MixDigest
	corrupted[0] ^= 0xff
	tampered := header.withNonce(result.Nonce).withMix(corrupted)
	ok, err = e.Validate(tampered)
	require.NoError(t, err)
	require.False(t, ok)
}

// Validate must reject a claimed epoch beyond maxSupportedEpoch with
// ErrBlockNumberTooHigh rather than silently misbehaving.
func TestValidateRejectsUnsupportedEpoch(t *testing.T) {
	e := NewTester()
	header := newTestHeader(maxSupportedEpoch*epochLength, 0, mustUint256(1))

	ok, err := e.Validate(header)
	require.ErrorIs(t, err, ErrBlockNumberTooHigh)
	require.False(t, ok)
}

// ModeFakeFail accepts every header except the one FakeFail names; ModeFullFake
// accepts everything regardless.
func TestValidateFakeModes(t *testing.T) {
	fail := uint64(42)
	faker := NewFakeFailer(fail)

	ok, err := faker.Validate(newTestHeader(1, 0, mustUint256(1)))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = faker.Validate(newTestHeader(fail, 0, mustUint256(1)))
	require.NoError(t, err)
	require.False(t, ok)

	full := NewFullFaker()
	ok, err = full.Validate(newTestHeader(fail, 0, mustUint256(1)))
	require.NoError(t, err)
	require.True(t, ok)
}

// ModeFakeDelay sleeps before answering, letting private networks emulate a
// chain with a particular real block time without hashing anything.
func TestValidateFakeDelay(t *testing.T) {
	delay := 20 * time.Millisecond
	e := NewFakeDelayer(delay)

	start := time.Now()
	ok, err := e.Validate(newTestHeader(1, 0, mustUint256(1)))
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.True(t, ok)
	require.GreaterOrEqual(t, elapsed, delay)
}

// NewShared lets independent Ethash handles reuse one cache LRU instead of
// each maintaining its own, so memory use doesn't scale with handle count.
func TestSharedEngineReusesCache(t *testing.T) {
	base := New(Config{CachesInMem: 2, PowMode: ModeTest})
	shared := NewShared(base)

	h := newTestHeader(1, 0, mustUint256(1))
	c1, err := shared.cacheFor(h.NumberU64())
	require.NoError(t, err)
	c2, err := shared.cacheFor(h.NumberU64())
	require.NoError(t, err)
	require.Same(t, c1, c2, "repeat lookups for the same epoch must reuse the shared cache's handle")

	// cacheFor also prefetches the following epoch in the background, so
	// base's LRU may briefly hold that entry too; it must never exceed its
	// configured bound and must share base's count with shared exactly.
	require.LessOrEqual(t, base.CachesLen(), 2)
	require.GreaterOrEqual(t, base.CachesLen(), 1)
	require.Equal(t, base.CachesLen(), shared.CachesLen())
}
