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
	"math/big"
	"time"

	"github.com/holiman/uint256"
)

var (
	// two256 only needs to exist long enough to divide by a difficulty;
	// uint256.Int can't itself hold 2^256 (its max value is 2^256-1), so
	// the one division that actually needs an extra bit of headroom is
	// done with math/big and the result - which is always < 2^256 - is
	// handed back to uint256 for the hot comparison path.
	two256 = new(big.Int).Lsh(big.NewInt(1), 256)
)

// calcThreshold returns floor(2^256 / difficulty) as a uint256, the value a
// valid PoW result must fall strictly below.
//
// difficulty == 1 is the one input for which the mathematical result,
// 2^256, doesn't fit in a uint256 (max 2^256-1); it saturates to the
// maximum representable threshold instead, which preserves the intended
// meaning ("every possible 256-bit result qualifies").
func calcThreshold(difficulty *uint256.Int) *uint256.Int {
	d := difficulty
	if d.IsZero() {
		d = uint256.NewInt(1)
	}
	t := new(big.Int).Div(two256, d.ToBig())
	out, overflow := uint256.FromBig(t)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return out
}

var zeroDigest [32]byte

// Validate runs the full PoW check for header: look up or build the
// epoch's verification cache, run Hashimoto against it, check the returned
// mix digest against the header's claimed one (if set), and compare the
// final result against the header's difficulty threshold.
//
// Validate never returns an error for a consensus-invalid header - that is
// reported simply by returning false. The only error it returns is
// ErrBlockNumberTooHigh, for a block number beyond the supported epoch
// range.
func (e *Ethash) Validate(h Header) (bool, error) {
	switch e.config.PowMode {
	case ModeFullFake:
		return true, nil
	case ModeFake:
		return true, nil
	case ModeFakeFail:
		return h.NumberU64() != e.config.FakeFail, nil
	case ModeFakeDelay:
		if e.config.FakeDelay > 0 {
			time.Sleep(e.config.FakeDelay)
		}
		return true, nil
	}

	cache, err := e.cacheFor(h.NumberU64())
	if err != nil {
		return false, err
	}
	size := e.datasetSizeFor(h.NumberU64())

	headerHash := h.HashNoNonce()
	mix, result := hashimotoLight(size, cache.data, headerHash[:], h.Nonce())

	if want := h.MixDigest(); want != zeroDigest && want != toArray32(mix) {
		return false, nil
	}

	resultInt := new(uint256.Int).SetBytes(result)
	threshold := calcThreshold(h.Difficulty())
	return resultInt.Lt(threshold), nil
}

func toArray32(b []byte) [32]byte {
	var out [32]byte
	copy(out[:], b)
	return out
}
