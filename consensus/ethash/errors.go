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

import "errors"

// Mine's terminal outcomes. Validate never returns an error for a
// consensus-invalid header - it just returns false.
var (
	// ErrMiningCanceled is returned by Mine when the caller-supplied
	// cancellation signal fired before a valid nonce was found.
	ErrMiningCanceled = errors.New("ethash: mining canceled")

	// ErrBlockNumberTooHigh is raised (not returned as a bool) when a block
	// number implies an epoch count beyond what the size-derivation formulas
	// support.
	ErrBlockNumberTooHigh = errors.New("ethash: block number exceeds supported epoch horizon")
)

// maxSupportedEpoch bounds calcCacheSize/calcDatasetSize's operating range.
const maxSupportedEpoch = uint64(1) << 32

func checkEpochBounds(block uint64) error {
	if epoch(block) >= maxSupportedEpoch {
		return ErrBlockNumberTooHigh
	}
	return nil
}
