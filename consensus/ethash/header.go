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

import "github.com/holiman/uint256"

// Header is the minimal contract this package needs from a block header. RLP
// encoding, field validation and chain context all live outside this core;
// HashNoNonce is expected to be the Keccak-256 of the header's canonical
// encoding with the nonce and mix digest fields zeroed/omitted.
type Header interface {
	NumberU64() uint64
	Nonce() uint64
	MixDigest() [32]byte
	Difficulty() *uint256.Int
	HashNoNonce() [32]byte
}

// SealResult is what sealing (mining) writes back onto a solved header.
type SealResult struct {
	Nonce     uint64
	MixDigest [32]byte
}
