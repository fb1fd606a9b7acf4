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
	"encoding/binary"
)

// lookupFunc fetches the i-th 64-byte dataset element: a light accessor
// recomputes the element from the cache on every call, a full accessor
// reads it out of a materialized dataset. Neither variant requires subtype
// polymorphism - hashimoto just takes a function value.
type lookupFunc func(i uint32) []byte

const (
	hashesInMix = mixBytes / hashBytes // parallel dataset fetches per access
	wordsInMix  = mixBytes / wordBytes // 32 little-endian u32 words of mix state
	wordsPerItem = hashBytes / wordBytes
)

// hashimoto aggregates data from the dataset (through get, which may be
// backed by a cache-based or a fully materialized accessor) to produce the
// mix digest and final result for a given header hash and nonce.
func hashimoto(hash []byte, nonce uint64, size uint64, get lookupFunc) (mixDigest, result []byte) {
	// seed = Keccak512(header-hash || little-endian nonce), 64 bytes.
	seedInput := make([]byte, 40)
	copy(seedInput, hash)
	binary.LittleEndian.PutUint64(seedInput[32:], nonce)
	seed := keccak512(seedInput)
	seedWords := bytesToUint32s(seed)
	seedHead := seedWords[0]

	rows := uint32(size / mixBytes)

	mix := make([]uint32, wordsInMix)
	for i := range mix {
		mix[i] = seedWords[i%len(seedWords)]
	}

	newData := make([]uint32, wordsInMix)
	for i := uint32(0); i < loopAccesses; i++ {
		p := fnv(i^seedHead, mix[i%wordsInMix]) % rows * hashesInMix
		for j := uint32(0); j < hashesInMix; j++ {
			copy(newData[j*wordsPerItem:(j+1)*wordsPerItem], bytesToUint32s(get(p+j)))
		}
		fnvHash(mix, newData)
	}

	// Compress the 32-word mix down to 8 words (32 bytes): fold each group
	// of four consecutive words together with fnv.
	cmixWords := make([]uint32, wordsInMix/4)
	for i := 0; i < len(cmixWords); i++ {
		base := i * 4
		cmixWords[i] = fnv(fnv(fnv(mix[base], mix[base+1]), mix[base+2]), mix[base+3])
	}
	cmix := make([]byte, len(cmixWords)*4)
	uint32sToBytes(cmix, cmixWords)

	return cmix, keccak256(seed, cmix)
}

// hashimotoLight recomputes dataset elements from the cache on the fly,
// never materializing the dataset.
func hashimotoLight(size uint64, cache []byte, hash []byte, nonce uint64) (mixDigest, result []byte) {
	lookup := func(index uint32) []byte {
		return generateDatasetItem(cache, index)
	}
	return hashimoto(hash, nonce, size, lookup)
}

// hashimotoFull reads dataset elements out of a fully materialized dataset
// buffer; used only to cross-check hashimotoLight in tests, since this
// core never persists or fully materializes the dataset in production use.
func hashimotoFull(size uint64, dataset []byte, hash []byte, nonce uint64) (mixDigest, result []byte) {
	lookup := func(index uint32) []byte {
		return dataset[uint64(index)*hashBytes : uint64(index+1)*hashBytes]
	}
	return hashimoto(hash, nonce, size, lookup)
}
