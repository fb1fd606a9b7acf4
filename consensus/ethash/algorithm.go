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
	"sync"

	"golang.org/x/crypto/sha3"
)

// Protocol constants, reproduced exactly from the reference algorithm.
const (
	wordBytes          = 4          // Bytes in a word
	hashBytes          = 64         // Width of hash in bytes
	mixBytes           = 128        // Width of mix in bytes
	datasetParents     = 256        // Number of parents of each dataset element
	cacheRounds        = 3          // Number of rounds in cache production
	loopAccesses       = 64         // Number of accesses in hashimoto loop
	epochLength        = 30000      // Blocks per epoch
	datasetInitBytes   = 1 << 30    // Bytes in dataset at genesis
	datasetGrowthBytes = 1 << 23    // Dataset growth per epoch
	cacheInitBytes     = 1 << 24    // Bytes in cache at genesis
	cacheGrowthBytes   = 1 << 17    // Cache growth per epoch
	fnvPrime           = 0x01000193 // Fowler-Noll-Vo prime used to mix in ethash
)

// epoch returns the epoch index for a given block number.
func epoch(block uint64) uint64 {
	return block / epochLength
}

// fnv is the Fowler-Noll-Vo-derived mixer ethash uses throughout the cache,
// dataset and hashimoto stages: (a * FnvPrime) XOR b, wrapping uint32 math.
func fnv(a, b uint32) uint32 {
	return a*fnvPrime ^ b
}

// fnvHash mixes data into mix, word for word, using fnv.
func fnvHash(mix, data []uint32) {
	for i := 0; i < len(mix); i++ {
		mix[i] = fnv(mix[i], data[i])
	}
}

// isPrime reports whether n is prime, via trial division by 2 and 3 and then
// by 6k±1 up to sqrt(n). n is expected to be at most around 2^38, so 64-bit
// arithmetic is sufficient as long as the loop variable is bounds-checked
// against n before it is squared.
func isPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	if n%3 == 0 {
		return n == 3
	}
	for i := uint64(5); i <= n/i; i += 6 {
		if n%i == 0 || n%(i+2) == 0 {
			return false
		}
	}
	return true
}

// largestPrimeMultiple returns the largest value <= limit such that
// value/unit is prime, stepping down by 2*unit at a time (limit/unit is
// always odd by construction of the init+growth formula, so stepping by two
// units keeps the candidate's parity and lets the search terminate).
func largestPrimeMultiple(limit, unit uint64) uint64 {
	size := limit
	for !isPrime(size / unit) {
		size -= 2 * unit
	}
	return size
}

// cacheSize returns the size of the ethash verification cache, in bytes, for
// the epoch containing the given block number.
func cacheSize(block uint64) uint64 {
	return calcCacheSize(epoch(block))
}

func calcCacheSize(e uint64) uint64 {
	limit := cacheInitBytes + cacheGrowthBytes*e - hashBytes
	return largestPrimeMultiple(limit, hashBytes)
}

// datasetSize returns the size of the ethash mining dataset, in bytes, for
// the epoch containing the given block number.
func datasetSize(block uint64) uint64 {
	return calcDatasetSize(epoch(block))
}

func calcDatasetSize(e uint64) uint64 {
	limit := datasetInitBytes + datasetGrowthBytes*e - mixBytes
	return largestPrimeMultiple(limit, mixBytes)
}

// seedMemo caches the seed hash chain: seedHash(e) extends seedHash(e-1) by
// one more Keccak-256 round, so successive epochs are cheap to derive.
var seedMemo struct {
	sync.Mutex
	seeds [][]byte
}

// seedHash is the seed used to generate the verification cache and mining
// dataset for the epoch containing the given block number: Keccak-256
// applied epoch(block) times to 32 zero bytes.
func seedHash(block uint64) []byte {
	return seedHashEpoch(epoch(block))
}

func seedHashEpoch(e uint64) []byte {
	seedMemo.Lock()
	defer seedMemo.Unlock()

	if uint64(len(seedMemo.seeds)) == 0 {
		seedMemo.seeds = append(seedMemo.seeds, make([]byte, 32))
	}
	for uint64(len(seedMemo.seeds)) <= e {
		seedMemo.seeds = append(seedMemo.seeds, keccak256(seedMemo.seeds[len(seedMemo.seeds)-1]))
	}
	seed := make([]byte, 32)
	copy(seed, seedMemo.seeds[e])
	return seed
}

// generateCache derives the ethash verification cache for the given epoch
// seed. The returned buffer holds cacheSize/hashBytes 64-byte items back to
// back.
//
// Item 0 is Keccak-512(seed); item i is Keccak-512(item i-1). CacheRounds
// passes of RandMemoHash are then applied in place, sequentially: each round
// depends on the previous one's output, so rounds can't run concurrently,
// though independent epochs can.
func generateCache(size uint64, seed []byte) []byte {
	cache := make([]byte, size)
	keccak512Hasher := makeHasher(sha3.NewLegacyKeccak512())

	keccak512Hasher(cache[:hashBytes], seed)
	for offset := uint64(hashBytes); offset < size; offset += hashBytes {
		keccak512Hasher(cache[offset:offset+hashBytes], cache[offset-hashBytes:offset])
	}

	n := size / hashBytes
	tmp := make([]byte, hashBytes)
	for round := 0; round < cacheRounds; round++ {
		for i := uint64(0); i < n; i++ {
			item := cache[i*hashBytes : (i+1)*hashBytes]

			srcOff := ((i + n - 1) % n) * hashBytes
			dstOff := (uint64(binary.LittleEndian.Uint32(item[:4])) % n) * hashBytes

			xorBytes(tmp, cache[srcOff:srcOff+hashBytes], cache[dstOff:dstOff+hashBytes])
			keccak512Hasher(item, tmp)
		}
	}
	return cache
}

func xorBytes(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

// generateDatasetItem recomputes the index-th 64-byte dataset element from
// the verification cache, following the 256-parent FNV recurrence.
func generateDatasetItem(cache []byte, index uint32) []byte {
	n := uint32(uint64(len(cache)) / hashBytes)
	r := uint32(hashBytes / wordBytes)
	keccak512Hasher := makeHasher(sha3.NewLegacyKeccak512())

	mix := make([]byte, hashBytes)
	copy(mix, cache[(index%n)*hashBytes:(index%n+1)*hashBytes])

	binary.LittleEndian.PutUint32(mix, binary.LittleEndian.Uint32(mix)^index)
	keccak512Hasher(mix, mix)

	mixWords := bytesToUint32s(mix)
	for k := uint32(0); k < datasetParents; k++ {
		parentIdx := fnv(index^k, mixWords[k%r]) % n
		parent := cache[parentIdx*hashBytes : (parentIdx+1)*hashBytes]
		fnvHash(mixWords, bytesToUint32s(parent))
	}
	uint32sToBytes(mix, mixWords)
	keccak512Hasher(mix, mix)
	return mix
}

func bytesToUint32s(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}

func uint32sToBytes(dst []byte, words []uint32) {
	for i, w := range words {
		binary.LittleEndian.PutUint32(dst[i*4:], w)
	}
}
