// Package filters holds the membership side of the analytics core: a
// bloom filter used to flag records that were probably seen before.
package filters

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/newsketch/newsketch"
	"github.com/newsketch/newsketch/bitset"
	"github.com/newsketch/newsketch/hash"
)

// BloomFilter answers approximate set membership with one-sided error:
// Lookup never misses an inserted element, and reports a false positive
// with probability at most the configured error rate while the filter is
// within capacity. Bits are only ever set; Clear is the one way back.
type BloomFilter struct {
	size      uint
	numHashes uint
	capacity  uint
	count     uint
	filter    bitset.IBitSet
}

// NewBloomFilterWithBitSet builds a filter over an existing bit vector.
// size and numHashes are taken as-is; capacity bounds the number of
// Insert calls before the filter starts refusing adds.
func NewBloomFilterWithBitSet(size, numHashes, capacity uint, filter bitset.IBitSet) (*BloomFilter, error) {
	if filter.Size() != size {
		return nil, fmt.Errorf("newsketch: bitset size %v doesn't match filter size %v", filter.Size(), size)
	}
	if capacity == 0 {
		return nil, fmt.Errorf("%w: bloom filter capacity must be greater than 0", newsketch.ErrInvalidParameter)
	}
	return &BloomFilter{newsketch.Max(size, 1), newsketch.Max(numHashes, 1), capacity, 0, filter}, nil
}

// NewMemBloomFilter sizes an in-memory filter for the expected number of
// items and target false positive rate.
func NewMemBloomFilter(capacity uint, errorRate float64) (*BloomFilter, error) {
	if err := validateParameters(capacity, errorRate); err != nil {
		return nil, err
	}
	size := newsketch.CalculateFilterSize(capacity, errorRate)
	numHashes := newsketch.CalculateNumHashes(size, capacity)
	return NewBloomFilterWithBitSet(newsketch.Max(size, 1), newsketch.Max(numHashes, 1), capacity, bitset.NewBitSetMem(newsketch.Max(size, 1)))
}

// NewRedisBloomFilter is NewMemBloomFilter with the bit vector kept in
// redis under key, so several processes can share one dedup filter.
func NewRedisBloomFilter(capacity uint, errorRate float64, key string) (*BloomFilter, error) {
	if err := validateParameters(capacity, errorRate); err != nil {
		return nil, err
	}
	size := newsketch.CalculateFilterSize(capacity, errorRate)
	numHashes := newsketch.CalculateNumHashes(size, capacity)
	return NewBloomFilterWithBitSet(newsketch.Max(size, 1), newsketch.Max(numHashes, 1), capacity, bitset.NewBitSetRedis(newsketch.Max(size, 1), key))
}

func validateParameters(capacity uint, errorRate float64) error {
	if capacity == 0 {
		return fmt.Errorf("%w: bloom filter capacity must be greater than 0", newsketch.ErrInvalidParameter)
	}
	if errorRate <= 0 || errorRate >= 1 {
		return fmt.Errorf("%w: bloom filter error rate %f must be in (0, 1)", newsketch.ErrInvalidParameter, errorRate)
	}
	return nil
}

// Insert adds data to the filter and reports whether the add was
// applied. Once count reaches capacity the add is skipped and false is
// returned: the filter stays usable, but its real false positive rate
// degrades past the configured bound, so callers should surface the
// signal rather than ignore it. Duplicate inserts also advance count.
func (bloomFilter *BloomFilter) Insert(data []byte) bool {
	if bloomFilter.count >= bloomFilter.capacity {
		return false
	}
	hashes := getHashes(data)
	for i := uint(0); i < bloomFilter.numHashes; i++ {
		bloomFilter.filter.Insert(bloomFilter.getIndex(hashes, i))
	}
	bloomFilter.count++
	return true
}

func getHashes(data []byte) [2]uint64 {
	hash1, hash2 := hash.Sum128(data)
	return [2]uint64{hash1, hash2}
}

// getIndex derives the i-th bit position by enhanced double hashing over
// the two murmur halves.
func (bloomFilter *BloomFilter) getIndex(hashes [2]uint64, i uint) uint {
	j := uint64(i)
	return uint((hashes[0] + j*hashes[1] + (j*j*j-j)/6) % uint64(bloomFilter.size))
}

// Lookup reports whether data is possibly in the filter. A false return
// is definite.
func (bloomFilter *BloomFilter) Lookup(data []byte) bool {
	hashes := getHashes(data)
	for i := uint(0); i < bloomFilter.numHashes; i++ {
		if ok, _ := bloomFilter.filter.Has(bloomFilter.getIndex(hashes, i)); !ok {
			return false
		}
	}
	return true
}

func (bloomFilter *BloomFilter) InsertString(data string) bool {
	return bloomFilter.Insert([]byte(data))
}

func (bloomFilter *BloomFilter) LookupString(data string) bool {
	return bloomFilter.Lookup([]byte(data))
}

// Clear zeroes the bit vector and the add counter. Size and hash count
// are derived from the construction parameters and do not change.
func (bloomFilter *BloomFilter) Clear() error {
	if err := bloomFilter.filter.Clear(); err != nil {
		return err
	}
	bloomFilter.count = 0
	return nil
}

func (bloomFilter *BloomFilter) GetCap() uint {
	return bloomFilter.size
}

func (bloomFilter *BloomFilter) GetNumHashes() uint {
	return bloomFilter.numHashes
}

func (bloomFilter *BloomFilter) Capacity() uint {
	return bloomFilter.capacity
}

// Count is the number of applied Insert calls since construction or the
// last Clear, duplicates included.
func (bloomFilter *BloomFilter) Count() uint {
	return bloomFilter.count
}

// Saturated reports whether the filter has refused adds.
func (bloomFilter *BloomFilter) Saturated() bool {
	return bloomFilter.count >= bloomFilter.capacity
}

// PositiveRate estimates the current false positive rate from the fill
// of the bit vector.
func (bloomFilter *BloomFilter) PositiveRate() float64 {
	length, _ := bloomFilter.filter.BitCount()
	return math.Pow(1-math.Exp(-float64(length)/float64(bloomFilter.size)), float64(bloomFilter.numHashes))
}

func (aFilter *BloomFilter) Equals(bFilter *BloomFilter) (bool, error) {
	if aFilter.size != bFilter.size || aFilter.numHashes != bFilter.numHashes || aFilter.count != bFilter.count {
		return false, nil
	}
	return aFilter.filter.Equals(bFilter.filter)
}

type bloomFilterJSON struct {
	M        uint   `json:"m"`
	K        uint   `json:"k"`
	Capacity uint   `json:"n"`
	Count    uint   `json:"c"`
	B        []byte `json:"b"`
}

func (bloomFilter *BloomFilter) Export() ([]byte, error) {
	_, bits, err := bloomFilter.filter.Export()
	if err != nil {
		return nil, err
	}
	return json.Marshal(bloomFilterJSON{bloomFilter.size, bloomFilter.numHashes, bloomFilter.capacity, bloomFilter.count, bits})
}

func (bloomFilter *BloomFilter) Import(data []byte) error {
	var f bloomFilterJSON
	err := json.Unmarshal(data, &f)
	if err != nil {
		return err
	}
	bloomFilter.size = f.M
	bloomFilter.numHashes = f.K
	bloomFilter.capacity = f.Capacity
	bloomFilter.count = f.Count
	_, err = bloomFilter.filter.Import(f.B)
	return err
}
