// Package newsketch holds the shared pieces of the streaming analytics
// core: the record model, parameter math for the sketches, seed
// generation and the redis client used by the redis-backed bit vector.
package newsketch

import (
	"errors"
	"math"
	"math/rand"
	"time"
	"unsafe"
)

// ErrInvalidParameter is wrapped by every constructor that rejects its
// configuration. Construction fails fast; add paths never re-validate.
var ErrInvalidParameter = errors.New("newsketch: invalid parameter")

var src = rand.NewSource(time.Now().UnixNano())
var rnd = rand.New(src)

const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
const (
	letterIdxBits = 6                    // 6 bits to represent a letter index
	letterIdxMask = 1<<letterIdxBits - 1 // All 1-bits, as many as letterIdxBits
	letterIdxMax  = 63 / letterIdxBits   // # of letter indices fitting in 63 bits
)

// CalculateFilterSize returns the optimal bloom filter bit count for the
// given capacity and false positive rate, m = ceil(-n*ln(p) / ln(2)^2).
func CalculateFilterSize(capacity uint, errorRate float64) uint {
	return uint(math.Ceil(-((float64(capacity) * math.Log(errorRate)) / math.Pow(math.Log(2), 2))))
}

// CalculateNumHashes returns the optimal number of hash functions for a
// filter of size bits and the given capacity, k = ceil((m/n)*ln(2)).
func CalculateNumHashes(size, capacity uint) uint {
	return uint(math.Ceil((float64(size) / float64(capacity)) * math.Log(2)))
}

func Max(x, y uint) uint {
	if x > y {
		return x
	}
	return y
}

// RandomSeed draws one hash seed. Sketches draw their seeds at
// construction and again on Clear, so two epochs never share a hash
// function.
func RandomSeed() uint64 {
	return rnd.Uint64()
}

// RandomSeeds draws n independent hash seeds.
func RandomSeeds(n uint) []uint64 {
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = rnd.Uint64()
	}
	return seeds
}

func GenerateRandomString(n int) string {
	b := make([]byte, n)
	// A src.Int63() generates 63 random bits, enough for letterIdxMax characters!
	for i, cache, remain := n-1, src.Int63(), letterIdxMax; i >= 0; {
		if remain == 0 {
			cache, remain = src.Int63(), letterIdxMax
		}
		if idx := int(cache & letterIdxMask); idx < len(letterBytes) {
			b[i] = letterBytes[idx]
			i--
		}
		cache >>= letterIdxBits
		remain--
	}

	return *(*string)(unsafe.Pointer(&b))
}

type BitSetType int

const (
	RedisBitSet BitSetType = iota
	InMemoryBitSet
)
