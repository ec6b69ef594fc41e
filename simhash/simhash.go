// Package simhash fingerprints headline text into 64-bit
// similarity-preserving hashes and clusters records into near-duplicate
// buckets by Hamming distance.
package simhash

import (
	"math/bits"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/newsketch/newsketch"
)

// FingerprintBits is the fingerprint width.
const FingerprintBits = 64

// Fingerprint computes the 64-bit simhash of text. Tokens are
// lowercased words split on non-alphanumeric runs; each token's hash
// votes +1 on its set bits and -1 on its clear bits, and a fingerprint
// bit is 1 iff its column sum is >= 0. Empty text fingerprints to 0.
func Fingerprint(text string) uint64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}
	var v [FingerprintBits]int
	for _, token := range tokens {
		h := xxhash.Sum64String(token)
		for i := 0; i < FingerprintBits; i++ {
			if (h>>uint(i))&1 == 1 {
				v[i]++
			} else {
				v[i]--
			}
		}
	}
	var fingerprint uint64
	for i := 0; i < FingerprintBits; i++ {
		if v[i] >= 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

// FingerprintRecord fingerprints a record by its headline only.
func FingerprintRecord(record newsketch.Record) uint64 {
	return Fingerprint(record.Headline)
}

// Distance is the Hamming distance between two fingerprints. Lower
// means more similar text.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Compare fingerprints both records and returns their distance.
func Compare(a, b newsketch.Record) int {
	return Distance(FingerprintRecord(a), FingerprintRecord(b))
}

// MostSimilar returns the candidate nearest to record with distance
// strictly under threshold, or false if none qualifies.
func MostSimilar(record newsketch.Record, candidates []newsketch.Record, threshold int) (newsketch.Record, bool) {
	fp := FingerprintRecord(record)
	best := threshold
	var nearest newsketch.Record
	var found bool
	for _, candidate := range candidates {
		if d := Distance(fp, FingerprintRecord(candidate)); d < best {
			best, nearest, found = d, candidate, true
		}
	}
	return nearest, found
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
