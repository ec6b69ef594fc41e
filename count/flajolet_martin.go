package count

import (
	"encoding/json"
	"fmt"
	"math"
	"math/bits"

	"github.com/newsketch/newsketch"
	"github.com/newsketch/newsketch/hash"
	"gonum.org/v1/gonum/stat"
)

// correctionBias is the Flajolet-Martin bias constant: the raw 2^R
// estimate overshoots by this factor on average.
const correctionBias = 0.77351

// FlajoletMartin estimates the number of distinct elements seen. Each of
// its hash functions tracks the longest trailing-zero run observed on
// its outputs; runs only grow, never shrink.
type FlajoletMartin struct {
	bitWidth  uint
	numHashes uint
	runs      []uint
	seeds     []uint64
	observed  uint64
}

// NewFlajoletMartin draws one fresh seed per hash function. bitWidth is
// the width hashed values are truncated to, at most 64.
func NewFlajoletMartin(bitWidth, numHashes uint) (*FlajoletMartin, error) {
	return NewFlajoletMartinWithSeeds(bitWidth, newsketch.RandomSeeds(numHashes))
}

// NewFlajoletMartinWithSeeds pins the hash functions; one per seed.
func NewFlajoletMartinWithSeeds(bitWidth uint, seeds []uint64) (*FlajoletMartin, error) {
	if bitWidth == 0 || bitWidth > 64 {
		return nil, fmt.Errorf("%w: flajolet-martin bit width %d should be in 1..64", newsketch.ErrInvalidParameter, bitWidth)
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: flajolet-martin needs at least one hash function", newsketch.ErrInvalidParameter)
	}
	return &FlajoletMartin{
		bitWidth:  bitWidth,
		numHashes: uint(len(seeds)),
		runs:      make([]uint, len(seeds)),
		seeds:     append([]uint64(nil), seeds...),
	}, nil
}

// Update feeds one element. Re-adding an element never moves the
// estimate: its hashes, and so its trailing-zero runs, are unchanged.
func (fm *FlajoletMartin) Update(data []byte) {
	for j := range fm.seeds {
		if r := fm.rho(hash.Sum64(data, fm.seeds[j]) & fm.mask()); r > fm.runs[j] {
			fm.runs[j] = r
		}
	}
	fm.observed++
}

func (fm *FlajoletMartin) UpdateString(data string) {
	fm.Update([]byte(data))
}

func (fm *FlajoletMartin) mask() uint64 {
	if fm.bitWidth == 64 {
		return math.MaxUint64
	}
	return 1<<fm.bitWidth - 1
}

// rho is the trailing-zero run length, with the all-zero hash pinned to
// the full bit width.
func (fm *FlajoletMartin) rho(value uint64) uint {
	if value == 0 {
		return fm.bitWidth
	}
	return uint(bits.TrailingZeros64(value))
}

// Count estimates the distinct element count as 2^mean(R)/0.77351,
// truncated. With nothing observed it is 0, not the idle-state 1/alpha.
func (fm *FlajoletMartin) Count() uint64 {
	if fm.observed == 0 {
		return 0
	}
	runs := make([]float64, len(fm.runs))
	for j := range fm.runs {
		runs[j] = float64(fm.runs[j])
	}
	return uint64(math.Pow(2, stat.Mean(runs, nil)) / correctionBias)
}

// Clear zeroes the runs and re-draws the hash seeds. A cleared
// estimator is a fresh epoch, not the old filter at zero: the same add
// sequence afterwards lands on different hash values.
func (fm *FlajoletMartin) Clear() {
	fm.runs = make([]uint, fm.numHashes)
	fm.seeds = newsketch.RandomSeeds(fm.numHashes)
	fm.observed = 0
}

func (fm *FlajoletMartin) BitWidth() uint {
	return fm.bitWidth
}

func (fm *FlajoletMartin) NumHashes() uint {
	return fm.numHashes
}

func (fm *FlajoletMartin) Equals(other *FlajoletMartin) bool {
	if fm.bitWidth != other.bitWidth || fm.numHashes != other.numHashes {
		return false
	}
	for j := range fm.seeds {
		if fm.seeds[j] != other.seeds[j] || fm.runs[j] != other.runs[j] {
			return false
		}
	}
	return true
}

type flajoletMartinJSON struct {
	BitWidth uint     `json:"w"`
	Runs     []uint   `json:"r"`
	Seeds    []uint64 `json:"sd"`
	Observed uint64   `json:"o"`
}

func (fm *FlajoletMartin) Export() ([]byte, error) {
	return json.Marshal(flajoletMartinJSON{fm.bitWidth, fm.runs, fm.seeds, fm.observed})
}

func (fm *FlajoletMartin) Import(data []byte) error {
	var s flajoletMartinJSON
	err := json.Unmarshal(data, &s)
	if err != nil {
		return err
	}
	fm.bitWidth = s.BitWidth
	fm.runs = s.Runs
	fm.seeds = s.Seeds
	fm.numHashes = uint(len(s.Seeds))
	fm.observed = s.Observed
	return nil
}
