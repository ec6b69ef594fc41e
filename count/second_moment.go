package count

import (
	"fmt"

	"github.com/newsketch/newsketch"
	"github.com/newsketch/newsketch/hash"
	"gonum.org/v1/gonum/stat"
)

// amsEstimator is one independent tug-of-war estimator: a seeded ±1
// sign per distinct item, memoized on first sight, and the running sum
// of signs over the stream. The square of the sum is an unbiased
// estimate of the second frequency moment.
type amsEstimator struct {
	seed  uint64
	sum   int64
	signs map[string]int8
}

func newAmsEstimator(seed uint64) *amsEstimator {
	return &amsEstimator{seed: seed, signs: make(map[string]int8)}
}

func (e *amsEstimator) observe(item string) {
	sign, ok := e.signs[item]
	if !ok {
		if hash.Sum64String(item, e.seed)&1 == 0 {
			sign = 1
		} else {
			sign = -1
		}
		// The sign is fixed for this estimator's lifetime. The memo
		// grows with every distinct item ever seen; Clear is the only
		// way to shrink it.
		e.signs[item] = sign
	}
	e.sum += int64(sign)
}

// SecondMoment estimates F2, the sum of squared frequencies over the
// distinct items observed, by averaging several independent estimators
// to tame the variance.
type SecondMoment struct {
	estimators []*amsEstimator
}

// NewSecondMoment draws a fresh seed for each of the numEstimators
// independent estimators.
func NewSecondMoment(numEstimators uint) (*SecondMoment, error) {
	return NewSecondMomentWithSeeds(newsketch.RandomSeeds(numEstimators))
}

// NewSecondMomentWithSeeds pins the sign functions; one estimator per
// seed.
func NewSecondMomentWithSeeds(seeds []uint64) (*SecondMoment, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: second moment needs at least one estimator", newsketch.ErrInvalidParameter)
	}
	sm := &SecondMoment{estimators: make([]*amsEstimator, len(seeds))}
	for i := range seeds {
		sm.estimators[i] = newAmsEstimator(seeds[i])
	}
	return sm, nil
}

func (sm *SecondMoment) Update(data []byte) {
	sm.UpdateString(string(data))
}

func (sm *SecondMoment) UpdateString(item string) {
	for _, e := range sm.estimators {
		e.observe(item)
	}
}

// Estimate averages sum^2 over the estimators, truncated to an integer.
// 0 with nothing observed.
func (sm *SecondMoment) Estimate() uint64 {
	squares := make([]float64, len(sm.estimators))
	for i, e := range sm.estimators {
		squares[i] = float64(e.sum) * float64(e.sum)
	}
	return uint64(stat.Mean(squares, nil))
}

// NumEstimators reports the configured number of independent estimators.
func (sm *SecondMoment) NumEstimators() uint {
	return uint(len(sm.estimators))
}

// Clear resets sums and sign memos and re-draws every seed, starting a
// fresh epoch like FlajoletMartin.Clear.
func (sm *SecondMoment) Clear() {
	seeds := newsketch.RandomSeeds(uint(len(sm.estimators)))
	for i := range sm.estimators {
		sm.estimators[i] = newAmsEstimator(seeds[i])
	}
}
