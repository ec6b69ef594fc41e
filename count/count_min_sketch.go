// Package count holds the counting sketches of the analytics core: the
// count-min frequency sketch, the Flajolet-Martin distinct-count
// estimator and the AMS second moment estimator.
package count

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/newsketch/newsketch"
)

// CountMinSketch estimates per-key frequency with one-sided error:
// Count(data) is always at least the true cumulative weight, and
// overshoots by at most e*totalWeight/columns in expectation. Counters
// only increment; there is no removal.
type CountMinSketch struct {
	AbstractCountMinSketch
	matrix [][]uint64
}

// NewCountMinSketch draws one fresh hash seed per row.
func NewCountMinSketch(rows, columns uint) (*CountMinSketch, error) {
	return NewCountMinSketchWithSeeds(rows, columns, newsketch.RandomSeeds(rows))
}

// NewCountMinSketchWithSeeds pins the row hash functions, so two
// sketches built from the same seeds accumulate bit-identical state.
func NewCountMinSketchWithSeeds(rows, columns uint, seeds []uint64) (*CountMinSketch, error) {
	if rows == 0 || columns == 0 {
		return nil, fmt.Errorf("%w: count-min rows and columns should be greater than 0", newsketch.ErrInvalidParameter)
	}
	if uint(len(seeds)) != rows {
		return nil, fmt.Errorf("%w: count-min needs one seed per row, got %d for %d rows", newsketch.ErrInvalidParameter, len(seeds), rows)
	}
	abstractSketch := MakeAbstractCountMinSketch(rows, columns, seeds)
	matrix := make([][]uint64, rows)
	for i := range matrix {
		matrix[i] = make([]uint64, columns)
	}
	return &CountMinSketch{*abstractSketch, matrix}, nil
}

// NewCountMinSketchFromEstimates sizes the sketch for a relative error
// bound errorRate with confidence delta: columns=ceil(e/errorRate),
// rows=ceil(ln(1/delta)).
func NewCountMinSketchFromEstimates(errorRate, delta float64) (*CountMinSketch, error) {
	if errorRate <= 0 || errorRate >= 1 || delta <= 0 || delta >= 1 {
		return nil, fmt.Errorf("%w: count-min error rate and delta should be in (0, 1)", newsketch.ErrInvalidParameter)
	}
	columns := uint(math.Ceil(math.E / errorRate))
	rows := uint(math.Ceil(math.Log(1 / delta)))
	return NewCountMinSketch(rows, columns)
}

func (cms *CountMinSketch) UpdateOnce(data []byte) {
	cms.Update(data, 1)
}

func (cms *CountMinSketch) Update(data []byte, count uint64) {
	for r, c := range cms.getPositions(data) {
		cms.matrix[r][c] += count
	}
	cms.allSum += count
}

func (cms *CountMinSketch) UpdateString(data string, count uint64) {
	cms.Update([]byte(data), count)
}

func (cms *CountMinSketch) Count(data []byte) uint64 {
	var min uint64
	for r, c := range cms.getPositions(data) {
		if r == 0 || cms.matrix[r][c] < min {
			min = cms.matrix[r][c]
		}
	}
	return min
}

func (cms *CountMinSketch) CountString(data string) uint64 {
	return cms.Count([]byte(data))
}

// TotalCount is the sum of all weights ever added.
func (cms *CountMinSketch) TotalCount() uint64 {
	return cms.allSum
}

// Clear zeroes the counters. The row seeds stay, so the sketch keeps
// hashing the way it was constructed.
func (cms *CountMinSketch) Clear() {
	for i := range cms.matrix {
		for j := range cms.matrix[i] {
			cms.matrix[i][j] = 0
		}
	}
	cms.allSum = 0
}

// Merge folds cms1 into cms. Both sketches must share dimensions and
// row seeds, otherwise the counters aren't speaking about the same
// positions.
func (cms *CountMinSketch) Merge(cms1 *CountMinSketch) error {
	if cms.rows != cms1.rows {
		return fmt.Errorf("newsketch: can't merge sketches with unequal row counts, %d and %d", cms.rows, cms1.rows)
	}
	if cms.columns != cms1.columns {
		return fmt.Errorf("newsketch: can't merge sketches with unequal column counts, %d and %d", cms.columns, cms1.columns)
	}
	for i := range cms.seeds {
		if cms.seeds[i] != cms1.seeds[i] {
			return fmt.Errorf("newsketch: can't merge sketches with different row seeds")
		}
	}
	for i := range cms.matrix {
		for j := range cms.matrix[i] {
			cms.matrix[i][j] += cms1.matrix[i][j]
		}
	}
	cms.allSum += cms1.allSum
	return nil
}

type countMinSketchJSON struct {
	Rows    uint       `json:"r"`
	Columns uint       `json:"c"`
	AllSum  uint64     `json:"s"`
	Seeds   []uint64   `json:"sd"`
	Matrix  [][]uint64 `json:"m"`
}

// Export serializes the counters together with the row seeds, so an
// Import elsewhere reproduces identical estimates.
func (cms *CountMinSketch) Export() ([]byte, error) {
	return json.Marshal(countMinSketchJSON{cms.rows, cms.columns, cms.allSum, cms.seeds, cms.matrix})
}

func (cms *CountMinSketch) Import(data []byte) error {
	var s countMinSketchJSON
	err := json.Unmarshal(data, &s)
	if err != nil {
		return err
	}
	cms.rows = s.Rows
	cms.columns = s.Columns
	cms.allSum = s.AllSum
	cms.seeds = s.Seeds
	cms.matrix = s.Matrix
	return nil
}

func (cms *CountMinSketch) Equals(cms1 *CountMinSketch) bool {
	if cms.rows != cms1.rows || cms.columns != cms1.columns {
		return false
	}
	for i := range cms.seeds {
		if cms.seeds[i] != cms1.seeds[i] {
			return false
		}
	}
	for i := range cms.matrix {
		for j := range cms.matrix[i] {
			if cms.matrix[i][j] != cms1.matrix[i][j] {
				return false
			}
		}
	}
	return true
}
