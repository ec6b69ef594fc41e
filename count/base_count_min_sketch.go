package count

import (
	"github.com/newsketch/newsketch/hash"
)

type BaseCountMinSketch interface {
	GetRows() uint
	GetColumns() uint
	Update(data []byte, count uint64)
	UpdateString(data string, count uint64)
	Count(data []byte) uint64
	CountString(data string) uint64
	UpdateOnce(data []byte)
}

// AbstractCountMinSketch carries the dimensions and the per-row hash
// seeds. Each row indexes with its own seeded hash function, so the
// rows are independent and the row minimum is a one-sided estimate.
type AbstractCountMinSketch struct {
	rows    uint
	columns uint
	seeds   []uint64
	allSum  uint64
}

func MakeAbstractCountMinSketch(rows, columns uint, seeds []uint64) *AbstractCountMinSketch {
	cms := &AbstractCountMinSketch{}
	cms.rows = rows
	cms.columns = columns
	cms.seeds = seeds
	return cms
}

func (cms *AbstractCountMinSketch) GetRows() uint {
	return cms.rows
}

func (cms *AbstractCountMinSketch) GetColumns() uint {
	return cms.columns
}

func (cms *AbstractCountMinSketch) getPositions(data []byte) []uint {
	positions := make([]uint, cms.rows)
	for r := range positions {
		positions[r] = uint(hash.Sum64(data, cms.seeds[r]) % uint64(cms.columns))
	}
	return positions
}
