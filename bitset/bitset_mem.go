package bitset

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

type BitSetMem struct {
	set  *bitset.BitSet
	size uint
}

func NewBitSetMem(size uint) *BitSetMem {
	return &BitSetMem{bitset.New(size), size}
}

func FromDataMem(data []uint64) *BitSetMem {
	return &BitSetMem{bitset.From(data), uint(len(data) * 64)}
}

func (bitSet *BitSetMem) Size() uint {
	return bitSet.size
}

func (bitSet *BitSetMem) Has(index uint) (bool, error) {
	return bitSet.set.Test(index), nil
}

func (bitSet *BitSetMem) Insert(index uint) (bool, error) {
	bitSet.set.Set(index)
	return true, nil
}

func (bitSet *BitSetMem) Clear() error {
	bitSet.set.ClearAll()
	return nil
}

func (bitSet *BitSetMem) BitCount() (uint, error) {
	return bitSet.set.Count(), nil
}

func (bitSet *BitSetMem) Export() (uint, []byte, error) {
	data, err := bitSet.set.MarshalJSON()
	if err != nil {
		return 0, nil, err
	}
	return bitSet.size, data, nil
}

func (bitSet *BitSetMem) Import(data []byte) (bool, error) {
	err := bitSet.set.UnmarshalJSON(data)
	if err != nil {
		return false, err
	}
	bitSet.size = bitSet.set.Len()
	return true, nil
}

func (firstBitSet *BitSetMem) Equals(otherBitSet IBitSet) (bool, error) {
	secondBitSet, ok := otherBitSet.(*BitSetMem)
	if !ok {
		return false, fmt.Errorf("newsketch: invalid bitset type, should be BitSetMem")
	}
	return firstBitSet.set.Equal(secondBitSet.set), nil
}
