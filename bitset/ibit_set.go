// Package bitset provides the bit vector behind the bloom filter, either
// in process memory or in redis so a filter can be shared by more than
// one process and reloaded with identical behavior.
package bitset

type IBitSet interface {
	Size() uint
	Has(index uint) (bool, error)
	Insert(index uint) (bool, error)
	Clear() error
	Equals(otherBitSet IBitSet) (bool, error)
	BitCount() (uint, error)
	Export() (uint, []byte, error)
	Import(data []byte) (bool, error)
}
