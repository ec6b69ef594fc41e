// Package sample keeps a bounded, representative sample of records per
// key by retaining the k smallest record hashes seen under that key.
// Under a uniform hash the retained set is a uniform k-subset of the
// key's population, with no need to know the population up front.
package sample

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/newsketch/newsketch"
	"github.com/newsketch/newsketch/hash"
)

type sampleEntry struct {
	hash   uint64
	seq    uint64
	record newsketch.Record
}

// maxHeap keeps the largest retained hash on top so eviction is O(log k).
// Equal hashes order by arrival: the later arrival sits nearer the top
// and is the one evicted, keeping first-arrival ties stable.
type maxHeap []sampleEntry

func (h maxHeap) Len() int {
	return len(h)
}

func (h maxHeap) Less(i, j int) bool {
	if h[i].hash == h[j].hash {
		return h[i].seq > h[j].seq
	}
	return h[i].hash > h[j].hash
}

func (h maxHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *maxHeap) Push(x any) {
	*h = append(*h, x.(sampleEntry))
}

func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// MinWiseSampler retains, per key, the records with the k smallest
// identifying-text hashes.
type MinWiseSampler struct {
	sampleSize uint
	samples    map[string]*maxHeap
	seq        uint64
}

func NewMinWiseSampler(sampleSize uint) (*MinWiseSampler, error) {
	if sampleSize == 0 {
		return nil, fmt.Errorf("%w: sample size must be greater than 0", newsketch.ErrInvalidParameter)
	}
	return &MinWiseSampler{sampleSize: sampleSize, samples: make(map[string]*maxHeap)}, nil
}

// Add offers a record to the sample kept under key. While the sample is
// short the record is retained; once full, it replaces the current
// largest retained hash only if its own hash is strictly smaller.
func (sampler *MinWiseSampler) Add(record newsketch.Record, key string) {
	h, _ := hash.Sum128(record.IdentifyingText())
	sampler.seq++
	entry := sampleEntry{hash: h, seq: sampler.seq, record: record}

	current, ok := sampler.samples[key]
	if !ok {
		current = &maxHeap{}
		sampler.samples[key] = current
	}
	if uint(len(*current)) < sampler.sampleSize {
		heap.Push(current, entry)
		return
	}
	if entry.hash < (*current)[0].hash {
		(*current)[0] = entry
		heap.Fix(current, 0)
	}
}

// Get returns the sample kept under key, ascending by retained hash.
// An unseen key is an empty sample, not an error.
func (sampler *MinWiseSampler) Get(key string) []newsketch.Record {
	current, ok := sampler.samples[key]
	if !ok {
		return nil
	}
	entries := append([]sampleEntry(nil), *current...)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].hash == entries[j].hash {
			return entries[i].seq < entries[j].seq
		}
		return entries[i].hash < entries[j].hash
	})
	records := make([]newsketch.Record, len(entries))
	for i := range entries {
		records[i] = entries[i].record
	}
	return records
}

// GetAll returns every key's sample.
func (sampler *MinWiseSampler) GetAll() map[string][]newsketch.Record {
	all := make(map[string][]newsketch.Record, len(sampler.samples))
	for key := range sampler.samples {
		all[key] = sampler.Get(key)
	}
	return all
}

// Len reports how many records are currently retained under key.
func (sampler *MinWiseSampler) Len(key string) int {
	if current, ok := sampler.samples[key]; ok {
		return len(*current)
	}
	return 0
}

func (sampler *MinWiseSampler) SampleSize() uint {
	return sampler.sampleSize
}

func (sampler *MinWiseSampler) Clear() {
	sampler.samples = make(map[string]*maxHeap)
	sampler.seq = 0
}
