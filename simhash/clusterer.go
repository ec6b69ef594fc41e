package simhash

import (
	"fmt"
	"sort"

	"github.com/newsketch/newsketch"
)

// HeadlinePreviewCount caps the headlines reported per tendency.
const HeadlinePreviewCount = 5

// bucket is one near-duplicate group: the fingerprint of the record that
// seeded it, and its members in arrival order.
type bucket struct {
	representative uint64
	members        []newsketch.Record
}

// Clusterer groups records into buckets of near-duplicate headlines with
// a single greedy pass: a record joins the first existing bucket whose
// representative is within the threshold, else it seeds a new bucket.
// The scan runs in bucket creation order, so the partition depends on
// arrival order. That is a property of the single-pass design, not an
// accident; reprocessing a stream in a different order may bucket it
// differently.
type Clusterer struct {
	threshold int
	order     []uint64
	buckets   map[uint64]*bucket
}

// NewClusterer builds a clusterer joining records within thresholdBits
// Hamming distance.
func NewClusterer(thresholdBits int) (*Clusterer, error) {
	if thresholdBits <= 0 || thresholdBits > FingerprintBits {
		return nil, fmt.Errorf("%w: similarity threshold %d should be in 1..%d", newsketch.ErrInvalidParameter, thresholdBits, FingerprintBits)
	}
	return &Clusterer{threshold: thresholdBits, buckets: make(map[uint64]*bucket)}, nil
}

// Add places the record into exactly one bucket, first match wins.
func (c *Clusterer) Add(record newsketch.Record) {
	fp := FingerprintRecord(record)
	for _, representative := range c.order {
		if Distance(fp, representative) < c.threshold {
			b := c.buckets[representative]
			b.members = append(b.members, record)
			return
		}
	}
	c.order = append(c.order, fp)
	c.buckets[fp] = &bucket{representative: fp, members: []newsketch.Record{record}}
}

// Len reports the current number of buckets.
func (c *Clusterer) Len() int {
	return len(c.order)
}

// Buckets returns a snapshot of every bucket's members keyed by
// representative fingerprint.
func (c *Clusterer) Buckets() map[uint64][]newsketch.Record {
	snapshot := make(map[uint64][]newsketch.Record, len(c.buckets))
	for fp, b := range c.buckets {
		snapshot[fp] = append([]newsketch.Record(nil), b.members...)
	}
	return snapshot
}

func (c *Clusterer) Clear() {
	c.order = nil
	c.buckets = make(map[uint64]*bucket)
}

// Tendency is one trending near-duplicate group: the dominant category
// among its members, how many records the bucket holds, a sample record
// from the dominant category and a capped preview of member headlines.
type Tendency struct {
	Fingerprint uint64
	Category    string
	MemberCount int
	Sample      newsketch.Record
	Headlines   []string
}

// TopTendencies ranks buckets by member count descending and reports
// the top k. Equal-sized buckets rank in creation order; category ties
// inside a bucket resolve to the lexicographically smallest category.
func (c *Clusterer) TopTendencies(k int) []Tendency {
	if k <= 0 {
		return nil
	}
	ranked := make([]uint64, len(c.order))
	copy(ranked, c.order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return len(c.buckets[ranked[i]].members) > len(c.buckets[ranked[j]].members)
	})
	if k > len(ranked) {
		k = len(ranked)
	}
	tendencies := make([]Tendency, 0, k)
	for _, fp := range ranked[:k] {
		tendencies = append(tendencies, c.buckets[fp].tendency())
	}
	return tendencies
}

func (b *bucket) tendency() Tendency {
	counts := make(map[string]int)
	for _, member := range b.members {
		counts[member.Category]++
	}
	var majority string
	var best int
	for category, count := range counts {
		if count > best || (count == best && category < majority) {
			majority, best = category, count
		}
	}
	var sample newsketch.Record
	for _, member := range b.members {
		if member.Category == majority {
			sample = member
			break
		}
	}
	headlines := make([]string, 0, HeadlinePreviewCount)
	for _, member := range b.members {
		if len(headlines) == HeadlinePreviewCount {
			break
		}
		headlines = append(headlines, member.Headline)
	}
	return Tendency{
		Fingerprint: b.representative,
		Category:    majority,
		MemberCount: len(b.members),
		Sample:      sample,
		Headlines:   headlines,
	}
}
