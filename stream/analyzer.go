// Package stream ties the sketches together behind one facade: the
// caller pushes records in arrival order and pulls estimates out. The
// record store, the API surface and the fan-out transport all live
// outside; this package only ever sees one record at a time.
package stream

import (
	"sync"

	"github.com/newsketch/newsketch"
	"github.com/newsketch/newsketch/count"
	"github.com/newsketch/newsketch/filters"
	"github.com/newsketch/newsketch/markov"
	"github.com/newsketch/newsketch/metrics"
	"github.com/newsketch/newsketch/sample"
	"github.com/newsketch/newsketch/simhash"
)

// Analyzer owns one instance of every sketch. Each sketch is a
// single-writer accumulator with no locking of its own, so the analyzer
// serializes all mutations behind one RWMutex: Observe takes the write
// lock, queries take the read lock and may run concurrently with each
// other. Sketches reflect exactly the records fanned out to them; there
// is no cross-sketch ordering guarantee beyond that.
type Analyzer struct {
	mu sync.RWMutex

	dedup       *filters.BloomFilter
	frequencies *count.CountMinSketch
	cardinality *count.FlajoletMartin
	moment      *count.SecondMoment
	sampler     *sample.MinWiseSampler
	clusterer   *simhash.Clusterer

	// history feeds the on-demand markov derivation; it holds only the
	// fields the transition model reads.
	history []newsketch.Record
}

// NewAnalyzer validates the configuration and constructs every sketch
// with fresh seeds.
func NewAnalyzer(config Config) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	dedup, err := filters.NewMemBloomFilter(config.Bloom.Capacity, config.Bloom.ErrorRate)
	if err != nil {
		return nil, err
	}
	frequencies, err := count.NewCountMinSketch(config.CountMin.Depth, config.CountMin.Width)
	if err != nil {
		return nil, err
	}
	cardinality, err := count.NewFlajoletMartin(config.Cardinality.BitWidth, config.Cardinality.NumHashes)
	if err != nil {
		return nil, err
	}
	moment, err := count.NewSecondMoment(config.Moment.NumEstimators)
	if err != nil {
		return nil, err
	}
	sampler, err := sample.NewMinWiseSampler(config.Sampler.SampleSize)
	if err != nil {
		return nil, err
	}
	clusterer, err := simhash.NewClusterer(config.Clusterer.ThresholdBits)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		dedup:       dedup,
		frequencies: frequencies,
		cardinality: cardinality,
		moment:      moment,
		sampler:     sampler,
		clusterer:   clusterer,
	}, nil
}

// Observe fans one record out to every sketch and reports whether the
// record was probably seen before. A record with no category lands in
// the unknown bucket rather than being rejected.
func (a *Analyzer) Observe(record newsketch.Record) bool {
	record = record.Normalize()
	identity := record.IdentifyingText()

	a.mu.Lock()
	defer a.mu.Unlock()

	seen := a.dedup.Lookup(identity)
	if !a.dedup.Insert(identity) {
		metrics.FilterCapacityExceededTotal.Inc()
	}
	if seen {
		metrics.DuplicateRecordsTotal.Inc()
	}

	a.frequencies.UpdateString(record.Category, 1)
	a.cardinality.UpdateString(record.Headline)
	a.moment.UpdateString(record.Category)
	a.sampler.Add(record, record.Category)
	a.clusterer.Add(record)
	a.history = append(a.history, newsketch.Record{
		Category:    record.Category,
		PublishedAt: record.PublishedAt,
	})

	metrics.RecordsObservedTotal.WithLabelValues(record.Category).Inc()
	metrics.ClusterBuckets.Set(float64(a.clusterer.Len()))
	return seen
}

// SeenBefore reports whether an identical record probably passed
// through already. A false answer is definite.
func (a *Analyzer) SeenBefore(record newsketch.Record) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dedup.Lookup(record.Normalize().IdentifyingText())
}

// CategoryFrequency estimates how many records carried the category.
// Never below the true count.
func (a *Analyzer) CategoryFrequency(category string) uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.frequencies.CountString(category)
}

// DistinctHeadlines estimates the number of distinct headlines seen.
func (a *Analyzer) DistinctHeadlines() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cardinality.Count()
}

// CategorySecondMoment estimates the sum of squared category
// frequencies, a dispersion measure of the category mix.
func (a *Analyzer) CategorySecondMoment() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.moment.Estimate()
}

// Sample returns the bounded representative sample kept for category.
func (a *Analyzer) Sample(category string) []newsketch.Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sampler.Get(category)
}

// Samples returns every category's sample.
func (a *Analyzer) Samples() map[string][]newsketch.Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sampler.GetAll()
}

// TopTendencies reports the k largest near-duplicate headline groups.
func (a *Analyzer) TopTendencies(k int) []simhash.Tendency {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.clusterer.TopTendencies(k)
}

// TransitionGraph derives the category transition graph from the
// records observed so far. The history is snapshotted under the read
// lock and the graph computed outside it.
func (a *Analyzer) TransitionGraph() *markov.Graph {
	a.mu.RLock()
	history := make([]newsketch.Record, len(a.history))
	copy(history, a.history)
	a.mu.RUnlock()
	return markov.BuildGraph(history)
}

// Stats is a point-in-time view of the analyzer's own health.
type Stats struct {
	RecordsObserved   uint
	FilterSaturated   bool
	FilterFillRate    float64
	ClusterBuckets    int
	DistinctEstimate  uint64
	SecondMomentValue uint64
}

func (a *Analyzer) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Stats{
		RecordsObserved:   uint(len(a.history)),
		FilterSaturated:   a.dedup.Saturated(),
		FilterFillRate:    a.dedup.PositiveRate(),
		ClusterBuckets:    a.clusterer.Len(),
		DistinctEstimate:  a.cardinality.Count(),
		SecondMomentValue: a.moment.Estimate(),
	}
}

// Reset clears every sketch. The seed-drawing sketches come back with
// fresh hash functions, so a reset analyzer starts a new epoch.
func (a *Analyzer) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.dedup.Clear(); err != nil {
		return err
	}
	a.frequencies.Clear()
	a.cardinality.Clear()
	a.moment.Clear()
	a.sampler.Clear()
	a.clusterer.Clear()
	a.history = nil
	metrics.ClusterBuckets.Set(0)
	return nil
}
