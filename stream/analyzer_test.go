package stream

import (
	"fmt"
	"testing"
	"time"

	"github.com/newsketch/newsketch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(headline, category string, at time.Time) newsketch.Record {
	return newsketch.Record{
		Headline:    headline,
		Content:     headline + " body",
		Category:    category,
		PublishedAt: at,
	}
}

func TestAnalyzerObserveAndQuery(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultConfig())
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seen := analyzer.Observe(record("markets rally on rate pause", "business", base))
	assert.False(t, seen, "first observation should not be a duplicate")

	analyzer.Observe(record("storm closes coastal roads", "weather", base.Add(time.Minute)))
	analyzer.Observe(record("markets slip after earnings", "business", base.Add(2*time.Minute)))

	assert.Equal(t, uint64(2), analyzer.CategoryFrequency("business"))
	assert.Equal(t, uint64(1), analyzer.CategoryFrequency("weather"))
	assert.True(t, analyzer.SeenBefore(record("markets rally on rate pause", "business", base)))
	assert.False(t, analyzer.SeenBefore(record("never observed", "business", base)))
}

func TestAnalyzerDuplicateDetection(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultConfig())
	require.NoError(t, err)

	r := record("identical headline", "tech", time.Now())
	assert.False(t, analyzer.Observe(r))
	assert.True(t, analyzer.Observe(r), "second identical record should read as seen")

	// The duplicate still counts toward the category frequency.
	assert.Equal(t, uint64(2), analyzer.CategoryFrequency("tech"))
}

func TestAnalyzerUnknownCategory(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultConfig())
	require.NoError(t, err)

	analyzer.Observe(newsketch.Record{Headline: "untagged wire story", Content: "body"})
	assert.Equal(t, uint64(1), analyzer.CategoryFrequency(newsketch.UnknownCategory))
	if samples := analyzer.Sample(newsketch.UnknownCategory); assert.Len(t, samples, 1) {
		assert.Equal(t, "untagged wire story", samples[0].Headline)
	}
}

func TestAnalyzerSampleBounded(t *testing.T) {
	config := DefaultConfig()
	config.Sampler.SampleSize = 3
	analyzer, err := NewAnalyzer(config)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		analyzer.Observe(record(fmt.Sprintf("sports story %d", i), "sports", time.Now()))
	}
	assert.Len(t, analyzer.Sample("sports"), 3)
	assert.Len(t, analyzer.Samples()["sports"], 3)
}

func TestAnalyzerTransitionGraph(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultConfig())
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, category := range []string{"world", "tech", "tech", "world"} {
		analyzer.Observe(record(fmt.Sprintf("story %d", i), category, base.Add(time.Duration(i)*time.Minute)))
	}

	graph := analyzer.TransitionGraph()
	require.Len(t, graph.Nodes, 2)
	assert.Equal(t, "tech", graph.Nodes[0].ID)
	assert.Equal(t, "world", graph.Nodes[1].ID)

	probabilities := make(map[string]float64)
	for _, edge := range graph.Edges {
		probabilities[edge.From+">"+edge.To] = edge.Probability
	}
	assert.Equal(t, 0.5, probabilities["tech>tech"])
	assert.Equal(t, 0.5, probabilities["tech>world"])
	assert.Equal(t, 1.0, probabilities["world>tech"])
}

func TestAnalyzerTopTendencies(t *testing.T) {
	config := DefaultConfig()
	config.Clusterer.ThresholdBits = 20
	analyzer, err := NewAnalyzer(config)
	require.NoError(t, err)

	at := time.Now()
	analyzer.Observe(record("election results announced in the northern region tonight", "politics", at))
	analyzer.Observe(record("election results announced in the northern region today", "politics", at))
	analyzer.Observe(record("quarterly earnings beat analyst expectations by wide margin", "business", at))

	tendencies := analyzer.TopTendencies(1)
	require.Len(t, tendencies, 1)
	assert.Equal(t, 2, tendencies[0].MemberCount)
	assert.Equal(t, "politics", tendencies[0].Category)
}

func TestAnalyzerEstimates(t *testing.T) {
	config := DefaultConfig()
	config.Cardinality.NumHashes = 64
	analyzer, err := NewAnalyzer(config)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		analyzer.Observe(record(fmt.Sprintf("distinct headline %d", i), "world", time.Now()))
	}

	distinct := analyzer.DistinctHeadlines()
	assert.InDelta(t, 200, float64(distinct), 120, "cardinality estimate should be in the right ballpark")

	// A single category of n records has F2 = n^2 exactly; every
	// estimator agrees, so the mean is exact.
	assert.Equal(t, uint64(200*200), analyzer.CategorySecondMoment())
}

func TestAnalyzerStats(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultConfig())
	require.NoError(t, err)

	analyzer.Observe(record("one", "world", time.Now()))
	analyzer.Observe(record("two", "tech", time.Now()))

	stats := analyzer.Stats()
	assert.Equal(t, uint(2), stats.RecordsObserved)
	assert.False(t, stats.FilterSaturated)
	assert.Greater(t, stats.FilterFillRate, 0.0)
	assert.Equal(t, 2, stats.ClusterBuckets)
}

func TestAnalyzerReset(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultConfig())
	require.NoError(t, err)

	r := record("reset me", "world", time.Now())
	analyzer.Observe(r)
	require.NoError(t, analyzer.Reset())

	assert.False(t, analyzer.SeenBefore(r))
	assert.Equal(t, uint64(0), analyzer.CategoryFrequency("world"))
	assert.Equal(t, uint64(0), analyzer.DistinctHeadlines())
	assert.Empty(t, analyzer.Sample("world"))
	assert.Empty(t, analyzer.TransitionGraph().Nodes)
	assert.Equal(t, uint(0), analyzer.Stats().RecordsObserved)
}

func TestAnalyzerInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.Bloom.Capacity = 0
	_, err := NewAnalyzer(config)
	assert.ErrorIs(t, err, newsketch.ErrInvalidParameter)
}

func TestAnalyzerConcurrentReads(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultConfig())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			analyzer.Observe(record(fmt.Sprintf("headline %d", i), "world", time.Now()))
		}
	}()
	for i := 0; i < 500; i++ {
		analyzer.CategoryFrequency("world")
		analyzer.DistinctHeadlines()
		analyzer.Stats()
	}
	<-done
}
