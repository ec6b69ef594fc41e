// Package metrics exposes the analytics core's operational counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsObservedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsketch_records_observed_total",
		Help: "The total number of records fanned out to the sketches",
	}, []string{"category"})

	DuplicateRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsketch_duplicate_records_total",
		Help: "The total number of records the dedup filter had probably seen before",
	})

	FilterCapacityExceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsketch_filter_capacity_exceeded_total",
		Help: "The total number of adds the dedup filter refused past its capacity",
	})

	ClusterBuckets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "newsketch_cluster_buckets",
		Help: "The current number of near-duplicate headline buckets",
	})
)
