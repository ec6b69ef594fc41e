// Package markov derives a first-order transition model over the
// category sequence of a record stream. The model is computed on demand
// from whatever ordered sequence the caller hands in; nothing is kept
// between calls.
package markov

import (
	"math"
	"sort"
	"unicode"

	"github.com/newsketch/newsketch"
)

// ProbabilityPrecision is the number of decimal digits edge
// probabilities are rounded to.
const ProbabilityPrecision = 4

// Matrix holds empirical transition counts between categories. For any
// category with outgoing transitions the probabilities over its
// successors sum to 1, within rounding.
type Matrix struct {
	transitions map[string]map[string]uint64
	fromTotals  map[string]uint64
	occurrences map[string]uint64
}

// TransitionMatrix orders records by published time (stable, so equal
// timestamps keep arrival order) and counts every consecutive category
// pair. Fewer than 2 records produce an empty matrix.
func TransitionMatrix(records []newsketch.Record) *Matrix {
	m := &Matrix{
		transitions: make(map[string]map[string]uint64),
		fromTotals:  make(map[string]uint64),
		occurrences: make(map[string]uint64),
	}
	ordered := make([]newsketch.Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PublishedAt.Before(ordered[j].PublishedAt)
	})
	for i := range ordered {
		category := ordered[i].Normalize().Category
		m.occurrences[category]++
		if i == 0 {
			continue
		}
		from := ordered[i-1].Normalize().Category
		if m.transitions[from] == nil {
			m.transitions[from] = make(map[string]uint64)
		}
		m.transitions[from][category]++
		m.fromTotals[from]++
	}
	return m
}

// Probability is the empirical chance of moving from one category to
// another, 0 when the pair was never observed.
func (m *Matrix) Probability(from, to string) float64 {
	total := m.fromTotals[from]
	if total == 0 {
		return 0
	}
	return float64(m.transitions[from][to]) / float64(total)
}

// Occurrences is the total number of records seen under category.
func (m *Matrix) Occurrences(category string) uint64 {
	return m.occurrences[category]
}

// Node is one category in the transition graph.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Count uint64 `json:"count"`
}

// Edge is one observed transition, weighted by its rounded probability.
type Edge struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Probability float64 `json:"probability"`
}

// Graph is the transition matrix shaped for consumers: one node per
// category observed, one edge per observed transition.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// BuildGraph derives the transition graph from the record sequence.
// Fewer than 2 records yield an empty graph, not an error. Nodes come
// out sorted by category; edges sorted by source then target, with
// probabilities rounded to 4 decimals.
func BuildGraph(records []newsketch.Record) *Graph {
	graph := &Graph{Nodes: []Node{}, Edges: []Edge{}}
	if len(records) < 2 {
		return graph
	}
	m := TransitionMatrix(records)

	categories := make([]string, 0, len(m.occurrences))
	for category := range m.occurrences {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		graph.Nodes = append(graph.Nodes, Node{
			ID:    category,
			Label: capitalize(category),
			Count: m.occurrences[category],
		})
	}
	for _, from := range categories {
		successors := make([]string, 0, len(m.transitions[from]))
		for to := range m.transitions[from] {
			successors = append(successors, to)
		}
		sort.Strings(successors)
		for _, to := range successors {
			graph.Edges = append(graph.Edges, Edge{
				From:        from,
				To:          to,
				Probability: roundProbability(m.Probability(from, to)),
			})
		}
	}
	return graph
}

func roundProbability(p float64) float64 {
	shift := math.Pow(10, ProbabilityPrecision)
	return math.Round(p*shift) / shift
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
