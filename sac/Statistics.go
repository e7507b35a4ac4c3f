package sac

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/softlearn/gosac/utils/floatutils"
)

// Statistics is an insertion-ordered mapping from diagnostic names to
// scalar values. A Statistics value describes exactly one training
// batch; the trainer replaces it wholesale each time diagnostics are
// recomputed, never merging across batches.
type Statistics struct {
	keys   []string
	values map[string]float64
}

func newStatistics() *Statistics {
	return &Statistics{values: make(map[string]float64)}
}

// set records a scalar diagnostic, preserving first-insertion order
func (s *Statistics) set(key string, value float64) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// addSummary records the mean, standard deviation, maximum, and
// minimum of values under keys derived from name. The deviation is the
// population estimator, which stays finite for a batch of one.
func (s *Statistics) addSummary(name string, values []float64) {
	s.set(name+" Mean", stat.Mean(values, nil))
	s.set(name+" Std", stat.PopStdDev(values, nil))
	s.set(name+" Max", floatutils.Max(values...))
	s.set(name+" Min", floatutils.Min(values...))
}

// Get returns the value recorded under key and whether any value was
// recorded under key
func (s *Statistics) Get(key string) (float64, bool) {
	value, ok := s.values[key]
	return value, ok
}

// Keys returns the diagnostic names in insertion order
func (s *Statistics) Keys() []string {
	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Len returns the number of recorded diagnostics
func (s *Statistics) Len() int {
	return len(s.keys)
}

// clone returns a deep copy of the Statistics
func (s *Statistics) clone() *Statistics {
	c := newStatistics()
	for _, key := range s.keys {
		c.set(key, s.values[key])
	}
	return c
}

func (s *Statistics) String() string {
	var b strings.Builder
	for _, key := range s.keys {
		fmt.Fprintf(&b, "%v: %v\n", key, s.values[key])
	}
	return b.String()
}
