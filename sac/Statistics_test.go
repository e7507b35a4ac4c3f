package sac

import (
	"math"
	"testing"
)

func TestStatisticsInsertionOrder(t *testing.T) {
	stats := newStatistics()
	stats.set("b", 1.0)
	stats.set("a", 2.0)
	stats.set("c", 3.0)

	// Overwriting keeps the original position
	stats.set("a", 4.0)

	expected := []string{"b", "a", "c"}
	keys := stats.Keys()
	if len(keys) != len(expected) {
		t.Fatalf("wrong number of keys \n\twant(%v)\n\thave(%v)",
			len(expected), len(keys))
	}
	for i, key := range expected {
		if keys[i] != key {
			t.Errorf("key %v: \n\twant(%v)\n\thave(%v)", i, key, keys[i])
		}
	}

	if value, ok := stats.Get("a"); !ok || value != 4.0 {
		t.Errorf("overwrite lost \n\twant(4)\n\thave(%v)", value)
	}
	if _, ok := stats.Get("missing"); ok {
		t.Error("found a value for a missing key")
	}
}

func TestStatisticsSummary(t *testing.T) {
	stats := newStatistics()
	stats.addSummary("Values", []float64{1.0, 2.0, 3.0, 4.0})

	cases := map[string]float64{
		"Values Mean": 2.5,
		"Values Max":  4.0,
		"Values Min":  1.0,
	}
	for key, expected := range cases {
		value, ok := stats.Get(key)
		if !ok {
			t.Fatalf("summary missing %v", key)
		}
		if math.Abs(value-expected) > 1e-12 {
			t.Errorf("%v: \n\twant(%v)\n\thave(%v)", key, expected, value)
		}
	}

	// Population standard deviation of {1, 2, 3, 4}
	std, ok := stats.Get("Values Std")
	if !ok {
		t.Fatal("summary missing Values Std")
	}
	if expected := math.Sqrt(1.25); math.Abs(std-expected) > 1e-12 {
		t.Errorf("Values Std: \n\twant(%v)\n\thave(%v)", expected, std)
	}
}

// A summary over a single value must stay finite, with zero deviation
func TestStatisticsSummarySingleValue(t *testing.T) {
	stats := newStatistics()
	stats.addSummary("Values", []float64{3.0})

	cases := map[string]float64{
		"Values Mean": 3.0,
		"Values Std":  0.0,
		"Values Max":  3.0,
		"Values Min":  3.0,
	}
	for key, expected := range cases {
		value, ok := stats.Get(key)
		if !ok {
			t.Fatalf("summary missing %v", key)
		}
		if value != expected {
			t.Errorf("%v: \n\twant(%v)\n\thave(%v)", key, expected, value)
		}
	}
}

func TestStatisticsClone(t *testing.T) {
	stats := newStatistics()
	stats.set("a", 1.0)

	clone := stats.clone()
	clone.set("a", 2.0)
	clone.set("b", 3.0)

	if value, _ := stats.Get("a"); value != 1.0 {
		t.Errorf("clone mutated its source \n\thave(%v)", value)
	}
	if _, ok := stats.Get("b"); ok {
		t.Error("clone insertion leaked into its source")
	}
	if stats.Len() != 1 || clone.Len() != 2 {
		t.Errorf("wrong lengths \n\thave(%v, %v)", stats.Len(), clone.Len())
	}
}
