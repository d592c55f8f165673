// Package utils contains small math and sampling helpers shared across the module.
package utils

import (
	"math"
	"math/rand"
	"sort"
)

// SampleRandomIntRange samples a random integer within a range given by [min, max]
// using the given rand.Rand.
func SampleRandomIntRange(min, max int, r *rand.Rand) int {
	return r.Intn(max-min+1) + min
}

// SampleIndices samples k distinct indices from [0, n) without replacement
// using a partial Fisher-Yates shuffle over an index array.
func SampleIndices(n, k int, r *rand.Rand) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	for i := 0; i < k; i++ {
		j := SampleRandomIntRange(i, n-1, r)
		indices[i], indices[j] = indices[j], indices[i]
	}
	return indices[:k]
}

// WeightedMedian returns the value at which the cumulative weight first
// reaches half the total weight, with values considered in ascending order.
// NaN if the slices are empty, mismatched or the total weight is not positive.
func WeightedMedian(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return math.NaN()
	}
	total := 0.0
	order := make([]int, len(values))
	for i, w := range weights {
		order[i] = i
		total += w
	}
	if total <= 0 {
		return math.NaN()
	}
	sort.Slice(order, func(i, j int) bool {
		return values[order[i]] < values[order[j]]
	})
	half := total / 2
	cum := 0.0
	for _, idx := range order {
		cum += weights[idx]
		if cum >= half {
			return values[idx]
		}
	}
	return values[order[len(order)-1]]
}

// Clamp returns min if value is lesser than min, max if value is greater than
// max, and value otherwise.
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
