package neat

import (
	"math"
	"sort"
)

func clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(value, hi))
}

// Sum returns the sum of values.
func Sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Stdev returns the population standard deviation of values.
func Stdev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	var variance float64
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	return math.Sqrt(variance / float64(len(values)))
}

// MaxFloat returns the largest value, or -Inf for an empty slice.
func MaxFloat(values []float64) float64 {
	best := math.Inf(-1)
	for _, v := range values {
		best = math.Max(best, v)
	}
	return best
}

// MinFloat returns the smallest value, or +Inf for an empty slice.
func MinFloat(values []float64) float64 {
	best := math.Inf(1)
	for _, v := range values {
		best = math.Min(best, v)
	}
	return best
}

// Median returns the median of values, or NaN for an empty slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// StatFunctions names the reductions usable as species_fitness_func and fitness_criterion.
var StatFunctions = map[string]func([]float64) float64{
	"mean":   Mean,
	"median": Median,
	"stdev":  Stdev,
	"sum":    Sum,
	"max":    MaxFloat,
	"min":    MinFloat,
}
