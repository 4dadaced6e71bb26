package neat

import (
	"fmt"
	"math"
)

// AggregationFunc combines the weighted inputs of a node into one value.
type AggregationFunc func(inputs []float64) float64

// AggregationFunctions lists the aggregations available to aggregation_options.
var AggregationFunctions = map[string]AggregationFunc{
	"sum": Sum,
	"product": func(inputs []float64) float64 {
		p := 1.0
		for _, v := range inputs {
			p *= v
		}
		return p
	},
	"max":    orZero(MaxFloat),
	"min":    orZero(MinFloat),
	"maxabs": maxAbs,
	"median": orZero(Median),
	"mean":   Mean,
}

// GetAggregation looks an aggregation function up by name.
func GetAggregation(name string) (AggregationFunc, error) {
	if fn, ok := AggregationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown aggregation function: %s", name)
}

// orZero makes fn return 0 for a node without inputs.
func orZero(fn AggregationFunc) AggregationFunc {
	return func(inputs []float64) float64 {
		if len(inputs) == 0 {
			return 0
		}
		return fn(inputs)
	}
}

// maxAbs returns the input with the largest magnitude, sign preserved.
func maxAbs(inputs []float64) float64 {
	var best float64
	for _, v := range inputs {
		if math.Abs(v) > math.Abs(best) {
			best = v
		}
	}
	return best
}
