package course

import (
	"errors"
	"fmt"
	"math"
)

// ErrControllerOutput is returned when a controller breaks its output contract.
var ErrControllerOutput = errors.New("invalid controller output")

// Controller is the decision function built from a candidate's genome.
// It maps the observation (y, distance to gap top, distance to gap bottom)
// to an output vector; only the first element is used. Every query gets a
// fresh inputs slice.
type Controller interface {
	Activate(inputs []float64) ([]float64, error)
}

// ControllerFunc adapts a plain function to the Controller interface.
type ControllerFunc func(inputs []float64) ([]float64, error)

// Activate calls f(inputs).
func (f ControllerFunc) Activate(inputs []float64) ([]float64, error) {
	return f(inputs)
}

// Member is one entry of a population snapshot.
type Member[G any] struct {
	ID      int
	Fitness *float64 // Owned by the search algorithm, mutated in place.
	Genome  G        // Input for the controller builder.
}

// Builder constructs a controller from a member's genome.
type Builder[G any] func(genome G) (Controller, error)

// decide queries the controller and reports whether the agent should jump.
func decide(c Controller, observation []float64, threshold float64) (bool, error) {
	outputs, err := c.Activate(observation)
	if err != nil {
		return false, err
	}
	if len(outputs) == 0 {
		return false, fmt.Errorf("%w: empty output vector", ErrControllerOutput)
	}
	out := outputs[0]
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return false, fmt.Errorf("%w: %v", ErrControllerOutput, out)
	}
	return out > threshold, nil
}
