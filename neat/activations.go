package neat

import (
	"fmt"
	"math"
)

// ActivationFunc maps a node's weighted input to its output.
type ActivationFunc func(z float64) float64

// ActivationFunctions lists the activations available to activation_options.
// Scaling and clamping constants follow neat-python so config files behave the same.
var ActivationFunctions = map[string]ActivationFunc{
	"sigmoid": func(z float64) float64 {
		return 1.0 / (1.0 + math.Exp(-clamp(5.0*z, -60.0, 60.0)))
	},
	"tanh": func(z float64) float64 { return math.Tanh(clamp(2.5*z, -60.0, 60.0)) },
	"sin":  func(z float64) float64 { return math.Sin(clamp(5.0*z, -60.0, 60.0)) },
	"gauss": func(z float64) float64 {
		z = clamp(z, -3.4, 3.4)
		return math.Exp(-5.0 * z * z)
	},
	"relu": func(z float64) float64 { return math.Max(z, 0) },
	"elu": func(z float64) float64 {
		if z > 0 {
			return z
		}
		return math.Exp(z) - 1
	},
	"lelu": func(z float64) float64 {
		if z > 0 {
			return z
		}
		return 0.005 * z
	},
	"selu": func(z float64) float64 {
		const lambda, alpha = 1.0507009873554804934193349852946, 1.6732632423543772848170429916717
		if z > 0 {
			return lambda * z
		}
		return lambda * alpha * (math.Exp(z) - 1)
	},
	"softplus": func(z float64) float64 {
		return 0.2 * math.Log(1+math.Exp(clamp(5.0*z, -60.0, 60.0)))
	},
	"identity": func(z float64) float64 { return z },
	"clamped":  func(z float64) float64 { return clamp(z, -1.0, 1.0) },
	"inv": func(z float64) float64 {
		if z == 0 {
			return 0
		}
		return 1.0 / z
	},
	"log":    func(z float64) float64 { return math.Log(math.Max(z, 1e-7)) },
	"exp":    func(z float64) float64 { return math.Exp(clamp(z, -60.0, 60.0)) },
	"abs":    math.Abs,
	"hat":    func(z float64) float64 { return math.Max(0, 1-math.Abs(z)) },
	"square": func(z float64) float64 { return z * z },
	"cube":   func(z float64) float64 { return z * z * z },
}

// GetActivation looks an activation function up by name.
func GetActivation(name string) (ActivationFunc, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}
