package neat

import (
	"fmt"
	"math"
	"sort"
)

// Stagnation tracks species fitness over time and flags species that stopped improving.
type Stagnation struct {
	Config             *StagnationConfig
	SpeciesFitnessFunc func([]float64) float64
	Reporters          *ReporterSet
}

// NewStagnation creates a stagnation tracker for species_fitness_func.
func NewStagnation(config *StagnationConfig, reporters *ReporterSet) (*Stagnation, error) {
	fn, ok := StatFunctions[config.SpeciesFitnessFunc]
	if !ok {
		return nil, fmt.Errorf("invalid species_fitness_func in config: %s", config.SpeciesFitnessFunc)
	}
	return &Stagnation{Config: config, SpeciesFitnessFunc: fn, Reporters: reporters}, nil
}

// StagnationInfo is the verdict for one species.
type StagnationInfo struct {
	SpeciesID  int
	Species    *Species
	IsStagnant bool
}

// Update recomputes each species' fitness and returns the species in ascending fitness
// order with their stagnation verdict. A species is stagnant after max_stagnation
// generations without improvement, except for the species_elitism best species and
// as long as at most species_elitism species would remain.
func (s *Stagnation) Update(speciesSet *SpeciesSet, generation int) []StagnationInfo {
	data := make([]*Species, 0, len(speciesSet.Species))
	for _, sid := range sortedSpeciesKeys(speciesSet.Species) {
		sp := speciesSet.Species[sid]
		previous := math.Inf(-1)
		if len(sp.FitnessHistory) > 0 {
			previous = MaxFloat(sp.FitnessHistory)
		}
		sp.Fitness = s.SpeciesFitnessFunc(sp.GetFitnesses())
		sp.FitnessHistory = append(sp.FitnessHistory, sp.Fitness)
		sp.AdjustedFitness = 0
		if sp.Fitness > previous {
			sp.LastImproved = generation
		}
		data = append(data, sp)
	}
	sort.SliceStable(data, func(i, j int) bool { return data[i].Fitness < data[j].Fitness })

	result := make([]StagnationInfo, len(data))
	nonStagnant := len(data)
	for i, sp := range data {
		stagnant := false
		if nonStagnant > s.Config.SpeciesElitism {
			stagnant = generation-sp.LastImproved >= s.Config.MaxStagnation
		}
		if len(data)-i <= s.Config.SpeciesElitism {
			stagnant = false
		}
		if stagnant {
			nonStagnant--
		}
		result[i] = StagnationInfo{SpeciesID: sp.Key, Species: sp, IsStagnant: stagnant}
	}
	return result
}
