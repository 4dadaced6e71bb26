package neat

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Reproduction creates new genomes from scratch or from the surviving species.
type Reproduction struct {
	Config        *ReproductionConfig
	NextGenomeKey int
	Ancestors     map[int][]int // Genome key -> parent keys.
	Stagnation    *Stagnation
	Reporters     *ReporterSet
}

// NewReproduction creates a reproduction scheme whose genome keys start at 1.
func NewReproduction(config *ReproductionConfig, stagnation *Stagnation, reporters *ReporterSet) *Reproduction {
	return &Reproduction{
		Config:        config,
		NextGenomeKey: 1,
		Ancestors:     make(map[int][]int),
		Stagnation:    stagnation,
		Reporters:     reporters,
	}
}

func (r *Reproduction) nextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// CreateNewPopulation creates popSize fresh genomes.
func (r *Reproduction) CreateNewPopulation(genomeConfig *GenomeConfig, popSize int) map[int]*Genome {
	genomes := make(map[int]*Genome, popSize)
	for i := 0; i < popSize; i++ {
		key := r.nextKey()
		g := NewGenome(key, genomeConfig)
		g.ConfigureNew()
		genomes[key] = g
		r.Ancestors[key] = nil
	}
	return genomes
}

// Reproduce drops stagnant species, shares the next population among the remaining
// species by adjusted fitness, and fills each share with elites and mutated offspring
// of the species' best members. The species set keeps only the surviving species,
// each with an empty member list until the next speciation. An empty result means
// complete extinction.
func (r *Reproduction) Reproduce(config *Config, speciesSet *SpeciesSet, popSize, generation int) map[int]*Genome {
	var all []float64
	var remaining []*Species
	for _, info := range r.Stagnation.Update(speciesSet, generation) {
		if info.IsStagnant {
			r.Reporters.SpeciesStagnant(info.SpeciesID, info.Species)
			continue
		}
		all = append(all, info.Species.GetFitnesses()...)
		remaining = append(remaining, info.Species)
	}
	if len(remaining) == 0 {
		speciesSet.Species = make(map[int]*Species)
		return make(map[int]*Genome)
	}

	lo, hi := MinFloat(all), MaxFloat(all)
	span := math.Max(1.0, hi-lo)
	adjusted := make([]float64, len(remaining))
	previous := make([]int, len(remaining))
	for i, s := range remaining {
		s.AdjustedFitness = (Mean(s.GetFitnesses()) - lo) / span
		adjusted[i] = s.AdjustedFitness
		previous[i] = len(s.Members)
	}
	r.Reporters.Info(fmt.Sprintf("Average adjusted fitness: %.3f", Mean(adjusted)))

	minSize := max(r.Config.MinSpeciesSize, r.Config.Elitism)
	spawns := computeSpawnAmounts(adjusted, previous, popSize, minSize)

	population := make(map[int]*Genome, popSize)
	speciesSet.Species = make(map[int]*Species, len(remaining))
	for i, s := range remaining {
		spawn := max(spawns[i], r.Config.Elitism)

		members := make([]*Genome, 0, len(s.Members))
		for _, key := range sortedGenomeKeys(s.Members) {
			members = append(members, s.Members[key])
		}
		sort.SliceStable(members, func(a, b int) bool { return members[a].Fitness > members[b].Fitness })
		s.Members = make(map[int]*Genome)
		speciesSet.Species[s.Key] = s

		for _, elite := range members[:min(r.Config.Elitism, len(members))] {
			population[elite.Key] = elite
			spawn--
		}
		if spawn <= 0 {
			continue
		}

		cutoff := max(int(math.Ceil(r.Config.SurvivalThreshold*float64(len(members)))), 2)
		parents := members[:min(cutoff, len(members))]
		for ; spawn > 0; spawn-- {
			p1 := parents[rand.Intn(len(parents))]
			p2 := parents[rand.Intn(len(parents))]
			key := r.nextKey()
			child := NewGenome(key, &config.Genome)
			child.ConfigureCrossover(p1, p2)
			child.Mutate()
			population[key] = child
			r.Ancestors[key] = []int{p1.Key, p2.Key}
		}
	}
	return population
}

// computeSpawnAmounts moves each species halfway from its previous size towards its
// fitness-proportional share, then rescales the result to popSize.
func computeSpawnAmounts(adjusted []float64, previous []int, popSize, minSize int) []int {
	sum := Sum(adjusted)
	spawns := make([]int, len(adjusted))
	total := 0
	for i, af := range adjusted {
		target := float64(minSize)
		if sum > 0 {
			target = math.Max(target, af/sum*float64(popSize))
		}
		d := (target - float64(previous[i])) * 0.5
		c := int(math.RoundToEven(d))
		spawn := previous[i]
		switch {
		case c != 0:
			spawn += c
		case d > 0:
			spawn++
		case d < 0:
			spawn--
		}
		spawns[i] = spawn
		total += spawn
	}

	norm := float64(popSize) / math.Max(1, float64(total))
	for i, n := range spawns {
		spawns[i] = max(minSize, int(math.RoundToEven(float64(n)*norm)))
	}
	return spawns
}
