package neat

import (
	"fmt"
	"math"
	"sort"
)

// Species is a group of genetically similar genomes.
type Species struct {
	Key             int
	Created         int // Generation the species appeared in.
	LastImproved    int
	Representative  *Genome
	Members         map[int]*Genome
	Fitness         float64
	AdjustedFitness float64
	FitnessHistory  []float64
}

// NewSpecies creates an empty species.
func NewSpecies(key, generation int) *Species {
	return &Species{
		Key:          key,
		Created:      generation,
		LastImproved: generation,
		Members:      make(map[int]*Genome),
	}
}

// Update replaces the representative and member set.
func (s *Species) Update(representative *Genome, members map[int]*Genome) {
	s.Representative = representative
	s.Members = members
}

// GetFitnesses returns the fitness of every member in genome key order.
func (s *Species) GetFitnesses() []float64 {
	keys := make([]int, 0, len(s.Members))
	for key := range s.Members {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	fitnesses := make([]float64, len(keys))
	for i, key := range keys {
		fitnesses[i] = s.Members[key].Fitness
	}
	return fitnesses
}

type genomePair struct{ a, b int }

// distanceCache memoizes genome distances for one speciation pass.
type distanceCache struct {
	distances map[genomePair]float64
}

func newDistanceCache() *distanceCache {
	return &distanceCache{distances: make(map[genomePair]float64)}
}

func (dc *distanceCache) distance(g1, g2 *Genome) float64 {
	key := genomePair{g1.Key, g2.Key}
	if key.a > key.b {
		key.a, key.b = key.b, key.a
	}
	if d, ok := dc.distances[key]; ok {
		return d
	}
	d := g1.Distance(g2)
	dc.distances[key] = d
	return d
}

func (dc *distanceCache) values() []float64 {
	values := make([]float64, 0, len(dc.distances))
	for _, d := range dc.distances {
		values = append(values, d)
	}
	return values
}

// SpeciesSet partitions a population into species.
type SpeciesSet struct {
	Species         map[int]*Species
	GenomeToSpecies map[int]int
	Indexer         int // Next species key.
	Config          *SpeciesSetConfig
	Reporters       *ReporterSet
}

// NewSpeciesSet creates an empty species set.
func NewSpeciesSet(config *SpeciesSetConfig, reporters *ReporterSet) *SpeciesSet {
	return &SpeciesSet{
		Species:         make(map[int]*Species),
		GenomeToSpecies: make(map[int]int),
		Indexer:         1,
		Config:          config,
		Reporters:       reporters,
	}
}

// Speciate assigns every genome of population to a species. Each existing species first
// adopts the unassigned genome closest to its old representative; the remaining genomes
// join the closest species within compatibility_threshold or found a new one.
func (ss *SpeciesSet) Speciate(population map[int]*Genome, generation int) {
	cache := newDistanceCache()
	unspeciated := make(map[int]*Genome, len(population))
	for key, g := range population {
		unspeciated[key] = g
	}

	representatives := make(map[int]*Genome)
	members := make(map[int][]int)
	for _, sid := range sortedSpeciesKeys(ss.Species) {
		s := ss.Species[sid]
		if s.Representative == nil || len(unspeciated) == 0 {
			continue
		}
		var closest *Genome
		best := math.Inf(1)
		for _, key := range sortedGenomeKeys(unspeciated) {
			if d := cache.distance(s.Representative, unspeciated[key]); d < best {
				best, closest = d, unspeciated[key]
			}
		}
		representatives[sid] = closest
		members[sid] = []int{closest.Key}
		delete(unspeciated, closest.Key)
	}

	for _, key := range sortedGenomeKeys(unspeciated) {
		g := unspeciated[key]
		match, best := -1, math.Inf(1)
		for _, sid := range sortedSpeciesKeys(representatives) {
			d := cache.distance(representatives[sid], g)
			if d < ss.Config.CompatibilityThreshold && d < best {
				match, best = sid, d
			}
		}
		if match < 0 {
			match = ss.Indexer
			ss.Indexer++
			representatives[match] = g
		}
		members[match] = append(members[match], key)
	}

	species := make(map[int]*Species, len(representatives))
	ss.GenomeToSpecies = make(map[int]int, len(population))
	for sid, rep := range representatives {
		s, ok := ss.Species[sid]
		if !ok {
			s = NewSpecies(sid, generation)
		}
		memberMap := make(map[int]*Genome, len(members[sid]))
		for _, key := range members[sid] {
			memberMap[key] = population[key]
			ss.GenomeToSpecies[key] = sid
		}
		s.Update(rep, memberMap)
		species[sid] = s
	}
	ss.Species = species

	if distances := cache.values(); len(distances) > 0 {
		ss.Reporters.Info(fmt.Sprintf("Mean genetic distance %.3f, standard deviation %.3f",
			Mean(distances), Stdev(distances)))
	}
}

// GetSpeciesID returns the species key a genome was assigned to.
func (ss *SpeciesSet) GetSpeciesID(genomeID int) (int, bool) {
	sid, ok := ss.GenomeToSpecies[genomeID]
	return sid, ok
}

// GetSpecies returns the species a genome was assigned to.
func (ss *SpeciesSet) GetSpecies(genomeID int) (*Species, bool) {
	sid, ok := ss.GenomeToSpecies[genomeID]
	if !ok {
		return nil, false
	}
	s, ok := ss.Species[sid]
	return s, ok
}

func sortedSpeciesKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	return keys
}

func sortedGenomeKeys(m map[int]*Genome) []int {
	return sortedSpeciesKeys(m)
}
