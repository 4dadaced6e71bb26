package neat

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSpawnAmounts(t *testing.T) {
	spawns := computeSpawnAmounts([]float64{1, 0}, []int{10, 10}, 20, 2)
	assert.Equal(t, []int{14, 6}, spawns)

	// Without adjusted fitness every species drifts towards the minimum size.
	spawns = computeSpawnAmounts([]float64{0, 0}, []int{4, 4}, 8, 2)
	assert.Equal(t, []int{4, 4}, spawns)
}

func speciesWithFitness(key int, fitnesses ...float64) *Species {
	s := NewSpecies(key, 0)
	for i, f := range fitnesses {
		gk := key*100 + i
		s.Members[gk] = &Genome{Key: gk, Fitness: f}
	}
	return s
}

func TestStagnationUpdate(t *testing.T) {
	set := NewSpeciesSet(&SpeciesSetConfig{}, nil)
	for i := 1; i <= 3; i++ {
		s := speciesWithFitness(i, float64(i), float64(i))
		s.FitnessHistory = []float64{100}
		set.Species[i] = s
	}
	stagnation, err := NewStagnation(&StagnationConfig{SpeciesFitnessFunc: "max", MaxStagnation: 2, SpeciesElitism: 1}, nil)
	require.NoError(t, err)

	result := stagnation.Update(set, 5)

	require.Len(t, result, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{result[0].SpeciesID, result[1].SpeciesID, result[2].SpeciesID}, "ascending fitness")
	assert.True(t, result[0].IsStagnant)
	assert.True(t, result[1].IsStagnant)
	assert.False(t, result[2].IsStagnant, "the best species is protected by species_elitism")
	assert.Equal(t, 3.0, set.Species[3].Fitness)
	assert.Equal(t, []float64{100, 3}, set.Species[3].FitnessHistory)
}

func TestStagnationRecordsImprovement(t *testing.T) {
	set := NewSpeciesSet(&SpeciesSetConfig{}, nil)
	set.Species[1] = speciesWithFitness(1, 1, 5)
	stagnation, err := NewStagnation(&StagnationConfig{SpeciesFitnessFunc: "mean", MaxStagnation: 1}, nil)
	require.NoError(t, err)

	result := stagnation.Update(set, 4)
	assert.Equal(t, 4, set.Species[1].LastImproved)
	assert.Equal(t, 3.0, set.Species[1].Fitness)
	assert.False(t, result[0].IsStagnant)
}

func TestNewStagnationRejectsUnknownFunction(t *testing.T) {
	_, err := NewStagnation(&StagnationConfig{SpeciesFitnessFunc: "mode"}, nil)
	assert.Error(t, err)
}

func TestSpeciateGroupsByDistance(t *testing.T) {
	config := loadTestConfig(t, nil)
	base := NewGenome(1, &config.Genome)
	base.ConfigureNew()
	twin := base.Copy()
	twin.Key = 2
	stranger := base.Copy()
	stranger.Key = 3
	for _, c := range stranger.Connections {
		c.Weight += 20
	}

	set := NewSpeciesSet(&config.SpeciesSet, nil)
	population := map[int]*Genome{1: base, 2: twin, 3: stranger}
	set.Speciate(population, 0)

	require.Len(t, set.Species, 2)
	assert.Equal(t, set.GenomeToSpecies[1], set.GenomeToSpecies[2])
	assert.NotEqual(t, set.GenomeToSpecies[1], set.GenomeToSpecies[3])
	s, ok := set.GetSpecies(3)
	require.True(t, ok)
	assert.Len(t, s.Members, 1)

	// The next generation keeps the species keys.
	keys := map[int]int{1: set.GenomeToSpecies[1], 3: set.GenomeToSpecies[3]}
	set.Speciate(population, 1)
	assert.Equal(t, keys[1], set.GenomeToSpecies[1])
	assert.Equal(t, keys[3], set.GenomeToSpecies[3])
	assert.Equal(t, 3, set.Indexer)
}

type eventLog struct {
	BaseReporter
	events []string
}

func (l *eventLog) StartGeneration(int) { l.events = append(l.events, "start") }
func (l *eventLog) PostEvaluate(*Config, map[int]*Genome, *SpeciesSet, *Genome) {
	l.events = append(l.events, "evaluate")
}
func (l *eventLog) EndGeneration(*Config, map[int]*Genome, *SpeciesSet) {
	l.events = append(l.events, "end")
}
func (l *eventLog) FoundSolution(*Config, int, *Genome) { l.events = append(l.events, "solution") }
func (l *eventLog) CompleteExtinction()                 { l.events = append(l.events, "extinction") }

// constantFitness gives every genome f, except for genome key 1 which gets best.
func constantFitness(f, best float64) FitnessFunc {
	return func(_ context.Context, genomes map[int]*Genome) error {
		for key, g := range genomes {
			g.Fitness = f
			if key == 1 {
				g.Fitness = best
			}
		}
		return nil
	}
}

func TestPopulationStopsOnFitnessThreshold(t *testing.T) {
	config := loadTestConfig(t, func(c *Config) { c.Neat.FitnessThreshold = 5 })
	p, err := NewPopulation(config)
	require.NoError(t, err)
	require.Len(t, p.Population, 20)
	assert.NotEmpty(t, p.SpeciesSet.Species, "initial population is speciated")

	log := &eventLog{}
	p.AddReporter(log)
	winner, err := p.RunGeneration(context.Background(), constantFitness(0, 10))
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, 1, winner.Key)
	assert.Same(t, winner, p.BestGenome)
	assert.Equal(t, 0, p.CurrentGeneration())
	assert.Equal(t, []string{"start", "evaluate", "solution"}, log.events)
}

func TestPopulationFitnessCriterion(t *testing.T) {
	config := loadTestConfig(t, func(c *Config) {
		c.Neat.FitnessThreshold = 5
		c.Neat.FitnessCriterion = "mean"
	})
	p, err := NewPopulation(config)
	require.NoError(t, err)

	winner, err := p.RunGeneration(context.Background(), constantFitness(0, 10))
	require.NoError(t, err)
	assert.Nil(t, winner, "mean fitness 0.5 is below the threshold")
	assert.Equal(t, 1, p.CurrentGeneration())
	assert.Equal(t, 10.0, p.BestGenome.Fitness)
}

func TestPopulationBreedsNextGeneration(t *testing.T) {
	config := loadTestConfig(t, nil)
	p, err := NewPopulation(config)
	require.NoError(t, err)
	log := &eventLog{}
	p.AddReporter(log)

	best, err := p.Run(context.Background(), constantFitness(1, 2), 3)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 2.0, best.Fitness)
	assert.Equal(t, 3, p.CurrentGeneration())
	assert.NotEmpty(t, p.Population)
	for key, g := range p.Population {
		assert.Equal(t, key, g.Key)
		_, ok := p.SpeciesSet.GetSpeciesID(key)
		assert.True(t, ok, "genome %d is speciated", key)
	}
	assert.Equal(t, []string{
		"start", "evaluate", "end",
		"start", "evaluate", "end",
		"start", "evaluate", "end",
	}, log.events)
}

func TestPopulationFitnessError(t *testing.T) {
	p, err := NewPopulation(loadTestConfig(t, nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.RunGeneration(ctx, func(ctx context.Context, _ map[int]*Genome) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, p.CurrentGeneration())
}

func TestPopulationCompleteExtinction(t *testing.T) {
	config := loadTestConfig(t, func(c *Config) {
		c.Stagnation.MaxStagnation = 1
		c.Stagnation.SpeciesElitism = 0
	})
	p, err := NewPopulation(config)
	require.NoError(t, err)
	for _, s := range p.SpeciesSet.Species {
		s.FitnessHistory = []float64{100}
		s.LastImproved = -5
	}

	_, err = p.RunGeneration(context.Background(), constantFitness(0, 0))
	assert.True(t, errors.Is(err, ErrCompleteExtinction))

	config.Neat.ResetOnExtinction = true
	p, err = NewPopulation(config)
	require.NoError(t, err)
	for _, s := range p.SpeciesSet.Species {
		s.FitnessHistory = []float64{100}
		s.LastImproved = -5
	}
	log := &eventLog{}
	p.AddReporter(log)
	_, err = p.RunGeneration(context.Background(), constantFitness(0, 0))
	require.NoError(t, err)
	assert.Len(t, p.Population, 20)
	assert.Contains(t, log.events, "extinction")
}

func TestStdOutReporter(t *testing.T) {
	config := loadTestConfig(t, nil)
	p, err := NewPopulation(config)
	require.NoError(t, err)
	var out bytes.Buffer
	p.AddReporter(NewStdOutReporter(&out, true))

	_, err = p.RunGeneration(context.Background(), constantFitness(1, 2))
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "****** Running generation 0 ******")
	assert.Contains(t, text, "Population's average fitness: 1.05000")
	assert.Contains(t, text, "Best fitness: 2.00000")
	assert.Contains(t, text, "Mean genetic distance")
	assert.Contains(t, text, "Population of ")
	assert.Contains(t, text, "   ID   age  size   fitness   adj fit  stag")
	assert.Contains(t, text, "Total extinctions: 0")
}

func TestStatisticsReporter(t *testing.T) {
	p, err := NewPopulation(loadTestConfig(t, nil))
	require.NoError(t, err)
	stats := NewStatisticsReporter()
	p.AddReporter(stats)

	for i := 0; i < 2; i++ {
		fitness := float64(i + 1)
		_, err := p.RunGeneration(context.Background(), constantFitness(fitness, fitness*10))
		require.NoError(t, err)
	}

	require.Len(t, stats.Generations, 2)
	assert.Equal(t, 0, stats.Generations[0].Generation)
	assert.Equal(t, 1, stats.Generations[1].Generation)
	assert.Equal(t, 10.0, stats.Generations[0].Best)
	assert.InDelta(t, 1.45, stats.FitnessMean()[0], 1e-9)
	assert.Len(t, stats.FitnessStdev(), 2)

	sizes := 0
	for _, n := range stats.Generations[0].SpeciesSizes {
		sizes += n
	}
	assert.Equal(t, 20, sizes)

	best := stats.BestGenome()
	require.NotNil(t, best)
	assert.Equal(t, 20.0, best.Fitness)
	assert.Len(t, stats.BestGenomes(5), 2)
}

func TestReporterSetRemove(t *testing.T) {
	rs := NewReporterSet()
	a, b := &eventLog{}, &eventLog{}
	rs.Add(a)
	rs.Add(b)
	rs.Remove(a)
	rs.StartGeneration(0)
	assert.Empty(t, a.events)
	assert.Equal(t, []string{"start"}, b.events)

	var none *ReporterSet
	assert.NotPanics(t, func() { none.Info("dropped") })
}
