package neat

import (
	"context"
	"errors"
	"fmt"
)

// ErrCompleteExtinction is returned when every species died out and
// reset_on_extinction is off.
var ErrCompleteExtinction = errors.New("complete extinction")

// FitnessFunc evaluates one generation. It must set the Fitness of every genome
// in genomes and should stop early once ctx is done.
type FitnessFunc func(ctx context.Context, genomes map[int]*Genome) error

// Population holds the state of the evolutionary process.
type Population struct {
	Config       *Config
	Population   map[int]*Genome
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Stagnation   *Stagnation
	Reporters    *ReporterSet
	Generation   int     // Generation evaluated by the next RunGeneration call, from 0.
	BestGenome   *Genome // Fittest genome seen in any generation.

	fitnessCriterion func([]float64) float64
}

// NewPopulation creates and speciates the initial population.
func NewPopulation(config *Config) (*Population, error) {
	criterion, ok := StatFunctions[config.Neat.FitnessCriterion]
	if !ok {
		return nil, fmt.Errorf("invalid fitness_criterion in config: %s", config.Neat.FitnessCriterion)
	}
	reporters := NewReporterSet()
	stagnation, err := NewStagnation(&config.Stagnation, reporters)
	if err != nil {
		return nil, fmt.Errorf("failed to create stagnation manager: %w", err)
	}
	reproduction := NewReproduction(&config.Reproduction, stagnation, reporters)

	p := &Population{
		Config:           config,
		Population:       reproduction.CreateNewPopulation(&config.Genome, config.Neat.PopSize),
		SpeciesSet:       NewSpeciesSet(&config.SpeciesSet, reporters),
		Reproduction:     reproduction,
		Stagnation:       stagnation,
		Reporters:        reporters,
		fitnessCriterion: criterion,
	}
	p.SpeciesSet.Speciate(p.Population, p.Generation)
	return p, nil
}

// AddReporter registers a progress reporter.
func (p *Population) AddReporter(r Reporter) {
	p.Reporters.Add(r)
}

// CurrentGeneration returns the number of the generation the next RunGeneration evaluates.
func (p *Population) CurrentGeneration() int {
	return p.Generation
}

// RunGeneration evaluates the current generation with fitnessFunc. If the
// population meets fitness_threshold under fitness_criterion, the generation's best
// genome is returned and the population is left as evaluated. Otherwise the next
// generation is bred and speciated and the returned genome is nil.
func (p *Population) RunGeneration(ctx context.Context, fitnessFunc FitnessFunc) (*Genome, error) {
	p.Reporters.StartGeneration(p.Generation)

	if err := fitnessFunc(ctx, p.Population); err != nil {
		return nil, fmt.Errorf("fitness evaluation failed in generation %d: %w", p.Generation, err)
	}

	best := p.generationBest()
	p.Reporters.PostEvaluate(p.Config, p.Population, p.SpeciesSet, best)
	if best != nil && (p.BestGenome == nil || best.Fitness > p.BestGenome.Fitness) {
		p.BestGenome = best
	}

	if !p.Config.Neat.NoFitnessTermination && best != nil {
		fitnesses := populationFitnesses(p.Population)
		if p.fitnessCriterion(fitnesses) >= p.Config.Neat.FitnessThreshold {
			p.Reporters.FoundSolution(p.Config, p.Generation, best)
			return best, nil
		}
	}

	p.Population = p.Reproduction.Reproduce(p.Config, p.SpeciesSet, p.Config.Neat.PopSize, p.Generation)
	if len(p.SpeciesSet.Species) == 0 {
		p.Reporters.CompleteExtinction()
		if !p.Config.Neat.ResetOnExtinction {
			return nil, fmt.Errorf("generation %d: %w", p.Generation, ErrCompleteExtinction)
		}
		p.Population = p.Reproduction.CreateNewPopulation(&p.Config.Genome, p.Config.Neat.PopSize)
	}

	p.SpeciesSet.Speciate(p.Population, p.Generation)
	p.Reporters.EndGeneration(p.Config, p.Population, p.SpeciesSet)
	p.Generation++
	return nil, nil
}

// Run calls RunGeneration until a solution is found, n generations have run (n <= 0
// means no limit) or an error occurs. It returns the fittest genome seen.
func (p *Population) Run(ctx context.Context, fitnessFunc FitnessFunc, n int) (*Genome, error) {
	for k := 0; n <= 0 || k < n; k++ {
		winner, err := p.RunGeneration(ctx, fitnessFunc)
		if err != nil {
			return p.BestGenome, err
		}
		if winner != nil {
			return winner, nil
		}
	}
	if p.Config.Neat.NoFitnessTermination && p.BestGenome != nil {
		p.Reporters.FoundSolution(p.Config, p.Generation, p.BestGenome)
	}
	return p.BestGenome, nil
}

// generationBest returns the fittest genome of the current population; ties go to
// the lowest key.
func (p *Population) generationBest() *Genome {
	var best *Genome
	for _, key := range sortedGenomeKeys(p.Population) {
		if g := p.Population[key]; best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	return best
}
