// Package evolve drives course rounds with a NEAT population: every generation the
// population is evaluated on a fresh course, for at most a fixed number of rounds.
package evolve

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/baldhumanity/flappy-neat/course"
	"github.com/baldhumanity/flappy-neat/neat"
	"github.com/baldhumanity/flappy-neat/neat/nn"
	"github.com/baldhumanity/flappy-neat/stats"
)

// PopulationProvider hands out one generation at a time. *neat.Population implements it.
type PopulationProvider interface {
	// RunGeneration evaluates the current generation with fn. A non-nil genome means
	// the population met its fitness criterion and evolution should stop.
	RunGeneration(ctx context.Context, fn neat.FitnessFunc) (*neat.Genome, error)
	CurrentGeneration() int
}

// BuildNetwork is the default controller builder: a feed-forward network of the genome.
func BuildNetwork(g *neat.Genome) (course.Controller, error) {
	net, err := nn.CreateFeedForwardNetwork(g)
	if err != nil {
		return nil, err
	}
	return net, nil
}

// Trainer runs up to MaxRounds generations of Provider through course rounds.
type Trainer struct {
	Provider  PopulationProvider
	Course    *course.Config
	MaxRounds int

	// Optional collaborators.
	Build     course.Builder[*neat.Genome] // Defaults to BuildNetwork.
	Session   *course.Session
	Presenter course.Presenter
	Store     stats.Store
	RunID     string
	Rand      *rand.Rand
}

// Run evaluates generations until the provider reports a winner, MaxRounds rounds have
// run, or an error occurs. It returns the winner, or nil when the round budget ran out.
// Cancellation surfaces as an error wrapping ctx.Err().
func (t *Trainer) Run(ctx context.Context) (*neat.Genome, error) {
	if t.MaxRounds <= 0 {
		return nil, fmt.Errorf("max rounds must be positive, got %d", t.MaxRounds)
	}
	if t.Session == nil {
		t.Session = course.NewSession()
	}
	if t.Rand == nil {
		t.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if t.Build == nil {
		t.Build = BuildNetwork
	}
	if t.RunID == "" {
		t.RunID = stats.NewRunID()
	}

	for i := 0; i < t.MaxRounds; i++ {
		winner, err := t.Provider.RunGeneration(ctx, t.Evaluate)
		if err != nil {
			return nil, err
		}
		if winner != nil {
			return winner, nil
		}
	}
	return nil, nil
}

// Evaluate is a neat.FitnessFunc: it plays one round with every genome as a member,
// ordered by genome key, and leaves the shaped fitness in each genome.
func (t *Trainer) Evaluate(ctx context.Context, genomes map[int]*neat.Genome) error {
	keys := make([]int, 0, len(genomes))
	for key := range genomes {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	members := make([]course.Member[*neat.Genome], len(keys))
	for i, key := range keys {
		g := genomes[key]
		members[i] = course.Member[*neat.Genome]{ID: key, Fitness: &g.Fitness, Genome: g}
	}

	opts := []course.Option{course.WithSession(t.Session), course.WithRand(t.Rand)}
	if t.Presenter != nil {
		opts = append(opts, course.WithPresenter(t.Presenter))
	}
	round, err := course.NewRound(t.Course, members, t.Build, opts...)
	if err != nil {
		return err
	}

	start := time.Now()
	runErr := round.Run(ctx)
	if err := t.record(ctx, round, members, time.Since(start), runErr); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// record stores the round summary. It still runs when ctx is cancelled.
func (t *Trainer) record(ctx context.Context, round *course.Round, members []course.Member[*neat.Genome], elapsed time.Duration, runErr error) error {
	if t.Store == nil {
		return nil
	}
	fitnesses := make([]float64, len(members))
	for i, m := range members {
		fitnesses[i] = *m.Fitness
	}
	record := stats.RoundRecord{
		RunID:      t.RunID,
		Round:      round.Number(),
		Generation: t.Provider.CurrentGeneration(),
		Members:    len(members),
		Score:      round.Score(),
		Ticks:      round.Tick(),
		HighScore:  t.Session.HighScore(),
		Duration:   elapsed,
		Cancelled:  runErr != nil && ctx.Err() != nil,
	}
	if len(fitnesses) > 0 {
		record.BestFitness = neat.MaxFloat(fitnesses)
		record.MeanFitness = neat.Mean(fitnesses)
	}
	if err := t.Store.SaveRound(context.WithoutCancel(ctx), record); err != nil {
		return fmt.Errorf("record round %d: %w", record.Round, err)
	}
	return nil
}
