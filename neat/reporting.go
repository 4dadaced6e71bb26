package neat

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
)

// Reporter receives progress notifications from a Population.
type Reporter interface {
	StartGeneration(generation int)
	EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet)
	PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome)
	CompleteExtinction()
	FoundSolution(config *Config, generation int, best *Genome)
	SpeciesStagnant(speciesID int, species *Species)
	Info(msg string)
}

// BaseReporter implements every Reporter method as a no-op, for embedding.
type BaseReporter struct{}

func (BaseReporter) StartGeneration(int)                                         {}
func (BaseReporter) EndGeneration(*Config, map[int]*Genome, *SpeciesSet)         {}
func (BaseReporter) PostEvaluate(*Config, map[int]*Genome, *SpeciesSet, *Genome) {}
func (BaseReporter) CompleteExtinction()                                         {}
func (BaseReporter) FoundSolution(*Config, int, *Genome)                         {}
func (BaseReporter) SpeciesStagnant(int, *Species)                               {}
func (BaseReporter) Info(string)                                                 {}

// ReporterSet fans notifications out to its reporters in registration order.
// A nil *ReporterSet drops every notification.
type ReporterSet struct {
	reporters []Reporter
}

// NewReporterSet creates an empty reporter set.
func NewReporterSet() *ReporterSet {
	return &ReporterSet{}
}

// Add registers a reporter.
func (rs *ReporterSet) Add(r Reporter) {
	rs.reporters = append(rs.reporters, r)
}

// Remove unregisters a reporter.
func (rs *ReporterSet) Remove(r Reporter) {
	for i, existing := range rs.reporters {
		if existing == r {
			rs.reporters = append(rs.reporters[:i], rs.reporters[i+1:]...)
			return
		}
	}
}

func (rs *ReporterSet) each(fn func(Reporter)) {
	if rs == nil {
		return
	}
	for _, r := range rs.reporters {
		fn(r)
	}
}

func (rs *ReporterSet) StartGeneration(generation int) {
	rs.each(func(r Reporter) { r.StartGeneration(generation) })
}

func (rs *ReporterSet) EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet) {
	rs.each(func(r Reporter) { r.EndGeneration(config, population, species) })
}

func (rs *ReporterSet) PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	rs.each(func(r Reporter) { r.PostEvaluate(config, population, species, best) })
}

func (rs *ReporterSet) CompleteExtinction() {
	rs.each(func(r Reporter) { r.CompleteExtinction() })
}

func (rs *ReporterSet) FoundSolution(config *Config, generation int, best *Genome) {
	rs.each(func(r Reporter) { r.FoundSolution(config, generation, best) })
}

func (rs *ReporterSet) SpeciesStagnant(speciesID int, species *Species) {
	rs.each(func(r Reporter) { r.SpeciesStagnant(speciesID, species) })
}

func (rs *ReporterSet) Info(msg string) {
	rs.each(func(r Reporter) { r.Info(msg) })
}

// StdOutReporter prints a human-readable progress log.
type StdOutReporter struct {
	w                 io.Writer
	showSpeciesDetail bool
	generation        int
	generationStart   time.Time
	generationTimes   []time.Duration
	numExtinctions    int
}

// NewStdOutReporter creates a reporter writing to w. With showSpeciesDetail set, every
// generation ends with a per-species table.
func NewStdOutReporter(w io.Writer, showSpeciesDetail bool) *StdOutReporter {
	return &StdOutReporter{w: w, showSpeciesDetail: showSpeciesDetail}
}

func (r *StdOutReporter) StartGeneration(generation int) {
	r.generation = generation
	fmt.Fprintf(r.w, "\n ****** Running generation %d ****** \n\n", generation)
	r.generationStart = time.Now()
}

func (r *StdOutReporter) EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet) {
	fmt.Fprintf(r.w, "Population of %s members in %s species",
		humanize.Comma(int64(len(population))), humanize.Comma(int64(len(species.Species))))
	if r.showSpeciesDetail {
		fmt.Fprintln(r.w, ":")
		fmt.Fprintln(r.w, "   ID   age  size   fitness   adj fit  stag")
		fmt.Fprintln(r.w, "  ====  ===  ====  ========  =======  ====")
		for _, sid := range sortedSpeciesKeys(species.Species) {
			s := species.Species[sid]
			fmt.Fprintf(r.w, "  %4d  %3d  %4d  %8.3f  %7.3f  %4d\n",
				sid, r.generation-s.Created, len(s.Members), s.Fitness, s.AdjustedFitness, r.generation-s.LastImproved)
		}
	} else {
		fmt.Fprintln(r.w)
	}

	elapsed := time.Since(r.generationStart)
	r.generationTimes = append(r.generationTimes, elapsed)
	if len(r.generationTimes) > 10 {
		r.generationTimes = r.generationTimes[1:]
	}
	var total time.Duration
	for _, d := range r.generationTimes {
		total += d
	}
	average := total / time.Duration(len(r.generationTimes))
	fmt.Fprintf(r.w, "Total extinctions: %s\n", humanize.Comma(int64(r.numExtinctions)))
	if len(r.generationTimes) > 1 {
		fmt.Fprintf(r.w, "Generation time: %.3f sec (%.3f average)\n", elapsed.Seconds(), average.Seconds())
	} else {
		fmt.Fprintf(r.w, "Generation time: %.3f sec\n", elapsed.Seconds())
	}
}

func (r *StdOutReporter) PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	fitnesses := populationFitnesses(population)
	fmt.Fprintf(r.w, "Population's average fitness: %3.5f stdev: %3.5f\n", Mean(fitnesses), Stdev(fitnesses))
	if best == nil {
		return
	}
	nodes, conns := best.Size()
	sid, _ := species.GetSpeciesID(best.Key)
	fmt.Fprintf(r.w, "Best fitness: %3.5f - size: (%d, %d) - species %d - id %d\n", best.Fitness, nodes, conns, sid, best.Key)
}

func (r *StdOutReporter) CompleteExtinction() {
	r.numExtinctions++
	fmt.Fprintln(r.w, "All species extinct.")
}

func (r *StdOutReporter) FoundSolution(config *Config, generation int, best *Genome) {
	nodes, conns := best.Size()
	fmt.Fprintf(r.w, "\nBest individual in generation %d meets fitness threshold - complexity: (%d, %d)\n",
		generation, nodes, conns)
}

func (r *StdOutReporter) SpeciesStagnant(speciesID int, species *Species) {
	if r.showSpeciesDetail {
		fmt.Fprintf(r.w, "\nSpecies %d with %s members is stagnated: removing it\n",
			speciesID, humanize.Comma(int64(len(species.Members))))
	}
}

func (r *StdOutReporter) Info(msg string) {
	fmt.Fprintln(r.w, msg)
}

// GenerationStats summarizes the evaluated population of one generation.
type GenerationStats struct {
	Generation   int
	Best         float64
	Mean         float64
	Stdev        float64
	SpeciesSizes map[int]int
}

// StatisticsReporter keeps per-generation fitness statistics and a copy of every
// generation's best genome in memory.
type StatisticsReporter struct {
	BaseReporter
	MostFitGenomes []*Genome
	Generations    []GenerationStats

	generation int
}

// NewStatisticsReporter creates an empty statistics reporter.
func NewStatisticsReporter() *StatisticsReporter {
	return &StatisticsReporter{}
}

func (r *StatisticsReporter) StartGeneration(generation int) {
	r.generation = generation
}

func (r *StatisticsReporter) PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	if best != nil {
		r.MostFitGenomes = append(r.MostFitGenomes, best.Copy())
	}
	fitnesses := populationFitnesses(population)
	stats := GenerationStats{
		Generation:   r.generation,
		Best:         MaxFloat(fitnesses),
		Mean:         Mean(fitnesses),
		Stdev:        Stdev(fitnesses),
		SpeciesSizes: make(map[int]int),
	}
	for key := range population {
		if sid, ok := species.GetSpeciesID(key); ok {
			stats.SpeciesSizes[sid]++
		}
	}
	r.Generations = append(r.Generations, stats)
}

// BestGenome returns the fittest genome seen so far, or nil.
func (r *StatisticsReporter) BestGenome() *Genome {
	best := r.BestGenomes(1)
	if len(best) == 0 {
		return nil
	}
	return best[0]
}

// BestGenomes returns up to n of the recorded per-generation best genomes, fittest first.
func (r *StatisticsReporter) BestGenomes(n int) []*Genome {
	sorted := append([]*Genome(nil), r.MostFitGenomes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Fitness > sorted[j].Fitness })
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// FitnessMean returns the mean fitness of every recorded generation.
func (r *StatisticsReporter) FitnessMean() []float64 {
	out := make([]float64, len(r.Generations))
	for i, g := range r.Generations {
		out[i] = g.Mean
	}
	return out
}

// FitnessStdev returns the fitness standard deviation of every recorded generation.
func (r *StatisticsReporter) FitnessStdev() []float64 {
	out := make([]float64, len(r.Generations))
	for i, g := range r.Generations {
		out[i] = g.Stdev
	}
	return out
}

func populationFitnesses(population map[int]*Genome) []float64 {
	fitnesses := make([]float64, 0, len(population))
	for _, key := range sortedGenomeKeys(population) {
		fitnesses = append(fitnesses, population[key].Fitness)
	}
	return fitnesses
}
