// Command flappy evolves NEAT controllers that fly agents through an obstacle course.
//
// Every generation plays one round with the whole population; the run stops when a
// genome meets the fitness threshold, the round budget is spent, or the user quits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/baldhumanity/flappy-neat/course"
	"github.com/baldhumanity/flappy-neat/evolve"
	"github.com/baldhumanity/flappy-neat/neat"
	"github.com/baldhumanity/flappy-neat/present/audio"
	"github.com/baldhumanity/flappy-neat/present/terminal"
	"github.com/baldhumanity/flappy-neat/stats"
)

func main() {
	configPath := flag.String("config", "./configs/flappy-config", "path to the INI configuration")
	headless := flag.Bool("headless", false, "run without display, audio or realtime pacing")
	rounds := flag.Int("rounds", 0, "override [Run] max_rounds")
	statsPath := flag.String("stats", "", "override [Run] stats_path (SQLite file)")
	reportPath := flag.String("report", "", "file receiving the generation report while the display is active")
	flag.Parse()

	if err := run(*configPath, *headless, *rounds, *statsPath, *reportPath); err != nil {
		log.Fatalf("flappy: %v", err)
	}
}

func run(configPath string, headless bool, rounds int, statsPath, reportPath string) error {
	neatConfig, err := neat.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load NEAT configuration: %w", err)
	}
	courseConfig, err := course.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load course configuration: %w", err)
	}
	runConfig, err := evolve.LoadRunConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load run configuration: %w", err)
	}
	if rounds > 0 {
		runConfig.MaxRounds = rounds
	}
	if statsPath != "" {
		runConfig.StatsPath = statsPath
	}
	if headless {
		runConfig.Display = false
		runConfig.Audio = false
		courseConfig.Realtime = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := stats.Open(ctx, runConfig.StatsPath)
	if err != nil {
		return fmt.Errorf("failed to open statistics store: %w", err)
	}
	defer store.Close()

	trainer, statistics, winner, runErr := train(ctx, stop, neatConfig, courseConfig, runConfig, store, reportPath)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	summarize(ctx, os.Stdout, trainer, store, statistics, winner, runErr != nil)
	return nil
}

// train runs the evolution with the configured presenters. Presenters are
// closed when it returns, so the terminal is restored before the summary.
func train(ctx context.Context, stop context.CancelFunc, neatConfig *neat.Config, courseConfig *course.Config,
	runConfig *evolve.RunConfig, store stats.Store, reportPath string) (*evolve.Trainer, *neat.StatisticsReporter, *neat.Genome, error) {
	var presenters course.Presenters
	report := io.Writer(os.Stdout)
	if runConfig.Audio {
		player, err := audio.Open()
		if err != nil {
			log.Printf("WARN: audio disabled: %v", err)
		} else {
			defer player.Close()
			presenters = append(presenters, player)
		}
	}
	if runConfig.Display {
		screen, err := terminal.Open()
		if err != nil {
			return nil, nil, nil, err
		}
		defer screen.Close()
		screen.Watch(stop)
		presenters = append(presenters, screen)

		// The screen owns stdout until it is closed.
		report = io.Discard
		if reportPath != "" {
			f, err := os.Create(reportPath)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("failed to create report file: %w", err)
			}
			defer f.Close()
			report = f
		}
	}

	pop, err := neat.NewPopulation(neatConfig)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create population: %w", err)
	}
	statistics := neat.NewStatisticsReporter()
	pop.AddReporter(neat.NewStdOutReporter(report, runConfig.ShowSpeciesDetail))
	pop.AddReporter(statistics)

	seed := runConfig.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	trainer := &evolve.Trainer{
		Provider:  pop,
		Course:    courseConfig,
		MaxRounds: runConfig.MaxRounds,
		Session:   course.NewSession(),
		Store:     store,
		RunID:     stats.NewRunID(),
		Rand:      rand.New(rand.NewSource(seed)),
	}
	if len(presenters) > 0 {
		trainer.Presenter = presenters
	}

	winner, err := trainer.Run(ctx)
	return trainer, statistics, winner, err
}

func summarize(ctx context.Context, w io.Writer, trainer *evolve.Trainer, store stats.Store, statistics *neat.StatisticsReporter, winner *neat.Genome, cancelled bool) {
	fmt.Fprintln(w, "\n--- Training Complete ---")
	switch {
	case cancelled:
		fmt.Fprintln(w, "Stopped by user.")
	case winner != nil:
		fmt.Fprintf(w, "Fitness threshold met by genome %d (fitness %.3f).\n", winner.Key, winner.Fitness)
	default:
		fmt.Fprintf(w, "Reached maximum rounds (%d).\n", trainer.MaxRounds)
	}

	records, err := store.Rounds(context.WithoutCancel(ctx), trainer.RunID)
	if err != nil {
		log.Printf("WARN: failed to read round statistics: %v", err)
	}
	var ticks int64
	for _, r := range records {
		ticks += int64(r.Ticks)
	}
	fmt.Fprintf(w, "Run %s: %s rounds, %s ticks, high score %s\n", trainer.RunID,
		humanize.Comma(int64(len(records))), humanize.Comma(ticks),
		humanize.Comma(int64(trainer.Session.HighScore())))

	if best := statistics.BestGenome(); best != nil {
		nodes, conns := best.Size()
		fmt.Fprintf(w, "Best genome %d: fitness %.3f, %d nodes, %d enabled connections\n",
			best.Key, best.Fitness, nodes, conns)
	}
}
