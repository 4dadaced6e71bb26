package course

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constant returns a controller that always answers out.
func constant(out float64) Controller {
	return ControllerFunc(func([]float64) ([]float64, error) {
		return []float64{out}, nil
	})
}

// hover jumps whenever the agent sinks below y.
func hover(y float64) Controller {
	return ControllerFunc(func(in []float64) ([]float64, error) {
		if in[0] > y {
			return []float64{1}, nil
		}
		return []float64{0}, nil
	})
}

func identity(c Controller) (Controller, error) { return c, nil }

type recorder struct {
	snapshots []Snapshot
}

func (r *recorder) Present(s Snapshot) { r.snapshots = append(r.snapshots, s) }

func newMembers(controllers ...Controller) ([]Member[Controller], []float64) {
	fitness := make([]float64, len(controllers))
	members := make([]Member[Controller], len(controllers))
	for i, c := range controllers {
		fitness[i] = 123 // stale value from a previous round
		members[i] = Member[Controller]{ID: i + 1, Fitness: &fitness[i], Genome: c}
	}
	return members, fitness
}

// openCourseConfig returns a course whose single gap spans almost the whole
// screen, with the first obstacle passed on tick 10.
func openCourseConfig() *Config {
	config := DefaultConfig()
	config.GapTopMin = 100
	config.GapTopMax = 101
	config.GapHeight = 600
	config.InitialObstacleX = 295
	return config
}

func TestRoundSingleAgentFallsToFloor(t *testing.T) {
	config := DefaultConfig()
	members, fitness := newMembers(constant(0))

	round, err := NewRound(config, members, identity, WithRand(rand.New(rand.NewSource(11))))
	require.NoError(t, err)
	require.Equal(t, Running, round.State())
	assert.Equal(t, 0.0, fitness[0], "fitness is reset at round start")

	require.NoError(t, round.Run(context.Background()))

	assert.Equal(t, Concluded, round.State())
	assert.Equal(t, -5.0, fitness[0])
	assert.Equal(t, 0, round.Score())
	assert.Equal(t, 28, round.Tick())
	assert.Empty(t, round.Alive())
}

func TestRoundCeilingDeath(t *testing.T) {
	config := DefaultConfig()
	members, fitness := newMembers(constant(1))

	round, err := NewRound(config, members, identity)
	require.NoError(t, err)
	require.NoError(t, round.Run(context.Background()))

	// 351 after the first tick, then 9.5 higher every tick until y < -20.
	assert.Equal(t, 41, round.Tick())
	assert.Equal(t, -5.0, fitness[0])
	assert.Equal(t, Concluded, round.State())
}

func TestRoundPassRewardGoesToSurvivorsOnly(t *testing.T) {
	tests := []struct {
		name     string
		ceilingY float64
		deathAt  int
	}{
		{"death before the pass tick", 320, 5},
		{"death during the pass tick", 270, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := openCourseConfig()
			config.CeilingY = tt.ceilingY
			rec := &recorder{}
			members, fitness := newMembers(constant(1), hover(400), hover(400))

			round, err := NewRound(config, members, identity, WithPresenter(rec))
			require.NoError(t, err)

			ctx := context.Background()
			for tick := 1; tick <= 10; tick++ {
				require.NoError(t, round.Step(ctx))
				if tick == tt.deathAt {
					assert.Len(t, round.Alive(), 2, "tick %d", tick)
					assert.Equal(t, -5.0, fitness[0])
				}
				if tick < 10 {
					assert.Equal(t, 0, round.Score(), "tick %d", tick)
				}
			}

			assert.Equal(t, 1, round.Score())
			assert.Equal(t, -5.0, fitness[0])
			assert.Equal(t, 5.0, fitness[1])
			assert.Equal(t, 5.0, fitness[2])

			last := rec.snapshots[len(rec.snapshots)-1]
			assert.True(t, last.Events.Passed)
			assert.Equal(t, 2, last.Alive)
			assert.Equal(t, 1, last.HighScore)

			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err = round.Step(cctx)
			assert.ErrorIs(t, err, context.Canceled)
			assert.Equal(t, Concluded, round.State())
			assert.Equal(t, -5.0, fitness[0], "no further penalty for a removed agent")
			assert.Equal(t, 5.0, fitness[1])
		})
	}
}

func TestRoundAppendsObstacleOnPass(t *testing.T) {
	config := openCourseConfig()
	members, _ := newMembers(hover(400))

	round, err := NewRound(config, members, identity)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, round.Step(context.Background()))
	}

	obstacles := round.Course().Obstacles()
	require.Len(t, obstacles, 2)
	assert.True(t, obstacles[0].Passed)
	assert.Equal(t, 600.0, obstacles[1].X)
}

func TestRoundEmptyPopulationConcludesImmediately(t *testing.T) {
	rec := &recorder{}
	round, err := NewRound[Controller](DefaultConfig(), nil, identity, WithPresenter(rec))
	require.NoError(t, err)

	assert.Equal(t, Concluded, round.State())
	require.NoError(t, round.Run(context.Background()))
	assert.Equal(t, 0, round.Tick())
	require.Len(t, rec.snapshots, 1)
	assert.True(t, rec.snapshots[0].Events.NewRound)
}

func TestRoundCancelledBeforeFirstTick(t *testing.T) {
	members, fitness := newMembers(constant(0), constant(0))
	round, err := NewRound(DefaultConfig(), members, identity)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = round.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Concluded, round.State())
	assert.Equal(t, 0, round.Tick())
	assert.Equal(t, []float64{0, 0}, fitness)
	assert.Len(t, round.Alive(), 2, "cancellation does not kill agents")
}

func TestRoundControllerContractViolation(t *testing.T) {
	tests := []struct {
		name       string
		controller Controller
		sentinel   bool
	}{
		{"nan", constant(math.NaN()), true},
		{"inf", constant(math.Inf(1)), true},
		{"empty", ControllerFunc(func([]float64) ([]float64, error) { return nil, nil }), true},
		{"error", ControllerFunc(func([]float64) ([]float64, error) { return nil, errors.New("boom") }), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members, _ := newMembers(tt.controller)
			round, err := NewRound(DefaultConfig(), members, identity)
			require.NoError(t, err)

			err = round.Run(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.sentinel, errors.Is(err, ErrControllerOutput))
			assert.Equal(t, Concluded, round.State())
			assert.Equal(t, 1, round.Tick())
		})
	}
}

func TestRoundBuilderFailure(t *testing.T) {
	members, _ := newMembers(constant(0))
	build := func(Controller) (Controller, error) { return nil, errors.New("no network") }

	_, err := NewRound(DefaultConfig(), members, build)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "member 1")
}

func TestRoundObservation(t *testing.T) {
	config := openCourseConfig()
	var seen []float64
	probe := ControllerFunc(func(in []float64) ([]float64, error) {
		seen = append([]float64(nil), in...)
		return []float64{0}, nil
	})
	members, _ := newMembers(probe)

	round, err := NewRound(config, members, identity)
	require.NoError(t, err)
	require.NoError(t, round.Step(context.Background()))

	assert.Equal(t, []float64{351, 251, 349}, seen)
}

func TestRoundLiveCountNeverIncreases(t *testing.T) {
	config := DefaultConfig()
	controllers := []Controller{constant(0), constant(1), hover(300), hover(450), hover(600)}
	members, _ := newMembers(controllers...)

	round, err := NewRound(config, members, identity, WithRand(rand.New(rand.NewSource(5))))
	require.NoError(t, err)

	ctx := context.Background()
	previous := len(round.Alive())
	for i := 0; i < 5000 && round.State() == Running; i++ {
		require.NoError(t, round.Step(ctx))
		require.LessOrEqual(t, len(round.Alive()), previous)
		previous = len(round.Alive())
	}
}

func TestRoundSessionAcrossRounds(t *testing.T) {
	session := NewSession()
	config := openCourseConfig()

	for want := 1; want <= 3; want++ {
		members, _ := newMembers(hover(400))
		round, err := NewRound(config, members, identity, WithSession(session))
		require.NoError(t, err)
		assert.Equal(t, want, round.Number())
		for i := 0; i < 10; i++ {
			require.NoError(t, round.Step(context.Background()))
		}
	}
	assert.Equal(t, 3, session.Round())
	assert.Equal(t, 1, session.HighScore())
}

func TestRoundRealtimePacing(t *testing.T) {
	config := DefaultConfig()
	config.Realtime = true
	config.TickRate = 1000
	members, _ := newMembers(constant(0))

	round, err := NewRound(config, members, identity)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, round.Run(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, 28, round.Tick())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "initializing", Initializing.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "concluded", Concluded.String())
}

func TestRoundCancelledDuringTick(t *testing.T) {
	config := DefaultConfig()
	config.CeilingY = 352 // Every agent is above the ceiling after its first gravity step.
	rec := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queried := 0
	canceller := ControllerFunc(func([]float64) ([]float64, error) {
		queried++
		cancel()
		return []float64{0}, nil
	})
	later := ControllerFunc(func([]float64) ([]float64, error) {
		queried++
		return []float64{0}, nil
	})
	members, fitness := newMembers(canceller, later)

	round, err := NewRound(config, members, identity, WithPresenter(rec))
	require.NoError(t, err)

	err = round.Step(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Concluded, round.State())
	assert.Equal(t, 1, queried, "agents after the cancellation are not queried")
	assert.Equal(t, []float64{-5, 0}, fitness, "earlier penalty kept, later agent untouched")
	require.Len(t, round.Alive(), 1)
	assert.Equal(t, 2, round.Alive()[0].ID)

	last := rec.snapshots[len(rec.snapshots)-1]
	assert.Equal(t, Concluded, last.State)
	assert.Equal(t, 1, last.Alive)
	assert.Equal(t, 1, last.Events.Deaths)
}

func TestRoundCancelledRoundIsPresented(t *testing.T) {
	rec := &recorder{}
	members, _ := newMembers(constant(0))
	round, err := NewRound(DefaultConfig(), members, identity, WithPresenter(rec))
	require.NoError(t, err)
	require.NoError(t, round.Step(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, round.Run(ctx), context.Canceled)

	require.Len(t, rec.snapshots, 3)
	assert.Equal(t, Running, rec.snapshots[1].State)
	assert.Equal(t, Concluded, rec.snapshots[2].State)
	assert.Equal(t, 1, rec.snapshots[2].Tick)
}

func TestRoundObservationNotReused(t *testing.T) {
	var kept [][]float64
	keep := ControllerFunc(func(in []float64) ([]float64, error) {
		kept = append(kept, in)
		return []float64{0}, nil
	})
	members, _ := newMembers(keep, keep)

	round, err := NewRound(openCourseConfig(), members, identity)
	require.NoError(t, err)
	require.NoError(t, round.Step(context.Background()))
	require.NoError(t, round.Step(context.Background()))

	require.Len(t, kept, 4)
	assert.Equal(t, []float64{351, 251, 349}, kept[0])
	assert.Equal(t, 353.0, kept[2][0])
}

func TestRoundBuilderFailureKeepsFitness(t *testing.T) {
	members, fitness := newMembers(constant(0), constant(0), constant(0))
	calls := 0
	build := func(c Controller) (Controller, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("no network")
		}
		return c, nil
	}

	_, err := NewRound(DefaultConfig(), members, build)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "member 2")
	assert.Equal(t, []float64{123, 123, 123}, fitness)
}
