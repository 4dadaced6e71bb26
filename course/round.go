package course

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// State is the lifecycle state of a round.
type State int

const (
	Initializing State = iota
	Running
	Concluded
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Concluded:
		return "concluded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Round evaluates one population snapshot on a fresh course. Its only output is
// the set of fitness mutations applied to the members' records.
type Round struct {
	config    *Config
	session   *Session
	course    *Course
	fitness   Fitness
	presenter Presenter
	rng       *rand.Rand

	state  State
	number int
	tick   int
	score  int
	agents []*Agent // Live agents in member order.
	events Events
}

// Option configures a Round.
type Option func(*Round)

// WithPresenter attaches a presenter that receives a snapshot after every tick.
func WithPresenter(p Presenter) Option {
	return func(r *Round) { r.presenter = p }
}

// WithSession threads the round counter and high score of a run through the round.
func WithSession(s *Session) Option {
	return func(r *Round) { r.session = s }
}

// WithRand sets the random source used to place obstacle gaps.
func WithRand(rng *rand.Rand) Option {
	return func(r *Round) { r.rng = rng }
}

// NewRound initializes a round: one agent per member at the spawn position,
// each member's fitness record reset to zero, and a course with one obstacle.
// The returned round is Running, or Concluded when members is empty.
func NewRound[G any](config *Config, members []Member[G], build Builder[G], opts ...Option) (*Round, error) {
	r := &Round{
		config:  config,
		fitness: Fitness{DeathPenalty: config.DeathPenalty, PassReward: config.PassReward},
		state:   Initializing,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.session == nil {
		r.session = NewSession()
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	// Fitness records are only touched once every controller is built.
	controllers := make([]Controller, len(members))
	for i, m := range members {
		if m.Fitness == nil {
			return nil, fmt.Errorf("member %d has no fitness record", m.ID)
		}
		controller, err := build(m.Genome)
		if err != nil {
			return nil, fmt.Errorf("failed to build controller for member %d: %w", m.ID, err)
		}
		controllers[i] = controller
	}
	r.agents = make([]*Agent, 0, len(members))
	for i, m := range members {
		*m.Fitness = 0
		r.agents = append(r.agents, newAgent(m.ID, controllers[i], m.Fitness, config))
	}

	r.course = NewCourse(config, r.rng)
	r.number = r.session.beginRound()
	r.state = Running
	r.events = Events{NewRound: true}
	if len(r.agents) == 0 {
		r.state = Concluded
	}
	r.present()
	return r, nil
}

// Run steps the round until no agent is alive or ctx is cancelled. With
// Config.Realtime set, ticks are paced at Config.TickRate.
// A cancelled round returns ctx.Err(); fitness already applied is kept.
func (r *Round) Run(ctx context.Context) error {
	var pace <-chan time.Time
	if r.config.Realtime && r.config.TickRate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(r.config.TickRate))
		defer ticker.Stop()
		pace = ticker.C
	}

	for r.state == Running {
		if pace != nil {
			select {
			case <-ctx.Done():
				return r.interrupted(ctx)
			case <-pace:
			}
		}
		if err := r.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Step executes exactly one tick. It is a no-op once the round is Concluded.
func (r *Round) Step(ctx context.Context) error {
	if r.state != Running {
		return nil
	}
	if err := r.interrupted(ctx); err != nil {
		return err
	}
	r.tick++
	r.events = Events{}

	lead := r.lead()
	nearest := r.course.Obstacles()[r.course.Nearest(lead.X)]

	for _, a := range r.agents {
		if err := r.interrupted(ctx); err != nil {
			return err
		}
		a.ApplyGravity()

		observation := []float64{
			a.Y,
			math.Abs(a.Y - nearest.GapTop),
			math.Abs(a.Y - nearest.GapBottom),
		}
		jump, err := decide(a.controller, observation, r.config.JumpThreshold)
		if err != nil {
			r.state = Concluded
			return fmt.Errorf("round %d tick %d: member %d: %w", r.number, r.tick, a.ID, err)
		}
		if jump {
			a.Jump()
			r.events.Jumps++
		}

		if a.OutOfBounds(r.config.FloorY, r.config.CeilingY) {
			r.kill(a)
		}
	}
	r.sweep()

	if err := r.interrupted(ctx); err != nil {
		return err
	}

	r.course.Advance()
	for _, o := range r.course.Obstacles() {
		for _, a := range r.agents {
			if err := r.interrupted(ctx); err != nil {
				return err
			}
			if a.alive && o.CollidesWith(a.Bounds()) {
				r.kill(a)
			}
		}
	}
	r.sweep()

	if err := r.interrupted(ctx); err != nil {
		return err
	}

	passed := r.course.MarkPasses(lead.X)
	if passed {
		r.score++
		r.session.observeScore(r.score)
		r.fitness.Reward(r.agents)
		r.events.Passed = true
	}
	r.course.Recycle(passed)

	if len(r.agents) == 0 {
		r.state = Concluded
	}
	r.present()
	return nil
}

// lead returns the agent used as horizontal reference for the tick: the first
// agent alive when the tick starts. All agents share one column.
func (r *Round) lead() *Agent {
	return r.agents[0]
}

// kill marks an agent dead and charges the death penalty once.
// Removal from the live set happens in sweep.
func (r *Round) kill(a *Agent) {
	if !a.alive {
		return
	}
	a.alive = false
	r.fitness.Penalize(a)
	r.events.Deaths++
}

// sweep drops dead agents from the live set, keeping member order.
func (r *Round) sweep() {
	live := r.agents[:0]
	for _, a := range r.agents {
		if a.alive {
			live = append(live, a)
		}
	}
	for i := len(live); i < len(r.agents); i++ {
		r.agents[i] = nil
	}
	r.agents = live
}

// interrupted concludes the round when ctx is done. Agents killed earlier in
// the tick are dropped and presenters see the concluded state.
func (r *Round) interrupted(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	r.sweep()
	r.state = Concluded
	r.present()
	return err
}

func (r *Round) present() {
	if r.presenter == nil {
		return
	}
	r.presenter.Present(r.Snapshot())
}

// Snapshot returns a read-only view of the round.
func (r *Round) Snapshot() Snapshot {
	s := Snapshot{
		Round:       r.number,
		Tick:        r.tick,
		Score:       r.score,
		HighScore:   r.session.HighScore(),
		Alive:       len(r.agents),
		State:       r.state,
		Agents:      make([]AgentView, 0, len(r.agents)),
		Obstacles:   make([]ObstacleView, 0, len(r.course.Obstacles())),
		FloorOffset: r.course.FloorOffset(),
		FloorY:      r.config.FloorY,
		WorldWidth:  r.config.WorldWidth,
		WorldHeight: r.config.WorldHeight,
		Events:      r.events,
	}
	for _, a := range r.agents {
		s.Agents = append(s.Agents, AgentView{
			ID:       a.ID,
			X:        a.X,
			Y:        a.Y,
			Velocity: a.Velocity,
			Falling:  a.Falling(),
			Bounds:   a.Bounds(),
		})
	}
	for _, o := range r.course.Obstacles() {
		s.Obstacles = append(s.Obstacles, ObstacleView{
			X:         o.X,
			Width:     o.Width(),
			GapTop:    o.GapTop,
			GapBottom: o.GapBottom,
			Passed:    o.Passed,
		})
	}
	return s
}

// State returns the lifecycle state of the round.
func (r *Round) State() State { return r.state }

// Number returns the round number assigned by the session.
func (r *Round) Number() int { return r.number }

// Tick returns the number of ticks executed so far.
func (r *Round) Tick() int { return r.tick }

// Score returns the number of obstacles passed so far.
func (r *Round) Score() int { return r.score }

// Alive returns the live agents in member order. The slice must not be modified.
func (r *Round) Alive() []*Agent { return r.agents }

// Course returns the round's obstacle course.
func (r *Round) Course() *Course { return r.course }
