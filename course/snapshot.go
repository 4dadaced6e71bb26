package course

// Presenter consumes a read-only view of the round after every tick.
// Nothing a presenter does feeds back into the simulation.
type Presenter interface {
	Present(s Snapshot)
}

// Presenters fans a snapshot out to several presenters in order.
type Presenters []Presenter

// Present implements Presenter.
func (ps Presenters) Present(s Snapshot) {
	for _, p := range ps {
		if p != nil {
			p.Present(s)
		}
	}
}

// AgentView is the presentable state of one live agent.
type AgentView struct {
	ID       int
	X, Y     float64
	Velocity float64
	Falling  bool
	Bounds   Rect
}

// ObstacleView is the presentable state of one obstacle.
type ObstacleView struct {
	X         float64
	Width     float64
	GapTop    float64
	GapBottom float64
	Passed    bool
}

// Events lists what happened during the tick a snapshot was taken after.
type Events struct {
	NewRound bool // Set on the snapshot taken right after initialization.
	Jumps    int
	Deaths   int
	Passed   bool
}

// Snapshot is the per-tick view handed to presenters.
type Snapshot struct {
	Round     int
	Tick      int
	Score     int
	HighScore int
	Alive     int
	State     State

	Agents      []AgentView
	Obstacles   []ObstacleView
	FloorOffset float64
	FloorY      float64
	WorldWidth  float64
	WorldHeight float64

	Events Events
}
