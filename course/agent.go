package course

// Agent is one candidate in a round. It keeps the physical state together with
// the controller that steers it and the fitness record it is scored against, so
// removing an agent can never desynchronize the three.
type Agent struct {
	ID       int // Identity of the population member this agent was built from.
	X        float64
	Y        float64
	Velocity float64

	alive      bool
	controller Controller
	fitness    *float64
	config     *Config
}

func newAgent(id int, controller Controller, fitness *float64, config *Config) *Agent {
	return &Agent{
		ID:         id,
		X:          config.AgentX,
		Y:          config.AgentY,
		alive:      true,
		controller: controller,
		fitness:    fitness,
		config:     config,
	}
}

// ApplyGravity accelerates the agent downwards, clamps the fall speed and moves it.
func (a *Agent) ApplyGravity() {
	a.Velocity += a.config.Gravity
	if a.Velocity >= a.config.MaxFallSpeed {
		a.Velocity = a.config.MaxFallSpeed
	}
	a.Y += a.Velocity
}

// Jump replaces the current velocity with the upward jump impulse.
func (a *Agent) Jump() {
	a.Velocity = -a.config.JumpImpulse
}

// Falling reports whether the agent drops fast enough to stop flapping.
// Only presenters care about it.
func (a *Agent) Falling() bool {
	return a.Velocity > a.config.FallingThreshold
}

// OutOfBounds reports whether the agent touched the floor or flew above the ceiling.
func (a *Agent) OutOfBounds(floorY, ceilingY float64) bool {
	return a.Y+a.config.AgentHeight/2 >= floorY || a.Y < ceilingY
}

// Bounds returns the agent's bounding box, centred on its position.
func (a *Agent) Bounds() Rect {
	halfW := a.config.AgentWidth / 2
	halfH := a.config.AgentHeight / 2
	return Rect{MinX: a.X - halfW, MinY: a.Y - halfH, MaxX: a.X + halfW, MaxY: a.Y + halfH}
}

// Alive reports whether the agent is still part of the round.
func (a *Agent) Alive() bool { return a.alive }

// Fitness returns the current value of the agent's fitness record.
func (a *Agent) Fitness() float64 { return *a.fitness }
