package course

// Fitness applies reward and penalty events to the fitness records owned by the
// search algorithm. It has no state of its own.
type Fitness struct {
	DeathPenalty float64
	PassReward   float64
}

// Penalize charges the death penalty to a single agent.
func (f Fitness) Penalize(a *Agent) {
	*a.fitness -= f.DeathPenalty
}

// Reward credits the pass reward to every agent in survivors.
func (f Fitness) Reward(survivors []*Agent) {
	for _, a := range survivors {
		if a.alive {
			*a.fitness += f.PassReward
		}
	}
}
