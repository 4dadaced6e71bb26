// Package course evaluates a population of controllers on a procedurally
// generated side-scrolling obstacle course.
//
// A Round takes a snapshot of the population (one Member per candidate),
// builds a Controller for each member and steps a fixed-timestep simulation:
// agents fall under gravity and jump when their controller's first output
// exceeds the jump threshold, obstacles scroll towards them and are recycled
// as they are passed. Each death charges a penalty to the dead agent's
// fitness record; each passed obstacle credits a reward to every survivor.
// The round ends when no agent is alive or its context is cancelled. The
// fitness records are owned by the caller and mutated in place; a round
// produces no other result.
package course
