package course

import (
	"math"
	"math/rand"
)

// Course holds the active obstacles in spawn order.
type Course struct {
	config    *Config
	rng       *rand.Rand
	obstacles []*Obstacle
	floor     float64 // Scroll offset of the floor, presentation only.
}

// NewCourse creates a course with a single obstacle at the initial spawn offset.
func NewCourse(config *Config, rng *rand.Rand) *Course {
	c := &Course{
		config: config,
		rng:    rng,
	}
	c.obstacles = append(c.obstacles, spawnObstacle(config.InitialObstacleX, config, rng))
	return c
}

// Obstacles returns the active obstacles. The slice must not be modified.
func (c *Course) Obstacles() []*Obstacle {
	return c.obstacles
}

// Nearest returns the index of the first obstacle the reference position has not cleared.
// Obstacle 0 is used unless it is already behind referenceX and a successor exists.
func (c *Course) Nearest(referenceX float64) int {
	if len(c.obstacles) > 1 && referenceX > c.obstacles[0].TrailingEdge() {
		return 1
	}
	return 0
}

// Advance scrolls every obstacle, and the floor, one tick.
func (c *Course) Advance() {
	for _, o := range c.obstacles {
		o.Advance()
	}
	if c.config.WorldWidth > 0 {
		c.floor = math.Mod(c.floor+c.config.ObstacleSpeed, c.config.WorldWidth)
	}
}

// MarkPasses flags every obstacle whose leading edge fell behind referenceX.
// It reports whether at least one obstacle was passed during this call.
func (c *Course) MarkPasses(referenceX float64) bool {
	passed := false
	for _, o := range c.obstacles {
		if o.markPassed(referenceX) {
			passed = true
		}
	}
	return passed
}

// Recycle appends a new obstacle when spawn is set and then drops the obstacles
// that left the screen. It runs after every read of the tick.
func (c *Course) Recycle(spawn bool) {
	if spawn {
		c.obstacles = append(c.obstacles, spawnObstacle(c.config.ObstacleSpawnX, c.config, c.rng))
	}
	kept := c.obstacles[:0]
	for _, o := range c.obstacles {
		if !o.OffScreen() {
			kept = append(kept, o)
		}
	}
	for i := len(kept); i < len(c.obstacles); i++ {
		c.obstacles[i] = nil
	}
	c.obstacles = kept
}

// FloorOffset returns how far the floor texture has scrolled.
func (c *Course) FloorOffset() float64 { return c.floor }
