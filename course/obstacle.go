package course

import "math/rand"

// Rect is an axis-aligned box in world coordinates (y grows downwards).
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Intersects reports whether two boxes overlap. Boxes that only share an edge do not.
func (r Rect) Intersects(other Rect) bool {
	return r.MinX < other.MaxX && other.MinX < r.MaxX &&
		r.MinY < other.MaxY && other.MinY < r.MaxY
}

// Obstacle is a pair of barriers separated by a vertical gap.
type Obstacle struct {
	X         float64 // Leading (left) edge.
	GapTop    float64 // Bottom edge of the top barrier.
	GapBottom float64 // Top edge of the bottom barrier.
	Passed    bool

	width      float64
	bodyHeight float64
	speed      float64
}

// spawnObstacle places a new obstacle at x with a gap drawn from the configured range.
func spawnObstacle(x float64, config *Config, rng *rand.Rand) *Obstacle {
	gapTop := float64(config.GapTopMin + rng.Intn(config.GapTopMax-config.GapTopMin))
	return &Obstacle{
		X:          x,
		GapTop:     gapTop,
		GapBottom:  gapTop + config.GapHeight,
		width:      config.ObstacleWidth,
		bodyHeight: config.ObstacleBodyHeight,
		speed:      config.ObstacleSpeed,
	}
}

// Advance scrolls the obstacle one tick to the left.
func (o *Obstacle) Advance() {
	o.X -= o.speed
}

// Width returns the horizontal extent of both barriers.
func (o *Obstacle) Width() float64 { return o.width }

// TrailingEdge returns the x coordinate of the obstacle's right edge.
func (o *Obstacle) TrailingEdge() float64 { return o.X + o.width }

// Top returns the box of the upper barrier.
func (o *Obstacle) Top() Rect {
	return Rect{MinX: o.X, MinY: o.GapTop - o.bodyHeight, MaxX: o.X + o.width, MaxY: o.GapTop}
}

// Bottom returns the box of the lower barrier.
func (o *Obstacle) Bottom() Rect {
	return Rect{MinX: o.X, MinY: o.GapBottom, MaxX: o.X + o.width, MaxY: o.GapBottom + o.bodyHeight}
}

// CollidesWith reports whether a bounding box hits either barrier.
func (o *Obstacle) CollidesWith(box Rect) bool {
	return box.Intersects(o.Top()) || box.Intersects(o.Bottom())
}

// markPassed flips Passed the first time the leading edge is behind referenceX.
// It reports whether the transition happened on this call.
func (o *Obstacle) markPassed(referenceX float64) bool {
	if o.Passed || o.X >= referenceX {
		return false
	}
	o.Passed = true
	return true
}

// OffScreen reports whether the obstacle scrolled fully past the left boundary.
func (o *Obstacle) OffScreen() bool {
	return o.TrailingEdge() < 0
}
