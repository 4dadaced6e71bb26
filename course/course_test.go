package course

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCourseStartsWithOneObstacle(t *testing.T) {
	config := DefaultConfig()
	c := NewCourse(config, rand.New(rand.NewSource(3)))

	require.Len(t, c.Obstacles(), 1)
	assert.Equal(t, 700.0, c.Obstacles()[0].X)
}

func TestCourseNearest(t *testing.T) {
	config := DefaultConfig()
	c := NewCourse(config, rand.New(rand.NewSource(3)))

	assert.Equal(t, 0, c.Nearest(230), "single obstacle is always nearest")

	c.obstacles[0].X = 100 // trailing edge at 204, behind the agent
	assert.Equal(t, 0, c.Nearest(230), "no successor yet")

	c.Recycle(true)
	require.Len(t, c.Obstacles(), 2)
	assert.Equal(t, 1, c.Nearest(230))
	assert.Equal(t, 0, c.Nearest(204), "exactly at the trailing edge is not past it")
}

func TestCourseMarkPassesAndRecycle(t *testing.T) {
	config := DefaultConfig()
	config.InitialObstacleX = 240
	c := NewCourse(config, rand.New(rand.NewSource(3)))

	c.Advance()
	assert.False(t, c.MarkPasses(230))
	c.Advance()
	assert.True(t, c.MarkPasses(230))
	c.Recycle(true)

	require.Len(t, c.Obstacles(), 2)
	assert.Equal(t, 226.0, c.Obstacles()[0].X)
	assert.Equal(t, 600.0, c.Obstacles()[1].X)
	assert.False(t, c.MarkPasses(230), "already passed obstacle does not pass again")
}

func TestCourseRecycleDropsOffScreenObstacles(t *testing.T) {
	config := DefaultConfig()
	c := NewCourse(config, rand.New(rand.NewSource(3)))
	c.Recycle(true)
	c.obstacles[0].X = -200

	c.Recycle(false)
	require.Len(t, c.Obstacles(), 1)
	assert.Equal(t, 600.0, c.Obstacles()[0].X)
}

func TestCourseFloorScroll(t *testing.T) {
	config := DefaultConfig()
	c := NewCourse(config, rand.New(rand.NewSource(3)))
	for i := 0; i < 100; i++ {
		c.Advance()
	}
	assert.InDelta(t, 100.0, c.FloorOffset(), 1e-9) // 700 mod 600
}
