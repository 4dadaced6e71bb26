package course

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flappy-config")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[NEAT]
pop_size = 10

[FlappyCourse]
gravity        = 1.5
gap_height     = 180   # narrower gap
pass_reward    = 2.5
realtime       = True
tick_rate      = 60
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 1.5, config.Gravity)
	assert.Equal(t, 180.0, config.GapHeight)
	assert.Equal(t, 2.5, config.PassReward)
	assert.True(t, config.Realtime)
	assert.Equal(t, 60, config.TickRate)
	assert.Equal(t, 10.5, config.JumpImpulse, "absent keys keep defaults")
	assert.Equal(t, 730.0, config.FloorY)
}

func TestLoadConfigWithoutCourseSection(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "[NEAT]\npop_size = 10\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"gap range", "[FlappyCourse]\ngap_top_min = 300\ngap_top_max = 300\n", "gap_top_max"},
		{"bounds", "[FlappyCourse]\nfloor_y = -30\n", "floor_y"},
		{"penalty", "[FlappyCourse]\ndeath_penalty = -5\n", "death_penalty"},
		{"tick rate", "[FlappyCourse]\nrealtime = true\ntick_rate = 0\n", "tick_rate"},
		{"agent column", "[FlappyCourse]\nagent_x = -1\n", "agent_x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
