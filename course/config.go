package course

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Config stores the tunable constants of the obstacle course.
// It is read from the [FlappyCourse] section of the run configuration file.
type Config struct {
	// --- Agent physics ---
	Gravity          float64 `ini:"gravity"`           // Velocity added every tick.
	JumpImpulse      float64 `ini:"jump_impulse"`      // Velocity is reset to -JumpImpulse on a jump.
	MaxFallSpeed     float64 `ini:"max_fall_speed"`    // Clamp for downward velocity.
	FallingThreshold float64 `ini:"falling_threshold"` // Presentation only: wings freeze above this speed.
	AgentX           float64 `ini:"agent_x"`
	AgentY           float64 `ini:"agent_y"`
	AgentWidth       float64 `ini:"agent_width"`
	AgentHeight      float64 `ini:"agent_height"`

	// --- Obstacles ---
	GapHeight          float64 `ini:"gap_height"`
	GapTopMin          int     `ini:"gap_top_min"` // Inclusive.
	GapTopMax          int     `ini:"gap_top_max"` // Exclusive.
	ObstacleWidth      float64 `ini:"obstacle_width"`
	ObstacleBodyHeight float64 `ini:"obstacle_body_height"`
	ObstacleSpeed      float64 `ini:"obstacle_speed"`
	InitialObstacleX   float64 `ini:"initial_obstacle_x"`
	ObstacleSpawnX     float64 `ini:"obstacle_spawn_x"`

	// --- World bounds ---
	FloorY      float64 `ini:"floor_y"`
	CeilingY    float64 `ini:"ceiling_y"`
	WorldWidth  float64 `ini:"world_width"`
	WorldHeight float64 `ini:"world_height"`

	// --- Decisions and fitness shaping ---
	JumpThreshold float64 `ini:"jump_threshold"`
	DeathPenalty  float64 `ini:"death_penalty"`
	PassReward    float64 `ini:"pass_reward"`

	// --- Pacing ---
	TickRate int  `ini:"tick_rate"` // Ticks per second when Realtime is set.
	Realtime bool `ini:"realtime"`
}

// DefaultConfig returns the reference course configuration.
func DefaultConfig() *Config {
	return &Config{
		Gravity:          1.0,
		JumpImpulse:      10.5,
		MaxFallSpeed:     20.0,
		FallingThreshold: 8.0,
		AgentX:           230,
		AgentY:           350,
		AgentWidth:       68,
		AgentHeight:      48,

		GapHeight:          200,
		GapTopMin:          50,
		GapTopMax:          450,
		ObstacleWidth:      104,
		ObstacleBodyHeight: 640,
		ObstacleSpeed:      7.0,
		InitialObstacleX:   700,
		ObstacleSpawnX:     600,

		FloorY:      730,
		CeilingY:    -20,
		WorldWidth:  600,
		WorldHeight: 800,

		JumpThreshold: 0.5,
		DeathPenalty:  5.0,
		PassReward:    5.0,

		TickRate: 30,
		Realtime: false,
	}
}

// LoadConfig reads the [FlappyCourse] section of an INI file on top of DefaultConfig.
// Keys that are absent keep their default value.
func LoadConfig(filePath string) (*Config, error) {
	file, err := ini.Load(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}
	return configFromFile(file)
}

func configFromFile(file *ini.File) (*Config, error) {
	config := DefaultConfig()
	if err := file.Section("FlappyCourse").MapTo(config); err != nil {
		return nil, fmt.Errorf("failed to map [FlappyCourse] section: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports the first inconsistent value in the configuration.
func (c *Config) Validate() error {
	if c.Gravity < 0 {
		return fmt.Errorf("config error: gravity cannot be negative")
	}
	if c.MaxFallSpeed <= 0 {
		return fmt.Errorf("config error: max_fall_speed must be positive")
	}
	if c.AgentWidth <= 0 || c.AgentHeight <= 0 {
		return fmt.Errorf("config error: agent_width and agent_height must be positive")
	}
	if c.AgentX < 0 {
		return fmt.Errorf("config error: agent_x cannot be negative")
	}
	if c.GapHeight <= 0 {
		return fmt.Errorf("config error: gap_height must be positive")
	}
	if c.GapTopMax <= c.GapTopMin {
		return fmt.Errorf("config error: gap_top_max (%d) must be greater than gap_top_min (%d)", c.GapTopMax, c.GapTopMin)
	}
	if c.ObstacleWidth <= 0 || c.ObstacleBodyHeight <= 0 {
		return fmt.Errorf("config error: obstacle_width and obstacle_body_height must be positive")
	}
	if c.ObstacleSpeed <= 0 {
		return fmt.Errorf("config error: obstacle_speed must be positive")
	}
	if c.FloorY <= c.CeilingY {
		return fmt.Errorf("config error: floor_y must be below ceiling_y")
	}
	if c.DeathPenalty < 0 || c.PassReward < 0 {
		return fmt.Errorf("config error: death_penalty and pass_reward are magnitudes and cannot be negative")
	}
	if c.Realtime && c.TickRate <= 0 {
		return fmt.Errorf("config error: tick_rate must be positive when realtime is enabled")
	}
	return nil
}
