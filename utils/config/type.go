package config

import "fmt"

// InputPath selects where the network snapshot comes from (MongoDB or
// filesystem). A file path takes priority over the database fields.
type InputPath struct {
	DB    string `yaml:"db"`              // database name
	Col   string `yaml:"col"`             // collection name
	Cache string `yaml:"cache,omitempty"` // cache file name, defaults to {db}.{col}.json
	File  string `yaml:"file,omitempty"`  // file path (takes priority over MongoDB)
}

// GetCachePath returns the cache file name for the snapshot, falling
// back to the {db}.{col}.json naming rule when none is configured.
func (p InputPath) GetCachePath() string {
	if p.Cache != "" {
		return p.Cache
	}
	return p.DB + "." + p.Col + ".json"
}

// Input collects all input data sources of the simulator.
type Input struct {
	URI     string    `yaml:"uri"` // MongoDB connection string
	Network InputPath `yaml:"network"`
}

// ControlStep sets the timing of the two loops: the per-agent tick and
// the coordinator's render-frame drain.
type ControlStep struct {
	TickInterval  float64 `yaml:"tick_interval"`  // agent tick length (seconds)
	FrameInterval float64 `yaml:"frame_interval"` // renderer drain interval (seconds)
}

// Light holds the yellow-window tuning of the signal phase clock. The
// yellow window is described only qualitatively by the editor side, so
// both knobs are configuration rather than constants.
type Light struct {
	YellowFraction float64 `yaml:"yellow_fraction"` // trailing yellow as a fraction of green
	MinYellow      float64 `yaml:"min_yellow"`      // lower bound on the yellow window (seconds)
}

// Vehicle holds per-vehicle movement tuning.
type Vehicle struct {
	StopLineRatio float64 `yaml:"stop_line_ratio"` // where the signal check starts, as a fraction of the segment
	DefaultSpeed  float64 `yaml:"default_speed"`   // base speed in m/s before the per-vehicle multiplier
}

// Planner bounds the candidate enumeration of the route planner.
type Planner struct {
	HopLimit int `yaml:"hop_limit"` // max intermediate junctions per candidate
}

// Control is the simulation control section.
type Control struct {
	Step        ControlStep `yaml:"step"`
	Light       Light       `yaml:"light"`
	Vehicle     Vehicle     `yaml:"vehicle"`
	Planner     Planner     `yaml:"planner"`
	SpawnCount  int         `yaml:"spawn_count,omitempty"`  // vehicles spawned at startup
	StopTimeout float64     `yaml:"stop_timeout,omitempty"` // shutdown ack wait (seconds)
	Seed        uint64      `yaml:"seed,omitempty"`
}

// Web configures the renderer-facing HTTP/websocket surface.
type Web struct {
	Addr string `yaml:"addr,omitempty"` // listen address, empty disables the server
}

// Config is the root of the YAML configuration file.
type Config struct {
	Input   Input   `yaml:"input"`
	Control Control `yaml:"control"`
	Web     Web     `yaml:"web,omitempty"`
}

// Validate rejects configurations that cannot drive a run. It runs
// before anything is spawned so that bad parameters fail fast.
func (c *Config) Validate() error {
	if c.Control.Step.TickInterval <= 0 {
		return fmt.Errorf("config: step.tick_interval must be positive, got %v", c.Control.Step.TickInterval)
	}
	if c.Control.Step.FrameInterval <= 0 {
		return fmt.Errorf("config: step.frame_interval must be positive, got %v", c.Control.Step.FrameInterval)
	}
	if c.Control.Light.YellowFraction < 0 || c.Control.Light.YellowFraction > 1 {
		return fmt.Errorf("config: light.yellow_fraction must be in [0,1], got %v", c.Control.Light.YellowFraction)
	}
	if c.Control.Light.MinYellow < 0 {
		return fmt.Errorf("config: light.min_yellow must be non-negative, got %v", c.Control.Light.MinYellow)
	}
	if r := c.Control.Vehicle.StopLineRatio; r <= 0 || r >= 1 {
		return fmt.Errorf("config: vehicle.stop_line_ratio must be in (0,1), got %v", r)
	}
	if c.Control.Vehicle.DefaultSpeed <= 0 {
		return fmt.Errorf("config: vehicle.default_speed must be positive, got %v", c.Control.Vehicle.DefaultSpeed)
	}
	if c.Control.Planner.HopLimit < 0 {
		return fmt.Errorf("config: planner.hop_limit must be non-negative, got %v", c.Control.Planner.HopLimit)
	}
	if c.Input.Network.File == "" && (c.Input.URI == "" || c.Input.Network.DB == "" || c.Input.Network.Col == "") {
		return fmt.Errorf("config: input.network needs either a file or uri+db+col")
	}
	return nil
}
