// Package config loads run configuration from defaults, an optional TOML file, and TICKPIPE_* environment overrides
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/tickpipe/engine"
	"github.com/lixenwraith/tickpipe/parameter"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "TICKPIPE_"

// Config is the complete run configuration
type Config struct {
	World    WorldConfig    `toml:"world"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Damage   DamageConfig   `toml:"damage"`
	Audio    AudioConfig    `toml:"audio"`
	Log      LogConfig      `toml:"log"`
	Render   RenderConfig   `toml:"render"`
	Seed     SeedConfig     `toml:"seed"`
}

// WorldConfig sizes the playable rectangle
type WorldConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// PipelineConfig holds tick cadence and bounds
type PipelineConfig struct {
	Mode             string        `toml:"mode"`
	PhysicsInterval  time.Duration `toml:"physics_interval"`
	RenderInterval   time.Duration `toml:"render_interval"`
	HandshakeTimeout time.Duration `toml:"handshake_timeout"`
	ShutdownTimeout  time.Duration `toml:"shutdown_timeout"`
	StepScale        float64       `toml:"step_scale"`
	MaxTicks         uint64        `toml:"max_ticks"`
	Duration         time.Duration `toml:"duration"`
}

// DamageConfig tunes the damage resolver
type DamageConfig struct {
	Penalty int `toml:"penalty"`
}

// AudioConfig toggles hit cues
type AudioConfig struct {
	Enabled    bool    `toml:"enabled"`
	Volume     float64 `toml:"volume"`
	SampleRate int     `toml:"sample_rate"`
}

// LogConfig places the log file
type LogConfig struct {
	Debug     bool   `toml:"debug"`
	Dir       string `toml:"dir"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
}

// RenderConfig selects the display surface
type RenderConfig struct {
	Headless bool `toml:"headless"`
	Clear    bool `toml:"clear"`
}

// SeedConfig adds random entities beside the two demo entities
type SeedConfig struct {
	Swarm     int   `toml:"swarm"`
	SwarmSeed int64 `toml:"swarm_seed"`
}

// Default returns the reference configuration
func Default() *Config {
	return &Config{
		World: WorldConfig{Width: parameter.WorldWidth, Height: parameter.WorldHeight},
		Pipeline: PipelineConfig{
			Mode:             engine.ModeLockstep.String(),
			PhysicsInterval:  parameter.PhysicsInterval,
			RenderInterval:   parameter.RenderInterval,
			HandshakeTimeout: parameter.HandshakeTimeout,
			ShutdownTimeout:  parameter.ShutdownTimeout,
			StepScale:        parameter.StepScale,
			Duration:         10 * time.Second,
		},
		Damage: DamageConfig{Penalty: parameter.WallHitPenalty},
		Audio:  AudioConfig{Enabled: false, Volume: 0.5, SampleRate: 44100},
		Log:    LogConfig{Dir: "logs", File: "tickpipe.log", MaxSizeMB: 10},
		Render: RenderConfig{Clear: true},
	}
}

// Load returns defaults overlaid with the TOML file at path, if non-empty
// Unknown keys are rejected so typos do not silently fall back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ApplyEnv overlays TICKPIPE_* variables found through lookup (os.LookupEnv in production)
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var errs []error
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("MODE"); ok {
		c.Pipeline.Mode = v
	}
	for name, dst := range map[string]*time.Duration{
		"PHYSICS_INTERVAL": &c.Pipeline.PhysicsInterval,
		"RENDER_INTERVAL":  &c.Pipeline.RenderInterval,
		"DURATION":         &c.Pipeline.Duration,
	} {
		if v, ok := get(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				continue
			}
			*dst = d
		}
	}
	for name, dst := range map[string]*bool{
		"AUDIO":    &c.Audio.Enabled,
		"DEBUG":    &c.Log.Debug,
		"HEADLESS": &c.Render.Headless,
	} {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				continue
			}
			*dst = b
		}
	}
	// Volume is given as 0-100 and clamped
	if v, ok := get("VOLUME"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sVOLUME: %w", EnvPrefix, err))
		} else {
			c.Audio.Volume = float64(max(0, min(n, 100))) / 100
		}
	}
	return errors.Join(errs...)
}

// Validate checks ranges and cross-field constraints
func (c *Config) Validate() error {
	var errs []error
	if c.World.Width < 1 || c.World.Height < 1 {
		errs = append(errs, fmt.Errorf("world size %dx%d must be positive", c.World.Width, c.World.Height))
	}
	mode, err := engine.ParseMode(c.Pipeline.Mode)
	if err != nil {
		errs = append(errs, err)
	}
	if c.Pipeline.PhysicsInterval < 0 || c.Pipeline.RenderInterval < 0 {
		errs = append(errs, errors.New("intervals must not be negative"))
	}
	if mode == engine.ModeFreeRunning && (c.Pipeline.PhysicsInterval == 0 || c.Pipeline.RenderInterval == 0) {
		errs = append(errs, errors.New("free-running mode needs non-zero physics and render intervals"))
	}
	if c.Pipeline.HandshakeTimeout <= 0 || c.Pipeline.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("handshake and shutdown timeouts must be positive"))
	}
	if c.Pipeline.StepScale <= 0 {
		errs = append(errs, fmt.Errorf("step scale %v must be positive", c.Pipeline.StepScale))
	}
	if c.Damage.Penalty < 1 {
		errs = append(errs, fmt.Errorf("damage penalty %d must be positive", c.Damage.Penalty))
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		errs = append(errs, fmt.Errorf("audio volume %v outside [0,1]", c.Audio.Volume))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio sample rate %d must be positive", c.Audio.SampleRate))
	}
	if c.Seed.Swarm < 0 {
		errs = append(errs, fmt.Errorf("swarm size %d must not be negative", c.Seed.Swarm))
	}
	return errors.Join(errs...)
}

// DriverConfig converts the pipeline section for engine.NewDriver
// Call after Validate
func (c *Config) DriverConfig() engine.DriverConfig {
	mode, _ := engine.ParseMode(c.Pipeline.Mode)
	return engine.DriverConfig{
		Mode:             mode,
		PhysicsInterval:  c.Pipeline.PhysicsInterval,
		RenderInterval:   c.Pipeline.RenderInterval,
		HandshakeTimeout: c.Pipeline.HandshakeTimeout,
		MaxTicks:         c.Pipeline.MaxTicks,
	}
}
