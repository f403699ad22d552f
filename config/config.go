// Package config loads sliver subsystem settings from YAML
// Physical quantities are floats in the file and Q32.32 once converted
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/lixenwraith/slivers/logging"
	"github.com/lixenwraith/slivers/palette"
	"github.com/lixenwraith/slivers/parameter"
	"github.com/lixenwraith/slivers/sliver"
	"github.com/lixenwraith/slivers/vmath"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Seed    uint64         `yaml:"seed"` // 0 seeds from the clock in the sandbox
	Pool    PoolConfig     `yaml:"pool"`
	Palette PaletteConfig  `yaml:"palette"`
	Physics PhysicsConfig  `yaml:"physics"`
	Burst   BurstConfig    `yaml:"burst"`
	Audio   AudioConfig    `yaml:"audio"`
	Log     logging.Config `yaml:"log"`
}

type PoolConfig struct {
	Capacity int `yaml:"capacity"`
}

type PaletteConfig struct {
	Size      int     `yaml:"size"`
	Masters   int     `yaml:"masters"`
	Shades    int     `yaml:"shades"`     // Entries leased per sliver
	RampFloor float64 `yaml:"ramp_floor"` // Darkest shade brightness, 0-1
}

type PhysicsConfig struct {
	Gravity       float64 `yaml:"gravity"`        // Cells per frame²
	GravityScales bool    `yaml:"gravity_scales"` // Heavier debris falls faster
	SpeedJitter   float64 `yaml:"speed_jitter"`   // ± fraction of launch speed
	Spread        string  `yaml:"spread"`         // uniform, triangular
}

// BurstConfig is the default explosion shape used by the sandbox
type BurstConfig struct {
	Count  int     `yaml:"count"`
	AgeMin int     `yaml:"age_min"`
	AgeMax int     `yaml:"age_max"`
	Spread int     `yaml:"spread"` // Half-angle in degrees
	Speed  float64 `yaml:"speed"`  // Cells per frame
}

type AudioConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"` // 0-1
}

// Default returns the stock configuration
func Default() *Config {
	return &Config{
		Pool: PoolConfig{Capacity: parameter.SliverPoolCapacity},
		Palette: PaletteConfig{
			Size:      parameter.PaletteSize,
			Masters:   parameter.PaletteMasters,
			Shades:    parameter.SliverShadeCount,
			RampFloor: parameter.PaletteRampFloor,
		},
		Physics: PhysicsConfig{
			Gravity:       parameter.SliverGravity,
			GravityScales: parameter.SliverGravityScales,
			SpeedJitter:   parameter.SliverSpeedJitter,
			Spread:        sliver.SpreadUniform.String(),
		},
		Burst: BurstConfig{
			Count:  parameter.SliverBatchCount,
			AgeMin: parameter.SliverAgeMin,
			AgeMax: parameter.SliverAgeMax,
			Spread: parameter.SliverSpread,
			Speed:  0.6,
		},
		Audio: AudioConfig{Enabled: true, Volume: 0.5},
		Log:   logging.Config{Level: "off"},
	}
}

// Load reads path over the defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges; errors wrap ErrInvalid
func (c *Config) Validate() error {
	switch {
	case c.Pool.Capacity < 1:
		return fmt.Errorf("%w: pool.capacity %d must be positive", ErrInvalid, c.Pool.Capacity)
	case c.Palette.Size < 2 || c.Palette.Size > palette.MaxSize:
		return fmt.Errorf("%w: palette.size %d out of range [2, %d]", ErrInvalid, c.Palette.Size, palette.MaxSize)
	case c.Palette.Masters < 0 || c.Palette.Masters >= c.Palette.Size:
		return fmt.Errorf("%w: palette.masters %d must leave lendable entries", ErrInvalid, c.Palette.Masters)
	case c.Palette.Shades < 1:
		return fmt.Errorf("%w: palette.shades %d must be positive", ErrInvalid, c.Palette.Shades)
	case c.Palette.RampFloor < 0 || c.Palette.RampFloor > 1:
		return fmt.Errorf("%w: palette.ramp_floor %v out of range [0, 1]", ErrInvalid, c.Palette.RampFloor)
	case c.Physics.SpeedJitter < 0 || c.Physics.SpeedJitter > 1:
		return fmt.Errorf("%w: physics.speed_jitter %v out of range [0, 1]", ErrInvalid, c.Physics.SpeedJitter)
	case c.Burst.Count < 0:
		return fmt.Errorf("%w: burst.count %d is negative", ErrInvalid, c.Burst.Count)
	case c.Audio.Volume < 0 || c.Audio.Volume > 1:
		return fmt.Errorf("%w: audio.volume %v out of range [0, 1]", ErrInvalid, c.Audio.Volume)
	case c.Burst.AgeMin < 1 || c.Burst.AgeMax < c.Burst.AgeMin:
		return fmt.Errorf("%w: burst ages [%d, %d] must satisfy 1 <= min <= max", ErrInvalid, c.Burst.AgeMin, c.Burst.AgeMax)
	}
	if _, ok := sliver.ParseDistribution(c.Physics.Spread); !ok {
		return fmt.Errorf("%w: physics.spread %q is not uniform or triangular", ErrInvalid, c.Physics.Spread)
	}
	if _, _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return nil
}

// Tuning converts physics and shading settings to fixed point
func (c *Config) Tuning() sliver.Tuning {
	dist, _ := sliver.ParseDistribution(c.Physics.Spread)
	return sliver.Tuning{
		Gravity:       vmath.FromFloat(c.Physics.Gravity),
		GravityScales: c.Physics.GravityScales,
		SpeedJitter:   vmath.FromFloat(c.Physics.SpeedJitter),
		Spread:        dist,
		ShadeCount:    c.Palette.Shades,
	}
}

// PoolConfig returns the pool sizing for seed
func (c *Config) PoolConfig(seed uint64) sliver.PoolConfig {
	return sliver.PoolConfig{
		Capacity: c.Pool.Capacity,
		Seed:     seed,
		Tuning:   c.Tuning(),
	}
}
