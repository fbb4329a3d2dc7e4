// Package config loads the YAML file shared by every front end.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/erinpentecost/StudyReveal/internal/reveal"
	"github.com/erinpentecost/StudyReveal/internal/schedule"
	"github.com/erinpentecost/StudyReveal/internal/surface"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Preset names a built-in curve. Curve, when set, replaces it.
	Preset string          `yaml:"preset"`
	Curve  *schedule.Curve `yaml:"curve,omitempty"`

	Reveal reveal.Params `yaml:"reveal"`

	// Minutes pre-fills the duration; 0 asks for it.
	Minutes int `yaml:"minutes"`
	// Image is a file or a directory to pick a random image from. Empty
	// uses the generated landscape.
	Image string `yaml:"image"`

	Surface  SurfaceConfig  `yaml:"surface"`
	Timing   TimingConfig   `yaml:"timing"`
	Terminal TerminalConfig `yaml:"terminal"`
	Chime    ChimeConfig    `yaml:"chime"`
	Export   ExportConfig   `yaml:"export"`
}

type SurfaceConfig struct {
	Width     int            `yaml:"width"`
	Height    int            `yaml:"height"`
	MaxWidth  int            `yaml:"maxWidth"`
	MaxHeight int            `yaml:"maxHeight"`
	Scaler    surface.Scaler `yaml:"scaler"`
}

type TimingConfig struct {
	Tick               time.Duration `yaml:"tick"`
	Frame              time.Duration `yaml:"frame"`
	DecrementThreshold time.Duration `yaml:"decrementThreshold"`
}

type TerminalConfig struct {
	// PixelScale is how many canvas pixels one half-block cell covers
	// on each axis.
	PixelScale int  `yaml:"pixelScale"`
	ShowClock  bool `yaml:"showClock"`
	// LogFile receives log output while the screen is active. Empty
	// discards it.
	LogFile string `yaml:"logFile"`
}

type ChimeConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Frequency float64       `yaml:"frequency"`
	Duration  time.Duration `yaml:"duration"`
	Volume    float64       `yaml:"volume"`
}

type ExportConfig struct {
	Dir     string `yaml:"dir"`
	Format  string `yaml:"format"`
	FPS     int    `yaml:"fps"`
	Threads int    `yaml:"threads"`
	// Archive bundles the frames into one .tar.zst instead of loose
	// files.
	Archive bool `yaml:"archive"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Preset: "canonical",
		Reveal: reveal.DefaultParams,
		Surface: SurfaceConfig{
			Width:     1280,
			Height:    720,
			MaxWidth:  1920,
			MaxHeight: 1080,
			Scaler:    surface.NearestNeighbor,
		},
		Timing: TimingConfig{
			Tick:               time.Second,
			Frame:              time.Second / 60,
			DecrementThreshold: 900 * time.Millisecond,
		},
		Terminal: TerminalConfig{
			PixelScale: 4,
			ShowClock:  true,
		},
		Chime: ChimeConfig{
			Enabled:   true,
			Frequency: 880,
			Duration:  600 * time.Millisecond,
			Volume:    0.3,
		},
		Export: ExportConfig{
			Dir:     "frames",
			Format:  "png",
			FPS:     30,
			Threads: 4,
		},
	}
}

// Load reads path over the defaults, so a file only needs the fields it
// changes.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

// ResolveCurve returns the explicit curve if one is set, otherwise the
// preset.
func (c Config) ResolveCurve() (schedule.Curve, error) {
	if c.Curve != nil {
		return *c.Curve, nil
	}
	return schedule.Preset(c.Preset)
}

var formats = map[string]bool{"png": true, "bmp": true, "dds": true}

// Validate reports every inconsistent field.
func (c Config) Validate() error {
	var errs []error
	curve, err := c.ResolveCurve()
	if err != nil {
		errs = append(errs, err)
	} else if err := curve.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("curve: %w", err))
	}

	r := c.Reveal
	if r.Duration <= 0 {
		errs = append(errs, fmt.Errorf("reveal.duration must be positive, got %v", r.Duration))
	}
	if r.TransitionZone < 0 {
		errs = append(errs, fmt.Errorf("reveal.transitionZone must not be negative, got %d", r.TransitionZone))
	}
	if r.BaseBlockSize < 1 {
		errs = append(errs, fmt.Errorf("reveal.baseBlockSize must be at least 1, got %d", r.BaseBlockSize))
	}
	if r.BaseSaturation < 0 || r.BaseSaturation > 1 {
		errs = append(errs, fmt.Errorf("reveal.baseSaturation must be within [0,1], got %v", r.BaseSaturation))
	}
	if r.EdgeAlpha < 0 || r.EdgeAlpha > 1 {
		errs = append(errs, fmt.Errorf("reveal.edgeAlpha must be within [0,1], got %v", r.EdgeAlpha))
	}

	if c.Minutes < 0 {
		errs = append(errs, fmt.Errorf("minutes must not be negative, got %d", c.Minutes))
	}
	if c.Surface.Width < 1 || c.Surface.Height < 1 {
		errs = append(errs, fmt.Errorf("surface size must be positive, got %dx%d", c.Surface.Width, c.Surface.Height))
	}
	if _, err := c.Surface.Scaler.Interpolator(); err != nil {
		errs = append(errs, err)
	}
	if c.Timing.Tick <= 0 || c.Timing.Frame <= 0 {
		errs = append(errs, fmt.Errorf("timing intervals must be positive, got tick %v frame %v", c.Timing.Tick, c.Timing.Frame))
	}
	if c.Timing.DecrementThreshold <= 0 || c.Timing.DecrementThreshold > c.Timing.Tick {
		errs = append(errs, fmt.Errorf("timing.decrementThreshold must be within (0, tick], got %v", c.Timing.DecrementThreshold))
	}
	if c.Terminal.PixelScale < 1 {
		errs = append(errs, fmt.Errorf("terminal.pixelScale must be at least 1, got %d", c.Terminal.PixelScale))
	}
	if c.Chime.Enabled {
		if c.Chime.Frequency <= 0 || c.Chime.Duration <= 0 {
			errs = append(errs, fmt.Errorf("chime needs a positive frequency and duration"))
		}
		if c.Chime.Volume < 0 || c.Chime.Volume > 1 {
			errs = append(errs, fmt.Errorf("chime.volume must be within [0,1], got %v", c.Chime.Volume))
		}
	}
	if !formats[c.Export.Format] {
		errs = append(errs, fmt.Errorf("export.format %q is not one of png, bmp, dds", c.Export.Format))
	}
	if c.Export.FPS < 1 || c.Export.Threads < 1 {
		errs = append(errs, fmt.Errorf("export fps and threads must be at least 1, got %d and %d", c.Export.FPS, c.Export.Threads))
	}
	return errors.Join(errs...)
}

// Save writes c as YAML.
func (c Config) Save(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, raw, 0666)
}
