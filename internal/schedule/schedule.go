// Package schedule maps countdown progress onto discrete reveal stages and
// the block size and saturation used to draw each of them.
package schedule

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Curve is one parameter set for the stage → block size mapping.
type Curve struct {
	// Stages is the number of discrete reveal stages.
	Stages int `yaml:"stages"`
	// MaxBlockSize is the tile edge at stage 0.
	MaxBlockSize int `yaml:"maxBlockSize"`
	// MinBlockSize is the tile edge at the last stage.
	MinBlockSize int `yaml:"minBlockSize"`
	// Exponent eases normalized stage progress. Above 1 the blocks shrink
	// slowly at first and quickly at the end; 1 is a plain geometric decay.
	Exponent float64 `yaml:"exponent"`
	// FadeSeconds is the length of the final window in which colours
	// desaturate.
	FadeSeconds int `yaml:"fadeSeconds"`
	// FadeFloor is the saturation reached when no time remains.
	FadeFloor float64 `yaml:"fadeFloor"`
}

// Canonical is the default curve: 16 stages from 256px to 8px, eased.
var Canonical = Curve{
	Stages:       16,
	MaxBlockSize: 256,
	MinBlockSize: 8,
	Exponent:     1.4,
	FadeSeconds:  60,
	FadeFloor:    0.5,
}

// Classic is the older, finer-grained variant: 32 stages from 128px to
// 4px without easing.
var Classic = Curve{
	Stages:       32,
	MaxBlockSize: 128,
	MinBlockSize: 4,
	Exponent:     1,
	FadeSeconds:  60,
	FadeFloor:    0.5,
}

var presets = map[string]Curve{
	"canonical": Canonical,
	"classic":   Classic,
}

// ErrUnknownPreset is returned by Preset for names it does not know.
var ErrUnknownPreset = errors.New("unknown curve preset")

// Preset returns the named curve.
func Preset(name string) (Curve, error) {
	c, ok := presets[name]
	if !ok {
		return Curve{}, fmt.Errorf("%w %q (have %v)", ErrUnknownPreset, name, PresetNames())
	}
	return c, nil
}

// PresetNames lists the known preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate reports the first inconsistent field.
func (c Curve) Validate() error {
	if c.Stages < 1 {
		return fmt.Errorf("stages must be at least 1, got %d", c.Stages)
	}
	if c.MinBlockSize < 1 {
		return fmt.Errorf("minBlockSize must be at least 1, got %d", c.MinBlockSize)
	}
	if c.MaxBlockSize < c.MinBlockSize {
		return fmt.Errorf("maxBlockSize %d is below minBlockSize %d", c.MaxBlockSize, c.MinBlockSize)
	}
	if c.Exponent <= 0 || math.IsNaN(c.Exponent) || math.IsInf(c.Exponent, 0) {
		return fmt.Errorf("exponent must be a positive number, got %v", c.Exponent)
	}
	if c.FadeSeconds < 0 {
		return fmt.Errorf("fadeSeconds must not be negative, got %d", c.FadeSeconds)
	}
	if c.FadeFloor < 0 || c.FadeFloor > 1 {
		return fmt.Errorf("fadeFloor must be within [0,1], got %v", c.FadeFloor)
	}
	return nil
}

// Progress returns the elapsed fraction of the countdown, clamped to
// [0,1]. ok is false when total is not positive and progress is undefined.
func Progress(totalSeconds, remainingSeconds int) (progress float64, ok bool) {
	if totalSeconds <= 0 {
		return 0, false
	}
	p := float64(totalSeconds-remainingSeconds) / float64(totalSeconds)
	return min(1, max(0, p)), true
}

// StageAt returns the stage for a progress value in [0,1].
func (c Curve) StageAt(progress float64) int {
	stage := int(math.Floor(progress * float64(c.Stages)))
	return min(c.Stages-1, max(0, stage))
}

// Stage returns the stage for a countdown. An undefined progress is
// stage 0.
func (c Curve) Stage(totalSeconds, remainingSeconds int) int {
	p, ok := Progress(totalSeconds, remainingSeconds)
	if !ok {
		return 0
	}
	return c.StageAt(p)
}

// BlockSize returns the tile edge in pixels for a stage.
func (c Curve) BlockSize(stage int) int {
	stage = min(c.Stages-1, max(0, stage))
	var p float64
	if c.Stages > 1 {
		p = float64(stage) / float64(c.Stages-1)
	}
	eased := math.Pow(p, c.Exponent)
	ratio := float64(c.MinBlockSize) / float64(c.MaxBlockSize)
	size := int(math.Round(float64(c.MaxBlockSize) * math.Pow(ratio, eased)))
	return min(c.MaxBlockSize, max(c.MinBlockSize, size))
}

// Saturation returns 1 until the fade window, then ramps linearly down to
// FadeFloor at zero remaining.
func (c Curve) Saturation(remainingSeconds int) float64 {
	if c.FadeSeconds <= 0 || remainingSeconds > c.FadeSeconds {
		return 1
	}
	frac := max(0, float64(remainingSeconds)) / float64(c.FadeSeconds)
	return c.FadeFloor + frac*(1-c.FadeFloor)
}

// Step is the full scheduler output for one tick.
type Step struct {
	Stage      int
	BlockSize  int
	Saturation float64
}

// At computes the Step for a countdown.
func (c Curve) At(totalSeconds, remainingSeconds int) Step {
	stage := c.Stage(totalSeconds, remainingSeconds)
	return Step{
		Stage:      stage,
		BlockSize:  c.BlockSize(stage),
		Saturation: c.Saturation(remainingSeconds),
	}
}
