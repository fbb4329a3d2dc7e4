// Package reveal runs the closing wipe: a pixelated base layer gives way,
// left to right, to the full-resolution image behind a soft white edge.
package reveal

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/erinpentecost/StudyReveal/internal/pixelate"
	"github.com/erinpentecost/StudyReveal/internal/surface"
)

// Params tune the wipe.
type Params struct {
	// Duration of the wipe from first frame to the final image.
	Duration time.Duration `yaml:"duration"`
	// TransitionZone is the width in pixels of the gradient edge.
	TransitionZone int `yaml:"transitionZone"`
	// BaseBlockSize and BaseSaturation describe the pixelated layer
	// still visible ahead of the wave.
	BaseBlockSize  int     `yaml:"baseBlockSize"`
	BaseSaturation float64 `yaml:"baseSaturation"`
	// EdgeAlpha is the opacity of the white edge at the wave front.
	EdgeAlpha float64 `yaml:"edgeAlpha"`
}

// DefaultParams is a three second wipe with a 150px edge.
var DefaultParams = Params{
	Duration:       3 * time.Second,
	TransitionZone: 150,
	BaseBlockSize:  8,
	BaseSaturation: 0.5,
	EdgeAlpha:      0.6,
}

type State int

const (
	Idle State = iota
	Running
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// RawProgress is the linear fraction of the wipe completed after elapsed.
func RawProgress(elapsed, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	return min(1, max(0, float64(elapsed)/float64(duration)))
}

// WavePosition returns the x coordinate of the wave front after elapsed.
// It runs from 0 to width+zone with a quadratic ease-out.
func WavePosition(elapsed, duration time.Duration, width, zone int) float64 {
	raw := RawProgress(elapsed, duration)
	eased := 1 - math.Pow(1-raw, 2)
	return eased * float64(width+zone)
}

// Animator draws the wipe onto a surface. It runs once: Start, then Frame
// on every display refresh until it reports false.
type Animator struct {
	params   Params
	surface  surface.Surface
	renderer *pixelate.Renderer
	image    image.Image

	state State
	start time.Time
}

// NewAnimator draws img over the pixelated layer produced by renderer.
// renderer must already hold the source captured from surface.
func NewAnimator(p Params, s surface.Surface, renderer *pixelate.Renderer, img image.Image) *Animator {
	return &Animator{
		params:   p,
		surface:  s,
		renderer: renderer,
		image:    img,
	}
}

func (a *Animator) State() State { return a.state }

// Start records the wipe epoch. Later calls are ignored.
func (a *Animator) Start(now time.Time) {
	if a.state != Idle {
		return
	}
	a.state = Running
	a.start = now
}

// Frame draws the frame for now and reports whether more frames are
// wanted. Once the wipe completes the full image is drawn a final time
// and every later call returns false without drawing.
func (a *Animator) Frame(now time.Time) bool {
	if a.state != Running {
		return false
	}
	elapsed := max(0, now.Sub(a.start))
	if RawProgress(elapsed, a.params.Duration) >= 1 {
		a.finish()
		return false
	}
	a.DrawAt(elapsed)
	return true
}

// DrawAt renders the frame for an elapsed offset without changing state.
func (a *Animator) DrawAt(elapsed time.Duration) {
	w, h := a.surface.Width(), a.surface.Height()
	zone := a.params.TransitionZone
	wave := WavePosition(elapsed, a.params.Duration, w, zone)

	a.surface.Clear()
	// A base layer failure only happens without a source; the full
	// image is still drawn over whatever is there.
	_ = a.renderer.Render(a.params.BaseBlockSize, a.params.BaseSaturation)

	if wave > 0 {
		a.surface.PushClip(image.Rect(0, 0, int(math.Ceil(wave)), h))
		a.surface.DrawImage(a.image, image.Rect(0, 0, w, h))
		a.surface.PopClip()
	}

	if wave < float64(w+zone) {
		edge := int(math.Round(wave))
		from := color.NRGBA{R: 255, G: 255, B: 255, A: 0}
		to := color.NRGBA{R: 255, G: 255, B: 255, A: uint8(math.Round(a.params.EdgeAlpha * 255))}
		a.surface.FillLinearGradient(image.Rect(edge-zone, 0, edge, h), from, to)
	}
}

// DrawFinal draws the full-resolution image over the whole surface.
func (a *Animator) DrawFinal() {
	w, h := a.surface.Width(), a.surface.Height()
	a.surface.Clear()
	a.surface.DrawImage(a.image, image.Rect(0, 0, w, h))
}

func (a *Animator) finish() {
	a.DrawFinal()
	a.state = Done
}

// Frames returns how many frames an offline render at fps needs to cover
// the wipe, including the final full image.
func (p Params) Frames(fps int) int {
	if fps <= 0 || p.Duration <= 0 {
		return 1
	}
	return int(math.Ceil(p.Duration.Seconds()*float64(fps))) + 1
}
