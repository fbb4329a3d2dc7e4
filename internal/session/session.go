// Package session ties one study countdown to its pixelated background:
// it owns the countdown state, the captured source pixels, the renderer,
// and the closing reveal, and is driven by a driver.Scheduler.
//
// A Session is not safe for concurrent use. Every method, and every
// callback it registers, must run on the scheduler's goroutine.
package session

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/erinpentecost/StudyReveal/internal/driver"
	"github.com/erinpentecost/StudyReveal/internal/pixelate"
	"github.com/erinpentecost/StudyReveal/internal/reveal"
	"github.com/erinpentecost/StudyReveal/internal/schedule"
	"github.com/erinpentecost/StudyReveal/internal/surface"
)

type Phase int

const (
	// Setup accepts the duration.
	Setup Phase = iota
	// Armed has drawn the first stage and waits for the start toggle.
	Armed
	Running
	Paused
	// Revealing hands the surface to the reveal animation.
	Revealing
	// Done is terminal.
	Done
)

func (p Phase) String() string {
	switch p {
	case Setup:
		return "setup"
	case Armed:
		return "armed"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Revealing:
		return "revealing"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

var (
	ErrNoDuration   = errors.New("no study time set")
	ErrEmptyImage   = errors.New("image has no pixels")
	ErrEmptySurface = errors.New("surface has no pixels")
	ErrStarted      = errors.New("session already started")
)

// DefaultDecrementThreshold tolerates a tick arriving slightly early.
const DefaultDecrementThreshold = 900 * time.Millisecond

// Options configure a Session. The zero value of each field takes its
// default.
type Options struct {
	Curve  schedule.Curve
	Reveal reveal.Params

	// MaxWidth and MaxHeight clamp the surface on resize.
	MaxWidth  int
	MaxHeight int

	// DecrementThreshold is the minimum wall-clock gap between two
	// one-second decrements.
	DecrementThreshold time.Duration

	// OnDisplay receives the countdown text on every tick.
	OnDisplay func(text string)
	// OnStage is called after each redraw caused by a stage change.
	OnStage func(Status)
	// OnReveal is called once, before the first reveal frame.
	OnReveal func()
}

func (o Options) withDefaults() Options {
	if o.Curve == (schedule.Curve{}) {
		o.Curve = schedule.Canonical
	}
	if o.Reveal == (reveal.Params{}) {
		o.Reveal = reveal.DefaultParams
	}
	if o.DecrementThreshold <= 0 {
		o.DecrementThreshold = DefaultDecrementThreshold
	}
	return o
}

// Status is a read-only view of a session.
type Status struct {
	Phase      Phase
	Minutes    int
	Total      int
	Remaining  int
	Stage      int
	BlockSize  int
	Saturation float64
	Text       string
	Width      int
	Height     int
}

type Session struct {
	opts     Options
	sched    driver.Scheduler
	surface  surface.Surface
	image    image.Image
	renderer *pixelate.Renderer
	animator *reveal.Animator

	phase     Phase
	minutes   int
	total     int
	remaining int
	lastStage int
	lastStep  schedule.Step
	text      string

	lastDecrement time.Time
	stopTick      func()
}

// New captures img onto s and draws the preview pass.
func New(s surface.Surface, img image.Image, sched driver.Scheduler, opts Options) (*Session, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	opts = opts.withDefaults()
	if err := opts.Curve.Validate(); err != nil {
		return nil, fmt.Errorf("invalid curve: %w", err)
	}
	w, h := surface.ClampSize(s.Width(), s.Height(), opts.MaxWidth, opts.MaxHeight)
	if w == 0 || h == 0 {
		return nil, ErrEmptySurface
	}
	if w != s.Width() || h != s.Height() {
		s.Resize(w, h)
	}

	out := &Session{
		opts:      opts,
		sched:     sched,
		surface:   s,
		image:     img,
		renderer:  pixelate.NewRenderer(s),
		lastStage: -1,
	}
	out.syncSource()
	if err := out.renderer.Preview(); err != nil {
		return nil, fmt.Errorf("draw preview: %w", err)
	}
	return out, nil
}

func (s *Session) Phase() Phase { return s.phase }
func (s *Session) Minutes() int { return s.minutes }

// SetMinutes sets the study duration. It only has an effect during Setup.
func (s *Session) SetMinutes(n int) {
	if s.phase != Setup {
		return
	}
	s.minutes = max(0, n)
}

// AddMinutes extends the duration during Setup.
func (s *Session) AddMinutes(n int) {
	s.SetMinutes(s.minutes + n)
}

// Start fixes the duration, draws the first stage and arms the countdown.
// The countdown itself begins with Toggle or Resume.
func (s *Session) Start() error {
	if s.phase != Setup {
		return ErrStarted
	}
	if s.minutes <= 0 {
		return ErrNoDuration
	}
	s.total = s.minutes * 60
	s.remaining = s.total
	s.phase = Armed
	s.display()
	s.redraw()
	return nil
}

// Toggle is the start/pause/resume button.
func (s *Session) Toggle(now time.Time) {
	switch s.phase {
	case Armed, Paused:
		s.Resume(now)
	case Running:
		s.Pause()
	}
}

// Pause halts the countdown. Remaining time is kept. Pausing anything
// but a running countdown does nothing.
func (s *Session) Pause() {
	if s.phase != Running {
		return
	}
	s.haltTicks()
	s.phase = Paused
}

// Resume starts or restarts the countdown. The first decrement follows
// one full tick after now; time spent paused is never counted.
func (s *Session) Resume(now time.Time) {
	if s.phase != Armed && s.phase != Paused {
		return
	}
	s.lastDecrement = now
	s.phase = Running
	s.stopTick = s.sched.OnTick(s.Tick)
}

func (s *Session) haltTicks() {
	if s.stopTick != nil {
		s.stopTick()
		s.stopTick = nil
	}
}

// Tick advances the countdown. It is registered with the scheduler by
// Resume and is a no-op outside Running.
func (s *Session) Tick(now time.Time) {
	if s.phase != Running {
		return
	}
	if now.Sub(s.lastDecrement) >= s.opts.DecrementThreshold {
		s.remaining--
		s.lastDecrement = now
	}
	if s.remaining <= 0 {
		s.remaining = 0
		s.beginReveal(now)
		return
	}
	s.display()

	if s.opts.Curve.Stage(s.total, s.remaining) != s.lastStage {
		s.redraw()
		if s.opts.OnStage != nil {
			s.opts.OnStage(s.Status())
		}
	}
}

func (s *Session) display() {
	s.text = FormatRemaining(s.remaining)
	if s.opts.OnDisplay != nil {
		s.opts.OnDisplay(s.text)
	}
}

// redraw renders the current stage with the current saturation.
func (s *Session) redraw() {
	step := s.opts.Curve.At(s.total, s.remaining)
	// A collapsed surface has no source and nothing to draw; the stage is
	// still recorded so the next resize redraws it.
	err := s.renderer.Render(step.BlockSize, step.Saturation)
	if err != nil && !errors.Is(err, pixelate.ErrNoSource) {
		panic(fmt.Errorf("render stage %d: %w", step.Stage, err))
	}
	s.lastStage = step.Stage
	s.lastStep = step
}

func (s *Session) beginReveal(now time.Time) {
	s.haltTicks()
	s.phase = Revealing
	s.display()
	if s.opts.OnReveal != nil {
		s.opts.OnReveal()
	}
	s.animator = reveal.NewAnimator(s.opts.Reveal, s.surface, s.renderer, s.image)
	s.animator.Start(now)
	s.sched.OnFrame(s.frame)
}

func (s *Session) frame(now time.Time) bool {
	if s.animator.Frame(now) {
		return true
	}
	s.phase = Done
	return false
}

// Resize reallocates the surface, recaptures the source at the new size
// and redraws whatever the current phase shows. Progress is untouched.
func (s *Session) Resize(w, h int) {
	w, h = surface.ClampSize(w, h, s.opts.MaxWidth, s.opts.MaxHeight)
	if w == s.surface.Width() && h == s.surface.Height() {
		return
	}
	s.surface.Resize(w, h)
	if w == 0 || h == 0 {
		s.renderer.SetSource(nil)
		return
	}
	s.syncSource()

	switch s.phase {
	case Setup:
		_ = s.renderer.Preview()
	case Armed, Running, Paused:
		s.redraw()
	case Revealing:
		// the next frame draws at the new size
	case Done:
		s.animator.DrawFinal()
	}
}

// syncSource draws the image at surface size and captures it.
func (s *Session) syncSource() {
	w, h := s.surface.Width(), s.surface.Height()
	s.surface.Clear()
	s.surface.DrawImage(s.image, image.Rect(0, 0, w, h))
	s.renderer.SetSource(s.surface.PixelBuffer())
}

func (s *Session) Status() Status {
	return Status{
		Phase:      s.phase,
		Minutes:    s.minutes,
		Total:      s.total,
		Remaining:  s.remaining,
		Stage:      s.lastStep.Stage,
		BlockSize:  s.lastStep.BlockSize,
		Saturation: s.lastStep.Saturation,
		Text:       s.text,
		Width:      s.surface.Width(),
		Height:     s.surface.Height(),
	}
}
