// Package window shows a session in a desktop window. ebiten calls Update
// on a single goroutine, so the session is driven from there: a manual
// scheduler gets a tick once per interval and a frame on every update.
package window

import (
	"fmt"
	"image"
	"strconv"
	"time"

	"github.com/erinpentecost/StudyReveal/internal/driver"
	"github.com/erinpentecost/StudyReveal/internal/session"
	"github.com/erinpentecost/StudyReveal/internal/surface"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	xdraw "golang.org/x/image/draw"
)

type Options struct {
	Session session.Options
	Width   int
	Height  int
	Title   string
	Minutes int
	// TickInterval spaces the countdown ticks.
	TickInterval time.Duration
	ShowClock    bool
	Scaler       xdraw.Interpolator
}

// Input is what one update read from the keyboard.
type Input struct {
	Toggle    bool
	Start     bool
	Backspace bool
	Quit      bool
	Chars     []rune
}

type Game struct {
	session  *session.Session
	canvas   *surface.Canvas
	sched    *driver.Manual
	interval time.Duration
	clock    bool

	lastTick time.Time
	// size reported by the last Layout, applied on the next Update
	wantW, wantH int
	haveW, haveH int

	texture *ebiten.Image
	text    string
	input   string
	message string
	overlay bool
}

var _ ebiten.Game = (*Game)(nil)

func New(img image.Image, opts Options) (*Game, error) {
	g := &Game{
		canvas:   surface.NewCanvas(max(1, opts.Width), max(1, opts.Height), opts.Scaler),
		sched:    &driver.Manual{},
		interval: opts.TickInterval,
		clock:    opts.ShowClock,
		overlay:  true,
	}
	if g.interval <= 0 {
		g.interval = driver.DefaultTickInterval
	}

	sopts := opts.Session
	onDisplay, onReveal := sopts.OnDisplay, sopts.OnReveal
	sopts.OnDisplay = func(text string) {
		g.text = text
		if onDisplay != nil {
			onDisplay(text)
		}
	}
	sopts.OnReveal = func() {
		g.overlay = false
		if onReveal != nil {
			onReveal()
		}
	}
	s, err := session.New(g.canvas, img, g.sched, sopts)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	g.session = s
	g.wantW, g.wantH = g.canvas.Width(), g.canvas.Height()
	g.haveW, g.haveH = g.wantW, g.wantH
	if opts.Minutes > 0 {
		s.SetMinutes(opts.Minutes)
		g.input = strconv.Itoa(opts.Minutes)
	}
	return g, nil
}

func (g *Game) Session() *session.Session { return g.session }

func (g *Game) Update() error {
	if g.step(time.Now(), readInput()) {
		return ebiten.Termination
	}
	return nil
}

func readInput() Input {
	return Input{
		Toggle:    inpututil.IsKeyJustPressed(ebiten.KeySpace),
		Start:     inpututil.IsKeyJustPressed(ebiten.KeyEnter),
		Backspace: inpututil.IsKeyJustPressed(ebiten.KeyBackspace),
		Quit:      inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ),
		Chars:     ebiten.AppendInputChars(nil),
	}
}

// step runs one update and reports whether to quit.
func (g *Game) step(now time.Time, in Input) bool {
	if in.Quit {
		return true
	}
	if g.wantW != g.haveW || g.wantH != g.haveH {
		g.session.Resize(g.wantW, g.wantH)
		g.haveW, g.haveH = g.wantW, g.wantH
	}

	if g.session.Phase() == session.Setup {
		for _, r := range in.Chars {
			switch {
			case r >= '0' && r <= '9' && len(g.input) < 4:
				g.input += string(r)
			case r == '+':
				g.session.AddMinutes(30)
				g.input = strconv.Itoa(g.session.Minutes())
			}
		}
		if in.Backspace && g.input != "" {
			g.input = g.input[:len(g.input)-1]
		}
		g.session.SetMinutes(session.ParseMinutes(g.input))
	}
	if in.Start || (in.Toggle && g.session.Phase() == session.Setup) {
		g.start()
	}
	if in.Toggle {
		g.session.Toggle(now)
	}

	if since := now.Sub(g.lastTick); since >= g.interval && g.sched.Tick(now) {
		// Ticks stay on the interval grid unless a whole interval was
		// missed.
		if since < 2*g.interval {
			g.lastTick = g.lastTick.Add(g.interval)
		} else {
			g.lastTick = now
		}
	}
	g.sched.Frame(now)
	return false
}

func (g *Game) start() {
	if g.session.Phase() != session.Setup {
		return
	}
	if err := g.session.Start(); err != nil {
		g.message = err.Error()
		return
	}
	g.message = ""
}

func (g *Game) Draw(screen *ebiten.Image) {
	src := g.canvas.Image()
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w == 0 || h == 0 {
		return
	}
	if g.texture == nil || g.texture.Bounds().Dx() != w || g.texture.Bounds().Dy() != h {
		if g.texture != nil {
			g.texture.Deallocate()
		}
		g.texture = ebiten.NewImage(w, h)
	}
	g.texture.WritePixels(src.Pix)

	// The canvas may be clamped below the window size.
	op := &ebiten.DrawImageOptions{}
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	op.GeoM.Scale(float64(sw)/float64(w), float64(sh)/float64(h))
	screen.DrawImage(g.texture, op)

	if g.overlay {
		for i, line := range g.overlayLines(time.Now()) {
			ebitenutil.DebugPrintAt(screen, line, sw/2-len(line)*3, sh/2-24+i*16)
		}
	}
}

func (g *Game) overlayLines(now time.Time) []string {
	var lines []string
	switch g.session.Phase() {
	case session.Setup:
		lines = append(lines, "Study minutes: "+g.input+"_", "enter start  + 30 min  esc quit")
	case session.Armed:
		lines = append(lines, g.text, "space begins")
	case session.Paused:
		lines = append(lines, g.text, "paused")
	default:
		lines = append(lines, g.text)
	}
	if g.clock {
		lines = append(lines, session.FormatWallClock(now))
	}
	if g.message != "" {
		lines = append(lines, g.message)
	}
	return lines
}

// Layout records the window size; the canvas follows on the next Update.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.wantW, g.wantH = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

// Run opens the window and blocks until it is closed.
func Run(img image.Image, opts Options) error {
	g, err := New(img, opts)
	if err != nil {
		return err
	}
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("run window: %w", err)
	}
	return nil
}
