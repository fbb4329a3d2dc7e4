// Package termview shows a session in a terminal. Each character cell
// is an upper half block whose foreground and background carry two
// vertically stacked pixels.
package termview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/erinpentecost/StudyReveal/internal/driver"
	"github.com/erinpentecost/StudyReveal/internal/session"
	"github.com/erinpentecost/StudyReveal/internal/surface"
	"github.com/gdamore/tcell/v2"
	xdraw "golang.org/x/image/draw"
)

const halfBlock = '▀'

type Options struct {
	Session session.Options
	// PixelScale is the canvas pixel count per cell pixel on each axis.
	PixelScale int
	ShowClock  bool
	// Minutes pre-fills the duration prompt.
	Minutes int
	// Scaler resizes the image onto the canvas.
	Scaler xdraw.Interpolator
}

type View struct {
	screen  tcell.Screen
	canvas  *surface.Canvas
	session *session.Session
	scale   int
	clock   bool

	// cell pixels, two rows per screen row
	cells *image.RGBA

	text    string
	input   string
	message string
	overlay bool
}

// New sizes a canvas to the screen and starts a session on it.
func New(screen tcell.Screen, img image.Image, sched driver.Scheduler, opts Options) (*View, error) {
	v := &View{
		screen:  screen,
		scale:   max(1, opts.PixelScale),
		clock:   opts.ShowClock,
		overlay: true,
	}
	cols, rows := screen.Size()
	w, h := v.canvasSize(cols, rows)
	v.canvas = surface.NewCanvas(w, h, opts.Scaler)

	sopts := opts.Session
	onDisplay, onReveal := sopts.OnDisplay, sopts.OnReveal
	sopts.OnDisplay = func(text string) {
		v.text = text
		if onDisplay != nil {
			onDisplay(text)
		}
	}
	sopts.OnReveal = func() {
		v.overlay = false
		if onReveal != nil {
			onReveal()
		}
	}
	s, err := session.New(v.canvas, img, sched, sopts)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	v.session = s
	if opts.Minutes > 0 {
		s.SetMinutes(opts.Minutes)
		v.input = strconv.Itoa(opts.Minutes)
	}
	return v, nil
}

func (v *View) Session() *session.Session { return v.session }

func (v *View) canvasSize(cols, rows int) (int, int) {
	return cols * v.scale, rows * 2 * v.scale
}

// HandleEvent applies one terminal event and reports whether the user
// asked to quit.
func (v *View) HandleEvent(ev tcell.Event, now time.Time) (quit bool) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
		cols, rows := ev.Size()
		v.session.Resize(v.canvasSize(cols, rows))
	case *tcell.EventKey:
		return v.handleKey(ev, now)
	}
	return false
}

func (v *View) handleKey(ev *tcell.EventKey, now time.Time) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyEnter:
		v.start()
		return false
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if v.session.Phase() == session.Setup && v.input != "" {
			v.input = v.input[:len(v.input)-1]
			v.session.SetMinutes(session.ParseMinutes(v.input))
		}
		return false
	case tcell.KeyRune:
	default:
		return false
	}

	r := ev.Rune()
	switch {
	case r == 'q':
		return true
	case r == ' ':
		if v.session.Phase() == session.Setup {
			v.start()
		}
		v.session.Toggle(now)
	case r == '+':
		v.session.AddMinutes(30)
		if v.session.Phase() == session.Setup {
			v.input = strconv.Itoa(v.session.Minutes())
		}
	case r >= '0' && r <= '9':
		if v.session.Phase() == session.Setup && len(v.input) < 4 {
			v.input += string(r)
			v.session.SetMinutes(session.ParseMinutes(v.input))
		}
	}
	return false
}

func (v *View) start() {
	if v.session.Phase() != session.Setup {
		return
	}
	v.session.SetMinutes(session.ParseMinutes(v.input))
	if err := v.session.Start(); err != nil {
		v.message = err.Error()
		return
	}
	v.message = ""
}

// Draw presents the canvas and, until the reveal, the countdown box.
func (v *View) Draw(now time.Time) {
	cols, rows := v.screen.Size()
	v.screen.Clear()
	v.drawCells(cols, rows)
	if v.overlay {
		v.drawOverlay(cols, rows, now)
	}
	v.screen.Show()
}

func (v *View) drawCells(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	src := v.canvas.Image()
	if src.Bounds().Empty() {
		return
	}
	if v.cells == nil || v.cells.Bounds().Dx() != cols || v.cells.Bounds().Dy() != rows*2 {
		v.cells = image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	}
	xdraw.ApproxBiLinear.Scale(v.cells, v.cells.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	for y := range rows {
		for x := range cols {
			top := v.cells.RGBAAt(x, 2*y)
			bot := v.cells.RGBAAt(x, 2*y+1)
			style := tcell.StyleDefault.Foreground(rgb(top)).Background(rgb(bot))
			v.screen.SetContent(x, y, halfBlock, nil, style)
		}
	}
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

var boxStyle = tcell.StyleDefault.
	Foreground(tcell.ColorWhite).
	Background(tcell.NewRGBColor(20, 20, 28))

func (v *View) drawOverlay(cols, rows int, now time.Time) {
	var lines []string
	switch v.session.Phase() {
	case session.Setup:
		lines = append(lines, "Study minutes: "+v.input+"_", "enter start  + 30 min  q quit")
	case session.Armed:
		lines = append(lines, v.text, "space begins")
	case session.Paused:
		lines = append(lines, v.text, "paused")
	default:
		lines = append(lines, v.text)
	}
	if v.clock {
		lines = append(lines, session.FormatWallClock(now))
	}
	if v.message != "" {
		lines = append(lines, v.message)
	}

	width := 0
	for _, l := range lines {
		width = max(width, len([]rune(l)))
	}
	// The box never leaves the screen; lines too long for it lose their
	// tail.
	width = min(width+4, cols)
	height := min(len(lines)+2, rows)
	x0 := (cols - width) / 2
	y0 := (rows - height) / 2

	for y := range height {
		for x := range width {
			v.screen.SetContent(x0+x, y0+y, ' ', nil, boxStyle)
		}
	}
	top := y0 + 1
	if height < len(lines)+2 {
		top = y0
	}
	for i, l := range lines {
		y := top + i
		if y >= y0+height {
			break
		}
		runes := []rune(l)
		lx := x0 + max(0, (width-len(runes))/2)
		for j, r := range runes {
			if lx+j >= x0+width {
				break
			}
			v.screen.SetContent(lx+j, y, r, nil, boxStyle)
		}
	}
}

// Run drives v from loop until the user quits or ctx ends. Terminal
// events arrive on their own goroutine and are posted to the loop.
func Run(ctx context.Context, screen tcell.Screen, img image.Image, loop *driver.Loop, opts Options) error {
	v, err := New(screen, img, loop, opts)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop.AfterEach = v.Draw
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			posted := loop.Post(func(now time.Time) {
				if v.HandleEvent(ev, now) {
					cancel()
				}
			})
			if !posted {
				return
			}
		}
	}()
	// The wall clock keeps moving while nothing else ticks.
	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if !loop.Post(func(time.Time) {}) {
					return
				}
			}
		}
	}()

	v.Draw(time.Now())
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// RedirectLog sends the standard logger to path, or discards it when
// path is empty, so log lines do not tear the screen. The returned
// function restores stderr.
func RedirectLog(path string) (restore func(), err error) {
	var out io.Writer = io.Discard
	var f *os.File
	if path != "" {
		f, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
		if err != nil {
			return nil, fmt.Errorf("open log %q: %w", path, err)
		}
		out = f
	}
	log.SetOutput(out)
	return func() {
		log.SetOutput(os.Stderr)
		if f != nil {
			f.Close()
		}
	}, nil
}
