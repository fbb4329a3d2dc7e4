package termview

import (
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/erinpentecost/StudyReveal/internal/driver"
	"github.com/erinpentecost/StudyReveal/internal/session"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 10, 18, 14, 30, 5, 0, time.UTC)

func uniform(c color.RGBA, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func newView(t *testing.T, img image.Image, opts Options) (*View, tcell.SimulationScreen, *driver.Manual) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(40, 12)

	m := &driver.Manual{}
	v, err := New(screen, img, m, opts)
	require.NoError(t, err)
	return v, screen, m
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

// screenText collects every non-block rune on screen, row by row.
func screenText(screen tcell.SimulationScreen) string {
	cols, rows := screen.Size()
	var out []rune
	for y := range rows {
		for x := range cols {
			r, _, _, _ := screen.GetContent(x, y)
			if r != halfBlock {
				out = append(out, r)
			}
		}
	}
	return string(out)
}

func TestNew_SizesCanvasToScreen(t *testing.T) {
	v, _, _ := newView(t, uniform(color.RGBA{255, 0, 0, 255}, 10, 10), Options{PixelScale: 3})
	st := v.Session().Status()
	require.Equal(t, 120, st.Width)
	require.Equal(t, 72, st.Height)
	require.Equal(t, session.Setup, st.Phase)
}

func TestSetupKeys(t *testing.T) {
	v, screen, m := newView(t, uniform(color.RGBA{0, 0, 255, 255}, 10, 10), Options{PixelScale: 1})
	s := v.Session()

	for _, r := range "25" {
		require.False(t, v.HandleEvent(key(r), epoch))
	}
	require.Equal(t, 25, s.Minutes())
	v.HandleEvent(tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), epoch)
	require.Equal(t, 2, s.Minutes())
	v.HandleEvent(key('+'), epoch)
	require.Equal(t, 32, s.Minutes())

	v.Draw(epoch)
	require.Contains(t, screenText(screen), "Study minutes: 32_")

	v.HandleEvent(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), epoch)
	require.Equal(t, session.Armed, s.Phase())
	v.HandleEvent(key('7'), epoch)
	require.Equal(t, 32, s.Minutes(), "digits are ignored once started")

	v.Draw(epoch)
	require.Contains(t, screenText(screen), "0:32")

	v.HandleEvent(key(' '), epoch)
	require.Equal(t, session.Running, s.Phase())
	require.True(t, m.Ticking())
	v.HandleEvent(key(' '), epoch)
	require.Equal(t, session.Paused, s.Phase())
}

func TestStartWithoutMinutesShowsError(t *testing.T) {
	v, screen, _ := newView(t, uniform(color.RGBA{0, 0, 255, 255}, 10, 10), Options{PixelScale: 1})
	v.HandleEvent(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), epoch)
	require.Equal(t, session.Setup, v.Session().Phase())
	v.Draw(epoch)
	require.Contains(t, screenText(screen), session.ErrNoDuration.Error())
}

func TestClock(t *testing.T) {
	v, screen, _ := newView(t, uniform(color.RGBA{0, 0, 255, 255}, 10, 10), Options{PixelScale: 1, ShowClock: true})
	v.Draw(epoch)
	require.Contains(t, screenText(screen), "14 : 30 : 05")
}

func TestQuit(t *testing.T) {
	v, _, _ := newView(t, uniform(color.RGBA{0, 0, 255, 255}, 10, 10), Options{})
	require.True(t, v.HandleEvent(key('q'), epoch))
	require.True(t, v.HandleEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), epoch))
	require.False(t, v.HandleEvent(key('x'), epoch))
}

func TestRevealStripsOverlay(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	revealed := 0
	opts := Options{
		PixelScale: 2,
		Minutes:    1,
		ShowClock:  true,
		Session:    session.Options{OnReveal: func() { revealed++ }},
	}
	v, screen, m := newView(t, uniform(red, 30, 20), opts)
	v.HandleEvent(key(' '), epoch)
	require.Equal(t, session.Running, v.Session().Phase())

	now := epoch
	for range 60 {
		now = now.Add(time.Second)
		m.Tick(now)
	}
	require.Equal(t, 1, revealed)
	for m.Frame(now) {
		now = now.Add(time.Second / 30)
	}
	require.Equal(t, session.Done, v.Session().Phase())

	v.Draw(now)
	require.Empty(t, screenText(screen))

	cols, rows := screen.Size()
	for y := range rows {
		for x := range cols {
			_, _, style, _ := screen.GetContent(x, y)
			fg, bg, _ := style.Decompose()
			require.Equal(t, tcell.NewRGBColor(255, 0, 0), fg)
			require.Equal(t, tcell.NewRGBColor(255, 0, 0), bg)
		}
	}
}

func TestResize(t *testing.T) {
	v, screen, _ := newView(t, uniform(color.RGBA{0, 255, 0, 255}, 10, 10), Options{PixelScale: 2})
	screen.SetSize(20, 5)
	v.HandleEvent(tcell.NewEventResize(20, 5), epoch)
	st := v.Session().Status()
	require.Equal(t, 40, st.Width)
	require.Equal(t, 20, st.Height)

	v.Draw(epoch)
	// The setup box covers the top four rows.
	r, _, _, _ := screen.GetContent(0, 4)
	require.Equal(t, halfBlock, r)
}

func rowText(screen tcell.SimulationScreen, y int) string {
	cols, _ := screen.Size()
	var out []rune
	for x := range cols {
		r, _, _, _ := screen.GetContent(x, y)
		out = append(out, r)
	}
	return string(out)
}

func TestOverlayFitsNarrowScreen(t *testing.T) {
	v, screen, _ := newView(t, uniform(color.RGBA{0, 255, 0, 255}, 10, 10), Options{PixelScale: 1})
	screen.SetSize(20, 5)
	v.HandleEvent(tcell.NewEventResize(20, 5), epoch)
	v.Draw(epoch)

	require.Equal(t, "  Study minutes: _  ", rowText(screen, 1))
	require.Equal(t, "enter start  + 30 mi", rowText(screen, 2))
	require.Equal(t, strings.Repeat(string(halfBlock), 20), rowText(screen, 4))

	// Too few rows for the box border: the lines still start at the top.
	screen.SetSize(12, 1)
	v.HandleEvent(tcell.NewEventResize(12, 1), epoch)
	v.Draw(epoch)
	require.Equal(t, "Study minute", rowText(screen, 0))
}

func TestRedirectLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reveal.log")
	restore, err := RedirectLog(path)
	require.NoError(t, err)
	log.Printf("hidden from the screen")
	restore()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "hidden from the screen")
}
