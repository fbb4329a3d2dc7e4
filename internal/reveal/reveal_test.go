package reveal

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/erinpentecost/StudyReveal/internal/pixelate"
	"github.com/erinpentecost/StudyReveal/internal/surface"
	"github.com/stretchr/testify/require"
)

func landscape(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), uint8((x * y) % 256), 255})
		}
	}
	return img
}

func newAnimator(w, h int) (*Animator, *surface.Canvas, *image.RGBA) {
	img := landscape(w, h)
	canvas := surface.NewCanvas(w, h, nil)
	canvas.DrawImage(img, image.Rect(0, 0, w, h))
	r := pixelate.NewRenderer(canvas)
	r.SetSource(canvas.PixelBuffer())
	return NewAnimator(DefaultParams, canvas, r, img), canvas, img
}

func TestWavePosition_Endpoints(t *testing.T) {
	d := DefaultParams.Duration
	require.Equal(t, 0.0, WavePosition(0, d, 800, 150))
	require.Equal(t, 950.0, WavePosition(d, d, 800, 150))
	require.Equal(t, 950.0, WavePosition(2*d, d, 800, 150))
	require.Equal(t, 0.0, WavePosition(-time.Second, d, 800, 150))
}

func TestWavePosition_StrictlyIncreasing(t *testing.T) {
	d := DefaultParams.Duration
	last := -1.0
	for ms := 0; ms <= 3000; ms += 10 {
		w := WavePosition(time.Duration(ms)*time.Millisecond, d, 1280, 150)
		require.Greater(t, w, last, "at %dms", ms)
		last = w
	}
}

func TestWavePosition_EaseOut(t *testing.T) {
	d := DefaultParams.Duration
	// Half the time covers three quarters of the distance.
	require.InDelta(t, 0.75*1000, WavePosition(d/2, d, 850, 150), 1e-9)
}

func TestRawProgress_ZeroDuration(t *testing.T) {
	require.Equal(t, 1.0, RawProgress(0, 0))
}

func TestAnimator_Lifecycle(t *testing.T) {
	a, canvas, img := newAnimator(40, 20)
	start := time.Unix(1000, 0)

	require.Equal(t, Idle, a.State())
	require.False(t, a.Frame(start), "frames before Start are ignored")

	a.Start(start)
	require.Equal(t, Running, a.State())
	require.True(t, a.Frame(start))
	require.True(t, a.Frame(start.Add(1500*time.Millisecond)))

	require.False(t, a.Frame(start.Add(3*time.Second)))
	require.Equal(t, Done, a.State())
	require.Equal(t, img.Pix, canvas.Image().Pix, "final frame is the full image")

	// Done is frozen.
	canvas.Clear()
	require.False(t, a.Frame(start.Add(4*time.Second)))
	require.Equal(t, color.RGBA{}, canvas.Image().RGBAAt(5, 5))

	a.Start(start.Add(10 * time.Second))
	require.Equal(t, Done, a.State(), "not restartable")
}

func TestAnimator_FirstFrameIsPixelated(t *testing.T) {
	a, canvas, _ := newAnimator(32, 16)
	src := canvas.PixelBuffer()

	a.DrawAt(0)
	want := src.Average(8, 8, 8, 8, 0.5)
	require.Equal(t, want, canvas.Image().RGBAAt(9, 9))
	require.Equal(t, want, canvas.Image().RGBAAt(15, 15))
}

func TestAnimator_RevealedRegionIsFullResolution(t *testing.T) {
	a, canvas, img := newAnimator(200, 10)
	// halfway: wave = 0.75 * 350 = 262.5, past the right edge
	a.DrawAt(1500 * time.Millisecond)

	// left of the gradient zone (wave-150 = 112.5) the image shows through
	for x := range 100 {
		require.Equal(t, img.RGBAAt(x, 3), canvas.Image().RGBAAt(x, 3), "column %d", x)
	}
	// inside the zone the white edge brightens the pixels
	px := canvas.Image().RGBAAt(199, 3)
	orig := img.RGBAAt(199, 3)
	require.GreaterOrEqual(t, px.R, orig.R)
	require.NotEqual(t, orig, px)
}

func TestParams_Frames(t *testing.T) {
	require.Equal(t, 91, DefaultParams.Frames(30))
	require.Equal(t, 1, DefaultParams.Frames(0))
}
