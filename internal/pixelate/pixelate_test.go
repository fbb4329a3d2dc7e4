package pixelate

import (
	"image"
	"image/color"
	"testing"

	"github.com/erinpentecost/StudyReveal/internal/raster"
	"github.com/erinpentecost/StudyReveal/internal/surface"
	"github.com/stretchr/testify/require"
)

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 255 / max(1, w-1)), uint8(y * 255 / max(1, h-1)), 90, 255})
		}
	}
	return img
}

func newRenderer(t *testing.T, w, h int) (*Renderer, *surface.Canvas) {
	t.Helper()
	canvas := surface.NewCanvas(w, h, nil)
	canvas.DrawImage(gradientImage(w, h), image.Rect(0, 0, w, h))
	r := NewRenderer(canvas)
	r.SetSource(canvas.PixelBuffer())
	return r, canvas
}

func TestTiles_CompleteAndDisjoint(t *testing.T) {
	tests := []struct {
		w, h, block int
	}{
		{10, 10, 3},
		{64, 48, 16},
		{7, 5, 256},
		{1, 1, 1},
		{100, 37, 8},
	}
	for _, tt := range tests {
		covered := make([]int, tt.w*tt.h)
		n := 0
		for tile := range Tiles(tt.w, tt.h, tt.block) {
			require.False(t, tile.Empty())
			require.True(t, tile.In(image.Rect(0, 0, tt.w, tt.h)))
			for y := tile.Min.Y; y < tile.Max.Y; y++ {
				for x := tile.Min.X; x < tile.Max.X; x++ {
					covered[y*tt.w+x]++
				}
			}
			n++
		}
		for i, c := range covered {
			require.Equal(t, 1, c, "pixel %d in %dx%d/%d", i, tt.w, tt.h, tt.block)
		}
		require.Equal(t, tileCount(tt.w, tt.h, tt.block), n)
	}
}

func TestTiles_RejectsBadBlock(t *testing.T) {
	for range Tiles(10, 10, 0) {
		t.Fatal("expected no tiles")
	}
}

func TestRender_FlatTiles(t *testing.T) {
	r, canvas := newRenderer(t, 20, 12)
	src := r.Source()
	require.NoError(t, r.Render(8, 1))

	img := canvas.Image()
	for tile := range Tiles(20, 12, 8) {
		want := src.Average(tile.Min.X, tile.Min.Y, 8, 8, 1)
		for y := tile.Min.Y; y < tile.Max.Y; y++ {
			for x := tile.Min.X; x < tile.Max.X; x++ {
				require.Equal(t, want, img.RGBAAt(x, y), "pixel %d,%d", x, y)
			}
		}
	}
}

func TestRender_Idempotent(t *testing.T) {
	r, canvas := newRenderer(t, 33, 17)
	require.NoError(t, r.Render(5, 0.7))
	first := append([]uint8(nil), canvas.Image().Pix...)

	// A fresh renderer has no palette to reuse.
	r2 := NewRenderer(canvas)
	r2.SetSource(r.Source())
	require.NoError(t, r2.Render(5, 0.7))
	require.Equal(t, first, canvas.Image().Pix)

	require.NoError(t, r.Render(5, 0.7))
	require.Equal(t, first, canvas.Image().Pix)
}

func TestRender_PaletteInvalidatedBySource(t *testing.T) {
	r, canvas := newRenderer(t, 4, 4)
	require.NoError(t, r.Render(4, 1))
	before := canvas.Image().RGBAAt(0, 0)

	other := surface.NewCanvas(4, 4, nil)
	other.FillRect(image.Rect(0, 0, 4, 4), color.RGBA{1, 2, 3, 255})
	r.SetSource(other.PixelBuffer())
	require.NoError(t, r.Render(4, 1))
	require.NotEqual(t, before, canvas.Image().RGBAAt(0, 0))
	require.Equal(t, color.RGBA{1, 2, 3, 255}, canvas.Image().RGBAAt(3, 3))
}

func TestRender_Errors(t *testing.T) {
	canvas := surface.NewCanvas(4, 4, nil)
	r := NewRenderer(canvas)
	require.ErrorIs(t, r.Render(2, 1), ErrNoSource)

	r.SetSource(raster.Capture(image.NewRGBA(image.Rect(0, 0, 2, 2))))
	require.Error(t, r.Render(2, 1), "mismatched source size")

	r.SetSource(canvas.PixelBuffer())
	require.Error(t, r.Render(0, 1))
}

func TestPreview(t *testing.T) {
	r, canvas := newRenderer(t, 300, 100)
	require.NoError(t, r.Preview())
	// Two tiles across: [0,200) and [200,300).
	require.Equal(t, canvas.Image().RGBAAt(0, 0), canvas.Image().RGBAAt(199, 99))
	require.NotEqual(t, canvas.Image().RGBAAt(0, 0), canvas.Image().RGBAAt(200, 0))
}
