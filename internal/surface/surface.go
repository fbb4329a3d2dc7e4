// Package surface implements the drawing primitives the pixelation engine
// renders through: clear, flat fills, scaled image draws, a clip stack,
// horizontal linear gradients, and pixel read-back.
package surface

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/erinpentecost/StudyReveal/internal/hue"
	"github.com/erinpentecost/StudyReveal/internal/raster"
	xdraw "golang.org/x/image/draw"
)

// Surface is everything the renderer and animator are allowed to call.
type Surface interface {
	Width() int
	Height() int
	// Clear resets every pixel to transparent black, ignoring the clip.
	Clear()
	// FillRect fills r, clipped, with a flat colour.
	FillRect(r image.Rectangle, c color.Color)
	// DrawImage scales src into r, clipped.
	DrawImage(src image.Image, r image.Rectangle)
	// PushClip intersects the current clip with r.
	PushClip(r image.Rectangle)
	// PopClip restores the clip that was current before the matching
	// PushClip. Popping an empty stack is a no-op.
	PopClip()
	// FillLinearGradient composites a left-to-right gradient over r,
	// going from `from` at r.Min.X to `to` at r.Max.X.
	FillLinearGradient(r image.Rectangle, from, to color.NRGBA)
	// PixelBuffer snapshots the current pixels.
	PixelBuffer() *raster.Source
	// Resize discards the contents and reallocates at w×h.
	Resize(w, h int)
}

// Scaler names one of the x/image/draw interpolators.
type Scaler string

const (
	NearestNeighbor Scaler = "nearest"
	ApproxBiLinear  Scaler = "approxbilinear"
	BiLinear        Scaler = "bilinear"
	CatmullRom      Scaler = "catmullrom"
)

// Interpolator resolves the scaler name.
func (s Scaler) Interpolator() (xdraw.Interpolator, error) {
	switch s {
	case NearestNeighbor, "":
		return xdraw.NearestNeighbor, nil
	case ApproxBiLinear:
		return xdraw.ApproxBiLinear, nil
	case BiLinear:
		return xdraw.BiLinear, nil
	case CatmullRom:
		return xdraw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("unknown scaler %q", string(s))
	}
}

// Canvas is a Surface backed by an *image.RGBA.
type Canvas struct {
	img    *image.RGBA
	clips  []image.Rectangle
	scaler xdraw.Interpolator

	// scaled caches the last DrawImage result so the animator can draw
	// the same full-resolution image every frame without rescaling.
	scaledSrc  image.Image
	scaledRect image.Rectangle
	scaled     *image.RGBA
}

var _ Surface = (*Canvas)(nil)

// NewCanvas allocates a transparent w×h canvas. A nil scaler means
// nearest neighbour.
func NewCanvas(w, h int, scaler xdraw.Interpolator) *Canvas {
	if scaler == nil {
		scaler = xdraw.NearestNeighbor
	}
	return &Canvas{
		img:    image.NewRGBA(image.Rect(0, 0, max(0, w), max(0, h))),
		scaler: scaler,
	}
}

func (c *Canvas) Width() int  { return c.img.Rect.Dx() }
func (c *Canvas) Height() int { return c.img.Rect.Dy() }

// Image exposes the backing pixels for presentation. Callers must not
// keep it across a Resize.
func (c *Canvas) Image() *image.RGBA { return c.img }

func (c *Canvas) Clear() {
	clear(c.img.Pix)
}

func (c *Canvas) clip() image.Rectangle {
	if len(c.clips) == 0 {
		return c.img.Rect
	}
	return c.clips[len(c.clips)-1]
}

func (c *Canvas) FillRect(r image.Rectangle, col color.Color) {
	r = r.Intersect(c.clip())
	if r.Empty() {
		return
	}
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Over)
}

func (c *Canvas) DrawImage(src image.Image, r image.Rectangle) {
	if r.Empty() {
		return
	}
	visible := r.Intersect(c.clip())
	if visible.Empty() {
		return
	}
	if c.scaled == nil || c.scaledSrc != src || c.scaledRect != r {
		c.scaled = image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
		c.scaler.Scale(c.scaled, c.scaled.Bounds(), src, src.Bounds(), xdraw.Src, nil)
		c.scaledSrc = src
		c.scaledRect = r
	}
	draw.Draw(c.img, visible, c.scaled, visible.Min.Sub(r.Min), draw.Over)
}

func (c *Canvas) PushClip(r image.Rectangle) {
	c.clips = append(c.clips, r.Intersect(c.clip()))
}

func (c *Canvas) PopClip() {
	if len(c.clips) == 0 {
		return
	}
	c.clips = c.clips[:len(c.clips)-1]
}

func (c *Canvas) FillLinearGradient(r image.Rectangle, from, to color.NRGBA) {
	span := float64(r.Dx())
	visible := r.Intersect(c.clip())
	if visible.Empty() || span <= 0 {
		return
	}
	for x := visible.Min.X; x < visible.Max.X; x++ {
		// sample at the pixel centre
		t := (float64(x-r.Min.X) + 0.5) / span
		col := hue.Lerp(from, to, t)
		column := image.Rect(x, visible.Min.Y, x+1, visible.Max.Y)
		draw.Draw(c.img, column, image.NewUniform(col), image.Point{}, draw.Over)
	}
}

func (c *Canvas) PixelBuffer() *raster.Source {
	return raster.Capture(c.img)
}

func (c *Canvas) Resize(w, h int) {
	c.img = image.NewRGBA(image.Rect(0, 0, max(0, w), max(0, h)))
	c.clips = nil
	c.scaled = nil
	c.scaledSrc = nil
}

// ClampSize limits w×h to maxW×maxH. Non-positive maxima disable the
// corresponding limit.
func ClampSize(w, h, maxW, maxH int) (int, int) {
	if maxW > 0 {
		w = min(w, maxW)
	}
	if maxH > 0 {
		h = min(h, maxH)
	}
	return max(0, w), max(0, h)
}
