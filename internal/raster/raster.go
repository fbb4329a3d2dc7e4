// Package raster holds the immutable pixel snapshot the pixelation engine
// samples from, and the colour averaging over rectangular regions of it.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/erinpentecost/StudyReveal/internal/hue"
)

// Source is a row-major, non-premultiplied RGBA pixel buffer.
// It is never written to after Capture returns.
type Source struct {
	width  int
	height int
	// pix has 4 bytes per pixel: R, G, B, A.
	pix []uint8
}

// Capture copies img into a new Source. The origin of img's bounds
// becomes (0,0).
func Capture(img image.Image) *Source {
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	return &Source{
		width:  b.Dx(),
		height: b.Dy(),
		pix:    nrgba.Pix,
	}
}

func (s *Source) Width() int  { return s.width }
func (s *Source) Height() int { return s.height }

// Empty reports whether the source has no pixels to sample.
func (s *Source) Empty() bool {
	return s == nil || s.width == 0 || s.height == 0
}

// At returns the pixel at (x, y). Out of range coordinates return
// transparent black.
func (s *Source) At(x, y int) color.NRGBA {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return color.NRGBA{}
	}
	i := (y*s.width + x) * 4
	return color.NRGBA{R: s.pix[i], G: s.pix[i+1], B: s.pix[i+2], A: s.pix[i+3]}
}

// Average returns the mean colour of the w×h region whose top-left corner
// is (x, y), clipped to the right and bottom edges of the source.
// Each channel mean is floored. When saturation is below 1 the result is
// blended toward its luminance, see hue.Desaturate.
//
// The region origin must lie inside the source; an empty region panics.
func (s *Source) Average(x, y, w, h int, saturation float64) color.RGBA {
	if x < 0 || y < 0 || x >= s.width || y >= s.height || w <= 0 || h <= 0 {
		panic(fmt.Sprintf("raster: empty averaging region (%d,%d %dx%d) in %dx%d source", x, y, w, h, s.width, s.height))
	}
	x1 := min(x+w, s.width)
	y1 := min(y+h, s.height)

	var r, g, b uint64
	for py := y; py < y1; py++ {
		row := s.pix[(py*s.width+x)*4 : (py*s.width+x1)*4]
		for i := 0; i < len(row); i += 4 {
			r += uint64(row[i])
			g += uint64(row[i+1])
			b += uint64(row[i+2])
		}
	}
	count := uint64((x1 - x) * (y1 - y))

	avg := color.RGBA{
		R: uint8(r / count),
		G: uint8(g / count),
		B: uint8(b / count),
		A: math.MaxUint8,
	}
	if saturation < 1 {
		avg = hue.Desaturate(avg, saturation)
	}
	return avg
}
