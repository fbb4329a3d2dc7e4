// Package pixelate tiles a surface into square blocks and fills each with
// the average colour of the source pixels underneath it.
package pixelate

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"iter"

	"github.com/erinpentecost/StudyReveal/internal/raster"
	"github.com/erinpentecost/StudyReveal/internal/surface"
)

// PreviewBlockSize is used before the countdown starts.
const PreviewBlockSize = 200

// ErrNoSource is returned when rendering is attempted before a source
// image has been captured.
var ErrNoSource = errors.New("no source pixels captured")

// Tiles yields the block rectangles covering a w×h area, row-major,
// clipped at the right and bottom edges.
func Tiles(w, h, blockSize int) iter.Seq[image.Rectangle] {
	return func(yield func(image.Rectangle) bool) {
		if blockSize < 1 {
			return
		}
		for y := 0; y < h; y += blockSize {
			for x := 0; x < w; x += blockSize {
				tile := image.Rect(x, y, min(x+blockSize, w), min(y+blockSize, h))
				if !yield(tile) {
					return
				}
			}
		}
	}
}

type paletteKey struct {
	source     *raster.Source
	width      int
	height     int
	blockSize  int
	saturation float64
}

// Renderer draws pixelated passes onto a surface.
type Renderer struct {
	surface surface.Surface
	source  *raster.Source

	// palette holds the tile colours of the most recent pass.
	key     paletteKey
	palette []color.RGBA
}

func NewRenderer(s surface.Surface) *Renderer {
	return &Renderer{surface: s}
}

// SetSource replaces the pixels averaged from. It must be called after
// every surface resize, before the next Render.
func (r *Renderer) SetSource(src *raster.Source) {
	r.source = src
	r.palette = nil
}

func (r *Renderer) Source() *raster.Source { return r.source }

// Render clears the surface and fills every tile with its average colour.
func (r *Renderer) Render(blockSize int, saturation float64) error {
	if r.source.Empty() {
		return ErrNoSource
	}
	if blockSize < 1 {
		return fmt.Errorf("block size must be positive, got %d", blockSize)
	}
	w, h := r.surface.Width(), r.surface.Height()
	if w != r.source.Width() || h != r.source.Height() {
		return fmt.Errorf("source is %dx%d but surface is %dx%d", r.source.Width(), r.source.Height(), w, h)
	}

	palette := r.tileColors(w, h, blockSize, saturation)
	r.surface.Clear()
	i := 0
	for tile := range Tiles(w, h, blockSize) {
		r.surface.FillRect(tile, palette[i])
		i++
	}
	return nil
}

// Preview draws the coarse pass shown before the countdown starts.
func (r *Renderer) Preview() error {
	return r.Render(PreviewBlockSize, 1)
}

func (r *Renderer) tileColors(w, h, blockSize int, saturation float64) []color.RGBA {
	key := paletteKey{
		source:     r.source,
		width:      w,
		height:     h,
		blockSize:  blockSize,
		saturation: saturation,
	}
	if r.palette != nil && r.key == key {
		return r.palette
	}
	palette := make([]color.RGBA, 0, tileCount(w, h, blockSize))
	for tile := range Tiles(w, h, blockSize) {
		palette = append(palette, r.source.Average(tile.Min.X, tile.Min.Y, blockSize, blockSize, saturation))
	}
	r.key = key
	r.palette = palette
	return palette
}

func tileCount(w, h, blockSize int) int {
	cols := (w + blockSize - 1) / blockSize
	rows := (h + blockSize - 1) / blockSize
	return cols * rows
}
