// Package hue holds the small amount of colour maths the pixelation engine
// needs: luma weights, desaturation toward grey, and linear blending.
package hue

import (
	"image/color"
	"math"
)

// Rec. 601 luma coefficients.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Luminance returns the luma-weighted grey level of an 8-bit RGB triple.
// The result is not rounded.
func Luminance(r, g, b uint8) float64 {
	return lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)
}

// Desaturate blends each channel of c toward its luminance.
// saturation 1 returns c unchanged, 0 returns pure grey.
// Channels are floored, never rounded. Alpha is kept.
func Desaturate(c color.RGBA, saturation float64) color.RGBA {
	if saturation >= 1 {
		return c
	}
	saturation = max(0, saturation)
	gray := Luminance(c.R, c.G, c.B)
	mix := func(v uint8) uint8 {
		return clampByte(math.Floor(float64(v)*saturation + gray*(1-saturation)))
	}
	return color.RGBA{
		R: mix(c.R),
		G: mix(c.G),
		B: mix(c.B),
		A: c.A,
	}
}

// Lerp linearly interpolates between two non-premultiplied colours.
// t is clamped to [0,1].
func Lerp(a, b color.NRGBA, t float64) color.NRGBA {
	t = min(1, max(0, t))
	mix := func(x, y uint8) uint8 {
		return clampByte(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.NRGBA{
		R: mix(a.R, b.R),
		G: mix(a.G, b.G),
		B: mix(a.B, b.B),
		A: mix(a.A, b.A),
	}
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(v)
}
