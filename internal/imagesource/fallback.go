package imagesource

import (
	"image"
	"image/color"
	"math"

	"github.com/erinpentecost/StudyReveal/internal/hue"
)

var (
	skyTop     = color.NRGBA{R: 28, G: 52, B: 112, A: 255}
	skyHorizon = color.NRGBA{R: 248, G: 176, B: 118, A: 255}
	sunColor   = color.NRGBA{R: 255, G: 232, B: 170, A: 255}
	farRidge   = color.NRGBA{R: 96, G: 84, B: 128, A: 255}
	nearRidge  = color.NRGBA{R: 44, G: 48, B: 78, A: 255}
	waterTop   = color.NRGBA{R: 70, G: 90, B: 140, A: 255}
	waterDeep  = color.NRGBA{R: 16, G: 24, B: 52, A: 255}
)

// Fallback paints a sunset over mountains and a lake. The result depends
// only on the size. Non-positive sizes are treated as 1.
func Fallback(w, h int) *image.NRGBA {
	w, h = max(1, w), max(1, h)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	fw, fh := float64(w), float64(h)
	horizon := 0.72 * fh
	sunX, sunY := 0.68*fw, 0.5*fh
	sunR := 0.09 * min(fw, fh)

	// Ridge heights as fractions of h, per column.
	ridge := func(x float64, base, amp, f1, f2, phase float64) float64 {
		u := x / fw * 2 * math.Pi
		return fh * (base - amp*(0.6*math.Sin(u*f1+phase)+0.4*math.Sin(u*f2+2*phase)))
	}

	for x := range w {
		cx := float64(x) + 0.5
		far := ridge(cx, 0.52, 0.08, 1.3, 3.7, 0.4)
		near := ridge(cx, 0.64, 0.06, 2.1, 5.3, 1.9)
		for y := range h {
			cy := float64(y) + 0.5
			var c color.NRGBA
			switch {
			case cy >= horizon:
				c = water(cx, cy, horizon, fh)
			case cy >= near:
				c = nearRidge
			case cy >= far:
				c = hue.Lerp(farRidge, nearRidge, (cy-far)/max(1, near-far)*0.5)
			default:
				c = hue.Lerp(skyTop, skyHorizon, cy/horizon)
				if d := math.Hypot(cx-sunX, cy-sunY); d < sunR*2.5 {
					glow := 1 - min(1, max(0, (d-sunR)/(sunR*1.5)))
					c = hue.Lerp(c, sunColor, glow)
				}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// water darkens with depth and carries faint horizontal ripples.
func water(x, y, horizon, h float64) color.NRGBA {
	depth := (y - horizon) / max(1, h-horizon)
	c := hue.Lerp(waterTop, waterDeep, depth)
	ripple := 0.5 + 0.5*math.Sin(y*0.9+math.Sin(x*0.05)*3)
	return hue.Lerp(c, skyHorizon, 0.15*ripple*(1-depth))
}
