// Package chime plays a short fading tone when the reveal starts.
package chime

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

type Options struct {
	Frequency float64
	Duration  time.Duration
	Volume    float64
}

// Tone is a sine at opts.Frequency, scaled by opts.Volume and fading out
// quadratically over opts.Duration.
func Tone(rate beep.SampleRate, opts Options) (beep.Streamer, error) {
	sine, err := generators.SineTone(rate, opts.Frequency)
	if err != nil {
		return nil, fmt.Errorf("sine tone %vHz: %w", opts.Frequency, err)
	}
	return &fade{
		streamer: sine,
		total:    rate.N(opts.Duration),
		volume:   min(1, max(0, opts.Volume)),
	}, nil
}

// fade applies the volume and the decay and ends the stream after total
// samples.
type fade struct {
	streamer beep.Streamer
	position int
	total    int
	volume   float64
}

func (f *fade) Stream(samples [][2]float64) (n int, ok bool) {
	if f.position >= f.total {
		return 0, false
	}
	samples = samples[:min(len(samples), f.total-f.position)]
	n, ok = f.streamer.Stream(samples)
	for i := range n {
		left := 1 - float64(f.position)/float64(f.total)
		gain := f.volume * math.Pow(left, 2)
		samples[i][0] *= gain
		samples[i][1] *= gain
		f.position++
	}
	return n, ok
}

func (f *fade) Err() error { return f.streamer.Err() }

type Chime struct {
	opts Options
}

// New opens the audio device. It fails on machines without one; callers
// treat the chime as optional.
func New(opts Options) (*Chime, error) {
	if _, err := Tone(sampleRate, opts); err != nil {
		return nil, err
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return &Chime{opts: opts}, nil
}

// Play starts the tone and returns immediately.
func (c *Chime) Play() {
	tone, err := Tone(sampleRate, c.opts)
	if err != nil {
		return
	}
	speaker.Play(tone)
}

func (c *Chime) Close() {
	speaker.Close()
}
