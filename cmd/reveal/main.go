package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/erinpentecost/StudyReveal/internal/chime"
	"github.com/erinpentecost/StudyReveal/internal/config"
	"github.com/erinpentecost/StudyReveal/internal/imagesource"
	"github.com/erinpentecost/StudyReveal/internal/session"
	"github.com/erinpentecost/StudyReveal/internal/surface"
	"github.com/spf13/pflag"
	"go.coder.com/cli"
)

// settings are the flags every subcommand shares. Zero values leave the
// config file alone.
type settings struct {
	configPath string
	image      string
	preset     string
	minutes    int
	scaler     string
	noChime    bool
}

func (s *settings) register(fl *pflag.FlagSet) {
	fl.StringVarP(&s.configPath, "config", "c", "", "YAML config file")
	fl.StringVarP(&s.image, "image", "i", "", "image file, or a directory to pick one from")
	fl.StringVarP(&s.preset, "preset", "p", "", "curve preset (canonical, classic)")
	fl.IntVarP(&s.minutes, "minutes", "m", 0, "study minutes")
	fl.StringVar(&s.scaler, "scaler", "", "image scaler (nearest, approxbilinear, bilinear, catmullrom)")
	fl.BoolVar(&s.noChime, "no-chime", false, "stay silent when the reveal starts")
}

// load reads the config file, if any, and applies the flags over it.
func (s *settings) load() (config.Config, error) {
	cfg := config.Default()
	if s.configPath != "" {
		var err error
		if cfg, err = config.Load(s.configPath); err != nil {
			return cfg, err
		}
	}
	if s.image != "" {
		cfg.Image = s.image
	}
	if s.preset != "" {
		cfg.Preset = s.preset
		cfg.Curve = nil
	}
	if s.minutes > 0 {
		cfg.Minutes = s.minutes
	}
	if s.scaler != "" {
		cfg.Surface.Scaler = surface.Scaler(s.scaler)
	}
	if s.noChime {
		cfg.Chime.Enabled = false
	}
	return cfg, cfg.Validate()
}

func sessionOptions(cfg config.Config) (session.Options, error) {
	curve, err := cfg.ResolveCurve()
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		Curve:              curve,
		Reveal:             cfg.Reveal,
		MaxWidth:           cfg.Surface.MaxWidth,
		MaxHeight:          cfg.Surface.MaxHeight,
		DecrementThreshold: cfg.Timing.DecrementThreshold,
	}, nil
}

func openImage(ctx context.Context, cfg config.Config) image.Image {
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	return imagesource.Open(ctx, cfg.Image, rng, image.Pt(cfg.Surface.Width, cfg.Surface.Height))
}

// withChime adds the completion tone to opts when enabled. The returned
// function releases the audio device.
func withChime(cfg config.Config, opts *session.Options) (closeFn func()) {
	if !cfg.Chime.Enabled {
		return func() {}
	}
	c, err := chime.New(chime.Options{
		Frequency: cfg.Chime.Frequency,
		Duration:  cfg.Chime.Duration,
		Volume:    cfg.Chime.Volume,
	})
	if err != nil {
		log.Printf("chime disabled: %v", err)
		return func() {}
	}
	next := opts.OnReveal
	opts.OnReveal = func() {
		c.Play()
		if next != nil {
			next()
		}
	}
	return c.Close
}

func fail(err error) {
	fmt.Printf("FAILED: %v\n", err)
	os.Exit(33)
}

type rootCmd struct{}

func (r *rootCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "reveal",
		Usage: "[subcommand] [flags]",
		Desc:  "A study timer that slowly unpixelates a picture.",
	}
}

func (r *rootCmd) Run(fl *pflag.FlagSet) {
	fl.Usage()
}

func (r *rootCmd) Subcommands() []cli.Command {
	return []cli.Command{
		&runCmd{},
		&windowCmd{},
		&exportCmd{},
		&configCmd{},
	}
}

func main() {
	cli.RunRoot(&rootCmd{})
}
