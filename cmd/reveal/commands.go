package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/erinpentecost/StudyReveal/internal/config"
	"github.com/erinpentecost/StudyReveal/internal/driver"
	"github.com/erinpentecost/StudyReveal/internal/export"
	"github.com/erinpentecost/StudyReveal/internal/termview"
	"github.com/erinpentecost/StudyReveal/internal/window"
	"github.com/gdamore/tcell/v2"
	"github.com/spf13/pflag"
	"go.coder.com/cli"
	"golang.org/x/term"
)

var errNoTerminal = errors.New("stdout is not a terminal; use the window or export subcommand")

type runCmd struct {
	settings
	scale int
}

func (c *runCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "run",
		Usage: "[flags]",
		Desc:  "Run the timer in this terminal.",
	}
}

func (c *runCmd) RegisterFlags(fl *pflag.FlagSet) {
	c.settings.register(fl)
	fl.IntVar(&c.scale, "pixel-scale", 0, "canvas pixels per terminal half-cell")
}

func (c *runCmd) Run(fl *pflag.FlagSet) {
	if err := c.run(); err != nil {
		fail(err)
	}
}

func (c *runCmd) run() error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNoTerminal
	}
	cfg, err := c.load()
	if err != nil {
		return err
	}
	if c.scale > 0 {
		cfg.Terminal.PixelScale = c.scale
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts, err := sessionOptions(cfg)
	if err != nil {
		return err
	}
	img := openImage(ctx, cfg)
	scaler, err := cfg.Surface.Scaler.Interpolator()
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("new screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	restore, err := termview.RedirectLog(cfg.Terminal.LogFile)
	if err != nil {
		return err
	}
	defer restore()

	closeChime := withChime(cfg, &opts)
	defer closeChime()

	loop := driver.NewLoop(cfg.Timing.Tick, cfg.Timing.Frame)
	return termview.Run(ctx, screen, img, loop, termview.Options{
		Session:    opts,
		PixelScale: cfg.Terminal.PixelScale,
		ShowClock:  cfg.Terminal.ShowClock,
		Minutes:    cfg.Minutes,
		Scaler:     scaler,
	})
}

type windowCmd struct {
	settings
	width  int
	height int
}

func (c *windowCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "window",
		Usage: "[flags]",
		Desc:  "Run the timer in a desktop window.",
	}
}

func (c *windowCmd) RegisterFlags(fl *pflag.FlagSet) {
	c.settings.register(fl)
	fl.IntVar(&c.width, "width", 0, "initial window width")
	fl.IntVar(&c.height, "height", 0, "initial window height")
}

func (c *windowCmd) Run(fl *pflag.FlagSet) {
	if err := c.run(); err != nil {
		fail(err)
	}
}

func (c *windowCmd) run() error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	if c.width > 0 {
		cfg.Surface.Width = c.width
	}
	if c.height > 0 {
		cfg.Surface.Height = c.height
	}
	opts, err := sessionOptions(cfg)
	if err != nil {
		return err
	}
	scaler, err := cfg.Surface.Scaler.Interpolator()
	if err != nil {
		return err
	}
	img := openImage(context.Background(), cfg)

	closeChime := withChime(cfg, &opts)
	defer closeChime()

	return window.Run(img, window.Options{
		Session:      opts,
		Width:        cfg.Surface.Width,
		Height:       cfg.Surface.Height,
		Title:        "Study Reveal",
		Minutes:      cfg.Minutes,
		TickInterval: cfg.Timing.Tick,
		ShowClock:    cfg.Terminal.ShowClock,
		Scaler:       scaler,
	})
}

type exportCmd struct {
	settings
	dir     string
	format  string
	fps     int
	threads int
	archive bool
}

func (c *exportCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "export",
		Usage: "[flags]",
		Desc:  "Render every stage and the reveal to image files.",
	}
}

func (c *exportCmd) RegisterFlags(fl *pflag.FlagSet) {
	c.settings.register(fl)
	fl.StringVarP(&c.dir, "out", "o", "", "output directory")
	fl.StringVar(&c.format, "format", "", "image format (png, bmp, dds)")
	fl.IntVar(&c.fps, "fps", 0, "reveal frames per second")
	fl.IntVarP(&c.threads, "threads", "t", 0, "frames rendered at once")
	fl.BoolVar(&c.archive, "archive", false, "write one "+export.ArchiveName+" instead of loose files")
}

func (c *exportCmd) Run(fl *pflag.FlagSet) {
	if err := c.run(context.Background()); err != nil {
		fail(err)
	}
}

func (c *exportCmd) apply(cfg *config.Config) {
	if c.dir != "" {
		cfg.Export.Dir = c.dir
	}
	if c.format != "" {
		cfg.Export.Format = c.format
	}
	if c.fps > 0 {
		cfg.Export.FPS = c.fps
	}
	if c.threads > 0 {
		cfg.Export.Threads = c.threads
	}
	if c.archive {
		cfg.Export.Archive = true
	}
}

func (c *exportCmd) run(ctx context.Context) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	c.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	curve, err := cfg.ResolveCurve()
	if err != nil {
		return err
	}
	scaler, err := cfg.Surface.Scaler.Interpolator()
	if err != nil {
		return err
	}
	img := openImage(ctx, cfg)
	return export.Run(ctx, img, export.Options{
		Dir:     cfg.Export.Dir,
		Format:  cfg.Export.Format,
		Width:   cfg.Surface.Width,
		Height:  cfg.Surface.Height,
		Curve:   curve,
		Reveal:  cfg.Reveal,
		FPS:     cfg.Export.FPS,
		Threads: cfg.Export.Threads,
		Archive: cfg.Export.Archive,
		Scaler:  scaler,
	})
}

type configCmd struct {
	settings
	out string
}

func (c *configCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "config",
		Usage: "[flags]",
		Desc:  "Write the effective configuration as YAML.",
	}
}

func (c *configCmd) RegisterFlags(fl *pflag.FlagSet) {
	c.settings.register(fl)
	fl.StringVarP(&c.out, "out", "o", "reveal.yaml", "file to write")
}

func (c *configCmd) Run(fl *pflag.FlagSet) {
	if err := c.run(); err != nil {
		fail(err)
	}
}

func (c *configCmd) run() error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	if err := cfg.Save(c.out); err != nil {
		return fmt.Errorf("write config %q: %w", c.out, err)
	}
	fmt.Printf("Wrote %s\n", c.out)
	return nil
}
