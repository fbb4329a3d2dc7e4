package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/erinpentecost/StudyReveal/internal/schedule"
	"github.com/erinpentecost/StudyReveal/internal/surface"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, register func(*pflag.FlagSet), args ...string) {
	t.Helper()
	fl := pflag.NewFlagSet("test", pflag.ContinueOnError)
	register(fl)
	require.NoError(t, fl.Parse(args))
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reveal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0666))
	return path
}

func TestSettings_FlagsOverrideConfig(t *testing.T) {
	path := writeConfig(t, `
minutes: 45
curve:
  stages: 4
  maxBlockSize: 32
  minBlockSize: 4
  exponent: 1
  fadeSeconds: 60
  fadeFloor: 0.5
chime:
  enabled: true
`)
	var s settings
	parse(t, s.register, "-c", path, "--preset", "classic", "--scaler", "bilinear", "--no-chime")
	cfg, err := s.load()
	require.NoError(t, err)
	require.Equal(t, 45, cfg.Minutes)
	require.Equal(t, surface.BiLinear, cfg.Surface.Scaler)
	require.False(t, cfg.Chime.Enabled)

	curve, err := cfg.ResolveCurve()
	require.NoError(t, err)
	require.Equal(t, schedule.Classic, curve, "a preset flag replaces the file's curve")
}

func TestSettings_Invalid(t *testing.T) {
	var s settings
	parse(t, s.register, "--preset", "mosaic")
	_, err := s.load()
	require.ErrorIs(t, err, schedule.ErrUnknownPreset)

	s = settings{}
	parse(t, s.register, "--config", filepath.Join(t.TempDir(), "none.yaml"))
	_, err = s.load()
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSessionOptions(t *testing.T) {
	var s settings
	parse(t, s.register, "-m", "20")
	cfg, err := s.load()
	require.NoError(t, err)
	opts, err := sessionOptions(cfg)
	require.NoError(t, err)
	require.Equal(t, schedule.Canonical, opts.Curve)
	require.Equal(t, 1920, opts.MaxWidth)
	require.Equal(t, 900*time.Millisecond, opts.DecrementThreshold)
}

func TestExport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "frames")
	path := writeConfig(t, `
surface:
  width: 32
  height: 18
reveal:
  duration: 1s
`)
	c := &exportCmd{}
	parse(t, c.RegisterFlags, "-c", path, "-o", out, "--fps", "4", "-t", "2", "--format", "bmp")
	require.NoError(t, c.run(context.Background()))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 16+5)
	require.FileExists(t, filepath.Join(out, "stage_15.bmp"))
	require.FileExists(t, filepath.Join(out, "reveal_004.bmp"))
}

func TestExport_BadFormat(t *testing.T) {
	c := &exportCmd{}
	parse(t, c.RegisterFlags, "--format", "jpeg", "-o", t.TempDir())
	require.Error(t, c.run(context.Background()))
}

func TestRunNeedsTerminal(t *testing.T) {
	c := &runCmd{}
	parse(t, c.RegisterFlags)
	// go test pipes stdout
	require.ErrorIs(t, c.run(), errNoTerminal)
}

func TestSubcommands(t *testing.T) {
	var names []string
	for _, c := range (&rootCmd{}).Subcommands() {
		names = append(names, c.Spec().Name)
	}
	require.Equal(t, []string{"run", "window", "export", "config"}, names)
}

func TestConfigWritesLoadableFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reveal.yaml")
	c := &configCmd{}
	parse(t, c.RegisterFlags, "-o", out, "-p", "classic", "-m", "50", "--no-chime")
	require.NoError(t, c.run())

	var s settings
	parse(t, s.register, "-c", out)
	cfg, err := s.load()
	require.NoError(t, err)
	require.Equal(t, 50, cfg.Minutes)
	require.Equal(t, "classic", cfg.Preset)
	require.False(t, cfg.Chime.Enabled)
	curve, err := cfg.ResolveCurve()
	require.NoError(t, err)
	require.Equal(t, schedule.Classic, curve)
}
