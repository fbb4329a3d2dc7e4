// Package export renders a whole session offline: one image per stage and
// one per reveal frame, written as loose files or as a single .tar.zst.
package export

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/erinpentecost/StudyReveal/internal/dds"
	"github.com/erinpentecost/StudyReveal/internal/pixelate"
	"github.com/erinpentecost/StudyReveal/internal/raster"
	"github.com/erinpentecost/StudyReveal/internal/reveal"
	"github.com/erinpentecost/StudyReveal/internal/schedule"
	"github.com/erinpentecost/StudyReveal/internal/surface"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

const ArchiveName = "frames.tar.zst"

type Options struct {
	Dir     string
	Format  string
	Width   int
	Height  int
	Curve   schedule.Curve
	Reveal  reveal.Params
	FPS     int
	Threads int
	Archive bool
	// Scaler resizes the image onto the canvas. Nil is nearest neighbour.
	Scaler xdraw.Interpolator
}

type Kind int

const (
	StageFrame Kind = iota
	RevealFrame
)

// Job is one output image.
type Job struct {
	Name string
	Kind Kind

	// StageFrame
	Stage      int
	BlockSize  int
	Saturation float64

	// RevealFrame
	Elapsed time.Duration
	Final   bool
}

// Plan lists every image Run writes, in order: the stages first, then
// the reveal frames ending on the full image.
func Plan(opts Options) []Job {
	var jobs []Job
	for stage := range opts.Curve.Stages {
		jobs = append(jobs, Job{
			Name:       fmt.Sprintf("stage_%02d.%s", stage, opts.Format),
			Kind:       StageFrame,
			Stage:      stage,
			BlockSize:  opts.Curve.BlockSize(stage),
			Saturation: 1,
		})
	}
	n := opts.Reveal.Frames(opts.FPS)
	for i := range n {
		jobs = append(jobs, Job{
			Name:    fmt.Sprintf("reveal_%03d.%s", i, opts.Format),
			Kind:    RevealFrame,
			Elapsed: time.Duration(i) * time.Second / time.Duration(max(1, opts.FPS)),
			Final:   i == n-1,
		})
	}
	return jobs
}

func encoder(format string) (func(io.Writer, image.Image) error, error) {
	switch format {
	case "png":
		return png.Encode, nil
	case "bmp":
		return bmp.Encode, nil
	case "dds":
		return dds.EncodeLossless, nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// Run renders every planned job, opts.Threads at a time.
func Run(ctx context.Context, img image.Image, opts Options) error {
	if img == nil || img.Bounds().Empty() {
		return errors.New("export: image has no pixels")
	}
	if opts.Width < 1 || opts.Height < 1 {
		return fmt.Errorf("export: bad size %dx%d", opts.Width, opts.Height)
	}
	if err := opts.Curve.Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	encode, err := encoder(opts.Format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.Dir, 0777); err != nil {
		return fmt.Errorf("create %q: %w", opts.Dir, err)
	}

	// Every job reads the same capture; nothing writes to it.
	base := surface.NewCanvas(opts.Width, opts.Height, opts.Scaler)
	base.DrawImage(img, image.Rect(0, 0, opts.Width, opts.Height))
	src := base.PixelBuffer()

	jobs := Plan(opts)
	fmt.Printf("Rendering %d frames at %dx%d...\n", len(jobs), opts.Width, opts.Height)

	var encoded [][]byte
	if opts.Archive {
		encoded = make([][]byte, len(jobs))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, opts.Threads))
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			frame := render(job, img, src, opts)
			if opts.Archive {
				var buf bytes.Buffer
				if err := encode(&buf, frame); err != nil {
					return fmt.Errorf("encode %q: %w", job.Name, err)
				}
				encoded[i] = buf.Bytes()
				return nil
			}
			return writeFile(filepath.Join(opts.Dir, job.Name), frame, encode)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if opts.Archive {
		path := filepath.Join(opts.Dir, ArchiveName)
		fmt.Printf("Packing %d frames into %q...\n", len(jobs), path)
		return writeArchive(path, jobs, encoded)
	}
	fmt.Printf("Wrote %d frames to %q.\n", len(jobs), opts.Dir)
	return nil
}

// render draws one job on a private canvas.
func render(job Job, img image.Image, src *raster.Source, opts Options) *image.RGBA {
	canvas := surface.NewCanvas(opts.Width, opts.Height, opts.Scaler)
	renderer := pixelate.NewRenderer(canvas)
	renderer.SetSource(src)

	switch job.Kind {
	case StageFrame:
		if err := renderer.Render(job.BlockSize, job.Saturation); err != nil {
			panic(fmt.Errorf("render %q: %w", job.Name, err))
		}
	case RevealFrame:
		animator := reveal.NewAnimator(opts.Reveal, canvas, renderer, img)
		if job.Final {
			animator.DrawFinal()
		} else {
			animator.DrawAt(job.Elapsed)
		}
	}
	return canvas.Image()
}

func writeFile(path string, frame image.Image, encode func(io.Writer, image.Image) error) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if err := encode(out, frame); err != nil {
		out.Close()
		return fmt.Errorf("encode %q: %w", path, err)
	}
	return out.Close()
}

func writeArchive(path string, jobs []Job, encoded [][]byte) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	zw, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("new zstd writer: %w", err)
	}
	tw := tar.NewWriter(zw)
	modTime := time.Now()
	for i, job := range jobs {
		hdr := &tar.Header{
			Name:    job.Name,
			Mode:    0644,
			Size:    int64(len(encoded[i])),
			ModTime: modTime,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			zw.Close()
			return fmt.Errorf("write header %q: %w", job.Name, err)
		}
		if _, err := tw.Write(encoded[i]); err != nil {
			zw.Close()
			return fmt.Errorf("write %q: %w", job.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		zw.Close()
		return fmt.Errorf("close tar: %w", err)
	}
	return zw.Close()
}
