// Package imagesource finds and decodes the picture hidden behind the
// countdown, with a generated landscape when nothing usable is found.
package imagesource

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/dblezek/tga"
	_ "github.com/erinpentecost/StudyReveal/internal/dds"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrNoImages = errors.New("no images found")

// Extensions lists the file suffixes Random considers.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".tga", ".dds"}

func supported(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}

// Load decodes one image file. TGA has no magic number, so it is picked
// by extension; everything else goes through image.Decode.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	var img image.Image
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		img, err = tga.Decode(f)
	} else {
		img, _, err = image.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decode %q: image has no pixels", path)
	}
	return img, nil
}

// Random picks one supported file from dir. Subdirectories are not
// searched.
func Random(dir string, rng *rand.Rand) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read directory %q: %w", dir, err)
	}
	var candidates []string
	for _, e := range entries {
		if e.Type().IsRegular() && supported(e.Name()) {
			candidates = append(candidates, filepath.Join(dir, e.Name()))
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w in %q", ErrNoImages, dir)
	}
	return candidates[rng.IntN(len(candidates))], nil
}

// Open resolves ref, a file or a directory, into an image. Any failure,
// including an empty ref, is logged and answered with Fallback at the
// given size. rng may be nil for a fixed choice.
func Open(ctx context.Context, ref string, rng *rand.Rand, fallback image.Point) image.Image {
	if ref == "" {
		return Fallback(fallback.X, fallback.Y)
	}
	img, err := open(ctx, ref, rng)
	if err != nil {
		log.Printf("imagesource: %v; using generated landscape", err)
		return Fallback(fallback.X, fallback.Y)
	}
	return img
}

func open(ctx context.Context, ref string, rng *rand.Rand) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(ref)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", ref, err)
	}
	path := ref
	if info.IsDir() {
		if rng == nil {
			rng = rand.New(rand.NewPCG(0, 0))
		}
		if path, err = Random(ref, rng); err != nil {
			return nil, err
		}
	}
	fmt.Printf("Loading %q...\n", path)
	return Load(path)
}
