// Package engine grades batches of image files with a baked lookup table.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsvensson/lutforge/internal/lut"
	"github.com/nfnt/resize"
	"github.com/tliron/commonlog"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	_ "golang.org/x/image/webp"
)

var log = commonlog.GetLogger("lutforge.engine")

// Engine writes a baked table and graded copies of images into OutputDir.
type Engine struct {
	OutputDir string
	LUTName   string // file name of the table inside OutputDir; empty skips writing it
	Suffix    string // appended to each graded file's base name
	Workers   int
	MaxWidth  int // downscale limit for previews; 0 means unlimited
	MaxHeight int
}

// ErrOutputConflict is returned when two inputs of one run would be written
// to the same output file.
var ErrOutputConflict = errors.New("output path already written in this run")

// Run writes the table (when LUTName is set) and grades every input in
// order. It stops at the first failure or when ctx is cancelled, and returns
// the paths written so far. Inputs that map to an output already written in
// this run fail with ErrOutputConflict instead of overwriting it.
func (e *Engine) Run(ctx context.Context, cube *lut.Cube, inputs []string) ([]string, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var written []string
	taken := make(map[string]string)
	if e.LUTName != "" {
		path, err := e.WriteLUT(cube)
		if err != nil {
			return nil, err
		}
		taken[abs(path)] = "the lut"
		written = append(written, path)
	}

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		out, err := e.grade(in, cube, taken)
		if err != nil {
			return written, err
		}
		written = append(written, out)
	}
	return written, nil
}

// WriteLUT encodes cube as PNG into OutputDir.
func (e *Engine) WriteLUT(cube *lut.Cube) (string, error) {
	path := filepath.Join(e.OutputDir, e.LUTName)
	err := WriteFile(path, func(w io.Writer) error {
		return lut.Encode(w, cube)
	})
	if err != nil {
		return "", err
	}
	log.Infof("wrote lut %s", path)
	return path, nil
}

// WriteFile creates path and fills it with write. On any failure, including
// the final close, the partial file is removed.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Grade decodes one image, optionally downscales it, applies cube and writes
// the result. The output keeps the input format where an encoder exists and
// falls back to PNG otherwise.
func (e *Engine) Grade(path string, cube *lut.Cube) (string, error) {
	return e.grade(path, cube, nil)
}

// grade is Grade with a record of outputs already written by the current
// run, keyed by absolute path. A nil map disables the check.
func (e *Engine) grade(path string, cube *lut.Cube, taken map[string]string) (string, error) {
	img, format, err := DecodeFile(path)
	if err != nil {
		return "", err
	}

	out := e.outputPath(path, format)
	if abs(out) == abs(path) {
		return "", fmt.Errorf("refusing to overwrite input %s; set an output directory or suffix", path)
	}
	if prev, ok := taken[abs(out)]; ok {
		return "", fmt.Errorf("%s: %w by %s (%s)", path, ErrOutputConflict, prev, out)
	}

	src := Thumbnail(img, e.MaxWidth, e.MaxHeight)
	if src != img {
		log.Debugf("%s: downscaled %v to %v", path, img.Bounds().Size(), src.Bounds().Size())
	}

	graded, err := lut.Apply(src, cube, lut.WithWorkers(e.Workers))
	if err != nil {
		return "", fmt.Errorf("grading %s: %w", path, err)
	}

	err = WriteFile(out, func(w io.Writer) error {
		return Encode(w, graded, format)
	})
	if err != nil {
		return "", err
	}
	if taken != nil {
		taken[abs(out)] = path
	}
	log.Infof("graded %s -> %s", path, out)
	return out, nil
}

func (e *Engine) outputPath(in, format string) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return filepath.Join(e.OutputDir, base+e.Suffix+Extension(format))
}

func abs(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return p
}

// DecodeFile decodes an image in any registered format.
func DecodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, format, nil
}

// Extension returns the file extension written for a decoded format.
func Extension(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "bmp", "tiff":
		return "." + format
	default:
		return ".png"
	}
}

// Encode writes img in the given format. Formats without an encoder, such as
// webp, are written as PNG.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return png.Encode(w, img)
	}
}

const unlimited = 1 << 30

// Thumbnail scales img down to fit within maxWidth×maxHeight, keeping its
// aspect ratio. A zero limit is unlimited; images that already fit are
// returned unchanged.
func Thumbnail(img image.Image, maxWidth, maxHeight int) image.Image {
	if maxWidth <= 0 {
		maxWidth = unlimited
	}
	if maxHeight <= 0 {
		maxHeight = unlimited
	}
	size := img.Bounds().Size()
	if size.X <= maxWidth && size.Y <= maxHeight {
		return img
	}
	return resize.Thumbnail(uint(maxWidth), uint(maxHeight), img, resize.Lanczos3)
}
