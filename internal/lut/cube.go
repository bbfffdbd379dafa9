// Package lut bakes grading parameters into a 3D lookup table and applies the
// table to images.
//
// A Cube holds Size³ colors. Its pixel encoding is a Size²×Size image in which
// the blue index selects a horizontal Size×Size slice, green selects the row
// and red the column inside that slice.
package lut

import (
	"errors"
	"fmt"
	"image"
	imgcolor "image/color"
	"math"

	"github.com/jsvensson/lutforge/internal/color"
)

// Size is the number of cells along each axis of a cube.
const Size = 16

// ErrSizeMismatch is returned when a cube or its encoded buffer does not have
// the expected resolution.
var ErrSizeMismatch = errors.New("lut size mismatch")

// Cube is a baked lookup table. It is read-only once built.
type Cube struct {
	size  int
	cells []color.RGB
}

func newCube(size int) *Cube {
	return &Cube{size: size, cells: make([]color.RGB, size*size*size)}
}

// Size returns the number of cells along each axis.
func (c *Cube) Size() int {
	return c.size
}

// At returns the stored color of cell (r, g, b).
func (c *Cube) At(r, g, b int) color.RGB {
	return c.cells[c.index(r, g, b)]
}

// Lookup maps an 8-bit color through the cube using the nearest cell.
func (c *Cube) Lookup(in color.Color) color.Color {
	return c.At(quantize(in.R, c.size), quantize(in.G, c.size), quantize(in.B, c.size)).Color()
}

func (c *Cube) index(r, g, b int) int {
	return (b*c.size+g)*c.size + r
}

func (c *Cube) check() error {
	if c == nil {
		return fmt.Errorf("%w: nil cube", ErrSizeMismatch)
	}
	if c.size != Size || len(c.cells) != Size*Size*Size {
		return fmt.Errorf("%w: cube has %d cells along each axis, want %d", ErrSizeMismatch, c.size, Size)
	}
	return nil
}

// Image encodes the cube as a Size²×Size NRGBA buffer with opaque alpha.
func (c *Cube) Image() *image.NRGBA {
	n := c.size
	img := image.NewNRGBA(image.Rect(0, 0, n*n, n))
	for b := 0; b < n; b++ {
		for g := 0; g < n; g++ {
			for r := 0; r < n; r++ {
				px := c.At(r, g, b).Color()
				off := img.PixOffset(b*n+r, g)
				img.Pix[off+0] = px.R
				img.Pix[off+1] = px.G
				img.Pix[off+2] = px.B
				img.Pix[off+3] = 0xff
			}
		}
	}
	return img
}

// Decode rebuilds a cube from its encoded buffer. The buffer must be exactly
// Size²×Size pixels; alpha is ignored.
func Decode(img image.Image) (*Cube, error) {
	bounds := img.Bounds()
	if bounds.Dx() != Size*Size || bounds.Dy() != Size {
		return nil, fmt.Errorf("%w: buffer is %dx%d, want %dx%d",
			ErrSizeMismatch, bounds.Dx(), bounds.Dy(), Size*Size, Size)
	}

	cube := newCube(Size)
	for b := 0; b < Size; b++ {
		for g := 0; g < Size; g++ {
			for r := 0; r < Size; r++ {
				px := imgcolor.NRGBAModel.Convert(img.At(bounds.Min.X+b*Size+r, bounds.Min.Y+g)).(imgcolor.NRGBA)
				cube.cells[cube.index(r, g, b)] = color.Color{R: px.R, G: px.G, B: px.B}.Float()
			}
		}
	}
	return cube, nil
}

// quantize maps an 8-bit channel to the nearest of size cells.
func quantize(v uint8, size int) int {
	return int(math.Round(float64(v) / 255 * float64(size-1)))
}
