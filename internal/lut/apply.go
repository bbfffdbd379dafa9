package lut

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// Apply maps every pixel of img through cube by nearest-cell lookup and
// returns a new image with the same bounds. Alpha is copied unchanged. The
// source image is never modified.
func Apply(img image.Image, cube *Cube, opts ...Option) (*image.NRGBA, error) {
	if err := cube.check(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	src := ToNRGBA(img)
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)

	table := cube.table()
	var cell [256]int
	for v := range cell {
		cell[v] = quantize(uint8(v), Size)
	}

	rows := bounds.Dy()
	chunk := (rows + o.Workers - 1) / o.Workers
	if chunk < 1 {
		chunk = 1
	}

	var g errgroup.Group
	g.SetLimit(o.Workers)
	for start := 0; start < rows; start += chunk {
		end := min(start+chunk, rows)
		g.Go(func() error {
			for y := bounds.Min.Y + start; y < bounds.Min.Y+end; y++ {
				si := src.PixOffset(bounds.Min.X, y)
				di := dst.PixOffset(bounds.Min.X, y)
				for x := 0; x < bounds.Dx(); x++ {
					s := src.Pix[si : si+4 : si+4]
					d := dst.Pix[di : di+4 : di+4]
					px := table[(cell[s[2]]*Size+cell[s[1]])*Size+cell[s[0]]]
					d[0], d[1], d[2], d[3] = px[0], px[1], px[2], s[3]
					si += 4
					di += 4
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	return dst, nil
}

// table returns the cube cells rounded to 8 bits, in cell index order.
func (c *Cube) table() [][3]uint8 {
	out := make([][3]uint8, len(c.cells))
	for i, rgb := range c.cells {
		px := rgb.Color()
		out[i] = [3]uint8{px.R, px.G, px.B}
	}
	return out
}

// ToNRGBA returns img as non-premultiplied 8-bit RGBA. An *image.NRGBA is
// returned as is; anything else is converted into a new buffer.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	bounds := img.Bounds()
	out := image.NewNRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)
	return out
}
