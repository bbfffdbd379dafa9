package lut

import (
	"fmt"
	"image/png"
	"io"
)

// Encode writes the cube's pixel encoding to w as PNG.
func Encode(w io.Writer, c *Cube) error {
	if err := c.check(); err != nil {
		return err
	}
	if err := png.Encode(w, c.Image()); err != nil {
		return fmt.Errorf("encoding lut: %w", err)
	}
	return nil
}

// Read decodes a PNG-encoded cube from r.
func Read(r io.Reader) (*Cube, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding lut: %w", err)
	}
	return Decode(img)
}
