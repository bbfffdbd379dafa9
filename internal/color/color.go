package color

import (
	"fmt"
	"math"
	"strings"
)

// Color represents an 8-bit sRGB color as authored in grade files and stored in
// image buffers. Pipeline math works on RGB; Color is the boundary type.
type Color struct {
	R, G, B uint8
}

// RGB is a triple of channel intensities in [0, 1].
type RGB struct {
	R, G, B float64
}

// Node represents a palette entry that can be both a color and a namespace.
// Color is nil for namespace-only nodes (groups without a color attribute).
// Children is nil for leaf nodes (flat color attributes).
type Node struct {
	Color    *Color
	Children map[string]*Node
}

// Lookup resolves a dot-path (as segments) to a Color.
// Returns an error if the path is not found or the target node has no color.
func (n *Node) Lookup(path []string) (Color, error) {
	current := n
	for _, part := range path {
		if current.Children == nil {
			return Color{}, fmt.Errorf("path not found: %s is a leaf, cannot traverse further", part)
		}
		child, ok := current.Children[part]
		if !ok {
			return Color{}, fmt.Errorf("path not found: %q does not exist", part)
		}
		current = child
	}
	if current.Color == nil {
		return Color{}, fmt.Errorf("path is a group, not a color; add a color attribute or reference a specific child")
	}
	return *current.Color, nil
}

// ParseHex parses a hex color string like "#eb6f92" into a Color.
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q: must be 6 hex digits", s)
	}
	var r, g, b uint8
	_, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color{R: r, G: g, B: b}, nil
}

// Hex returns the color as a hex string with leading #, e.g. "#eb6f92".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGB returns the color as an rgb() string, e.g. "rgb(235, 111, 146)".
func (c Color) RGB() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Float returns the color with each channel scaled to [0, 1].
func (c Color) Float() RGB {
	return RGB{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// Color rounds the triple to the nearest 8-bit color, clamping first.
func (c RGB) Color() Color {
	c = c.Clamp()
	return Color{
		R: uint8(math.Round(c.R * 255.0)),
		G: uint8(math.Round(c.G * 255.0)),
		B: uint8(math.Round(c.B * 255.0)),
	}
}

// Clamp clamps every channel to [0, 1].
func (c RGB) Clamp() RGB {
	return RGB{R: Clamp01(c.R), G: Clamp01(c.G), B: Clamp01(c.B)}
}

// Scale multiplies every channel by k without clamping.
func (c RGB) Scale(k float64) RGB {
	return RGB{R: c.R * k, G: c.G * k, B: c.B * k}
}

// Luminance returns the Rec. 601 luma 0.299r + 0.587g + 0.114b.
func (c RGB) Luminance() float64 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}

// HSV returns the triple converted with RGBToHSV.
func (c RGB) HSV() (h, s, v float64) {
	return RGBToHSV(c.R, c.G, c.B)
}

func (c RGB) String() string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", c.R, c.G, c.B)
}
