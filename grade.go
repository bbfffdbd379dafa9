// Package lutforge loads color grades and bakes them into lookup tables.
package lutforge

import (
	"fmt"
	"strings"

	"github.com/jsvensson/lutforge/internal/color"
	"github.com/jsvensson/lutforge/internal/grade"
	"github.com/jsvensson/lutforge/internal/lut"
	"github.com/jsvensson/lutforge/internal/parser"
)

// Grade is a fully-resolved grade file.
type Grade struct {
	Meta    Meta
	Palette *color.Node
	Params  grade.Params
}

// Meta holds grade metadata.
type Meta struct {
	Name        string
	Author      string
	Description string
}

// Load parses a grade file and returns a validated Grade.
func Load(path string) (*Grade, error) {
	raw, err := parser.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("loading grade: %w", err)
	}

	return &Grade{
		Meta: Meta{
			Name:        raw.Meta.Name,
			Author:      raw.Meta.Author,
			Description: raw.Meta.Description,
		},
		Palette: raw.Palette,
		Params:  raw.Params,
	}, nil
}

// Bake bakes the grade into a lookup table.
func (g *Grade) Bake(opts ...lut.Option) *lut.Cube {
	return lut.Bake(&g.Params, opts...)
}

// Title returns the grade name, falling back to fallback when unnamed.
func (g *Grade) Title(fallback string) string {
	if g.Meta.Name != "" {
		return g.Meta.Name
	}
	return fallback
}

// ResolveColor turns a color argument into a color. It accepts hex literals
// ("#e0ac69") and palette paths ("palette.sky.deep").
func (g *Grade) ResolveColor(s string) (color.Color, error) {
	if strings.HasPrefix(s, "#") {
		return color.ParseHex(s)
	}

	parts := strings.Split(s, ".")
	if len(parts) < 2 || parts[0] != "palette" {
		return color.Color{}, fmt.Errorf("invalid color %q: want #rrggbb or palette.name", s)
	}
	if g.Palette == nil {
		return color.Color{}, fmt.Errorf("palette path not found: %s", s)
	}
	c, err := g.Palette.Lookup(parts[1:])
	if err != nil {
		return color.Color{}, fmt.Errorf("%s: %w", s, err)
	}
	return c, nil
}
