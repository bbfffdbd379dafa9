// Package parser decodes grade files into grading parameters.
//
// Decoding is two-pass: the palette block is read first without any context,
// then every other block is decoded against an evaluation context exposing
// the palette and the color functions.
package parser

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/jsvensson/lutforge/internal/color"
	"github.com/jsvensson/lutforge/internal/curve"
	"github.com/jsvensson/lutforge/internal/grade"
	"github.com/jsvensson/lutforge/internal/palette"
)

// Result holds a decoded and validated grade file.
type Result struct {
	Meta    Meta
	Palette *color.Node
	Params  grade.Params
}

// Meta holds grade metadata. It never affects the bake.
type Meta struct {
	Name        string `hcl:"name,optional"`
	Author      string `hcl:"author,optional"`
	Description string `hcl:"description,optional"`
}

// PaletteBlock wraps the palette block for gohcl decoding.
type PaletteBlock struct {
	Entries hcl.Body `hcl:",remain"`
}

// RawConfig captures the palette block first (no EvalContext needed).
type RawConfig struct {
	Palette *PaletteBlock `hcl:"palette,block"`
	Remain  hcl.Body      `hcl:",remain"`
}

// GlobalBlock holds the whole-image adjustments. Unset fields keep their
// identity value.
type GlobalBlock struct {
	Exposure     *float64 `hcl:"exposure,optional"`
	Brightness   *float64 `hcl:"brightness,optional"`
	Contrast     *float64 `hcl:"contrast,optional"`
	Hue          *float64 `hcl:"hue,optional"`
	Saturation   *float64 `hcl:"saturation,optional"`
	Value        *float64 `hcl:"value,optional"`
	Vibrancy     *float64 `hcl:"vibrancy,optional"`
	CrossProcess *float64 `hcl:"cross_process,optional"`
}

// ToneBlock is one split-tone band.
type ToneBlock struct {
	X        *float64 `hcl:"x,optional"`
	Y        *float64 `hcl:"y,optional"`
	Strength *float64 `hcl:"strength,optional"`
}

// SplitToneBlock groups the lift, gamma and gain bands.
type SplitToneBlock struct {
	Lift  *ToneBlock `hcl:"lift,block"`
	Gamma *ToneBlock `hcl:"gamma,block"`
	Gain  *ToneBlock `hcl:"gain,block"`
}

// CurvesBlock holds per-channel control points as [x, y] pairs.
type CurvesBlock struct {
	Red   [][]float64 `hcl:"red,optional"`
	Green [][]float64 `hcl:"green,optional"`
	Blue  [][]float64 `hcl:"blue,optional"`
}

// CorrectionBlock is one labeled correction. Target is evaluated against the
// palette context.
type CorrectionBlock struct {
	Name            string         `hcl:"name,label"`
	Enabled         *bool          `hcl:"enabled,optional"`
	Target          hcl.Expression `hcl:"target"`
	Tolerance       float64        `hcl:"tolerance"`
	HueShift        float64        `hcl:"hue_shift,optional"`
	SaturationShift float64        `hcl:"saturation_shift,optional"`
	ValueShift      float64        `hcl:"value_shift,optional"`
	BrightnessShift float64        `hcl:"brightness_shift,optional"`
}

// ResolvedConfig decodes every block except the palette.
type ResolvedConfig struct {
	Meta        *Meta              `hcl:"meta,block"`
	Global      *GlobalBlock       `hcl:"global,block"`
	SplitTone   *SplitToneBlock    `hcl:"split_tone,block"`
	Curves      *CurvesBlock       `hcl:"curves,block"`
	Corrections []*CorrectionBlock `hcl:"correction,block"`
}

// Loader handles two-pass HCL decoding with palette resolution.
type Loader struct {
	body    hcl.Body
	ctx     *hcl.EvalContext
	palette *color.Node
}

// NewLoader parses grade source and builds the evaluation context from its
// palette. A file without a palette block gets an empty palette.
func NewLoader(src []byte, filename string) (*Loader, error) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing HCL: %s", diags.Error())
	}

	var raw RawConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("decoding palette: %s", diags.Error())
	}

	root := &color.Node{}
	if raw.Palette != nil {
		paletteBody, ok := raw.Palette.Entries.(*hclsyntax.Body)
		if !ok {
			return nil, fmt.Errorf("palette block is not an hclsyntax.Body")
		}
		var diags hcl.Diagnostics
		root, diags = palette.Parse(paletteBody, nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing palette: %s", diags.Error())
		}
	}

	return &Loader{
		body:    raw.Remain,
		ctx:     palette.EvalContext(root),
		palette: root,
	}, nil
}

// Decode decodes the non-palette blocks into target using the palette context.
func (l *Loader) Decode(target any) error {
	if diags := gohcl.DecodeBody(l.body, l.ctx, target); diags.HasErrors() {
		return fmt.Errorf("decoding: %s", diags.Error())
	}
	return nil
}

// Palette returns the parsed palette tree.
func (l *Loader) Palette() *color.Node {
	return l.palette
}

// Context returns the EvalContext for manual evaluation.
func (l *Loader) Context() *hcl.EvalContext {
	return l.ctx
}

// Parse reads and decodes a grade file.
func Parse(path string) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading grade file: %w", err)
	}
	return ParseSource(src, path)
}

// ParseSource decodes grade source. The returned parameters have passed
// grade.Params.Validate.
func ParseSource(src []byte, filename string) (*Result, error) {
	loader, err := NewLoader(src, filename)
	if err != nil {
		return nil, err
	}

	var resolved ResolvedConfig
	if err := loader.Decode(&resolved); err != nil {
		return nil, err
	}

	params := grade.Identity()
	applyGlobal(&params, resolved.Global)
	if st := resolved.SplitTone; st != nil {
		params.Lift = toneFrom(st.Lift)
		params.Gamma = toneFrom(st.Gamma)
		params.Gain = toneFrom(st.Gain)
	}
	if err := applyCurves(&params, resolved.Curves); err != nil {
		return nil, err
	}
	for _, cb := range resolved.Corrections {
		k, err := correctionFrom(cb, loader.Context())
		if err != nil {
			return nil, err
		}
		params.Corrections = append(params.Corrections, k)
	}

	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grade: %w", err)
	}

	meta := Meta{}
	if resolved.Meta != nil {
		meta = *resolved.Meta
	}

	return &Result{
		Meta:    meta,
		Palette: loader.Palette(),
		Params:  params,
	}, nil
}

func applyGlobal(p *grade.Params, g *GlobalBlock) {
	if g == nil {
		return
	}
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.Exposure, g.Exposure)
	set(&p.Brightness, g.Brightness)
	set(&p.Contrast, g.Contrast)
	set(&p.Hue, g.Hue)
	set(&p.Saturation, g.Saturation)
	set(&p.Value, g.Value)
	set(&p.Vibrancy, g.Vibrancy)
	set(&p.CrossProcess, g.CrossProcess)
}

func toneFrom(b *ToneBlock) grade.Tone {
	t := grade.NeutralTone
	if b == nil {
		return t
	}
	if b.X != nil {
		t.Offset.X = *b.X
	}
	if b.Y != nil {
		t.Offset.Y = *b.Y
	}
	if b.Strength != nil {
		t.Strength = *b.Strength
	}
	return t
}

func applyCurves(p *grade.Params, c *CurvesBlock) error {
	if c == nil {
		return nil
	}
	for _, ch := range []struct {
		name string
		raw  [][]float64
		dst  *curve.Curve
	}{
		{"red", c.Red, &p.Red},
		{"green", c.Green, &p.Green},
		{"blue", c.Blue, &p.Blue},
	} {
		if ch.raw == nil {
			continue
		}
		pts := make([]curve.Point, len(ch.raw))
		for i, pair := range ch.raw {
			if len(pair) != 2 {
				return fmt.Errorf("curves.%s: point %d has %d values, want [x, y]", ch.name, i, len(pair))
			}
			pts[i] = curve.Point{X: pair[0], Y: pair[1]}
		}
		cv, err := curve.New(pts...)
		if err != nil {
			return fmt.Errorf("curves.%s: %w", ch.name, err)
		}
		*ch.dst = cv
	}
	return nil
}

func correctionFrom(cb *CorrectionBlock, ctx *hcl.EvalContext) (grade.Correction, error) {
	val, diags := cb.Target.Value(ctx)
	if diags.HasErrors() {
		return grade.Correction{}, fmt.Errorf("correction %q: evaluating target: %s", cb.Name, diags.Error())
	}
	target, err := palette.ResolveColor(val)
	if err != nil {
		return grade.Correction{}, fmt.Errorf("correction %q: target: %w", cb.Name, err)
	}

	k := grade.NewCorrection(cb.Name, target.Float(), cb.Tolerance, grade.Adjustment{
		HueShift:   cb.HueShift,
		Saturation: cb.SaturationShift,
		Value:      cb.ValueShift,
		Brightness: cb.BrightnessShift,
	})
	if cb.Enabled != nil {
		k.Enabled = *cb.Enabled
	}
	return k, nil
}
