package lsp

import "math"

// valueKind is the expected type of an attribute value.
type valueKind int

const (
	kindNumber valueKind = iota
	kindString
	kindBool
	kindColor
	kindCurve
)

func (k valueKind) String() string {
	switch k {
	case kindNumber:
		return "number"
	case kindString:
		return "string"
	case kindBool:
		return "bool"
	case kindColor:
		return "color"
	case kindCurve:
		return "curve"
	}
	return "unknown"
}

// AttrSchema describes one attribute of a grade block.
type AttrSchema struct {
	Kind     valueKind
	Doc      string
	Min, Max float64 // inclusive bounds for numbers; the file fails to load outside them
	Required bool
}

// BlockSchema describes a block type.
type BlockSchema struct {
	Doc        string
	Labels     []string // label names, e.g. "name" for correction blocks
	Attributes map[string]AttrSchema
	Blocks     []string // allowed child block types, as paths relative to the root
	Repeatable bool
	Freeform   bool // attributes and child blocks are user-named (palette)
	// Referenceable blocks can be used as traversal roots in expressions.
	Referenceable bool
}

var unbounded = math.Inf(1)

var toneAttributes = map[string]AttrSchema{
	"x":        {Kind: kindNumber, Min: -1, Max: 1, Doc: "Wheel offset toward red (positive) or cyan (negative), in [-1, 1]."},
	"y":        {Kind: kindNumber, Min: -1, Max: 1, Doc: "Wheel offset toward green (positive) or magenta (negative), in [-1, 1]. Blue takes the inverse of x and y combined."},
	"strength": {Kind: kindNumber, Min: 0, Max: 1, Doc: "Scales the band's contribution, in [0, 1]. Defaults to 1."},
}

// BlockTypes maps block paths ("split_tone.lift") to their schema.
var BlockTypes = map[string]BlockSchema{
	"meta": {
		Doc: "Descriptive metadata. Never affects the bake.",
		Attributes: map[string]AttrSchema{
			"name":        {Kind: kindString, Doc: "Display name of the grade."},
			"author":      {Kind: kindString, Doc: "Who made the grade."},
			"description": {Kind: kindString, Doc: "Free-form notes."},
		},
	},
	"palette": {
		Doc:           "Named colors. Later entries may reference earlier ones as palette.name, and groups resolve to their color attribute.",
		Freeform:      true,
		Referenceable: true,
	},
	"global": {
		Doc: "Whole-image adjustments, applied in the order listed.",
		Attributes: map[string]AttrSchema{
			"exposure":      {Kind: kindNumber, Min: -unbounded, Max: unbounded, Doc: "Exposure in stops. Every channel is multiplied by 2^exposure."},
			"brightness":    {Kind: kindNumber, Min: 0, Max: unbounded, Doc: "Channel multiplier applied after exposure. 1 leaves the image unchanged."},
			"contrast":      {Kind: kindNumber, Min: 0, Max: unbounded, Doc: "Slope around mid gray: (c - 0.5) * contrast + 0.5. 1 leaves the image unchanged."},
			"hue":           {Kind: kindNumber, Min: -unbounded, Max: unbounded, Doc: "Hue rotation in degrees."},
			"saturation":    {Kind: kindNumber, Min: 0, Max: unbounded, Doc: "Saturation multiplier. 0 is grayscale."},
			"value":         {Kind: kindNumber, Min: 0, Max: unbounded, Doc: "HSV value multiplier."},
			"vibrancy":      {Kind: kindNumber, Min: -1, Max: 1, Doc: "Saturation boost weighted toward muted colors: s + (1 - s) * vibrancy."},
			"cross_process": {Kind: kindNumber, Min: -unbounded, Max: unbounded, Doc: "Film cross-processing look. Lifts green in the midtones and pushes red and blue apart by luminance."},
		},
	},
	"split_tone": {
		Doc:    "Color wheel offsets for shadows (lift), midtones (gamma) and highlights (gain), weighted by luminance.",
		Blocks: []string{"split_tone.lift", "split_tone.gamma", "split_tone.gain"},
	},
	"split_tone.lift":  {Doc: "Shadow tint, weighted by (1 - L)².", Attributes: toneAttributes},
	"split_tone.gamma": {Doc: "Midtone tint, weighted by sin(L·π).", Attributes: toneAttributes},
	"split_tone.gain":  {Doc: "Highlight tint, weighted by L².", Attributes: toneAttributes},
	"curves": {
		Doc: "Per-channel tone curves as [x, y] control points with strictly increasing x. Evaluation is piecewise linear.",
		Attributes: map[string]AttrSchema{
			"red":   {Kind: kindCurve, Doc: "Red channel curve, e.g. [[0, 0], [0.5, 0.55], [1, 1]]."},
			"green": {Kind: kindCurve, Doc: "Green channel curve."},
			"blue":  {Kind: kindCurve, Doc: "Blue channel curve."},
		},
	},
	"correction": {
		Doc:        "Targeted adjustment for colors near target. Corrections run in file order, each seeing the previous one's output.",
		Labels:     []string{"name"},
		Repeatable: true,
		Attributes: map[string]AttrSchema{
			"enabled":          {Kind: kindBool, Doc: "Set to false to skip this correction. Defaults to true."},
			"target":           {Kind: kindColor, Required: true, Doc: "Color to match: a hex string, palette reference or color function."},
			"tolerance":        {Kind: kindNumber, Required: true, Min: math.SmallestNonzeroFloat64, Max: 1, Doc: "HSV distance at which the effect fades to zero, in (0, 1]. Falloff is a cosine."},
			"hue_shift":        {Kind: kindNumber, Min: -180, Max: 180, Doc: "Hue rotation in degrees for matched colors."},
			"saturation_shift": {Kind: kindNumber, Min: -1, Max: 1, Doc: "Added to saturation, scaled by match strength."},
			"value_shift":      {Kind: kindNumber, Min: -1, Max: 1, Doc: "Added to HSV value, scaled by match strength."},
			"brightness_shift": {Kind: kindNumber, Min: -1, Max: 1, Doc: "Channels are multiplied by 1 + brightness_shift × strength."},
		},
	},
}

// topLevelBlocks are the valid top-level block names in completion order.
var topLevelBlocks = []string{"meta", "palette", "global", "split_tone", "curves", "correction"}
