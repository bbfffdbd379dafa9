// Package palette turns the palette block of a grade file into a color tree
// and exposes it, together with the color functions, as an HCL evaluation
// context.
package palette

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/jsvensson/lutforge/internal/color"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Entry is a palette attribute that evaluated to a color.
type Entry struct {
	// Path is the dotted reference, e.g. "palette.sky.deep". An entry named
	// "color" reports the path of its enclosing group.
	Path  string
	Attr  *hclsyntax.Attribute
	Color color.Color
}

type item struct {
	pos   hcl.Pos
	attr  *hclsyntax.Attribute
	block *hclsyntax.Block
}

// Parse builds the color tree of a palette block. Entries are evaluated in
// source order, so an entry may reference any entry written above it. Each
// resolved entry is passed to visit when visit is non-nil. Parsing continues
// past bad entries; their diagnostics are collected and returned.
func Parse(body *hclsyntax.Body, visit func(Entry)) (*color.Node, hcl.Diagnostics) {
	root := &color.Node{}
	diags := parseBody(body, root, root, "palette", visit)
	return root, diags
}

func parseBody(body *hclsyntax.Body, root, node *color.Node, prefix string, visit func(Entry)) hcl.Diagnostics {
	var items []item
	for _, attr := range body.Attributes {
		items = append(items, item{pos: attr.SrcRange.Start, attr: attr})
	}
	for _, block := range body.Blocks {
		items = append(items, item{pos: block.DefRange().Start, block: block})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].pos.Byte < items[j].pos.Byte
	})

	var diags hcl.Diagnostics
	for _, it := range items {
		if it.block != nil {
			if len(it.block.Labels) > 0 {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Unexpected label",
					Detail:   fmt.Sprintf("Palette group %q takes no labels.", it.block.Type),
					Subject:  it.block.LabelRanges[0].Ptr(),
				})
			}
			// Groups always carry a children map so they evaluate as objects,
			// even before their first entry is parsed.
			child := &color.Node{Children: make(map[string]*color.Node)}
			if node.Children == nil {
				node.Children = make(map[string]*color.Node)
			}
			node.Children[it.block.Type] = child
			diags = append(diags, parseBody(it.block.Body, root, child, prefix+"."+it.block.Type, visit)...)
			continue
		}

		attr := it.attr
		path := prefix + "." + attr.Name
		if attr.Name == "color" {
			path = prefix
		}

		val, valDiags := attr.Expr.Value(EvalContext(root))
		if valDiags.HasErrors() {
			diags = append(diags, valDiags...)
			continue
		}
		c, err := ResolveColor(val)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid color",
				Detail:   fmt.Sprintf("%s: %s.", path, err),
				Subject:  attr.Expr.Range().Ptr(),
			})
			continue
		}

		if attr.Name == "color" {
			node.Color = &c
		} else {
			if node.Children == nil {
				node.Children = make(map[string]*color.Node)
			}
			node.Children[attr.Name] = &color.Node{Color: &c}
		}
		if visit != nil {
			visit(Entry{Path: path, Attr: attr, Color: c})
		}
	}
	return diags
}

// ResolveColor turns an evaluated expression into a color. Strings are parsed
// as hex; objects (palette groups) resolve through their "color" attribute.
func ResolveColor(val cty.Value) (color.Color, error) {
	if val.IsNull() || !val.IsKnown() {
		return color.Color{}, fmt.Errorf("color value is null or unknown")
	}
	switch {
	case val.Type() == cty.String:
		return color.ParseHex(val.AsString())
	case val.Type().IsObjectType():
		if val.Type().HasAttribute("color") {
			if c := val.GetAttr("color"); c.Type() == cty.String {
				return color.ParseHex(c.AsString())
			}
		}
		return color.Color{}, fmt.Errorf("group has no color attribute; reference a specific child or add a color attribute")
	}
	return color.Color{}, fmt.Errorf("expected color string or palette group, got %s", val.Type().FriendlyName())
}

// NodeToCty converts a color tree to a cty value. Leaves become hex strings;
// groups become objects with their own color, if any, under "color".
func NodeToCty(node *color.Node) cty.Value {
	if node == nil {
		return cty.EmptyObjectVal
	}
	if node.Children == nil {
		if node.Color != nil {
			return cty.StringVal(node.Color.Hex())
		}
		return cty.EmptyObjectVal
	}

	vals := make(map[string]cty.Value, len(node.Children)+1)
	if node.Color != nil {
		vals["color"] = cty.StringVal(node.Color.Hex())
	}
	for k, child := range node.Children {
		vals[k] = NodeToCty(child)
	}
	return cty.ObjectVal(vals)
}

// EvalContext returns an evaluation context exposing root as the "palette"
// variable along with the color functions.
func EvalContext(root *color.Node) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"palette": NodeToCty(root),
		},
		Functions: Functions(),
	}
}

// Function describes a color function for editor completion and hover.
type Function struct {
	Name      string
	Signature string
	Doc       string
}

// FunctionDocs lists the functions available in grade files.
var FunctionDocs = []Function{
	{"brighten", "brighten(color, amount)", "Raises HSL lightness by amount, a fraction between -1 and 1."},
	{"darken", "darken(color, amount)", "Lowers HSL lightness by amount, a fraction between 0 and 1."},
	{"lightness", "lightness(color, l)", "Sets perceptual OKLCH lightness to l in [0, 1], keeping chroma and hue."},
}

// Functions returns the HCL functions available in grade files.
func Functions() map[string]function.Function {
	return map[string]function.Function{
		"brighten":  colorFunc("Brightens a color by the given fraction", color.Brighten),
		"darken":    colorFunc("Darkens a color by the given fraction", color.Darken),
		"lightness": colorFunc("Sets the OKLCH lightness of a color", color.WithLightness),
	}
}

func colorFunc(desc string, fn func(color.Color, float64) color.Color) function.Function {
	return function.New(&function.Spec{
		Description: desc,
		Params: []function.Parameter{
			{Name: "color", Type: cty.DynamicPseudoType},
			{Name: "amount", Type: cty.Number},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			c, err := ResolveColor(args[0])
			if err != nil {
				return cty.NilVal, err
			}
			amount, _ := args[1].AsBigFloat().Float64()
			return cty.StringVal(fn(c, amount).Hex()), nil
		},
	})
}
