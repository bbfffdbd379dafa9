package lsp

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/jsvensson/lutforge/internal/color"
	"github.com/jsvensson/lutforge/internal/curve"
	"github.com/jsvensson/lutforge/internal/palette"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

const diagSource = "grade"

var (
	DiagError   = protocol.DiagnosticSeverityError
	DiagWarning = protocol.DiagnosticSeverityWarning
	DiagInfo    = protocol.DiagnosticSeverityInformation
)

// AnalysisResult holds all information produced by analyzing a grade file.
type AnalysisResult struct {
	Diagnostics []protocol.Diagnostic
	Palette     *color.Node
	Symbols     map[string]protocol.Range // "palette.skin", "palette.sky.deep" -> definition range
	Colors      []ColorLocation
	Attributes  []AttrLocation
}

// ColorLocation records a resolved color at a specific source position.
type ColorLocation struct {
	Range protocol.Range
	Color color.Color
	IsRef bool // true if this is a palette reference (not a hex literal)
}

// AttrLocation records an attribute name of a known block, for hover docs.
type AttrLocation struct {
	Range protocol.Range
	Block string // schema path, e.g. "split_tone.gain"
	Name  string
}

// hclPosToLSP converts an HCL position to an LSP position.
// HCL positions are 1-based; LSP positions are 0-based.
func hclPosToLSP(pos hcl.Pos) protocol.Position {
	return protocol.Position{
		Line:      uint32(max(pos.Line-1, 0)),
		Character: uint32(max(pos.Column-1, 0)),
	}
}

// hclRangeToLSP converts an HCL range to an LSP range.
func hclRangeToLSP(r hcl.Range) protocol.Range {
	return protocol.Range{
		Start: hclPosToLSP(r.Start),
		End:   hclPosToLSP(r.End),
	}
}

// Analyze parses grade source from memory and produces diagnostics, a symbol
// table and color locations. It collects every problem rather than stopping
// at the first.
func Analyze(filename, content string) *AnalysisResult {
	result := &AnalysisResult{
		Symbols: make(map[string]protocol.Range),
		Palette: &color.Node{},
	}

	file, diags := hclsyntax.ParseConfig([]byte(content), filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		for _, d := range diags {
			result.Diagnostics = append(result.Diagnostics, hclDiagToLSP(d))
		}
		// Semantic analysis needs a well-formed file, but the palette of a
		// partial parse still serves completion while the user is typing.
		if file != nil {
			if body, ok := file.Body.(*hclsyntax.Body); ok {
				result.recoverPalette(body)
			}
		}
		return result
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		result.addError(hcl.Range{}, "internal error: parsed body is not *hclsyntax.Body")
		return result
	}

	for _, attr := range sortedAttributes(body) {
		result.addError(attr.NameRange, fmt.Sprintf("unexpected top-level attribute %q; settings belong inside a block", attr.Name))
	}

	// The palette comes first so every other block can reference it, wherever
	// it appears in the file.
	seen := make(map[string]hcl.Range)
	for _, block := range body.Blocks {
		if block.Type != "palette" {
			continue
		}
		if prev, dup := seen["palette"]; dup {
			result.addError(block.DefRange(), fmt.Sprintf("duplicate palette block; first defined on line %d", prev.Start.Line))
			continue
		}
		seen["palette"] = block.DefRange()
		result.analyzePalette(block.Body)
	}

	ctx := palette.EvalContext(result.Palette)
	correctionNames := make(map[string]hcl.Range)

	for _, block := range body.Blocks {
		if block.Type == "palette" {
			continue
		}
		schema, ok := BlockTypes[block.Type]
		if !ok || strings.Contains(block.Type, ".") {
			result.addError(block.TypeRange, unknownMessage("block", block.Type, topLevelBlocks))
			continue
		}
		if !schema.Repeatable {
			if prev, dup := seen[block.Type]; dup {
				result.addError(block.DefRange(), fmt.Sprintf("duplicate %s block; first defined on line %d", block.Type, prev.Start.Line))
				continue
			}
			seen[block.Type] = block.DefRange()
		}
		if !result.checkLabels(block, schema) {
			continue
		}
		if block.Type == "correction" {
			name := block.Labels[0]
			if prev, dup := correctionNames[name]; dup {
				result.addWarning(block.LabelRanges[0], fmt.Sprintf("correction %q already defined on line %d", name, prev.Start.Line))
			}
			correctionNames[name] = block.LabelRanges[0]
		}
		result.analyzeBlock(block, block.Type, schema, ctx)
	}

	return result
}

// hclDiagToLSP converts an HCL diagnostic to an LSP diagnostic.
func hclDiagToLSP(d *hcl.Diagnostic) protocol.Diagnostic {
	sev := DiagError
	if d.Severity == hcl.DiagWarning {
		sev = DiagWarning
	}

	diag := protocol.Diagnostic{
		Severity: &sev,
		Message:  d.Summary,
		Source:   strPtr(diagSource),
	}

	if d.Detail != "" {
		diag.Message = d.Summary + ": " + d.Detail
	}

	if d.Subject != nil {
		diag.Range = hclRangeToLSP(*d.Subject)
	}

	return diag
}

// addError adds an error-level diagnostic at the given range.
func (r *AnalysisResult) addError(rng hcl.Range, msg string) {
	r.Diagnostics = append(r.Diagnostics, protocol.Diagnostic{
		Range:    hclRangeToLSP(rng),
		Severity: &DiagError,
		Source:   strPtr(diagSource),
		Message:  msg,
	})
}

// addWarning adds a warning-level diagnostic at the given range.
func (r *AnalysisResult) addWarning(rng hcl.Range, msg string) {
	r.Diagnostics = append(r.Diagnostics, protocol.Diagnostic{
		Range:    hclRangeToLSP(rng),
		Severity: &DiagWarning,
		Source:   strPtr(diagSource),
		Message:  msg,
	})
}

// sortedAttributes returns the body's attributes in source order.
func sortedAttributes(body *hclsyntax.Body) []*hclsyntax.Attribute {
	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, attr := range body.Attributes {
		attrs = append(attrs, attr)
	}
	slices.SortFunc(attrs, func(a, b *hclsyntax.Attribute) int {
		return a.SrcRange.Start.Byte - b.SrcRange.Start.Byte
	})
	return attrs
}

func strPtr(s string) *string {
	return &s
}

// unknownMessage reports an unknown name and suggests the closest valid one.
func unknownMessage(what, name string, valid []string) string {
	msg := fmt.Sprintf("unknown %s %q", what, name)
	if s := suggest(name, valid); s != "" {
		return msg + fmt.Sprintf("; did you mean %q?", s)
	}
	if len(valid) > 0 {
		return msg + fmt.Sprintf(" (valid: %s)", strings.Join(valid, ", "))
	}
	return msg
}

// suggest returns the valid name closest to name when it is within two edits,
// or a third of the name's length for longer names.
func suggest(name string, valid []string) string {
	best, bestDist := "", math.MaxInt
	for _, v := range valid {
		if d := levenshtein.Distance(name, v, nil); d < bestDist {
			best, bestDist = v, d
		}
	}
	if best == "" || bestDist > max(2, len(name)/3) {
		return ""
	}
	return best
}

// analyzePalette parses the palette, recording symbols and color locations.
func (r *AnalysisResult) analyzePalette(body *hclsyntax.Body) {
	root, diags := palette.Parse(body, func(e palette.Entry) {
		if e.Attr.Name != "color" {
			r.Symbols[e.Path] = hclRangeToLSP(e.Attr.SrcRange)
		}
		r.Colors = append(r.Colors, ColorLocation{
			Range: hclRangeToLSP(e.Attr.Expr.Range()),
			Color: e.Color,
			IsRef: isReferenceExpr(e.Attr.Expr),
		})
	})
	for _, d := range diags {
		r.Diagnostics = append(r.Diagnostics, hclDiagToLSP(d))
	}
	r.Palette = root

	// Groups are symbols too; their definition is the block header.
	var walk func(body *hclsyntax.Body, prefix string)
	walk = func(body *hclsyntax.Body, prefix string) {
		for _, b := range body.Blocks {
			path := prefix + "." + b.Type
			r.Symbols[path] = hclRangeToLSP(b.DefRange())
			walk(b.Body, path)
		}
	}
	walk(body, "palette")
}

// recoverPalette builds the palette tree from a partially parsed body,
// dropping its diagnostics.
func (r *AnalysisResult) recoverPalette(body *hclsyntax.Body) {
	for _, block := range body.Blocks {
		if block.Type == "palette" {
			r.Palette, _ = palette.Parse(block.Body, nil)
			return
		}
	}
}

func (r *AnalysisResult) checkLabels(block *hclsyntax.Block, schema BlockSchema) bool {
	if len(block.Labels) == len(schema.Labels) {
		return true
	}
	if len(schema.Labels) == 0 {
		r.addError(block.LabelRanges[0], fmt.Sprintf("%s block takes no labels", block.Type))
	} else {
		r.addError(block.DefRange(), fmt.Sprintf("%s block needs a %s label, e.g. %s \"skin\" { ... }",
			block.Type, strings.Join(schema.Labels, ", "), block.Type))
	}
	return false
}

// analyzeBlock checks a block against its schema, evaluating every attribute.
func (r *AnalysisResult) analyzeBlock(block *hclsyntax.Block, path string, schema BlockSchema, ctx *hcl.EvalContext) {
	validAttrs := make([]string, 0, len(schema.Attributes))
	for name := range schema.Attributes {
		validAttrs = append(validAttrs, name)
	}
	slices.Sort(validAttrs)

	for _, attr := range sortedAttributes(block.Body) {
		name := attr.Name
		as, ok := schema.Attributes[name]
		if !ok {
			r.addError(attr.NameRange, unknownMessage("attribute", name, validAttrs)+" in "+path)
			continue
		}
		r.Attributes = append(r.Attributes, AttrLocation{
			Range: hclRangeToLSP(attr.NameRange),
			Block: path,
			Name:  name,
		})
		r.analyzeAttr(attr, path, as, ctx)
	}

	for _, name := range validAttrs {
		if schema.Attributes[name].Required {
			if _, ok := block.Body.Attributes[name]; !ok {
				r.addError(block.DefRange(), fmt.Sprintf("%s is missing required attribute %q", path, name))
			}
		}
	}

	validBlocks := make([]string, 0, len(schema.Blocks))
	for _, p := range schema.Blocks {
		validBlocks = append(validBlocks, strings.TrimPrefix(p, path+"."))
	}
	seen := make(map[string]bool)
	for _, child := range block.Body.Blocks {
		childPath := path + "." + child.Type
		cs, ok := BlockTypes[childPath]
		if !ok || !slices.Contains(schema.Blocks, childPath) {
			r.addError(child.TypeRange, unknownMessage("block", child.Type, validBlocks)+" in "+path)
			continue
		}
		if seen[child.Type] {
			r.addError(child.DefRange(), fmt.Sprintf("duplicate %s block", childPath))
			continue
		}
		seen[child.Type] = true
		if !r.checkLabels(child, cs) {
			continue
		}
		r.analyzeBlock(child, childPath, cs, ctx)
	}
}

func (r *AnalysisResult) analyzeAttr(attr *hclsyntax.Attribute, path string, as AttrSchema, ctx *hcl.EvalContext) {
	qualified := path + "." + attr.Name

	val, diags := attr.Expr.Value(ctx)
	if diags.HasErrors() {
		r.addError(attr.SrcRange, fmt.Sprintf("evaluating %s: %s", qualified, diags.Error()))
		return
	}
	if val.IsNull() {
		r.addError(attr.Expr.Range(), fmt.Sprintf("%s must not be null", qualified))
		return
	}

	switch as.Kind {
	case kindNumber:
		var f float64
		if err := fromCty(val, cty.Number, &f); err != nil {
			r.addError(attr.Expr.Range(), fmt.Sprintf("%s: %s", qualified, err))
			return
		}
		if f < as.Min || f > as.Max {
			r.addError(attr.Expr.Range(), fmt.Sprintf("%s = %v is outside %s", qualified, f, rangeString(as)))
		}
	case kindString:
		var s string
		if err := fromCty(val, cty.String, &s); err != nil {
			r.addError(attr.Expr.Range(), fmt.Sprintf("%s: %s", qualified, err))
		}
	case kindBool:
		var b bool
		if err := fromCty(val, cty.Bool, &b); err != nil {
			r.addError(attr.Expr.Range(), fmt.Sprintf("%s: %s", qualified, err))
		}
	case kindColor:
		c, err := palette.ResolveColor(val)
		if err != nil {
			r.addError(attr.Expr.Range(), fmt.Sprintf("%s: %s", qualified, err))
			return
		}
		r.Colors = append(r.Colors, ColorLocation{
			Range: hclRangeToLSP(attr.Expr.Range()),
			Color: c,
			IsRef: isReferenceExpr(attr.Expr),
		})
	case kindCurve:
		r.analyzeCurve(attr, qualified, val)
	}
}

func (r *AnalysisResult) analyzeCurve(attr *hclsyntax.Attribute, qualified string, val cty.Value) {
	var raw [][]float64
	if err := fromCty(val, cty.List(cty.List(cty.Number)), &raw); err != nil {
		r.addError(attr.Expr.Range(), fmt.Sprintf("%s: want a list of [x, y] pairs: %s", qualified, err))
		return
	}
	pts := make([]curve.Point, 0, len(raw))
	for i, pair := range raw {
		if len(pair) != 2 {
			r.addError(attr.Expr.Range(), fmt.Sprintf("%s: point %d has %d values, want [x, y]", qualified, i, len(pair)))
			return
		}
		pts = append(pts, curve.Point{X: pair[0], Y: pair[1]})
	}
	c, err := curve.New(pts...)
	if err != nil {
		r.addError(attr.Expr.Range(), fmt.Sprintf("%s: %s", qualified, err))
		return
	}

	first, last := c.Points()[0], c.Points()[c.Len()-1]
	if first.X > 0 || last.X < 1 {
		r.addWarning(attr.Expr.Range(), fmt.Sprintf("%s does not span x = 0 to 1; inputs outside [%v, %v] hold flat", qualified, first.X, last.X))
	}
	for _, p := range pts {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			r.addWarning(attr.Expr.Range(), fmt.Sprintf("%s has a point outside [0, 1]; it will be clamped", qualified))
			break
		}
	}
}

func fromCty(val cty.Value, want cty.Type, dst any) error {
	v, err := convert.Convert(val, want)
	if err != nil {
		return fmt.Errorf("expected %s, got %s", want.FriendlyName(), val.Type().FriendlyName())
	}
	return gocty.FromCtyValue(v, dst)
}

func rangeString(as AttrSchema) string {
	switch {
	case math.IsInf(as.Max, 1) && as.Min == 0:
		return "[0, ∞)"
	case as.Min == math.SmallestNonzeroFloat64:
		return fmt.Sprintf("(0, %v]", as.Max)
	}
	return fmt.Sprintf("[%v, %v]", as.Min, as.Max)
}

// isReferenceExpr returns true if the expression is a scope traversal
// (e.g. palette.skin) rather than a literal value.
func isReferenceExpr(expr hclsyntax.Expression) bool {
	switch expr.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		return true
	case *hclsyntax.RelativeTraversalExpr:
		return true
	default:
		return false
	}
}
