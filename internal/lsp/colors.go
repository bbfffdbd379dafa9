package lsp

import (
	"math"
	"slices"
	"strings"

	"github.com/jsvensson/lutforge/internal/color"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// colorToLSP converts an 8-bit grade color to the protocol's float channels.
func colorToLSP(c color.Color) protocol.Color {
	return protocol.Color{
		Red:   float32(c.R) / 255.0,
		Green: float32(c.G) / 255.0,
		Blue:  float32(c.B) / 255.0,
		Alpha: 1.0,
	}
}

// documentColors lists every palette entry and correction target that
// resolved to a color, so editors can draw swatches next to them.
func documentColors(result *AnalysisResult) []protocol.ColorInformation {
	if result == nil {
		return []protocol.ColorInformation{}
	}

	infos := make([]protocol.ColorInformation, 0, len(result.Colors))
	for _, cl := range result.Colors {
		infos = append(infos, protocol.ColorInformation{
			Range: cl.Range,
			Color: colorToLSP(cl.Color),
		})
	}
	return infos
}

// colorPresentation answers a color picker edit. Only hex literals are
// rewritten; references and function calls such as darken(palette.sky, 0.2)
// keep their expression. Outside the palette block, palette entries with
// exactly the picked color are offered after the literal, so a correction
// target can be snapped to a named palette color.
func colorPresentation(content string, result *AnalysisResult, params *protocol.ColorPresentationParams) []protocol.ColorPresentation {
	picked := color.Color{
		R: channel(params.Color.Red),
		G: channel(params.Color.Green),
		B: channel(params.Color.Blue),
	}
	hex := picked.Hex()

	text := extractText(content, params.Range)
	quoted := strings.HasPrefix(text, `"`)
	if !quoted && !strings.HasPrefix(text, "#") {
		return []protocol.ColorPresentation{}
	}

	newText := hex
	if quoted {
		newText = `"` + hex + `"`
	}
	out := []protocol.ColorPresentation{{
		Label:    hex,
		TextEdit: &protocol.TextEdit{Range: params.Range, NewText: newText},
	}}

	if result == nil || result.Palette == nil {
		return out
	}
	lines := strings.Split(content, "\n")
	blocks := enclosingBlocks(lines, int(params.Range.Start.Line), int(params.Range.Start.Character))
	if len(blocks) > 0 && blocks[0] == "palette" {
		return out
	}
	for _, ref := range paletteRefs(result.Palette, "palette", picked) {
		out = append(out, protocol.ColorPresentation{
			Label:    ref,
			TextEdit: &protocol.TextEdit{Range: params.Range, NewText: ref},
		})
	}
	return out
}

// paletteRefs returns the references of every palette entry whose color is
// c, in name order. A group's own color is referenced through its color
// attribute.
func paletteRefs(node *color.Node, prefix string, c color.Color) []string {
	var refs []string
	names := make([]string, 0, len(node.Children))
	for name := range node.Children {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		child := node.Children[name]
		path := prefix + "." + name
		if child.Color != nil && *child.Color == c {
			if child.Children != nil {
				refs = append(refs, path+".color")
			} else {
				refs = append(refs, path)
			}
		}
		if child.Children != nil {
			refs = append(refs, paletteRefs(child, path, c)...)
		}
	}
	return refs
}

// channel converts a picker channel in [0, 1] to 8 bits, rounding to nearest.
func channel(v float32) uint8 {
	return uint8(math.Round(color.Clamp01(float64(v)) * 255))
}

func (s *Server) textDocumentDocumentColor(_ *glsp.Context, params *protocol.DocumentColorParams) ([]protocol.ColorInformation, error) {
	return documentColors(s.getResult(string(params.TextDocument.URI))), nil
}

func (s *Server) textDocumentColorPresentation(_ *glsp.Context, params *protocol.ColorPresentationParams) ([]protocol.ColorPresentation, error) {
	uri := string(params.TextDocument.URI)
	content, ok := s.docs.Get(uri)
	if !ok {
		return []protocol.ColorPresentation{}, nil
	}
	return colorPresentation(content, s.getResult(uri), params), nil
}
