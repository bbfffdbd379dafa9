package lsp

import (
	"fmt"
	"strings"

	"github.com/jsvensson/lutforge/internal/color"
	"github.com/jsvensson/lutforge/internal/palette"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mitchellh/go-wordwrap"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// posInRange returns true if pos is within the range [r.Start, r.End).
// The end position is exclusive.
func posInRange(pos protocol.Position, r protocol.Range) bool {
	if pos.Line < r.Start.Line || pos.Line > r.End.Line {
		return false
	}
	if pos.Line == r.Start.Line && pos.Character < r.Start.Character {
		return false
	}
	if pos.Line == r.End.Line && pos.Character >= r.End.Character {
		return false
	}
	return true
}

// extractText extracts the source text at a given LSP range from document content.
func extractText(content string, r protocol.Range) string {
	lines := strings.Split(content, "\n")

	startLine := int(r.Start.Line)
	endLine := int(r.End.Line)

	if startLine >= len(lines) {
		return ""
	}
	if endLine >= len(lines) {
		endLine = len(lines) - 1
	}

	if startLine == endLine {
		line := lines[startLine]
		startChar := int(r.Start.Character)
		endChar := int(r.End.Character)
		if startChar > len(line) {
			startChar = len(line)
		}
		if endChar > len(line) {
			endChar = len(line)
		}
		return line[startChar:endChar]
	}

	// Multi-line range
	var parts []string
	for i := startLine; i <= endLine; i++ {
		line := lines[i]
		if i == startLine {
			startChar := int(r.Start.Character)
			if startChar > len(line) {
				startChar = len(line)
			}
			parts = append(parts, line[startChar:])
		} else if i == endLine {
			endChar := int(r.End.Character)
			if endChar > len(line) {
				endChar = len(line)
			}
			parts = append(parts, line[:endChar])
		} else {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "\n")
}

// hoverWidth is the column at which hover documentation is wrapped.
const hoverWidth = 72

// hover produces a Hover response for the given cursor position. A color
// function name shows its documentation; otherwise colors take precedence,
// followed by attribute names and block types. Returns nil if nothing
// documented is under the cursor.
func hover(result *AnalysisResult, content string, pos protocol.Position) *protocol.Hover {
	if result == nil {
		return nil
	}

	word, rng := wordAt(content, pos)
	rest := ""
	if word != "" {
		rest = strings.TrimLeft(lineAt(content, pos.Line)[rng.End.Character:], " \t")
	}

	if strings.HasPrefix(rest, "(") {
		for _, fn := range palette.FunctionDocs {
			if fn.Name == word {
				md := fmt.Sprintf("```hcl\n%s\n```\n\n%s", fn.Signature, wordwrap.WrapString(fn.Doc, hoverWidth))
				return markdownHover(md, rng)
			}
		}
	}

	for _, cl := range result.Colors {
		if !posInRange(pos, cl.Range) {
			continue
		}
		md := colorMarkdown(cl.Color)
		if cl.IsRef {
			md = fmt.Sprintf("**%s**\n\n%s", extractText(content, cl.Range), md)
		}
		return markdownHover(md, cl.Range)
	}

	for _, al := range result.Attributes {
		if !posInRange(pos, al.Range) {
			continue
		}
		as, ok := BlockTypes[al.Block].Attributes[al.Name]
		if !ok {
			return nil
		}
		md := fmt.Sprintf("**%s.%s** (%s)\n\n%s", al.Block, al.Name, as.Kind, wordwrap.WrapString(as.Doc, hoverWidth))
		return markdownHover(md, al.Range)
	}

	if strings.HasPrefix(rest, "{") || strings.HasPrefix(rest, "\"") {
		if path := blockPathAt(content, pos.Line, word); path != "" {
			md := fmt.Sprintf("**%s**\n\n%s", path, wordwrap.WrapString(BlockTypes[path].Doc, hoverWidth))
			return markdownHover(md, rng)
		}
	}

	return nil
}

func markdownHover(md string, rng protocol.Range) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: md,
		},
		Range: &rng,
	}
}

// colorMarkdown renders a color as hex, RGB and HSV.
func colorMarkdown(c color.Color) string {
	h, sat, v := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hsv()
	return fmt.Sprintf("`%s` \u00b7 `%s` \u00b7 `hsv(%.0f, %.0f%%, %.0f%%)`", c.Hex(), c.RGB(), h, sat*100, v*100)
}

func lineAt(content string, line uint32) string {
	lines := strings.Split(content, "\n")
	if int(line) >= len(lines) {
		return ""
	}
	return lines[line]
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// wordAt returns the identifier under pos and its range.
func wordAt(content string, pos protocol.Position) (string, protocol.Range) {
	line := lineAt(content, pos.Line)
	col := int(pos.Character)
	if col >= len(line) || !isWordByte(line[col]) {
		return "", protocol.Range{}
	}
	start, end := col, col
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	for end < len(line) && isWordByte(line[end]) {
		end++
	}
	return line[start:end], protocol.Range{
		Start: protocol.Position{Line: pos.Line, Character: uint32(start)},
		End:   protocol.Position{Line: pos.Line, Character: uint32(end)},
	}
}

// blockPathAt resolves a block header word on the given line to its schema
// path, taking the enclosing block into account for nested types.
func blockPathAt(content string, line uint32, word string) string {
	stack := enclosingBlocks(splitLines(content), int(line), 0)
	path := strings.Join(append(stack, word), ".")
	if _, ok := BlockTypes[path]; ok {
		return path
	}
	return ""
}

// textDocumentHover handles textDocument/hover requests.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := string(params.TextDocument.URI)

	result := s.getResult(uri)
	if result == nil {
		return nil, nil
	}

	content, ok := s.docs.Get(uri)
	if !ok {
		return nil, nil
	}

	return hover(result, content, params.Position), nil
}
