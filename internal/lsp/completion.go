package lsp

import (
	"sort"
	"strings"

	"github.com/jsvensson/lutforge/internal/color"
	"github.com/jsvensson/lutforge/internal/palette"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// splitLines splits content into lines, preserving empty trailing lines.
func splitLines(content string) []string {
	return strings.Split(content, "\n")
}

// complete produces completion items given an analysis result, document content,
// and cursor position. This is the core logic, decoupled from the LSP protocol
// handler for testability.
func complete(result *AnalysisResult, content string, pos protocol.Position) []protocol.CompletionItem {
	lines := splitLines(content)
	if int(pos.Line) >= len(lines) {
		return nil
	}

	line := lines[pos.Line]
	charPos := min(int(pos.Character), len(line))
	textBeforeCursor := line[:charPos]

	// Check for palette path completion: look for "palette." or "palette.xxx."
	if paletteItems := tryPaletteCompletion(result, textBeforeCursor); paletteItems != nil {
		return paletteItems
	}

	stack := enclosingBlocks(lines, int(pos.Line), charPos)
	path := strings.Join(stack, ".")

	if strings.Contains(textBeforeCursor, "=") {
		name, ok := valueAttribute(textBeforeCursor)
		if !ok {
			// Part way through a value.
			return nil
		}
		if path == "palette" || strings.HasPrefix(path, "palette.") {
			return valueCompletions()
		}
		as, ok := BlockTypes[path].Attributes[name]
		if !ok {
			return nil
		}
		switch as.Kind {
		case kindColor:
			return valueCompletions()
		case kindBool:
			return boolCompletions()
		}
		return nil
	}

	if path == "" {
		return topLevelCompletions()
	}
	schema, ok := BlockTypes[path]
	if !ok || schema.Freeform {
		return nil
	}
	return blockCompletions(path, schema, findDefinedAttributes(lines, int(pos.Line)))
}

// tryPaletteCompletion checks if the text before the cursor ends with a palette
// path prefix (e.g., "palette." or "palette.highlight.") and returns completion
// items for the children at that node in the palette tree.
func tryPaletteCompletion(result *AnalysisResult, textBeforeCursor string) []protocol.CompletionItem {
	if result == nil || result.Palette == nil {
		return nil
	}

	idx := strings.LastIndex(textBeforeCursor, "palette.")
	if idx == -1 {
		return nil
	}

	// Extract the path after "palette."
	pathStr := textBeforeCursor[idx+len("palette."):]

	// Walk the palette tree based on the path segments.
	// - "palette."              -> children of root (segments = nil)
	// - "palette.highlight."    -> children of "highlight" node
	// - "palette.high"          -> children of root (client filters partial match)
	// - "palette.highlight.lo"  -> children of "highlight" (client filters "lo")
	var segments []string
	if strings.Contains(pathStr, ".") {
		parts := strings.Split(pathStr, ".")
		segments = parts[:len(parts)-1]
	}

	node := result.Palette
	for _, seg := range segments {
		child, ok := node.Children[seg]
		if !ok {
			return nil
		}
		node = child
	}

	if len(node.Children) == 0 {
		return nil
	}

	return nodeChildrenToCompletionItems(node)
}

// nodeChildrenToCompletionItems converts a node's children into completion
// items, sorted by name.
func nodeChildrenToCompletionItems(node *color.Node) []protocol.CompletionItem {
	names := make([]string, 0, len(node.Children))
	for name := range node.Children {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]protocol.CompletionItem, 0, len(names))
	for _, name := range names {
		child := node.Children[name]
		item := protocol.CompletionItem{
			Label: name,
			Kind:  completionKindPtr(protocol.CompletionItemKindColor),
		}

		switch {
		case child.Children != nil:
			item.Kind = completionKindPtr(protocol.CompletionItemKindModule)
			detail := "color group"
			if child.Color != nil {
				detail = "color group " + child.Color.Hex()
			}
			item.Detail = &detail
		case child.Color != nil:
			hex := child.Color.Hex()
			item.Detail = &hex
		}

		items = append(items, item)
	}

	return items
}

// valueAttribute reports whether the cursor sits right after "name =" and
// returns the attribute name.
func valueAttribute(textBeforeCursor string) (string, bool) {
	before, after, ok := strings.Cut(textBeforeCursor, "=")
	if !ok || strings.TrimSpace(after) != "" {
		return "", false
	}
	name := strings.TrimSpace(before)
	if name == "" || strings.ContainsAny(name, " {\"") {
		return "", false
	}
	return name, true
}

// valueCompletions returns completion items for a color value position:
// function snippets and a palette reference trigger.
func valueCompletions() []protocol.CompletionItem {
	snippetFormat := protocol.InsertTextFormatSnippet

	items := make([]protocol.CompletionItem, 0, len(palette.FunctionDocs)+1)
	for _, fn := range palette.FunctionDocs {
		snippet := fn.Name + "(${1:color}, ${2:0.1})"
		items = append(items, protocol.CompletionItem{
			Label:            fn.Name,
			Kind:             completionKindPtr(protocol.CompletionItemKindFunction),
			Detail:           strPtr(fn.Signature),
			Documentation:    fn.Doc,
			InsertText:       &snippet,
			InsertTextFormat: &snippetFormat,
		})
	}

	paletteSnippet := "palette."
	items = append(items, protocol.CompletionItem{
		Label:      "palette",
		Kind:       completionKindPtr(protocol.CompletionItemKindVariable),
		Detail:     strPtr("palette reference"),
		InsertText: &paletteSnippet,
	})
	return items
}

func boolCompletions() []protocol.CompletionItem {
	kind := protocol.CompletionItemKindValue
	return []protocol.CompletionItem{
		{Label: "true", Kind: &kind},
		{Label: "false", Kind: &kind},
	}
}

// enclosingBlocks scans from the top of the file down to the cursor to find
// the block types the cursor is nested in, using brace nesting. Each entry is
// the first word of the line that opened the block.
func enclosingBlocks(lines []string, cursorLine, cursorChar int) []string {
	var stack []string

	for i := 0; i <= cursorLine && i < len(lines); i++ {
		line := lines[i]
		if i == cursorLine {
			line = line[:min(cursorChar, len(line))]
		}
		line = strings.TrimSpace(line)
		opens, closes := countBraces(line)

		// Process opening braces: extract the block name (first word on the line)
		if opens > 0 {
			parts := strings.Fields(line)
			if len(parts) >= 1 {
				name := strings.TrimSuffix(parts[0], "{")
				for range opens {
					stack = append(stack, name)
				}
			}
		}

		for range closes {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	return stack
}

// countBraces counts the braces on a line outside strings and comments.
func countBraces(line string) (opens, closes int) {
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '#', c == '/' && i+1 < len(line) && line[i+1] == '/':
			return opens, closes
		case c == '{':
			opens++
		case c == '}':
			closes++
		}
	}
	return opens, closes
}

// blockCompletions offers the attributes and child blocks of the block at
// path that are not yet defined.
func blockCompletions(path string, schema BlockSchema, defined map[string]bool) []protocol.CompletionItem {
	names := make([]string, 0, len(schema.Attributes))
	for name := range schema.Attributes {
		if !defined[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	items := make([]protocol.CompletionItem, 0, len(names)+len(schema.Blocks))
	for _, name := range names {
		as := schema.Attributes[name]
		insert := name + " = "
		items = append(items, protocol.CompletionItem{
			Label:         name,
			Kind:          completionKindPtr(protocol.CompletionItemKindProperty),
			Detail:        strPtr(as.Kind.String()),
			Documentation: as.Doc,
			InsertText:    &insert,
		})
	}

	snippetFormat := protocol.InsertTextFormatSnippet
	for _, child := range schema.Blocks {
		name := strings.TrimPrefix(child, path+".")
		snippet := name + " {\n  $0\n}"
		items = append(items, protocol.CompletionItem{
			Label:            name,
			Kind:             completionKindPtr(protocol.CompletionItemKindModule),
			Documentation:    BlockTypes[child].Doc,
			InsertText:       &snippet,
			InsertTextFormat: &snippetFormat,
		})
	}

	return items
}

// findDefinedAttributes scans the current block (from the nearest opening brace
// before cursorLine to cursorLine) and returns attribute names already defined
// (lines containing "name = ...").
func findDefinedAttributes(lines []string, cursorLine int) map[string]bool {
	defined := make(map[string]bool)

	// Scan backwards to find the opening brace of the current block
	startLine := 0
	depth := 0
	for i := cursorLine; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		opens, closes := countBraces(line)
		depth += closes - opens
		if depth < 0 {
			startLine = i
			break
		}
	}

	// Scan forward from startLine to cursorLine, collecting attribute names
	for i := startLine; i <= cursorLine; i++ {
		line := strings.TrimSpace(lines[i])
		if eqIdx := strings.Index(line, "="); eqIdx > 0 {
			name := strings.TrimSpace(line[:eqIdx])
			if !strings.Contains(name, " ") && !strings.Contains(name, "{") {
				defined[name] = true
			}
		}
	}

	return defined
}

// topLevelCompletions returns completion items for top-level block names.
func topLevelCompletions() []protocol.CompletionItem {
	snippetFormat := protocol.InsertTextFormatSnippet
	kind := protocol.CompletionItemKindSnippet

	var items []protocol.CompletionItem
	for _, name := range topLevelBlocks {
		schema := BlockTypes[name]
		snippet := name + " {\n  $0\n}"
		if name == "correction" {
			snippet = name + " \"${1:name}\" {\n  target    = $2\n  tolerance = ${3:0.2}\n  $0\n}"
		}
		items = append(items, protocol.CompletionItem{
			Label:            name,
			Kind:             &kind,
			Documentation:    schema.Doc,
			InsertText:       &snippet,
			InsertTextFormat: &snippetFormat,
		})
	}

	return items
}

// completionKindPtr returns a pointer to a CompletionItemKind.
func completionKindPtr(k protocol.CompletionItemKind) *protocol.CompletionItemKind {
	return &k
}

// textDocumentCompletion is the LSP handler for textDocument/completion requests.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	uri := string(params.TextDocument.URI)

	content, ok := s.docs.Get(uri)
	if !ok {
		return nil, nil
	}

	result := s.getResult(uri)
	if result == nil {
		return nil, nil
	}

	items := complete(result, content, params.Position)
	return items, nil
}
